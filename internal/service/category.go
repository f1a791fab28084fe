// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"shopper/internal/catalog"
	"shopper/internal/models"
	"shopper/internal/store"
)

// CategoryStore is the write side of the categories table.
type CategoryStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// InvalidationLog records why the category cache was invalidated.
type InvalidationLog interface {
	Log(ctx context.Context, entityType string, entityID uuid.UUID, action string)
}

// CategoryInput carries the fields of a new category.
type CategoryInput struct {
	Name     string
	ParentID *uuid.UUID
	Metadata models.Metadata
}

// CategoryPatch carries a partial update. Nil fields are left unchanged.
type CategoryPatch struct {
	Name     *string
	ParentID *uuid.UUID
	Metadata models.Metadata
}

// CategoryService reads categories through a tree provider and writes
// them through the store.
type CategoryService struct {
	store CategoryStore
	tree  catalog.Provider[models.CategoryNode]
	log   InvalidationLog
}

// NewCategoryService wires a CategoryService. log may be nil.
func NewCategoryService(s CategoryStore, tree catalog.Provider[models.CategoryNode], log InvalidationLog) *CategoryService {
	return &CategoryService{store: s, tree: tree, log: log}
}

// Roots returns the top-level categories, each with its full subtree.
func (s *CategoryService) Roots(ctx context.Context) ([]models.CategoryNode, error) {
	all, err := s.tree.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	roots := make([]models.CategoryNode, 0, len(all))
	for _, n := range all {
		if n.IsRoot() {
			roots = append(roots, n)
		}
	}
	return roots, nil
}

// Get returns a category at any depth with its subtree, or nil.
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.CategoryNode, error) {
	return s.tree.Get(ctx, id)
}

// Create inserts a category under an existing parent, or as a root.
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.CategoryNode, error) {
	if in.ParentID != nil {
		parent, err := s.tree.Get(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrInvalidParent
		}
	}

	created, err := s.store.Create(ctx, &models.Category{
		Name:     in.Name,
		ParentID: in.ParentID,
		Metadata: in.Metadata,
	})
	if errors.Is(err, store.ErrReferenced) {
		return nil, ErrInvalidParent
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, created.ID, "create")

	node, err := s.tree.Get(ctx, created.ID)
	if err != nil {
		return nil, err
	}
	return mustExist(node, "category "+created.ID.String()), nil
}

// Update applies patch to the category with the given id.
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*models.CategoryNode, error) {
	current, err := s.tree.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrInvalidCategory
	}

	if patch.ParentID != nil {
		parent, err := s.tree.Get(ctx, *patch.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, ErrInvalidParent
		}
		if current.Contains(*patch.ParentID) {
			return nil, ErrCategoryCycle
		}
	}

	row, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrInvalidCategory
	}
	if patch.Name != nil {
		row.Name = *patch.Name
	}
	if patch.ParentID != nil {
		row.ParentID = patch.ParentID
	}
	if patch.Metadata != nil {
		row.Metadata = patch.Metadata
	}

	err = s.store.Update(ctx, row)
	if errors.Is(err, store.ErrReferenced) {
		return nil, ErrInvalidParent
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id, "update")

	node, err := s.tree.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return mustExist(node, "category "+id.String()), nil
}

// Delete removes a category that has no sub-categories. Products in it
// are detached by the database.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	current, err := s.tree.Get(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrInvalidCategory
	}
	if len(current.SubCategories) > 0 {
		return ErrCategoryHasChildren
	}

	err = s.store.Delete(ctx, id)
	if errors.Is(err, store.ErrReferenced) {
		return ErrCategoryHasChildren
	}
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	s.invalidate(ctx, id, "delete")
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context, id uuid.UUID, action string) {
	s.tree.Invalidate()
	if s.log != nil {
		s.log.Log(ctx, "category", id, action)
	}
}
