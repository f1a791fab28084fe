// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"shopper/internal/catalog"
	"shopper/internal/models"
	"shopper/internal/store"
)

// ProductStore is the write side of the products table.
type ProductStore interface {
	Create(ctx context.Context, p *models.Product) (*models.Product, error)
	Update(ctx context.Context, p *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductInput carries the fields of a new product.
type ProductInput struct {
	Name       string
	Price      float64
	CategoryID *uuid.UUID
	Metadata   models.Metadata
}

// ProductPatch carries a partial update. Nil fields are left unchanged.
type ProductPatch struct {
	Name       *string
	Price      *float64
	CategoryID *uuid.UUID
	Metadata   models.Metadata
}

// ProductService manages products. Category references are checked
// against the category provider.
type ProductService struct {
	store      ProductStore
	products   catalog.Provider[models.Product]
	categories catalog.Provider[models.CategoryNode]
}

// NewProductService wires a ProductService.
func NewProductService(s ProductStore, products catalog.Provider[models.Product], categories catalog.Provider[models.CategoryNode]) *ProductService {
	return &ProductService{store: s, products: products, categories: categories}
}

// List returns every product.
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.products.GetAll(ctx)
}

// Get returns a product or nil.
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.products.Get(ctx, id)
}

func (s *ProductService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	c, err := s.categories.Get(ctx, *id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrInvalidCategory
	}
	return nil
}

// Create inserts a new product.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	p, err := s.store.Create(ctx, &models.Product{
		Name:       in.Name,
		Price:      in.Price,
		CategoryID: in.CategoryID,
		Metadata:   in.Metadata,
	})
	if errors.Is(err, store.ErrReferenced) {
		return nil, ErrInvalidCategory
	}
	if err != nil {
		return nil, err
	}
	s.products.Invalidate()
	return p, nil
}

// Update applies patch to the product with the given id.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*models.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	if err := s.checkCategory(ctx, patch.CategoryID); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.CategoryID != nil {
		p.CategoryID = patch.CategoryID
	}
	if patch.Metadata != nil {
		p.Metadata = patch.Metadata
	}

	updated, err := s.store.Update(ctx, p)
	if errors.Is(err, store.ErrReferenced) {
		return nil, ErrInvalidCategory
	}
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Deleted between the read and the write.
		return nil, ErrProductNotFound
	}
	s.products.Invalidate()
	return updated, nil
}

// Delete removes a product.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrProductNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.products.Invalidate()
	return nil
}
