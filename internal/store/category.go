// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shopper/internal/models"
)

// CategoryStore manages categories in the database. It is the accessor
// the category tree cache reads from and holds no cached state itself.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, parent_id, metadata, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(s scanner) (*models.Category, error) {
	var c models.Category
	err := s.Scan(&c.ID, &c.Name, &c.ParentID, &c.Metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountAndMaxUpdatedAt returns the number of category rows and the latest
// updated_at among them, read live from the table. An empty table reports
// the Unix epoch as its latest update.
func (s *CategoryStore) CountAndMaxUpdatedAt(ctx context.Context) (int, time.Time, error) {
	var (
		count int
		last  time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MAX(updated_at), to_timestamp(0))
		FROM categories
	`).Scan(&count, &last)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("category fingerprint: %w", err)
	}
	return count, last, nil
}

// ListAll returns every category row.
func (s *CategoryStore) ListAll(ctx context.Context) ([]models.Category, error) {
	return s.list(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at, id`)
}

// ChildrenOf returns the direct children of the given category.
func (s *CategoryStore) ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]models.Category, error) {
	return s.list(ctx, `
		SELECT `+categoryColumns+` FROM categories
		WHERE parent_id = $1
		ORDER BY created_at, id
	`, parentID)
}

func (s *CategoryStore) list(ctx context.Context, query string, args ...any) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Create inserts a new category and returns it.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.Must(uuid.NewV7())
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (id, name, parent_id, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING `+categoryColumns,
		c.ID, c.Name, c.ParentID, c.Metadata,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", classify(err))
	}
	return result, nil
}

// Update modifies an existing category and bumps its updated_at.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE categories SET
			name = $1, parent_id = $2, metadata = $3, updated_at = NOW()
		WHERE id = $4
	`, c.Name, c.ParentID, c.Metadata, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", classify(err))
	}
	return nil
}

// Delete removes a category by ID. It fails with ErrReferenced while the
// category still has sub-categories.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", classify(err))
	}
	return nil
}
