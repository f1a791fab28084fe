// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"shopper/internal/models"
)

// RoleStore manages roles and resolves the permissions granted to users.
type RoleStore struct {
	db *sql.DB
}

// NewRoleStore creates a new RoleStore.
func NewRoleStore(db *sql.DB) *RoleStore {
	return &RoleStore{db: db}
}

func scanRole(s scanner) (*models.Role, error) {
	var r models.Role
	if err := s.Scan(&r.ID, &r.Name, &r.Permissions); err != nil {
		return nil, err
	}
	return &r, nil
}

// FindByID retrieves a role by ID. Returns nil if not found.
func (s *RoleStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, permissions FROM roles WHERE id = $1`, id)
	r, err := scanRole(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find role by id: %w", err)
	}
	return r, nil
}

// List returns all roles ordered by name.
func (s *RoleStore) List(ctx context.Context) ([]models.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, permissions FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []models.Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, *r)
	}
	return roles, rows.Err()
}

// Create inserts a new role and returns it.
func (s *RoleStore) Create(ctx context.Context, r *models.Role) (*models.Role, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.Must(uuid.NewV7())
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO roles (id, name, permissions) VALUES ($1, $2, $3)
		RETURNING id, name, permissions
	`, r.ID, r.Name, r.Permissions)
	created, err := scanRole(row)
	if err != nil {
		return nil, fmt.Errorf("create role: %w", classify(err))
	}
	return created, nil
}

// Update saves the name and permissions of a role.
func (s *RoleStore) Update(ctx context.Context, r *models.Role) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE roles SET name = $1, permissions = $2 WHERE id = $3
	`, r.Name, r.Permissions, r.ID)
	if err != nil {
		return fmt.Errorf("update role: %w", classify(err))
	}
	return nil
}

// Delete removes a role. Assignments to users are removed with it.
func (s *RoleStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

// PermissionsForUser returns the union of the permissions of every role
// assigned to the user.
func (s *RoleStore) PermissionsForUser(ctx context.Context, userID uuid.UUID) (models.Permissions, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.permissions
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("user permissions: %w", err)
	}
	defer rows.Close()

	merged := models.Permissions{}
	for rows.Next() {
		var p models.Permissions
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan permissions: %w", err)
		}
		merged = merged.Merge(p)
	}
	return merged, rows.Err()
}
