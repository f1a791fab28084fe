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

// RoleStore is the write side of the roles table.
type RoleStore interface {
	Create(ctx context.Context, r *models.Role) (*models.Role, error)
	Update(ctx context.Context, r *models.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RolePatch carries a partial role update. Nil fields are left unchanged;
// a non-nil Permissions replaces the whole map.
type RolePatch struct {
	Name        *string
	Permissions models.Permissions
}

// RoleService manages roles.
type RoleService struct {
	store RoleStore
	roles catalog.Provider[models.Role]
}

// NewRoleService wires a RoleService.
func NewRoleService(s RoleStore, roles catalog.Provider[models.Role]) *RoleService {
	return &RoleService{store: s, roles: roles}
}

// List returns every role.
func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	return s.roles.GetAll(ctx)
}

// Get returns a role or nil.
func (s *RoleService) Get(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	return s.roles.Get(ctx, id)
}

// Create inserts a role after validating its permissions.
func (s *RoleService) Create(ctx context.Context, name string, perms models.Permissions) (*models.Role, error) {
	if perms == nil {
		perms = models.Permissions{}
	}
	if err := perms.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPermissions, err)
	}

	r, err := s.store.Create(ctx, &models.Role{Name: name, Permissions: perms})
	if errors.Is(err, store.ErrConflict) {
		return nil, ErrRoleExists
	}
	if err != nil {
		return nil, err
	}
	s.roles.Invalidate()
	return r, nil
}

// Update applies patch to the role with the given id.
func (s *RoleService) Update(ctx context.Context, id uuid.UUID, patch RolePatch) (*models.Role, error) {
	r, err := s.roles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRoleNotFound
	}

	if patch.Name != nil {
		r.Name = *patch.Name
	}
	if patch.Permissions != nil {
		if err := patch.Permissions.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPermissions, err)
		}
		r.Permissions = patch.Permissions
	}

	err = s.store.Update(ctx, r)
	if errors.Is(err, store.ErrConflict) {
		return nil, ErrRoleExists
	}
	if err != nil {
		return nil, err
	}
	s.roles.Invalidate()
	return r, nil
}

// Delete removes a role and its assignments.
func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) error {
	r, err := s.roles.Get(ctx, id)
	if err != nil {
		return err
	}
	if r == nil {
		return ErrRoleNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.roles.Invalidate()
	return nil
}
