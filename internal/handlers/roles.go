// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"shopper/internal/models"
	"shopper/internal/service"
)

// RoleManager manages roles.
type RoleManager interface {
	List(ctx context.Context) ([]models.Role, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Role, error)
	Create(ctx context.Context, name string, perms models.Permissions) (*models.Role, error)
	Update(ctx context.Context, id uuid.UUID, patch service.RolePatch) (*models.Role, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Roles groups the role handlers.
type Roles struct {
	roles RoleManager
}

// NewRoles creates a new Roles handler group.
func NewRoles(roles RoleManager) *Roles {
	return &Roles{roles: roles}
}

const roleNotFound = "Role not found"

type createRoleRequest struct {
	Name        string             `json:"name" validate:"required,max=100"`
	Permissions models.Permissions `json:"permissions" validate:"required"`
}

type updateRoleRequest struct {
	Name        *string            `json:"name" validate:"omitempty,min=1,max=100"`
	Permissions models.Permissions `json:"permissions"`
}

// List returns every role.
func (h *Roles) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

// Get returns one role.
func (h *Roles) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, roleNotFound)
	if !ok {
		return
	}
	role, err := h.roles.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if role == nil {
		writeError(w, http.StatusNotFound, roleNotFound)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// Create adds a role.
func (h *Roles) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !decode(w, r, &req) {
		return
	}
	role, err := h.roles.Create(r.Context(), req.Name, req.Permissions)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

// Update renames a role or replaces its permissions.
func (h *Roles) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, roleNotFound)
	if !ok {
		return
	}
	var req updateRoleRequest
	if !decode(w, r, &req) {
		return
	}
	role, err := h.roles.Update(r.Context(), id, service.RolePatch{
		Name:        req.Name,
		Permissions: req.Permissions,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, role)
}

// Delete removes a role.
func (h *Roles) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, roleNotFound)
	if !ok {
		return
	}
	if err := h.roles.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
