// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"shopper/internal/middleware"
	"shopper/internal/models"
	"shopper/internal/service"
)

// UserManager manages user accounts.
type UserManager interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id uuid.UUID, patch service.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddRoles(ctx context.Context, id uuid.UUID, roleIDs []uuid.UUID) (*models.User, error)
	SetupTOTP(ctx context.Context, id uuid.UUID) (*service.TOTPSetup, error)
	VerifyTOTP(ctx context.Context, id uuid.UUID, code string) error
	ResetTOTP(ctx context.Context, id uuid.UUID) error
}

// Users groups the self-service and admin user handlers.
type Users struct {
	users UserManager
}

// NewUsers creates a new Users handler group.
func NewUsers(users UserManager) *Users {
	return &Users{users: users}
}

const userNotFound = "User not found"

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type updateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=64"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Password *string `json:"password" validate:"omitempty,min=1,max=72"`
}

type addRolesRequest struct {
	RoleIDs []uuid.UUID `json:"role_ids" validate:"required,min=1"`
}

type verifyTOTPRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Register creates an account. Taken fields are reported as
// 400 {"fields": [...]}.
func (h *Users) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, u)
}

// Me returns the authenticated user. Runs behind Gate.CurrentUser.
func (h *Users) Me(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	if p == nil || p.User == nil {
		writeError(w, http.StatusForbidden, "Authorized user not found")
		return
	}
	writeJSON(w, http.StatusOK, p.User)
}

// SetupTOTP generates a new 2FA secret for the authenticated user.
func (h *Users) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	if p == nil {
		writeError(w, http.StatusForbidden, "Not authenticated")
		return
	}
	setup, err := h.users.SetupTOTP(r.Context(), p.UserID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setup)
}

// VerifyTOTP enables 2FA once the user proves the authenticator works.
func (h *Users) VerifyTOTP(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	if p == nil {
		writeError(w, http.StatusForbidden, "Not authenticated")
		return
	}
	var req verifyTOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.users.VerifyTOTP(r.Context(), p.UserID, req.Code); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"totp_enabled": true})
}

// --- Admin collection ---

// List returns every user.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Get returns one user.
func (h *Users) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, userNotFound)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, userNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Update patches username, email or password.
func (h *Users) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, userNotFound)
	if !ok {
		return
	}
	var req updateUserRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.users.Update(r.Context(), id, service.UserPatch{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, u)
}

// Delete removes a user.
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, userNotFound)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddRoles grants roles to a user.
func (h *Users) AddRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, userNotFound)
	if !ok {
		return
	}
	var req addRolesRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.users.AddRoles(r.Context(), id, req.RoleIDs)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, u)
}

// ResetTOTP clears a user's 2FA enrolment.
func (h *Users) ResetTOTP(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, userNotFound)
	if !ok {
		return
	}
	if err := h.users.ResetTOTP(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
