// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"shopper/internal/auth"
	"shopper/internal/middleware"
)

// Authenticator logs users in and out.
type Authenticator interface {
	Login(ctx context.Context, identifier, password, code string) (auth.Token, error)
	Logout(ctx context.Context, sessionID string) error
}

// Auth groups the token issuing handlers.
type Auth struct {
	auth Authenticator
}

// NewAuth creates a new Auth handler group.
func NewAuth(a Authenticator) *Auth {
	return &Auth{auth: a}
}

type loginRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required"`
	Password        string `json:"password" validate:"required"`
	TOTPCode        string `json:"totp_code" validate:"omitempty,len=6,numeric"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Expires int64  `json:"expires"`
}

// Login exchanges credentials for a bearer token.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	tok, err := a.auth.Login(r.Context(), req.EmailOrUsername, req.Password, req.TOTPCode)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, loginResponse{Token: tok.Value, Expires: tok.Expires.Unix()})
}

// Logout revokes the token used for this request.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	p := middleware.PrincipalFromCtx(r.Context())
	if p == nil {
		writeError(w, http.StatusForbidden, "Not authenticated")
		return
	}
	if err := a.auth.Logout(r.Context(), p.SessionID); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
