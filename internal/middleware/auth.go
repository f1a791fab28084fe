// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"shopper/internal/auth"
	"shopper/internal/models"
	"shopper/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// PrincipalKey is the context key for the authenticated principal.
	PrincipalKey contextKey = "principal"
)

// Error details returned by the auth middleware.
const (
	detailNotAuthenticated = "Not authenticated"
	detailInvalidToken     = "Invalid token or expired token."
	detailUserNotFound     = "Authorized user not found"
	detailNotEnoughRights  = "You have not enough rights"
)

// TokenVerifier checks a raw bearer token.
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// SessionLookup finds a live session by id.
type SessionLookup interface {
	Get(ctx context.Context, id string) (*session.Data, error)
}

// Principal identifies the caller of an authenticated request. User and
// Permissions are filled in by Gate.Require on first use.
type Principal struct {
	UserID    uuid.UUID
	SessionID string

	User        *models.User
	Permissions models.Permissions
}

// Authenticate requires a valid "Authorization: Bearer" token whose
// session is still live, and stores the Principal in the request context.
func Authenticate(tokens TokenVerifier, sessions SessionLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeDetail(w, http.StatusForbidden, detailNotAuthenticated)
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				slog.Debug("token rejected", "error", err)
				rejectToken(w)
				return
			}

			sess, err := sessions.Get(r.Context(), claims.ID)
			if err != nil {
				slog.Error("session lookup failed", "error", err)
				writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			if sess == nil {
				rejectToken(w)
				return
			}

			// Verify has already checked the subject.
			userID, _ := claims.UserID()
			p := &Principal{UserID: userID, SessionID: claims.ID}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), PrincipalKey, p)))
		})
	}
}

func rejectToken(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusForbidden, detailInvalidToken)
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// PrincipalFromCtx extracts the principal from the request context.
// Returns nil if the request was not authenticated.
func PrincipalFromCtx(ctx context.Context) *Principal {
	p, _ := ctx.Value(PrincipalKey).(*Principal)
	return p
}

// UserFinder loads users by id.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// PermissionLoader returns the merged permissions of a user's roles.
type PermissionLoader interface {
	PermissionsForUser(ctx context.Context, userID uuid.UUID) (models.Permissions, error)
}

// Gate enforces role permissions on authenticated requests.
type Gate struct {
	users UserFinder
	roles PermissionLoader
}

// NewGate returns a Gate reading users and their role permissions.
func NewGate(users UserFinder, roles PermissionLoader) *Gate {
	return &Gate{users: users, roles: roles}
}

// Require allows the request only if the caller holds every one of perms
// on entity. Must be applied after Authenticate.
func (g *Gate) Require(entity models.Entity, perms ...models.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromCtx(r.Context())
			if p == nil {
				writeDetail(w, http.StatusForbidden, detailNotAuthenticated)
				return
			}

			if err := g.load(r.Context(), p); err != nil {
				slog.Error("permission lookup failed", "user_id", p.UserID, "error", err)
				writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
				return
			}
			if p.User == nil {
				writeDetail(w, http.StatusForbidden, detailUserNotFound)
				return
			}
			if !p.Permissions.Allows(entity, perms...) {
				writeDetail(w, http.StatusForbidden, detailNotEnoughRights)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser requires the authenticated user to still exist. Must be
// applied after Authenticate.
func (g *Gate) CurrentUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromCtx(r.Context())
		if p == nil {
			writeDetail(w, http.StatusForbidden, detailNotAuthenticated)
			return
		}
		if err := g.load(r.Context(), p); err != nil {
			slog.Error("user lookup failed", "user_id", p.UserID, "error", err)
			writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if p.User == nil {
			writeDetail(w, http.StatusForbidden, detailUserNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// load fills in the principal's user and permissions once per request.
func (g *Gate) load(ctx context.Context, p *Principal) error {
	if p.Permissions != nil {
		return nil
	}
	u, err := g.users.FindByID(ctx, p.UserID)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	perms, err := g.roles.PermissionsForUser(ctx, p.UserID)
	if err != nil {
		return err
	}
	p.User = u
	p.Permissions = perms
	return nil
}
