// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"

	"shopper/internal/auth"
)

// LoginLimiter throttles failed logins per identifier.
type LoginLimiter interface {
	Blocked(ctx context.Context, identifier string) bool
	Fail(ctx context.Context, identifier string)
	Reset(ctx context.Context, identifier string)
}

// SessionStore tracks live sessions.
type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	Destroy(ctx context.Context, id string) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID, sessionID string) (auth.Token, error)
}

// AuthService exchanges credentials for access tokens.
type AuthService struct {
	users    UserStore
	limiter  LoginLimiter
	sessions SessionStore
	tokens   TokenIssuer
}

// NewAuthService wires an AuthService.
func NewAuthService(users UserStore, limiter LoginLimiter, sessions SessionStore, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, limiter: limiter, sessions: sessions, tokens: tokens}
}

// Login verifies the identifier (username or email), the password and,
// for users with 2FA enabled, the TOTP code. On success it opens a
// session and returns a token bound to it.
func (s *AuthService) Login(ctx context.Context, identifier, password, code string) (auth.Token, error) {
	if s.limiter.Blocked(ctx, identifier) {
		return auth.Token{}, ErrTooManyAttempts
	}

	u, err := s.users.FindByLogin(ctx, identifier)
	if err != nil {
		return auth.Token{}, err
	}
	if u == nil || !s.users.CheckPassword(u, password) {
		s.limiter.Fail(ctx, identifier)
		return auth.Token{}, ErrInvalidCredentials
	}

	if u.Requires2FA() {
		if code == "" {
			return auth.Token{}, ErrTOTPRequired
		}
		if !totp.Validate(code, *u.TOTPSecret) {
			s.limiter.Fail(ctx, identifier)
			return auth.Token{}, ErrInvalidTOTP
		}
	}
	s.limiter.Reset(ctx, identifier)

	sid, err := s.sessions.Create(ctx, u.ID)
	if err != nil {
		return auth.Token{}, err
	}
	tok, err := s.tokens.Issue(u.ID, sid)
	if err != nil {
		return auth.Token{}, err
	}

	slog.Info("user logged in", "user_id", u.ID, "username", u.Username)
	return tok, nil
}

// Logout revokes the session behind a token.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Destroy(ctx, sessionID)
}
