// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"shopper/internal/models"
	"shopper/internal/store"
)

// totpIssuer is shown by authenticator apps next to the account name.
const totpIssuer = "Shopper"

// UserStore is the users table.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByLogin(ctx context.Context, identifier string) (*models.User, error)
	FindConflicts(ctx context.Context, email, username string, exclude uuid.UUID) ([]string, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, username, email, password string) (*models.User, error)
	Update(ctx context.Context, u *models.User, password string) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error
	SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error
	EnableTOTP(ctx context.Context, userID uuid.UUID) error
	ResetTOTP(ctx context.Context, userID uuid.UUID) error
	CheckPassword(u *models.User, password string) bool
}

// UserPatch carries a partial user update. Nil fields are left unchanged.
type UserPatch struct {
	Username *string
	Email    *string
	Password *string
}

// TOTPSetup is what a user needs to enrol an authenticator app.
type TOTPSetup struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
	// QRCode is a base64-encoded PNG of URL.
	QRCode string `json:"qr_code"`
}

// UserService manages user accounts and their 2FA enrolment.
type UserService struct {
	store UserStore
}

// NewUserService wires a UserService.
func NewUserService(s UserStore) *UserService {
	return &UserService{store: s}
}

// Register creates an account. A taken email or username yields a
// *ConflictError naming the fields.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if err := s.checkConflicts(ctx, email, username, uuid.Nil); err != nil {
		return nil, err
	}

	u, err := s.store.Create(ctx, username, email, password)
	if errors.Is(err, store.ErrConflict) {
		// Lost a race with a concurrent registration.
		if cerr := s.checkConflicts(ctx, email, username, uuid.Nil); cerr != nil {
			return nil, cerr
		}
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) checkConflicts(ctx context.Context, email, username string, exclude uuid.UUID) error {
	fields, err := s.store.FindConflicts(ctx, email, username, exclude)
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		return &ConflictError{Fields: fields}
	}
	return nil
}

// Get returns a user or nil.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.FindByID(ctx, id)
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.List(ctx)
}

func (s *UserService) require(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Update applies patch to the user with the given id.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, patch UserPatch) (*models.User, error) {
	u, err := s.require(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if err := s.checkConflicts(ctx, u.Email, u.Username, u.ID); err != nil {
		return nil, err
	}

	var password string
	if patch.Password != nil {
		password = *patch.Password
	}
	err = s.store.Update(ctx, u, password)
	if errors.Is(err, store.ErrConflict) {
		if cerr := s.checkConflicts(ctx, u.Email, u.Username, u.ID); cerr != nil {
			return nil, cerr
		}
	}
	if err != nil {
		return nil, err
	}

	u, err = s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mustExist(u, "user "+id.String()), nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.require(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// AddRoles assigns the given roles to a user.
func (s *UserService) AddRoles(ctx context.Context, id uuid.UUID, roleIDs []uuid.UUID) (*models.User, error) {
	if _, err := s.require(ctx, id); err != nil {
		return nil, err
	}

	err := s.store.AddRoles(ctx, id, roleIDs)
	if errors.Is(err, store.ErrReferenced) {
		return nil, ErrRoleNotFound
	}
	if err != nil {
		return nil, err
	}

	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mustExist(u, "user "+id.String()), nil
}

// SetupTOTP generates a fresh TOTP secret for the user. 2FA stays off
// until VerifyTOTP succeeds with a code from the new secret.
func (s *UserService) SetupTOTP(ctx context.Context, id uuid.UUID) (*TOTPSetup, error) {
	u, err := s.require(ctx, id)
	if err != nil {
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: u.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("totp generate: %w", err)
	}

	if err := s.store.SetTOTPSecret(ctx, u.ID, key.Secret()); err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}

	return &TOTPSetup{
		Secret: key.Secret(),
		URL:    key.URL(),
		QRCode: base64.StdEncoding.EncodeToString(png),
	}, nil
}

// VerifyTOTP checks code against the pending secret and enables 2FA.
func (s *UserService) VerifyTOTP(ctx context.Context, id uuid.UUID, code string) error {
	u, err := s.require(ctx, id)
	if err != nil {
		return err
	}
	if u.TOTPSecret == nil {
		return ErrTOTPNotSetup
	}
	if !totp.Validate(code, *u.TOTPSecret) {
		return ErrInvalidTOTP
	}
	return s.store.EnableTOTP(ctx, u.ID)
}

// ResetTOTP disables 2FA and forgets the secret.
func (s *UserService) ResetTOTP(ctx context.Context, id uuid.UUID) error {
	if _, err := s.require(ctx, id); err != nil {
		return err
	}
	return s.store.ResetTOTP(ctx, id)
}
