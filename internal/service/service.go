// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package service holds the catalog's business rules. Services read
// through catalog providers, write through stores and invalidate the
// provider after every successful write.
package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidParent means a category's parent does not exist.
	ErrInvalidParent = errors.New("invalid parent id")
	// ErrInvalidCategory means the referenced category does not exist.
	ErrInvalidCategory = errors.New("invalid category id")
	// ErrCategoryCycle means the new parent is the category itself or one
	// of its descendants.
	ErrCategoryCycle = errors.New("category cannot be moved under itself")
	// ErrCategoryHasChildren means the category still has sub-categories.
	ErrCategoryHasChildren = errors.New("category has sub-categories")

	// ErrProductNotFound means the product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrRoleNotFound means the role does not exist.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleExists means another role already has that name.
	ErrRoleExists = errors.New("role name already exists")
	// ErrInvalidPermissions wraps a permissions validation failure.
	ErrInvalidPermissions = errors.New("invalid permissions")

	// ErrUserNotFound means the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned for an unknown login or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username, email or password")
	// ErrTooManyAttempts is returned while a login is throttled.
	ErrTooManyAttempts = errors.New("too many failed login attempts")
	// ErrTOTPRequired means the user has 2FA enabled and sent no code.
	ErrTOTPRequired = errors.New("two-factor code required")
	// ErrInvalidTOTP means the 2FA code did not verify.
	ErrInvalidTOTP = errors.New("invalid two-factor code")
	// ErrTOTPNotSetup means verification was attempted before setup.
	ErrTOTPNotSetup = errors.New("two-factor authentication is not set up")
)

// ConflictError lists the unique fields a write collided with.
type ConflictError struct {
	Fields []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("already taken: %s", strings.Join(e.Fields, ", "))
}

// mustExist panics when a value that a successful write guarantees is
// missing. The HTTP recoverer turns the panic into a 500.
func mustExist[T any](v *T, what string) *T {
	if v == nil {
		panic(fmt.Sprintf("%s missing after successful write", what))
	}
	return v
}
