// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all catalog
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
// Lookups by id return (nil, nil) when the row does not exist.
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("store: unique constraint violated")

	// ErrReferenced is returned when a write violates a foreign key, either
	// because the referenced row is missing or because other rows still
	// reference the row being deleted.
	ErrReferenced = errors.New("store: foreign key violated")
)

// PostgreSQL error codes mapped to store errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// classify maps driver errors onto store sentinel errors, keeping the
// original error in the chain. Other errors are returned unchanged.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return errors.Join(ErrConflict, err)
	case pgForeignKeyViolation:
		return errors.Join(ErrReferenced, err)
	}
	return err
}
