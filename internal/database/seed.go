// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"shopper/internal/models"
)

// Default development credentials created by Seed.
const (
	seedUsername = "admin"
	seedEmail    = "admin@shopper.local"
	seedPassword = "admin"
)

// Seed populates the database with initial development data: the Admin
// role and a default admin user bound to it. It does nothing when any
// user already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	ctx := context.Background()
	roleID, err := EnsureAdminRole(ctx, db)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	var userID uuid.UUID
	err = db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, uuid.Must(uuid.NewV7()), seedUsername, seedEmail, string(hash)).Scan(&userID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
	`, userID, roleID); err != nil {
		return fmt.Errorf("seed assign admin role: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"username", seedUsername,
		"email", seedEmail,
		"password", seedPassword,
	)

	return nil
}

// EnsureAdminRole returns the id of the Admin role, creating it with
// full permissions on every entity if it does not exist yet.
func EnsureAdminRole(ctx context.Context, db *sql.DB) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.QueryRowContext(ctx, `SELECT id FROM roles WHERE name = $1`, models.AdminRoleName).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("find admin role: %w", err)
	}

	err = db.QueryRowContext(ctx, `
		INSERT INTO roles (id, name, permissions)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, uuid.Must(uuid.NewV7()), models.AdminRoleName, models.AdminPermissions()).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create admin role: %w", err)
	}

	slog.Info("admin role created", "id", id)
	return id, nil
}
