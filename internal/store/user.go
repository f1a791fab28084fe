package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"shopper/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// userSelect reads a user together with the names of its roles,
// aggregated as a JSON array.
const userSelect = `
	SELECT u.id, u.username, u.email, u.password_hash, u.totp_secret, u.totp_enabled,
	       u.created_at, u.updated_at,
	       COALESCE(json_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '[]')
	FROM users u
	LEFT JOIN user_roles ur ON ur.user_id = u.id
	LEFT JOIN roles r ON r.id = ur.role_id
`

func scanUser(s scanner) (*models.User, error) {
	var (
		u     models.User
		roles []byte
	)
	err := s.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.TOTPSecret, &u.TOTPEnabled,
		&u.CreatedAt, &u.UpdatedAt, &roles,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(roles, &u.Roles); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	return &u, nil
}

func (s *UserStore) findOne(ctx context.Context, where string, args ...any) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, userSelect+where+` GROUP BY u.id`, args...)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.findOne(ctx, `WHERE u.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// FindByLogin retrieves a user whose username or email equals identifier.
// Returns nil if not found.
func (s *UserStore) FindByLogin(ctx context.Context, identifier string) (*models.User, error) {
	u, err := s.findOne(ctx, `WHERE u.username = $1 OR u.email = $1`, identifier)
	if err != nil {
		return nil, fmt.Errorf("find user by login: %w", err)
	}
	return u, nil
}

// FindConflicts returns which of email and username are already taken,
// as the field names "email" and "username".
func (s *UserStore) FindConflicts(ctx context.Context, email, username string, exclude uuid.UUID) ([]string, error) {
	var emailTaken, usernameTaken bool
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(bool_or(email = $1), FALSE),
			COALESCE(bool_or(username = $2), FALSE)
		FROM users
		WHERE (email = $1 OR username = $2) AND id <> $3
	`, email, username, exclude).Scan(&emailTaken, &usernameTaken)
	if err != nil {
		return nil, fmt.Errorf("find user conflicts: %w", err)
	}

	var fields []string
	if emailTaken {
		fields = append(fields, "email")
	}
	if usernameTaken {
		fields = append(fields, "username")
	}
	return fields, nil
}

// List returns all users ordered by creation date.
func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, userSelect+` GROUP BY u.id ORDER BY u.created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Create inserts a new user with a bcrypt-hashed password.
func (s *UserStore) Create(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.Must(uuid.NewV7())
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash)
		VALUES ($1, $2, $3, $4)
	`, id, username, email, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", classify(err))
	}
	return s.FindByID(ctx, id)
}

// Update saves the username and email of u. When password is non-empty
// the stored hash is replaced as well.
func (s *UserStore) Update(ctx context.Context, u *models.User, password string) error {
	hash := u.PasswordHash
	if password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		hash = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET username = $1, email = $2, password_hash = $3, updated_at = NOW()
		WHERE id = $4
	`, u.Username, u.Email, hash, u.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", classify(err))
	}
	return nil
}

// AddRoles assigns roles to a user. Already assigned roles are ignored.
func (s *UserStore) AddRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare add roles: %w", err)
	}
	defer stmt.Close()

	for _, roleID := range roleIDs {
		if _, err := stmt.ExecContext(ctx, userID, roleID); err != nil {
			return fmt.Errorf("add role %s: %w", roleID, classify(err))
		}
	}

	return tx.Commit()
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *UserStore) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_secret = $1, totp_enabled = FALSE, updated_at = NOW() WHERE id = $2
	`, secret, userID)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// ResetTOTP clears the TOTP secret and disables 2FA for a user.
func (s *UserStore) ResetTOTP(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_secret = NULL, totp_enabled = FALSE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("reset totp: %w", err)
	}
	return nil
}

// Delete removes a user by ID.
func (s *UserStore) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
