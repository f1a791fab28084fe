// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Command createsuperuser creates a user bound to the Admin role. Values
// not given as flags are prompted for on stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"shopper/internal/config"
	"shopper/internal/database"
	"shopper/internal/models"
	"shopper/internal/store"
)

// accounts is the part of store.UserStore the command needs.
type accounts interface {
	FindConflicts(ctx context.Context, email, username string, exclude uuid.UUID) ([]string, error)
	Create(ctx context.Context, username, email, password string) (*models.User, error)
	AddRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error
}

// errUserExists is returned when the username or email is taken.
var errUserExists = errors.New("a user with this username or email already exists")

func main() {
	username := flag.String("username", "", "username of the new admin")
	email := flag.String("email", "", "email of the new admin")
	password := flag.String("password", "", "password (prompted twice when omitted)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if _, err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	p := &prompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	adminRole := func(ctx context.Context) (uuid.UUID, error) {
		return database.EnsureAdminRole(ctx, db)
	}

	u, err := create(ctx, p, store.NewUserStore(db), adminRole, *username, *email, *password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Superuser %q created (%s)\n", u.Username, u.ID)
}

// create collects the missing fields, refuses duplicates and creates the
// user with the Admin role.
func create(ctx context.Context, p *prompter, users accounts, adminRole func(context.Context) (uuid.UUID, error), username, email, password string) (*models.User, error) {
	var err error
	if username == "" {
		if username, err = p.ask("Username: "); err != nil {
			return nil, err
		}
	}
	if email == "" {
		if email, err = p.ask("Email: "); err != nil {
			return nil, err
		}
	}
	if username == "" || email == "" {
		return nil, errors.New("username and email are required")
	}

	taken, err := users.FindConflicts(ctx, email, username, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, fmt.Errorf("%w (%s)", errUserExists, strings.Join(taken, ", "))
	}

	if password == "" {
		if password, err = p.newPassword(); err != nil {
			return nil, err
		}
	}

	roleID, err := adminRole(ctx)
	if err != nil {
		return nil, err
	}

	u, err := users.Create(ctx, username, email, password)
	if errors.Is(err, store.ErrConflict) {
		return nil, errUserExists
	}
	if err != nil {
		return nil, err
	}
	if err := users.AddRoles(ctx, u.ID, []uuid.UUID{roleID}); err != nil {
		return nil, fmt.Errorf("assign admin role: %w", err)
	}
	return u, nil
}

// prompter reads answers line by line.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// newPassword asks for a password and its confirmation until they match.
func (p *prompter) newPassword() (string, error) {
	for {
		pw, err := p.ask("Password: ")
		if err != nil {
			return "", err
		}
		confirm, err := p.ask("Repeat password: ")
		if err != nil {
			return "", err
		}
		if pw == "" {
			fmt.Fprintln(p.out, "Password cannot be empty")
			continue
		}
		if pw == confirm {
			return pw, nil
		}
		fmt.Fprintln(p.out, "Passwords do not match")
	}
}
