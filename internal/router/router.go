// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// Shopper API. Category reads are public; every other resource sits
// behind bearer authentication and a per-route permission check.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopper/internal/handlers"
	"shopper/internal/middleware"
	"shopper/internal/models"
)

// Handlers bundles the handler groups mounted under /api.
type Handlers struct {
	Auth       *handlers.Auth
	Users      *handlers.Users
	Roles      *handlers.Roles
	Categories *handlers.Categories
	Products   *handlers.Products
}

// Security bundles the request guards.
type Security struct {
	// Authenticate validates the bearer token and loads the principal.
	Authenticate func(http.Handler) http.Handler
	Gate         *middleware.Gate
	// RateLimiter is optional.
	RateLimiter *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sec Security, h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	if sec.RateLimiter != nil {
		r.Use(sec.RateLimiter.Middleware)
	}

	r.Get("/health", healthHandler)

	gate := sec.Gate
	read := func(e models.Entity) func(http.Handler) http.Handler {
		return gate.Require(e, models.PermRead)
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/", h.Auth.Login)
			r.With(sec.Authenticate).Post("/logout", h.Auth.Logout)
		})

		// Self-service account routes.
		r.Route("/user", func(r chi.Router) {
			r.Post("/register", h.Users.Register)
			r.Post("/auth", h.Auth.Login)

			r.Group(func(r chi.Router) {
				r.Use(sec.Authenticate)
				r.Use(gate.CurrentUser)
				r.Get("/", h.Users.Me)
				r.Post("/2fa/setup", h.Users.SetupTOTP)
				r.Post("/2fa/verify", h.Users.VerifyTOTP)
			})
		})

		// User administration.
		r.Route("/users", func(r chi.Router) {
			r.Use(sec.Authenticate)
			r.With(read(models.EntityUser)).Get("/", h.Users.List)
			r.With(read(models.EntityUser)).Get("/{id}", h.Users.Get)
			r.With(gate.Require(models.EntityUser, models.PermUpdate, models.PermRead)).Patch("/{id}", h.Users.Update)
			r.With(gate.Require(models.EntityUser, models.PermDelete)).Delete("/{id}", h.Users.Delete)
			r.With(gate.Require(models.EntityUser, models.PermUpdate), read(models.EntityRole)).Post("/{id}/roles", h.Users.AddRoles)
			r.With(gate.Require(models.EntityUser, models.PermUpdate)).Post("/{id}/reset-2fa", h.Users.ResetTOTP)
		})

		r.Route("/role", func(r chi.Router) {
			r.Use(sec.Authenticate)
			r.With(read(models.EntityRole)).Get("/", h.Roles.List)
			r.With(read(models.EntityRole)).Get("/{id}", h.Roles.Get)
			r.With(gate.Require(models.EntityRole, models.PermCreate, models.PermRead)).Post("/", h.Roles.Create)
			r.With(gate.Require(models.EntityRole, models.PermUpdate, models.PermRead)).Patch("/{id}", h.Roles.Update)
			r.With(gate.Require(models.EntityRole, models.PermDelete)).Delete("/{id}", h.Roles.Delete)
		})

		r.Route("/category", func(r chi.Router) {
			r.Get("/", h.Categories.List)
			r.Get("/{id}", h.Categories.Get)

			r.Group(func(r chi.Router) {
				r.Use(sec.Authenticate)
				r.With(gate.Require(models.EntityCategory, models.PermCreate, models.PermRead)).Post("/", h.Categories.Create)
				r.With(gate.Require(models.EntityCategory, models.PermUpdate, models.PermRead)).Patch("/{id}", h.Categories.Update)
				r.With(gate.Require(models.EntityCategory, models.PermDelete, models.PermRead)).Delete("/{id}", h.Categories.Delete)
			})
		})

		r.Route("/product", func(r chi.Router) {
			r.Use(sec.Authenticate)
			r.With(read(models.EntityProduct)).Get("/", h.Products.List)
			r.With(read(models.EntityProduct)).Get("/{id}", h.Products.Get)
			r.With(gate.Require(models.EntityProduct, models.PermCreate, models.PermRead), read(models.EntityCategory)).Post("/", h.Products.Create)
			r.With(gate.Require(models.EntityProduct, models.PermUpdate, models.PermRead), read(models.EntityCategory)).Patch("/{id}", h.Products.Update)
			r.With(gate.Require(models.EntityProduct, models.PermDelete, models.PermRead)).Delete("/{id}", h.Products.Delete)
		})

		// Category cache diagnostics.
		r.With(sec.Authenticate, read(models.EntityCategory)).Get("/cache", h.Categories.CacheStatus)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
