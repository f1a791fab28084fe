// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the Shopper catalog API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"shopper/internal/auth"
	"shopper/internal/cache"
	"shopper/internal/catalog"
	"shopper/internal/config"
	"shopper/internal/database"
	"shopper/internal/handlers"
	"shopper/internal/middleware"
	"shopper/internal/models"
	"shopper/internal/router"
	"shopper/internal/service"
	"shopper/internal/session"
	"shopper/internal/store"
)

// cacheLogRetention bounds how long invalidation history is kept.
const cacheLogRetention = 30 * 24 * time.Hour

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(os.Stdout, cfg))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"category_cache", cfg.CategoryCache,
	)

	ctx := context.Background()

	// Connect to PostgreSQL.
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if _, err := database.Migrate(ctx, db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions + login throttling).
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	tokens, err := auth.NewTokens(cfg.SecretKey, cfg.TokenLifetime)
	if err != nil {
		slog.Error("failed to initialize token signer", "error", err)
		os.Exit(1)
	}
	sessions := session.NewStore(valkeyClient, cfg.TokenLifetime)
	limiter := cache.NewLoginLimiter(valkeyClient, cfg.LoginMaxAttempts, cache.DefaultLoginWindow)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	roleStore := store.NewRoleStore(db)
	categoryStore := store.NewCategoryStore(db)
	productStore := store.NewProductStore(db)
	cacheLogStore := store.NewCacheLogStore(db)

	if n, err := cacheLogStore.Trim(ctx, time.Now().Add(-cacheLogRetention)); err != nil {
		slog.Warn("failed to trim cache log", "error", err)
	} else if n > 0 {
		slog.Info("cache log trimmed", "removed", n)
	}

	// Category reads go through the tree cache unless it is disabled.
	var (
		categoryTree catalog.Provider[models.CategoryNode]
		inspector    handlers.CacheInspector
	)
	if cfg.CategoryCache {
		treeCache := catalog.NewTreeCache(categoryStore)
		categoryTree, inspector = treeCache, treeCache
	} else {
		categoryTree = catalog.NewPassThrough[models.CategoryNode](catalog.NewTreeSource(categoryStore))
	}

	categoryService := service.NewCategoryService(categoryStore, categoryTree, cacheLogStore)
	productService := service.NewProductService(productStore,
		catalog.NewPassThrough[models.Product](productStore), categoryTree)
	roleService := service.NewRoleService(roleStore, catalog.NewPassThrough[models.Role](roleStore))
	userService := service.NewUserService(userStore)
	authService := service.NewAuthService(userStore, limiter, sessions, tokens)

	sec := router.Security{
		Authenticate: middleware.Authenticate(tokens, sessions),
		Gate:         middleware.NewGate(userStore, roleStore),
	}
	if cfg.RateLimit > 0 {
		sec.RateLimiter = middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
		defer sec.RateLimiter.Stop()
	}

	r := router.New(sec, router.Handlers{
		Auth:       handlers.NewAuth(authService),
		Users:      handlers.NewUsers(userService),
		Roles:      handlers.NewRoles(roleService),
		Categories: handlers.NewCategories(categoryService, inspector, cacheLogStore),
		Products:   handlers.NewProducts(productService),
	})

	// Create the HTTP server with sensible timeouts.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// newLogger returns a JSON logger when LOG_FORMAT=json and a colored
// console logger otherwise.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.LogLevel}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.TimeOnly,
		NoColor:    !cfg.IsDev(),
	}))
}
