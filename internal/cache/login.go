// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// login.go counts failed login attempts per identifier in Valkey. Once an
// identifier reaches the limit it stays blocked until the window expires
// or a successful login resets it. Valkey errors never block a login.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// loginKeyPrefix is the Valkey key prefix for failed login counters.
	loginKeyPrefix = "login:"

	// DefaultLoginWindow is how long failed attempts are remembered.
	DefaultLoginWindow = 15 * time.Minute
)

// LoginLimiter throttles repeated failed logins.
type LoginLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewLoginLimiter allows max failed attempts per identifier within window.
// A zero window uses DefaultLoginWindow.
func NewLoginLimiter(client *redis.Client, max int, window time.Duration) *LoginLimiter {
	if window == 0 {
		window = DefaultLoginWindow
	}
	return &LoginLimiter{client: client, max: max, window: window}
}

// LoginKey normalises a username or email into a counter key.
func LoginKey(identifier string) string {
	return loginKeyPrefix + strings.ToLower(strings.TrimSpace(identifier))
}

// Blocked reports whether identifier has used up its attempts.
func (l *LoginLimiter) Blocked(ctx context.Context, identifier string) bool {
	n, err := l.client.Get(ctx, LoginKey(identifier)).Int()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		slog.Warn("login limiter get error", "error", err)
		return false
	}
	return n >= l.max
}

// Fail records a failed attempt. The window starts at the first failure.
func (l *LoginLimiter) Fail(ctx context.Context, identifier string) {
	key := LoginKey(identifier)
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("login limiter fail error", "error", err)
	}
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, identifier string) {
	if err := l.client.Del(ctx, LoginKey(identifier)).Err(); err != nil {
		slog.Warn("login limiter reset error", "error", err)
	}
}
