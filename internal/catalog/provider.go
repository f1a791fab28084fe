// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog serves catalog reads through providers. A provider
// either answers from an in-process cache (TreeCache for categories) or
// passes every call straight to its source (PassThrough). Callers hold a
// Provider and call Invalidate after every successful write regardless of
// which implementation is behind it.
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Provider is the read contract services depend on.
type Provider[T any] interface {
	// Get returns the entity with the given id, or nil if it does not exist.
	// The result is owned by the caller.
	Get(ctx context.Context, id uuid.UUID) (*T, error)
	// GetAll returns every entity. The slice and its elements are owned by
	// the caller.
	GetAll(ctx context.Context) ([]T, error)
	// Invalidate marks any cached state as stale.
	Invalidate()
}

// Source is a store that can be read without caching.
type Source[T any] interface {
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context) ([]T, error)
}

// PassThrough is a Provider that reads its source on every call.
type PassThrough[T any] struct {
	src Source[T]
}

// NewPassThrough wraps src in a non-caching Provider.
func NewPassThrough[T any](src Source[T]) *PassThrough[T] {
	return &PassThrough[T]{src: src}
}

// Get reads a single entity from the source.
func (p *PassThrough[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return p.src.FindByID(ctx, id)
}

// GetAll reads every entity from the source.
func (p *PassThrough[T]) GetAll(ctx context.Context) ([]T, error) {
	return p.src.List(ctx)
}

// Invalidate does nothing; there is no cached state.
func (p *PassThrough[T]) Invalidate() {}
