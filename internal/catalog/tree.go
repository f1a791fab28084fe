// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"shopper/internal/models"
)

// TreeCache keeps the whole category hierarchy in memory. Every node, root
// or nested, is addressable by id and carries its complete subtree.
//
// Each read first validates the cached snapshot against the live
// fingerprint of the categories table and rebuilds it when stale.
// Concurrent readers share a single validation and rebuild. Invalidate
// only discards the fingerprint; the next read does the work.
type TreeCache struct {
	acc Accessor

	mu   sync.RWMutex
	tree *tree
	fp   *Fingerprint
	// treeGen is the generation tree was built under. A refresh from an
	// older generation never replaces it.
	treeGen uint64

	// gen is bumped by Invalidate. A refresh started under an older
	// generation never stores its fingerprint.
	gen   atomic.Uint64
	group singleflight.Group

	rebuilds atomic.Uint64
}

// Stats describes the current state of a TreeCache.
type Stats struct {
	Rebuilds uint64 `json:"rebuilds"`
	Entries  int    `json:"entries"`
	Omitted  int    `json:"omitted"`
	Valid    bool   `json:"valid"`
}

// NewTreeCache returns an empty cache reading from acc. Nothing is loaded
// until the first read.
func NewTreeCache(acc Accessor) *TreeCache {
	return &TreeCache{acc: acc}
}

// GetAll returns every cached node in depth-first pre-order, roots and
// non-roots alike. Callers that want only the top level filter on IsRoot.
func (c *TreeCache) GetAll(ctx context.Context) ([]models.CategoryNode, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree.list(), nil
}

// Get returns the node with the given id together with its subtree, or
// nil if no reachable category has that id.
func (c *TreeCache) Get(ctx context.Context, id uuid.UUID) (*models.CategoryNode, error) {
	if err := c.ensureFresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree.get(id), nil
}

// Invalidate discards the fingerprint so the next read rebuilds. The
// current snapshot stays in place until then.
func (c *TreeCache) Invalidate() {
	c.mu.Lock()
	c.gen.Add(1)
	c.fp = nil
	c.mu.Unlock()
	slog.Debug("category cache invalidated")
}

// Stats reports rebuild and entry counters. Rebuilds counts installed
// snapshots only.
func (c *TreeCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{Rebuilds: c.rebuilds.Load(), Valid: c.fp != nil}
	if c.tree != nil {
		s.Entries = len(c.tree.nodes)
		s.Omitted = len(c.tree.omitted)
	}
	return s
}

// ensureFresh validates and, if needed, rebuilds the snapshot. Callers
// arriving while a refresh for the same generation is running wait for it
// instead of starting their own.
func (c *TreeCache) ensureFresh(ctx context.Context) error {
	gen := c.gen.Load()
	ch := c.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		return nil, c.refresh(context.WithoutCancel(ctx), gen)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (c *TreeCache) refresh(ctx context.Context, gen uint64) error {
	count, last, err := c.acc.CountAndMaxUpdatedAt(ctx)
	if err != nil {
		c.discard()
		return fmt.Errorf("validate category cache: %w", err)
	}

	c.mu.RLock()
	current := c.fp
	c.mu.RUnlock()

	stale := current == nil
	next := DefaultFingerprint()
	if current != nil {
		next = *current
	}
	next, changed := next.reconcile(count, last)
	if !stale && !changed {
		return nil
	}

	t, err := buildTree(ctx, c.acc)
	if err != nil {
		c.discard()
		return fmt.Errorf("rebuild category cache: %w", err)
	}
	if len(t.omitted) > 0 {
		slog.Warn("categories unreachable from any root omitted from cache",
			"count", len(t.omitted),
			"ids", t.omitted,
		)
	}

	c.mu.Lock()
	if c.tree != nil && gen < c.treeGen {
		c.mu.Unlock()
		slog.Debug("category cache rebuild superseded", "generation", gen)
		return nil
	}
	c.tree, c.treeGen = t, gen
	if c.gen.Load() == gen {
		c.fp = &next
	} else {
		c.fp = nil
	}
	c.mu.Unlock()

	n := c.rebuilds.Add(1)
	slog.Debug("category cache rebuilt",
		"rebuild", n,
		"entries", len(t.nodes),
		"count", next.Count,
		"last_update", next.LastUpdate,
	)
	return nil
}

// discard drops the fingerprint after a failed refresh so the next read
// starts over.
func (c *TreeCache) discard() {
	c.mu.Lock()
	c.fp = nil
	c.mu.Unlock()
}
