// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"shopper/internal/catalog"
	"shopper/internal/models"
	"shopper/internal/service"
	"shopper/internal/store"
)

// CategoryManager reads and writes the category tree.
type CategoryManager interface {
	Roots(ctx context.Context) ([]models.CategoryNode, error)
	Get(ctx context.Context, id uuid.UUID) (*models.CategoryNode, error)
	Create(ctx context.Context, in service.CategoryInput) (*models.CategoryNode, error)
	Update(ctx context.Context, id uuid.UUID, patch service.CategoryPatch) (*models.CategoryNode, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CacheInspector reports the state of the category tree cache.
type CacheInspector interface {
	Stats() catalog.Stats
}

// InvalidationHistory returns the most recent cache invalidations.
type InvalidationHistory interface {
	RecentEntries(ctx context.Context, limit int) ([]store.CacheLogEntry, error)
}

// Categories groups the category handlers.
type Categories struct {
	categories CategoryManager
	cache      CacheInspector
	history    InvalidationHistory
}

// NewCategories creates a new Categories handler group. cache is nil when
// categories are served uncached; history may be nil.
func NewCategories(categories CategoryManager, cache CacheInspector, history InvalidationHistory) *Categories {
	return &Categories{categories: categories, cache: cache, history: history}
}

const categoryNotFound = "Invalid category id"

// recentInvalidations is how many log entries CacheStatus returns.
const recentInvalidations = 20

type createCategoryRequest struct {
	Name     string          `json:"name" validate:"required,max=255"`
	ParentID *uuid.UUID      `json:"parent_id"`
	Metadata models.Metadata `json:"metadata" validate:"scalars"`
}

type updateCategoryRequest struct {
	Name     *string         `json:"name" validate:"omitempty,min=1,max=255"`
	ParentID *uuid.UUID      `json:"parent_id"`
	Metadata models.Metadata `json:"metadata" validate:"scalars"`
}

// List returns the root categories with their nested sub-categories.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	roots, err := h.categories.Roots(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roots)
}

// Get returns a category at any depth with its subtree.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, categoryNotFound)
	if !ok {
		return
	}
	node, err := h.categories.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if node == nil {
		writeError(w, http.StatusNotFound, categoryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// Create adds a category.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !decode(w, r, &req) {
		return
	}
	node, err := h.categories.Create(r.Context(), service.CategoryInput{
		Name:     req.Name,
		ParentID: req.ParentID,
		Metadata: req.Metadata,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	slog.Info("category created", "id", node.ID, "name", node.Name)
	writeJSON(w, http.StatusCreated, node)
}

// Update renames, moves or re-tags a category.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, categoryNotFound)
	if !ok {
		return
	}
	var req updateCategoryRequest
	if !decode(w, r, &req) {
		return
	}
	node, err := h.categories.Update(r.Context(), id, service.CategoryPatch{
		Name:     req.Name,
		ParentID: req.ParentID,
		Metadata: req.Metadata,
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, node)
}

// Delete removes a category without sub-categories.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, categoryNotFound)
	if !ok {
		return
	}
	if err := h.categories.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	slog.Info("category deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

type cacheStatus struct {
	Cached        bool                  `json:"cached"`
	Stats         *catalog.Stats        `json:"stats"`
	Invalidations []store.CacheLogEntry `json:"invalidations"`
}

// CacheStatus reports the tree cache counters and the latest
// invalidations.
func (h *Categories) CacheStatus(w http.ResponseWriter, r *http.Request) {
	out := cacheStatus{Invalidations: []store.CacheLogEntry{}}
	if h.cache != nil {
		stats := h.cache.Stats()
		out.Cached = true
		out.Stats = &stats
	}
	if h.history != nil {
		entries, err := h.history.RecentEntries(r.Context(), recentInvalidations)
		if err != nil {
			fail(w, r, err)
			return
		}
		if entries != nil {
			out.Invalidations = entries
		}
	}
	writeJSON(w, http.StatusOK, out)
}
