package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"shopper/internal/catalog"
	"shopper/internal/catalog/catalogtest"
	"shopper/internal/models"
	"shopper/internal/service"
	"shopper/internal/store"
)

type fakeHistory struct {
	entries []store.CacheLogEntry
}

func (f *fakeHistory) Log(ctx context.Context, entityType string, id uuid.UUID, action string) {
	f.entries = append([]store.CacheLogEntry{{
		ID:            int64(len(f.entries) + 1),
		EntityType:    entityType,
		EntityID:      id,
		Action:        action,
		InvalidatedAt: time.Now(),
	}}, f.entries...)
}

func (f *fakeHistory) RecentEntries(ctx context.Context, limit int) ([]store.CacheLogEntry, error) {
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

type categoryFixture struct {
	mem     *catalogtest.Store
	cache   *catalog.TreeCache
	history *fakeHistory
	h       *Categories
}

func newCategoryFixture() *categoryFixture {
	mem := catalogtest.New()
	cache := catalog.NewTreeCache(mem)
	history := &fakeHistory{}
	svc := service.NewCategoryService(mem, cache, history)
	return &categoryFixture{mem: mem, cache: cache, history: history, h: NewCategories(svc, cache, history)}
}

func TestCategoriesCreateAndRead(t *testing.T) {
	f := newCategoryFixture()

	w := serve(f.h.Create, newRequest(http.MethodPost, "/api/category/", `{"name":"Electronics","metadata":{"featured":true}}`, ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", w.Code, w.Body.String())
	}
	var electronics models.CategoryNode
	decodeJSON(t, w, &electronics)

	w = serve(f.h.Create, newRequest(http.MethodPost, "/api/category/", `{"name":"Laptops","parent_id":"`+electronics.ID.String()+`"}`, ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("create child: got %d: %s", w.Code, w.Body.String())
	}
	var laptops models.CategoryNode
	decodeJSON(t, w, &laptops)

	// List only returns roots, with children nested.
	w = serve(f.h.List, newRequest(http.MethodGet, "/api/category/", "", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("list: got %d", w.Code)
	}
	var roots []models.CategoryNode
	decodeJSON(t, w, &roots)
	if len(roots) != 1 || roots[0].Name != "Electronics" {
		t.Fatalf("roots: got %+v", roots)
	}
	if len(roots[0].SubCategories) != 1 || roots[0].SubCategories[0].ID != laptops.ID {
		t.Errorf("sub_categories: got %+v", roots[0].SubCategories)
	}
	if roots[0].Metadata["featured"] != true {
		t.Errorf("metadata: got %v", roots[0].Metadata)
	}

	// A nested category is reachable by id.
	w = serve(f.h.Get, newRequest(http.MethodGet, "/api/category/x", "", laptops.ID.String()))
	if w.Code != http.StatusOK {
		t.Fatalf("get: got %d", w.Code)
	}
	var got models.CategoryNode
	decodeJSON(t, w, &got)
	if got.Name != "Laptops" || got.ParentID == nil || *got.ParentID != electronics.ID {
		t.Errorf("get: got %+v", got)
	}
	if got.SubCategories == nil {
		t.Error("sub_categories should encode as [] not null")
	}
}

func TestCategoriesNotFound(t *testing.T) {
	f := newCategoryFixture()

	for _, id := range []string{uuid.NewString(), "42"} {
		w := serve(f.h.Get, newRequest(http.MethodGet, "/api/category/x", "", id))
		if w.Code != http.StatusNotFound {
			t.Errorf("get %s: got %d, want 404", id, w.Code)
		}
		if d := detailOf(t, w); d != categoryNotFound {
			t.Errorf("detail: got %q", d)
		}
	}

	w := serve(f.h.Create, newRequest(http.MethodPost, "/api/category/", `{"name":"Orphan","parent_id":"`+uuid.NewString()+`"}`, ""))
	if w.Code != http.StatusNotFound || detailOf(t, w) != "Invalid parent id" {
		t.Errorf("create with unknown parent: got %d %s", w.Code, w.Body.String())
	}

	w = serve(f.h.Update, newRequest(http.MethodPatch, "/api/category/x", `{"name":"Renamed"}`, uuid.NewString()))
	if w.Code != http.StatusNotFound || detailOf(t, w) != categoryNotFound {
		t.Errorf("update unknown: got %d %s", w.Code, w.Body.String())
	}
}

func TestCategoriesUpdate(t *testing.T) {
	f := newCategoryFixture()
	a := f.mem.Add("A", nil)
	b := f.mem.Add("B", &a.ID)
	c := f.mem.Add("C", &b.ID)
	other := f.mem.Add("Other", nil)

	tests := []struct {
		name       string
		id         uuid.UUID
		body       string
		wantStatus int
	}{
		{"rename", b.ID, `{"name":"B2"}`, http.StatusAccepted},
		{"move under sibling root", c.ID, `{"parent_id":"` + other.ID.String() + `"}`, http.StatusAccepted},
		{"parent is self", a.ID, `{"parent_id":"` + a.ID.String() + `"}`, http.StatusConflict},
		{"parent is descendant", a.ID, `{"parent_id":"` + b.ID.String() + `"}`, http.StatusConflict},
		{"unknown parent", b.ID, `{"parent_id":"` + uuid.NewString() + `"}`, http.StatusNotFound},
		{"empty name", b.ID, `{"name":""}`, http.StatusUnprocessableEntity},
		{"nested metadata", b.ID, `{"metadata":{"x":{"y":1}}}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(f.h.Update, newRequest(http.MethodPatch, "/api/category/x", tt.body, tt.id.String()))
			if w.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	w := serve(f.h.Get, newRequest(http.MethodGet, "/api/category/x", "", other.ID.String()))
	var node models.CategoryNode
	decodeJSON(t, w, &node)
	if len(node.SubCategories) != 1 || node.SubCategories[0].ID != c.ID {
		t.Errorf("C should now live under Other, got %+v", node.SubCategories)
	}
}

func TestCategoriesDelete(t *testing.T) {
	f := newCategoryFixture()
	parent := f.mem.Add("Parent", nil)
	child := f.mem.Add("Child", &parent.ID)

	w := serve(f.h.Delete, newRequest(http.MethodDelete, "/api/category/x", "", parent.ID.String()))
	if w.Code != http.StatusConflict {
		t.Fatalf("delete parent: got %d, want 409", w.Code)
	}

	w = serve(f.h.Delete, newRequest(http.MethodDelete, "/api/category/x", "", child.ID.String()))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete child: got %d, want 204", w.Code)
	}

	w = serve(f.h.Get, newRequest(http.MethodGet, "/api/category/x", "", child.ID.String()))
	if w.Code != http.StatusNotFound {
		t.Errorf("deleted child still served: %d", w.Code)
	}
}

func TestCategoriesCacheStatus(t *testing.T) {
	f := newCategoryFixture()

	w := serve(f.h.Create, newRequest(http.MethodPost, "/api/category/", `{"name":"Books"}`, ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d", w.Code)
	}

	w = serve(f.h.CacheStatus, newRequest(http.MethodGet, "/api/cache", "", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var body cacheStatus
	decodeJSON(t, w, &body)
	if !body.Cached || body.Stats == nil {
		t.Fatalf("expected cache stats, got %+v", body)
	}
	if body.Stats.Entries != 1 || !body.Stats.Valid {
		t.Errorf("stats: got %+v", *body.Stats)
	}
	if len(body.Invalidations) != 1 || body.Invalidations[0].Action != "create" {
		t.Errorf("invalidations: got %+v", body.Invalidations)
	}
}

func TestCategoriesCacheStatusUncached(t *testing.T) {
	mem := catalogtest.New()
	tree := catalog.NewPassThrough[models.CategoryNode](catalog.NewTreeSource(mem))
	h := NewCategories(service.NewCategoryService(mem, tree, nil), nil, nil)

	w := serve(h.CacheStatus, newRequest(http.MethodGet, "/api/cache", "", ""))
	var body cacheStatus
	decodeJSON(t, w, &body)
	if body.Cached || body.Stats != nil {
		t.Errorf("expected no stats, got %+v", body)
	}
	if body.Invalidations == nil {
		t.Error("invalidations should encode as []")
	}
}
