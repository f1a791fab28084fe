// Package catalogtest provides an in-memory category store for tests of
// the category cache and the services built on it.
package catalogtest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"shopper/internal/models"
	"shopper/internal/store"
)

// Store is an in-memory stand-in for store.CategoryStore. Rows are kept
// in insertion order, which doubles as created_at order. Each mutation
// advances a fake clock by one second unless noted otherwise.
type Store struct {
	mu   sync.Mutex
	rows []models.Category
	now  time.Time
	err  error

	gate    chan struct{}
	entered chan struct{}
	// holdOne makes only the next ChildrenOf call wait on gate.
	holdOne bool

	fingerprintCalls atomic.Int64
	listCalls        atomic.Int64
	childrenCalls    atomic.Int64
}

// New returns an empty Store whose clock starts at 2024-01-01 UTC.
func New() *Store {
	return &Store{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

// Add inserts a new category and returns the stored row.
func (s *Store) Add(name string, parent *uuid.UUID) models.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.tick()
	c := models.Category{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      name,
		ParentID:  parent,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	s.rows = append(s.rows, c)
	return c
}

// Put inserts or replaces a row exactly as given, clock untouched. It can
// create rows no service would allow, such as a dangling parent_id.
func (s *Store) Put(c models.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == c.ID {
			s.rows[i] = c
			return
		}
	}
	s.rows = append(s.rows, c)
}

// Rename changes a category's name and bumps its updated_at.
func (s *Store) Rename(id uuid.UUID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows[i].Name = name
			s.rows[i].UpdatedAt = s.tick()
		}
	}
}

// Remove deletes a row without checking for children.
func (s *Store) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return
		}
	}
}

// Row returns the stored row with the given id.
func (s *Store) Row(id uuid.UUID) (models.Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.ID == id {
			return r, true
		}
	}
	return models.Category{}, false
}

// FailWith makes every subsequent read return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Hold blocks ChildrenOf until release is called. entered receives once
// the first blocked call arrives.
func (s *Store) Hold() (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	in := make(chan struct{}, 1)
	s.gate, s.entered, s.holdOne = gate, in, false

	var once sync.Once
	return in, func() {
		once.Do(func() {
			s.mu.Lock()
			s.gate, s.entered = nil, nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// HoldNext blocks only the next ChildrenOf call until release is called.
// Later calls, including those of other rebuilds, run freely.
func (s *Store) HoldNext() (entered <-chan struct{}, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	in := make(chan struct{}, 1)
	s.gate, s.entered, s.holdOne = gate, in, true

	var once sync.Once
	return in, func() { once.Do(func() { close(gate) }) }
}

// FingerprintCalls returns how many times CountAndMaxUpdatedAt ran.
func (s *Store) FingerprintCalls() int { return int(s.fingerprintCalls.Load()) }

// ListCalls returns how many times ListAll ran.
func (s *Store) ListCalls() int { return int(s.listCalls.Load()) }

// ChildrenCalls returns how many times ChildrenOf ran.
func (s *Store) ChildrenCalls() int { return int(s.childrenCalls.Load()) }

// CountAndMaxUpdatedAt implements catalog.Accessor.
func (s *Store) CountAndMaxUpdatedAt(ctx context.Context) (int, time.Time, error) {
	s.fingerprintCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, time.Time{}, s.err
	}
	last := time.Unix(0, 0).UTC()
	for _, r := range s.rows {
		if r.UpdatedAt.After(last) {
			last = r.UpdatedAt
		}
	}
	return len(s.rows), last, nil
}

// ListAll implements catalog.Accessor.
func (s *Store) ListAll(ctx context.Context) ([]models.Category, error) {
	s.listCalls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]models.Category(nil), s.rows...), nil
}

// ChildrenOf implements catalog.Accessor.
func (s *Store) ChildrenOf(ctx context.Context, parentID uuid.UUID) ([]models.Category, error) {
	s.childrenCalls.Add(1)

	s.mu.Lock()
	gate, in := s.gate, s.entered
	if s.holdOne {
		s.gate, s.entered, s.holdOne = nil, nil, false
	}
	s.mu.Unlock()
	if gate != nil {
		select {
		case in <- struct{}{}:
		default:
		}
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Category
	for _, r := range s.rows {
		if r.ParentID != nil && *r.ParentID == parentID {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindByID returns a copy of the row, or nil.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, r := range s.rows {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, nil
}

func (s *Store) exists(id uuid.UUID) bool {
	for _, r := range s.rows {
		if r.ID == id {
			return true
		}
	}
	return false
}

// Create inserts c like store.CategoryStore does, enforcing the parent
// foreign key.
func (s *Store) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if c.ParentID != nil && !s.exists(*c.ParentID) {
		return nil, store.ErrReferenced
	}
	row := *c
	if row.ID == uuid.Nil {
		row.ID = uuid.Must(uuid.NewV7())
	}
	ts := s.tick()
	row.CreatedAt, row.UpdatedAt = ts, ts
	s.rows = append(s.rows, row)
	return &row, nil
}

// Update replaces the mutable fields of c and bumps updated_at.
func (s *Store) Update(ctx context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if c.ParentID != nil && !s.exists(*c.ParentID) {
		return store.ErrReferenced
	}
	for i := range s.rows {
		if s.rows[i].ID == c.ID {
			s.rows[i].Name = c.Name
			s.rows[i].ParentID = c.ParentID
			s.rows[i].Metadata = c.Metadata
			s.rows[i].UpdatedAt = s.tick()
		}
	}
	return nil
}

// Delete removes a row, refusing while other rows reference it.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, r := range s.rows {
		if r.ParentID != nil && *r.ParentID == id {
			return store.ErrReferenced
		}
	}
	for i := range s.rows {
		if s.rows[i].ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			break
		}
	}
	return nil
}
