package service

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"shopper/internal/catalog"
	"shopper/internal/models"
	"shopper/internal/store"
)

type logEntry struct {
	entityType string
	id         uuid.UUID
	action     string
}

type fakeLog struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *fakeLog) Log(ctx context.Context, entityType string, id uuid.UUID, action string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{entityType, id, action})
}

// countingProvider wraps a provider and counts Invalidate calls.
type countingProvider[T any] struct {
	inner       catalog.Provider[T]
	invalidated int
}

func (p *countingProvider[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	return p.inner.Get(ctx, id)
}

func (p *countingProvider[T]) GetAll(ctx context.Context) ([]T, error) {
	return p.inner.GetAll(ctx)
}

func (p *countingProvider[T]) Invalidate() {
	p.invalidated++
	p.inner.Invalidate()
}

type memProducts struct {
	items map[uuid.UUID]models.Product
	order []uuid.UUID
}

func newMemProducts() *memProducts {
	return &memProducts{items: map[uuid.UUID]models.Product{}}
}

func (m *memProducts) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProducts) List(ctx context.Context) ([]models.Product, error) {
	out := []models.Product{}
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out, nil
}

func (m *memProducts) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	row := *p
	row.ID = uuid.Must(uuid.NewV7())
	m.items[row.ID] = row
	m.order = append(m.order, row.ID)
	return &row, nil
}

func (m *memProducts) Update(ctx context.Context, p *models.Product) (*models.Product, error) {
	if _, ok := m.items[p.ID]; !ok {
		return nil, nil
	}
	m.items[p.ID] = *p
	row := *p
	return &row, nil
}

func (m *memProducts) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.items, id)
	m.order = slices.DeleteFunc(m.order, func(v uuid.UUID) bool { return v == id })
	return nil
}

type memRoles struct {
	items map[uuid.UUID]models.Role
}

func newMemRoles() *memRoles {
	return &memRoles{items: map[uuid.UUID]models.Role{}}
}

func (m *memRoles) nameTaken(name string, except uuid.UUID) bool {
	for id, r := range m.items {
		if r.Name == name && id != except {
			return true
		}
	}
	return false
}

func (m *memRoles) FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	r, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memRoles) List(ctx context.Context) ([]models.Role, error) {
	out := []models.Role{}
	for _, r := range m.items {
		out = append(out, r)
	}
	return out, nil
}

func (m *memRoles) Create(ctx context.Context, r *models.Role) (*models.Role, error) {
	if m.nameTaken(r.Name, uuid.Nil) {
		return nil, store.ErrConflict
	}
	row := *r
	row.ID = uuid.New()
	m.items[row.ID] = row
	return &row, nil
}

func (m *memRoles) Update(ctx context.Context, r *models.Role) error {
	if m.nameTaken(r.Name, r.ID) {
		return store.ErrConflict
	}
	m.items[r.ID] = *r
	return nil
}

func (m *memRoles) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

// memUsers stores passwords in clear; hashing is covered by the store tests.
type memUsers struct {
	mu        sync.Mutex
	items     map[uuid.UUID]models.User
	passwords map[uuid.UUID]string
	roles     map[uuid.UUID]string
}

func newMemUsers() *memUsers {
	return &memUsers{
		items:     map[uuid.UUID]models.User{},
		passwords: map[uuid.UUID]string{},
		roles:     map[uuid.UUID]string{},
	}
}

func (m *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUsers) FindByLogin(ctx context.Context, identifier string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Username == identifier || u.Email == identifier {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) FindConflicts(ctx context.Context, email, username string, exclude uuid.UUID) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var emailTaken, usernameTaken bool
	for id, u := range m.items {
		if id == exclude {
			continue
		}
		emailTaken = emailTaken || u.Email == email
		usernameTaken = usernameTaken || u.Username == username
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

func (m *memUsers) List(ctx context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.items {
		out = append(out, u)
	}
	return out, nil
}

func (m *memUsers) Create(ctx context.Context, username, email, password string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := models.User{ID: uuid.New(), Username: username, Email: email, Roles: []string{}}
	m.items[u.ID] = u
	m.passwords[u.ID] = password
	return &u, nil
}

func (m *memUsers) Update(ctx context.Context, u *models.User, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[u.ID] = *u
	if password != "" {
		m.passwords[u.ID] = password
	}
	return nil
}

func (m *memUsers) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memUsers) AddRoles(ctx context.Context, userID uuid.UUID, roleIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.items[userID]
	for _, id := range roleIDs {
		name, ok := m.roles[id]
		if !ok {
			return store.ErrReferenced
		}
		if !u.HasRole(name) {
			u.Roles = append(u.Roles, name)
		}
	}
	m.items[userID] = u
	return nil
}

func (m *memUsers) SetTOTPSecret(ctx context.Context, userID uuid.UUID, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.items[userID]
	u.TOTPSecret = &secret
	u.TOTPEnabled = false
	m.items[userID] = u
	return nil
}

func (m *memUsers) EnableTOTP(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.items[userID]
	u.TOTPEnabled = true
	m.items[userID] = u
	return nil
}

func (m *memUsers) ResetTOTP(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.items[userID]
	u.TOTPSecret = nil
	u.TOTPEnabled = false
	m.items[userID] = u
	return nil
}

func (m *memUsers) CheckPassword(u *models.User, password string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return password != "" && m.passwords[u.ID] == password
}

type fakeLimiter struct {
	max      int
	failures map[string]int
}

func newFakeLimiter(max int) *fakeLimiter {
	return &fakeLimiter{max: max, failures: map[string]int{}}
}

func (l *fakeLimiter) Blocked(ctx context.Context, id string) bool { return l.failures[id] >= l.max }
func (l *fakeLimiter) Fail(ctx context.Context, id string)         { l.failures[id]++ }
func (l *fakeLimiter) Reset(ctx context.Context, id string)        { delete(l.failures, id) }

type fakeSessions struct {
	live map[string]uuid.UUID
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{live: map[string]uuid.UUID{}}
}

func (s *fakeSessions) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	id := uuid.NewString()
	s.live[id] = userID
	return id, nil
}

func (s *fakeSessions) Destroy(ctx context.Context, id string) error {
	delete(s.live, id)
	return nil
}
