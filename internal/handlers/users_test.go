package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"shopper/internal/middleware"
	"shopper/internal/models"
	"shopper/internal/service"
)

// fakeUsers keeps users in a map and mimics UserService errors.
type fakeUsers struct {
	byID     map[uuid.UUID]*models.User
	verified map[uuid.UUID]bool
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: map[uuid.UUID]*models.User{}, verified: map[uuid.UUID]bool{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	var taken []string
	for _, u := range f.byID {
		if u.Email == email {
			taken = append(taken, "email")
		}
		if u.Username == username {
			taken = append(taken, "username")
		}
	}
	if len(taken) > 0 {
		return nil, &service.ConflictError{Fields: taken}
	}
	u := &models.User{ID: uuid.New(), Username: username, Email: email, Roles: []string{}}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return f.byID[id], nil
}

func (f *fakeUsers) List(ctx context.Context) ([]models.User, error) {
	out := []models.User{}
	for _, u := range f.byID {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) Update(ctx context.Context, id uuid.UUID, patch service.UserPatch) (*models.User, error) {
	u := f.byID[id]
	if u == nil {
		return nil, service.ErrUserNotFound
	}
	if patch.Username != nil {
		u.Username = *patch.Username
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	return u, nil
}

func (f *fakeUsers) Delete(ctx context.Context, id uuid.UUID) error {
	if f.byID[id] == nil {
		return service.ErrUserNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUsers) AddRoles(ctx context.Context, id uuid.UUID, roleIDs []uuid.UUID) (*models.User, error) {
	u := f.byID[id]
	if u == nil {
		return nil, service.ErrUserNotFound
	}
	for _, r := range roleIDs {
		u.Roles = append(u.Roles, r.String())
	}
	return u, nil
}

func (f *fakeUsers) SetupTOTP(ctx context.Context, id uuid.UUID) (*service.TOTPSetup, error) {
	if f.byID[id] == nil {
		return nil, service.ErrUserNotFound
	}
	return &service.TOTPSetup{Secret: "SECRET", URL: "otpauth://totp/Shopper:x?secret=SECRET", QRCode: "cG5n"}, nil
}

func (f *fakeUsers) VerifyTOTP(ctx context.Context, id uuid.UUID, code string) error {
	if code != "123456" {
		return service.ErrInvalidTOTP
	}
	f.verified[id] = true
	return nil
}

func (f *fakeUsers) ResetTOTP(ctx context.Context, id uuid.UUID) error {
	if f.byID[id] == nil {
		return service.ErrUserNotFound
	}
	delete(f.verified, id)
	return nil
}

func TestUsersRegister(t *testing.T) {
	existing := &models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	h := NewUsers(newFakeUsers(existing))

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{"new user", `{"username":"bob","email":"bob@example.com","password":"secret"}`, http.StatusAccepted, nil},
		{"email taken", `{"username":"carol","email":"alice@example.com","password":"secret"}`, http.StatusBadRequest, []string{"email"}},
		{"both taken", `{"username":"alice","email":"alice@example.com","password":"secret"}`, http.StatusBadRequest, []string{"email", "username"}},
		{"invalid email", `{"username":"dave","email":"dave","password":"secret"}`, http.StatusUnprocessableEntity, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h.Register, newRequest(http.MethodPost, "/api/user/register", tt.body, ""))
			if w.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantFields != nil {
				var body struct {
					Fields []string `json:"fields"`
				}
				decodeJSON(t, w, &body)
				if len(body.Fields) != len(tt.wantFields) {
					t.Errorf("fields: got %v, want %v", body.Fields, tt.wantFields)
				}
			}
		})
	}
}

func TestUsersMe(t *testing.T) {
	u := &models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", PasswordHash: "hash", Roles: []string{"Admin"}}
	h := NewUsers(newFakeUsers(u))

	r := withPrincipal(newRequest(http.MethodGet, "/api/user/", "", ""), &middleware.Principal{UserID: u.ID, User: u})
	w := serve(h.Me, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}

	var body map[string]any
	decodeJSON(t, w, &body)
	if body["username"] != "alice" {
		t.Errorf("username: got %v", body["username"])
	}
	if _, leaked := body["password_hash"]; leaked {
		t.Error("password hash must not be serialized")
	}
	if _, ok := body["totp_enabled"]; !ok {
		t.Error("totp_enabled missing")
	}
}

func TestUsersTOTP(t *testing.T) {
	u := &models.User{ID: uuid.New(), Username: "alice"}
	fu := newFakeUsers(u)
	h := NewUsers(fu)
	p := &middleware.Principal{UserID: u.ID, User: u}

	w := serve(h.SetupTOTP, withPrincipal(newRequest(http.MethodPost, "/api/user/2fa/setup", "", ""), p))
	if w.Code != http.StatusOK {
		t.Fatalf("setup: got %d", w.Code)
	}
	var setup service.TOTPSetup
	decodeJSON(t, w, &setup)
	if setup.Secret == "" || setup.QRCode == "" {
		t.Errorf("setup: got %+v", setup)
	}

	w = serve(h.VerifyTOTP, withPrincipal(newRequest(http.MethodPost, "/api/user/2fa/verify", `{"code":"000000"}`, ""), p))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong code: got %d, want 401", w.Code)
	}

	w = serve(h.VerifyTOTP, withPrincipal(newRequest(http.MethodPost, "/api/user/2fa/verify", `{"code":"123456"}`, ""), p))
	if w.Code != http.StatusOK {
		t.Errorf("right code: got %d, want 200", w.Code)
	}
	if !fu.verified[u.ID] {
		t.Error("2FA should be enabled")
	}
}

func TestUsersAdmin(t *testing.T) {
	u := &models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	h := NewUsers(newFakeUsers(u))
	id := u.ID.String()

	w := serve(h.Get, newRequest(http.MethodGet, "/api/users/x", "", id))
	if w.Code != http.StatusOK {
		t.Errorf("get: got %d", w.Code)
	}

	w = serve(h.Update, newRequest(http.MethodPatch, "/api/users/x", `{"username":"alice2"}`, id))
	if w.Code != http.StatusAccepted {
		t.Errorf("update: got %d", w.Code)
	}
	if u.Username != "alice2" {
		t.Errorf("username: got %q", u.Username)
	}

	roleID := uuid.New()
	w = serve(h.AddRoles, newRequest(http.MethodPost, "/api/users/x/roles", `{"role_ids":["`+roleID.String()+`"]}`, id))
	if w.Code != http.StatusAccepted {
		t.Errorf("add roles: got %d", w.Code)
	}

	w = serve(h.AddRoles, newRequest(http.MethodPost, "/api/users/x/roles", `{"role_ids":[]}`, id))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty role list: got %d, want 422", w.Code)
	}

	w = serve(h.ResetTOTP, newRequest(http.MethodPost, "/api/users/x/reset-2fa", "", id))
	if w.Code != http.StatusNoContent {
		t.Errorf("reset 2fa: got %d", w.Code)
	}

	w = serve(h.Delete, newRequest(http.MethodDelete, "/api/users/x", "", id))
	if w.Code != http.StatusNoContent {
		t.Errorf("delete: got %d", w.Code)
	}

	for name, handler := range map[string]http.HandlerFunc{"get": h.Get, "delete": h.Delete, "reset": h.ResetTOTP} {
		w = serve(handler, newRequest(http.MethodGet, "/api/users/x", "", id))
		if w.Code != http.StatusNotFound || detailOf(t, w) != userNotFound {
			t.Errorf("%s after delete: got %d %s", name, w.Code, w.Body.String())
		}
	}
}
