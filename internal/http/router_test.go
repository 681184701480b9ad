package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/taskhive/taskhive/internal/domain"
	"github.com/taskhive/taskhive/internal/repository"
	"github.com/taskhive/taskhive/internal/service/auth"
	"github.com/taskhive/taskhive/internal/service/task"
	"github.com/taskhive/taskhive/internal/service/user"
	"github.com/taskhive/taskhive/pkg/config"
	"github.com/taskhive/taskhive/pkg/crypto"
)

// memStore is an in-memory stand-in for the postgres repository with the
// same owner-filter and uniqueness semantics.
type memStore struct {
	mu    sync.Mutex
	users []domain.User
	tasks []domain.Task
}

func (s *memStore) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrConflict
		}
	}
	s.users = append(s.users, *u)
	return nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.User(nil), s.users...), nil
}

func (s *memStore) CreateTask(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, *t)
	return nil
}

func (s *memStore) ListTasksByOwner(_ context.Context, ownerID string) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, 0)
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) UpdateTask(_ context.Context, id, ownerID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id && t.OwnerID == ownerID {
			s.tasks[i].Title = title
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) DeleteTask(_ context.Context, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tasks {
		if t.ID == id && t.OwnerID == ownerID {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func testRouterConfig() config.APIConfig {
	return config.APIConfig{
		JWTSecret:       "router-test-secret",
		TokenTTL:        time.Hour,
		BcryptCost:      4,
		CORSEnabled:     true,
		CORSAllowOrigin: "*",
	}
}

func newTestRouter(t *testing.T, store *memStore) *Router {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testRouterConfig()
	router := NewRouter(log,
		auth.New(store, log, cfg),
		task.New(store, log),
		user.New(store, log),
		NewMemoryRateLimiter(),
		cfg,
		nil,
	)
	t.Cleanup(router.Close)
	return router
}

func doJSON(t *testing.T, router *Router, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func registerAndLogin(t *testing.T, router *Router, name, email, password string) string {
	t.Helper()
	if rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	}); rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	rec := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rec.Code, rec.Body.String())
	}
	token, ok := decodeBody(t, rec)["token"].(string)
	if !ok || token == "" {
		t.Fatalf("expected token in login response: %s", rec.Body.String())
	}
	return token
}

func TestRegisterThenDuplicateEmail(t *testing.T) {
	router := newTestRouter(t, &memStore{})

	first := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "A", "email": "a@x.com", "password": "secret1",
	})
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", first.Code, first.Body.String())
	}

	second := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "A2", "email": "a@x.com", "password": "secret2",
	})
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d: %s", second.Code, second.Body.String())
	}
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t, &memStore{})

	cases := []map[string]string{
		{"email": "a@x.com", "password": "secret1"},
		{"name": "A", "password": "secret1"},
		{"name": "A", "email": "a@x.com"},
		{"name": "A", "email": "not-an-email", "password": "secret1"},
		{"name": "A", "email": "a@x.com", "password": "tiny"},
	}
	for _, payload := range cases {
		rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", payload)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %v: expected 400, got %d: %s", payload, rec.Code, rec.Body.String())
		}
	}
}

func TestLoginExcludesHashAndHidesFailureCause(t *testing.T) {
	router := newTestRouter(t, &memStore{})
	registerAndLogin(t, router, "A", "a@x.com", "secret1")

	ok := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "secret1",
	})
	if ok.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", ok.Code)
	}
	body := decodeBody(t, ok)
	userPayload, okCast := body["user"].(map[string]any)
	if !okCast {
		t.Fatalf("expected user payload: %s", ok.Body.String())
	}
	for _, forbidden := range []string{"password", "password_hash", "secretHash"} {
		if _, present := userPayload[forbidden]; present {
			t.Fatalf("login response leaks %q: %s", forbidden, ok.Body.String())
		}
	}
	if userPayload["role"] != "user" {
		t.Fatalf("expected default role in profile, got %v", userPayload["role"])
	}

	wrongPassword := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong-pass",
	})
	unknownEmail := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@x.com", "password": "secret1",
	})
	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Fatalf("login failures must be indistinguishable: %q vs %q",
			wrongPassword.Body.String(), unknownEmail.Body.String())
	}
}

func TestTaskOwnershipIsolation(t *testing.T) {
	store := &memStore{}
	router := newTestRouter(t, store)
	tokenA := registerAndLogin(t, router, "A", "a@x.com", "secret1")
	tokenB := registerAndLogin(t, router, "B", "b@x.com", "secret2")

	created := doJSON(t, router, http.MethodPost, "/api/tasks", tokenA, map[string]string{"title": "write spec"})
	if created.Code != http.StatusCreated {
		t.Fatalf("create task: %d %s", created.Code, created.Body.String())
	}
	taskID, _ := decodeBody(t, created)["task_id"].(string)
	if taskID == "" {
		t.Fatalf("expected task_id in response: %s", created.Body.String())
	}

	listB := doJSON(t, router, http.MethodGet, "/api/tasks", tokenB, nil)
	if listB.Code != http.StatusOK {
		t.Fatalf("list tasks: %d", listB.Code)
	}
	if tasks, _ := decodeBody(t, listB)["tasks"].([]any); len(tasks) != 0 {
		t.Fatalf("user B must not see user A's tasks: %s", listB.Body.String())
	}

	// A non-owner's delete surfaces as not-found, never forbidden.
	crossDelete := doJSON(t, router, http.MethodDelete, "/api/tasks/"+taskID, tokenB, nil)
	if crossDelete.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign delete, got %d: %s", crossDelete.Code, crossDelete.Body.String())
	}
	crossUpdate := doJSON(t, router, http.MethodPut, "/api/tasks/"+taskID, tokenB, map[string]string{"title": "hijack"})
	if crossUpdate.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign update, got %d: %s", crossUpdate.Code, crossUpdate.Body.String())
	}

	ownUpdate := doJSON(t, router, http.MethodPut, "/api/tasks/"+taskID, tokenA, map[string]string{"title": "write more spec"})
	if ownUpdate.Code != http.StatusOK {
		t.Fatalf("owner update failed: %d %s", ownUpdate.Code, ownUpdate.Body.String())
	}
	ownDelete := doJSON(t, router, http.MethodDelete, "/api/tasks/"+taskID, tokenA, nil)
	if ownDelete.Code != http.StatusOK {
		t.Fatalf("owner delete failed: %d %s", ownDelete.Code, ownDelete.Body.String())
	}
	if len(store.tasks) != 0 {
		t.Fatalf("expected task removed, got %+v", store.tasks)
	}
}

func TestTasksRequireAuthentication(t *testing.T) {
	router := newTestRouter(t, &memStore{})

	missing := doJSON(t, router, http.MethodGet, "/api/tasks", "", nil)
	if missing.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", missing.Code)
	}

	garbage := doJSON(t, router, http.MethodGet, "/api/tasks", "not-a-real-token", nil)
	if garbage.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", garbage.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer scheme, got %d", rec.Code)
	}
}

func TestAdminUserListing(t *testing.T) {
	store := &memStore{}
	router := newTestRouter(t, store)
	userToken := registerAndLogin(t, router, "A", "a@x.com", "secret1")

	// Role assignment is an out-of-band administrative action; seed it
	// directly the way a migration or operator would.
	hash, err := crypto.HashPassword("admin-pass", 4)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := store.CreateUser(context.Background(), &domain.User{
		ID:           uuid.NewString(),
		Name:         "Root",
		Email:        "root@x.com",
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	adminLogin := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "root@x.com", "password": "admin-pass",
	})
	if adminLogin.Code != http.StatusOK {
		t.Fatalf("admin login: %d %s", adminLogin.Code, adminLogin.Body.String())
	}
	adminToken, _ := decodeBody(t, adminLogin)["token"].(string)

	forbidden := doJSON(t, router, http.MethodGet, "/api/admin/users", userToken, nil)
	if forbidden.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d: %s", forbidden.Code, forbidden.Body.String())
	}

	allowed := doJSON(t, router, http.MethodGet, "/api/admin/users", adminToken, nil)
	if allowed.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", allowed.Code, allowed.Body.String())
	}
	users, _ := decodeBody(t, allowed)["users"].([]any)
	if len(users) != 2 {
		t.Fatalf("expected both users listed, got %d", len(users))
	}
	for _, entry := range users {
		fields := entry.(map[string]any)
		if _, present := fields["password_hash"]; present {
			t.Fatalf("user listing leaks password hash: %v", fields)
		}
	}
}

func TestProfileReturnsCaller(t *testing.T) {
	router := newTestRouter(t, &memStore{})
	token := registerAndLogin(t, router, "A", "a@x.com", "secret1")

	rec := doJSON(t, router, http.MethodGet, "/api/user/profile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	profile, _ := decodeBody(t, rec)["user"].(map[string]any)
	if profile["email"] != "a@x.com" || profile["name"] != "A" {
		t.Fatalf("unexpected profile: %s", rec.Body.String())
	}
}

func TestRegisterRateLimit(t *testing.T) {
	router := newTestRouter(t, &memStore{})

	var last *httptest.ResponseRecorder
	for i := 0; i <= rateLimitRegister; i++ {
		last = doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
			"name": "A", "email": fmt.Sprintf("a%d@x.com", i), "password": "secret1",
		})
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exceeding limit, got %d", last.Code)
	}
	if last.Header().Get("X-RateLimit-Limit") == "" {
		t.Fatalf("expected rate limit headers on throttled response")
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, &memStore{})

	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS origin header")
	}
	if rec.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Fatalf("missing CORS headers header")
	}
}

func TestHealthReportsDatabaseState(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testRouterConfig()
	store := &memStore{}
	down := NewRouter(log,
		auth.New(store, log, cfg),
		task.New(store, log),
		user.New(store, log),
		NewMemoryRateLimiter(),
		cfg,
		func(context.Context) error { return context.DeadlineExceeded },
	)
	t.Cleanup(down.Close)

	rec := httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when database is down, got %d", rec.Code)
	}
	if decodeBody(t, rec)["status"] != "degraded" {
		t.Fatalf("expected degraded status: %s", rec.Body.String())
	}

	up := newTestRouter(t, store)
	rec = httptest.NewRecorder()
	up.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
