package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/application-tracker/internal/server/ratelimit"
	"github.com/jonathan/application-tracker/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory ApplicationStore
type memoryStore struct {
	mu   sync.Mutex
	apps map[uuid.UUID]types.Application
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{apps: make(map[uuid.UUID]types.Application)}
}

func cloneApplication(app types.Application) types.Application {
	app.StatusHistory = append([]types.StatusEvent{}, app.StatusHistory...)
	app.Events = append([]types.Event{}, app.Events...)
	return app
}

func (m *memoryStore) CreateApplication(_ context.Context, app *types.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	now := time.Now().UTC()
	app.CreatedAt, app.UpdatedAt = now, now
	m.apps[app.ID] = cloneApplication(*app)
	return nil
}

func (m *memoryStore) GetApplication(_ context.Context, id uuid.UUID) (*types.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	app, ok := m.apps[id]
	if !ok {
		return nil, nil
	}
	out := cloneApplication(app)
	return &out, nil
}

func (m *memoryStore) ListApplications(_ context.Context) ([]types.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	apps := make([]types.Application, 0, len(m.apps))
	for _, app := range m.apps {
		apps = append(apps, cloneApplication(app))
	}
	return apps, nil
}

func (m *memoryStore) UpdateApplication(_ context.Context, id uuid.UUID, mutate func(*types.Application) error) (*types.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	stored, ok := m.apps[id]
	if !ok {
		return nil, nil
	}
	app := cloneApplication(stored)
	if err := mutate(&app); err != nil {
		return nil, err
	}
	app.UpdatedAt = time.Now().UTC()
	m.apps[id] = cloneApplication(app)
	return &app, nil
}

func (m *memoryStore) DeleteApplication(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.apps[id]; !ok {
		return false, nil
	}
	delete(m.apps, id)
	return true, nil
}

// newTestServer creates a server backed by an in-memory store with rate limiting off
func newTestServer() (*Server, *memoryStore) {
	store := newMemoryStore()
	s := newServer(store, Config{Port: 0, RateLimit: &ratelimit.Config{Enabled: false}})
	return s, store
}

// doRequest sends a request through the full middleware chain
func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer()

	w := doRequest(t, s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	resp := decodeBody[map[string]string](t, w)
	assert.Equal(t, "ok", resp["status"])
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer()

	w := doRequest(t, s, http.MethodOptions, "/applications", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestCORSOriginFromConfig(t *testing.T) {
	s := newServer(newMemoryStore(), Config{
		CORSOrigin: "http://localhost:5173",
		RateLimit:  &ratelimit.Config{Enabled: false},
	})

	w := doRequest(t, s, http.MethodGet, "/health", nil)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newServer(newMemoryStore(), Config{
		RateLimit: &ratelimit.Config{
			Enabled:       true,
			DefaultLimit:  2,
			DefaultWindow: time.Minute,
		},
	})
	defer s.rateLimiter.Stop()

	for i := 0; i < 2; i++ {
		w := doRequest(t, s, http.MethodGet, "/applications", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := doRequest(t, s, http.MethodGet, "/applications", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	resp := decodeBody[map[string]any](t, w)
	assert.Equal(t, "rate_limit_exceeded", resp["error"])

	// health checks are never limited
	w = doRequest(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServiceError_HidesInternalErrors(t *testing.T) {
	s, store := newTestServer()
	store.err = errors.New("pq: password authentication failed")

	w := doRequest(t, s, http.MethodGet, "/applications", nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeBody[map[string]string](t, w)
	assert.Equal(t, "Internal server error", resp["error"])
}

func TestExtractClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.168.1.7:52311"
	assert.Equal(t, "192.168.1.7", extractClientID(req))

	req.RemoteAddr = "not-an-addr"
	assert.Equal(t, "not-an-addr", extractClientID(req))

	req.RemoteAddr = "10.0.0.1:80"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "10.0.0.1", extractClientID(req))
}

func TestUnknownRouteAndMethod(t *testing.T) {
	s, _ := newTestServer()

	w := doRequest(t, s, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(t, s, http.MethodPatch, "/applications", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
