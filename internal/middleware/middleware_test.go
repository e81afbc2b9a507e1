package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/paywall-backend/internal/auth"
	repo "github.com/baharkarakas/paywall-backend/internal/repository"
)

type memIdem struct {
	mu   sync.Mutex
	data map[string]repo.CachedResponse
	fail bool
}

func (m *memIdem) Get(_ context.Context, key string) (*repo.CachedResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return nil, errors.New("redis down")
	}
	if v, ok := m.data[key]; ok {
		return &v, nil
	}
	return nil, nil
}

func (m *memIdem) Save(_ context.Context, key string, resp repo.CachedResponse, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = resp
	return nil
}

func countingHandler(calls *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func idemRequest(user, key string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/unlock/with-points", nil)
	r.Header.Set(HeaderIdempotencyKey, key)
	return r.WithContext(WithIdentity(r.Context(), user, auth.RoleUser))
}

func TestIdempotencyReplays(t *testing.T) {
	store := &memIdem{data: map[string]repo.CachedResponse{}}
	calls := 0
	h := Idempotency(store)(countingHandler(&calls, http.StatusOK))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, idemRequest("u1", "k1"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	}
	assert.Equal(t, 1, calls)

	// same key, different user
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, idemRequest("u2", "k1"))
	assert.Equal(t, 2, calls)
	assert.Empty(t, rec.Header().Get("X-Idempotency-Hit"))
}

func TestIdempotencySkipsServerErrors(t *testing.T) {
	store := &memIdem{data: map[string]repo.CachedResponse{}}
	calls := 0
	h := Idempotency(store)(countingHandler(&calls, http.StatusInternalServerError))

	h.ServeHTTP(httptest.NewRecorder(), idemRequest("u1", "k1"))
	h.ServeHTTP(httptest.NewRecorder(), idemRequest("u1", "k1"))
	assert.Equal(t, 2, calls)
}

func TestIdempotencyFailsOpen(t *testing.T) {
	calls := 0
	h := Idempotency(&memIdem{fail: true})(countingHandler(&calls, http.StatusOK))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, idemRequest("u1", "k1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestRateLimit(t *testing.T) {
	calls := 0
	h := RateLimit(2)(countingHandler(&calls, http.StatusOK))

	codes := []int{}
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "1", rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRateLimitRefillsAndDisables(t *testing.T) {
	calls := 0
	h := RateLimit(2)(countingHandler(&calls, http.StatusOK))
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	time.Sleep(600 * time.Millisecond)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, calls)

	calls = 0
	off := RateLimit(0)(countingHandler(&calls, http.StatusOK))
	for i := 0; i < 50; i++ {
		off.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	assert.Equal(t, 50, calls)
}

func TestRequestIDHonoursIncoming(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)
}

func TestAuthDevToken(t *testing.T) {
	tm := auth.NewTokenManager("a", "r", time.Minute, time.Hour)
	var uid string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { uid, _ = UserID(r.Context()) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer dev-u42")
	rec := httptest.NewRecorder()
	NewAuthMiddleware(tm, true).Auth(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u42", uid)

	rec = httptest.NewRecorder()
	NewAuthMiddleware(tm, false).Auth(next).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsRefreshToken(t *testing.T) {
	tm := auth.NewTokenManager("a", "r", time.Minute, time.Hour)
	p, err := tm.GeneratePair("u1", auth.RoleUser)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+p.Refresh)
	rec := httptest.NewRecorder()
	NewAuthMiddleware(tm, false).Auth(http.NotFoundHandler()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
