package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/billing-api/internal/config"
	"github.com/sangkips/billing-api/internal/domain/entity"
	"go.uber.org/zap"
)

type memoryKeys struct {
	mu   sync.Mutex
	keys map[string]*entity.IdempotencyKey
}

func newMemoryKeys() *memoryKeys {
	return &memoryKeys{keys: map[string]*entity.IdempotencyKey{}}
}

func (m *memoryKeys) GetByKey(_ context.Context, key, endpoint string) (*entity.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key+"|"+endpoint], nil
}

func (m *memoryKeys) Create(_ context.Context, k *entity.IdempotencyKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[k.Key+"|"+k.Endpoint] = k
	return nil
}

func (m *memoryKeys) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, k := range m.keys {
		if k.ExpiresAt.Before(now) {
			delete(m.keys, id)
			n++
		}
	}
	return n, nil
}

func idempotentRouter(repo *memoryKeys, now func() time.Time, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/bills", Idempotency(IdempotencyConfig{Repo: repo, TTL: time.Hour, Log: zap.NewNop(), Now: now}),
		func(c *gin.Context) {
			*calls++
			if strings.Contains(c.GetHeader("X-Fail"), "yes") {
				c.JSON(http.StatusConflict, gin.H{"success": false})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"call": *calls})
		})
	return r
}

func post(r *gin.Engine, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotencyReplaysSameRequest(t *testing.T) {
	repo := newMemoryKeys()
	now := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	calls := 0
	r := idempotentRouter(repo, func() time.Time { return now }, &calls)

	first := post(r, `{"a":1}`, IdempotencyKeyHeader, "k1")
	second := post(r, `{"a":1}`, IdempotencyKeyHeader, "k1")
	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() ||
		second.Header().Get(ReplayedHeader) != "true" {
		t.Fatalf("expected replay, got %d %s", second.Code, second.Body.String())
	}

	mismatch := post(r, `{"a":2}`, IdempotencyKeyHeader, "k1")
	if mismatch.Code != http.StatusUnprocessableEntity || calls != 1 {
		t.Fatalf("expected 422 for a changed body, got %d", mismatch.Code)
	}

	post(r, `{"a":1}`)
	post(r, `{"a":1}`)
	if calls != 3 {
		t.Fatalf("requests without a key must always run, calls=%d", calls)
	}

	now = now.Add(2 * time.Hour)
	again := post(r, `{"a":1}`, IdempotencyKeyHeader, "k1")
	if again.Header().Get(ReplayedHeader) != "" || calls != 4 {
		t.Fatal("expired keys must not replay")
	}
}

func TestIdempotencyStoresOnlySuccess(t *testing.T) {
	repo := newMemoryKeys()
	calls := 0
	r := idempotentRouter(repo, time.Now, &calls)

	post(r, `{}`, IdempotencyKeyHeader, "k2", "X-Fail", "yes")
	post(r, `{}`, IdempotencyKeyHeader, "k2")
	if calls != 2 {
		t.Fatalf("failed responses must not be stored, calls=%d", calls)
	}
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewClientRateLimiter(RateLimiterConfigFrom(2, time.Minute))
	defer rl.Stop()

	r := gin.New()
	r.Use(rl.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.7:5000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.8:5000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || rl.Clients() != 2 {
		t.Fatalf("other clients must have their own budget, got %d", w.Code)
	}
}

func TestCORSAllowsIdempotencyKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(&config.CORSConfig{
		AllowedOrigins: []string{"http://till.local"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.POST("/bills", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodOptions, "/bills", nil)
	req.Header.Set("Origin", "http://till.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "http://till.local" {
		t.Fatalf("unexpected preflight headers %v", w.Header())
	}
	if !strings.Contains(strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "idempotency-key") {
		t.Fatalf("idempotency key not allowed: %v", w.Header())
	}
}

func TestLoggerSetsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggerMiddleware(zap.NewNop()))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("request id not propagated: %q", w.Body.String())
	}
}
