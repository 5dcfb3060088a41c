package middleware

import (
	"bank-backoffice/internal/config"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiterMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	cfg := config.RateLimitConfig{
		Enabled: true,
		RPS:     1,
		Burst:   1,
	}

	t.Run("blocks requests exceeding the local bucket", func(t *testing.T) {
		local := NewLocalLimiter(cfg.RPS, cfg.Burst)
		defer local.Close()
		handler := NewRateLimiterMiddleware(cfg, local, logger).Middleware(okHandler)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "127.0.0.1:12345"

		rec1 := httptest.NewRecorder()
		handler.ServeHTTP(rec1, req)
		assert.Equal(t, http.StatusOK, rec1.Code)

		rec2 := httptest.NewRecorder()
		handler.ServeHTTP(rec2, req)
		require.Equal(t, http.StatusTooManyRequests, rec2.Code)

		var response map[string]map[string]string
		require.NoError(t, json.NewDecoder(rec2.Body).Decode(&response))
		assert.Equal(t, "RATE_LIMITED", response["error"]["code"])

		other := httptest.NewRequest(http.MethodGet, "/", nil)
		other.RemoteAddr = "10.1.1.1:4000"
		rec3 := httptest.NewRecorder()
		handler.ServeHTTP(rec3, other)
		assert.Equal(t, http.StatusOK, rec3.Code, "buckets are per client")
	})

	t.Run("disabled middleware never consults the limiter", func(t *testing.T) {
		stub := &stubLimiter{}
		disabled := cfg
		disabled.Enabled = false
		rec := httptest.NewRecorder()
		NewRateLimiterMiddleware(disabled, stub, logger).Middleware(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, stub.keys)
	})

	t.Run("limiter errors fail open", func(t *testing.T) {
		stub := &stubLimiter{err: errors.New("backend down")}
		rec := httptest.NewRecorder()
		NewRateLimiterMiddleware(cfg, stub, logger).Middleware(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("extractIP handles various headers", func(t *testing.T) {
		rl := NewRateLimiterMiddleware(cfg, &stubLimiter{}, logger)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "192.168.1.1, 10.0.0.1")
		assert.Equal(t, "192.168.1.1", rl.extractIP(req))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		assert.Equal(t, "10.0.0.1", rl.extractIP(req))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		assert.Equal(t, "127.0.0.1", rl.extractIP(req))
	})
}

func TestRedisLimiterReportsUnreachableBackend(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	_, err := NewRedisLimiter(client, 5, time.Second).Allow(context.Background(), "127.0.0.1")
	assert.Error(t, err)
}
