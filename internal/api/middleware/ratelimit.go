package middleware

import (
	"bank-backoffice/internal/config"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether one more request from key is allowed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalLimiter keeps one token bucket per key in process memory.
type LocalLimiter struct {
	limiters sync.Map
	rps      float64
	burst    int
	stop     chan struct{}
	stopOnce sync.Once
}

func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	l := &LocalLimiter{rps: rps, burst: burst, stop: make(chan struct{})}
	go l.cleanupLimiters()
	return l
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	limiter, _ := l.limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(l.rps), l.burst))
	return limiter.(*rate.Limiter).Allow(), nil
}

// Close stops the background sweep of idle buckets.
func (l *LocalLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *LocalLimiter) cleanupLimiters() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.limiters.Range(func(key, value any) bool {
				limiter := value.(*rate.Limiter)
				if limiter.Tokens() >= float64(l.burst) {
					l.limiters.Delete(key)
				}
				return true
			})
		}
	}
}

type RateLimiterMiddleware struct {
	limiter Limiter
	cfg     config.RateLimitConfig
	logger  *slog.Logger
}

// NewRateLimiterMiddleware uses limiter when given, and an in-process token
// bucket per client IP otherwise.
func NewRateLimiterMiddleware(cfg config.RateLimitConfig, limiter Limiter, logger *slog.Logger) *RateLimiterMiddleware {
	if limiter == nil {
		limiter = NewLocalLimiter(cfg.RPS, cfg.Burst)
	}
	return &RateLimiterMiddleware{
		limiter: limiter,
		cfg:     cfg,
		logger:  logger.With("component", "RateLimiter"),
	}
}

func (rl *RateLimiterMiddleware) extractIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[0])
	}

	xRealIP := r.Header.Get("X-Real-IP")
	if xRealIP != "" {
		return xRealIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (rl *RateLimiterMiddleware) Middleware(next http.Handler) http.Handler {
	if !rl.cfg.Enabled {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := rl.extractIP(r)
		allowed, err := rl.limiter.Allow(r.Context(), ip)
		if err != nil {
			// Limiter backend failures let traffic through.
			rl.logger.ErrorContext(r.Context(), "Rate limiter check failed", "ip", ip, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			rl.logger.WarnContext(r.Context(), "Rate limit exceeded", "ip", ip)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{
					"code":    "RATE_LIMITED",
					"message": "Rate limit exceeded",
				},
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
