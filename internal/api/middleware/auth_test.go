package middleware

import (
	"bank-backoffice/internal/config"
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	secret := "testsecret"

	cfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: secret,
		TokenTTL:  time.Hour,
	}

	var gotSubject, gotRole string
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject, _ = SubjectFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	serve := func(cfg config.AuthConfig, header string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		AuthMiddleware(cfg, logger)(nextHandler).ServeHTTP(rec, req)
		return rec.Code
	}

	t.Run("should allow request when middleware is disabled", func(t *testing.T) {
		disabled := cfg
		disabled.Enabled = false
		assert.Equal(t, http.StatusOK, serve(disabled, ""))
	})

	t.Run("should reject request with missing Authorization header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(cfg, ""))
	})

	t.Run("should reject malformed header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Token abc"))
	})

	t.Run("should reject request with invalid token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Bearer invalidtoken"))
	})

	t.Run("should reject token signed with another secret", func(t *testing.T) {
		other := cfg
		other.JWTSecret = "othersecret"
		token, _, err := IssueToken(other, 7, RoleCustomer, time.Now())
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Bearer "+token))
	})

	t.Run("should reject expired token", func(t *testing.T) {
		token, _, err := IssueToken(cfg, 7, RoleCustomer, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Bearer "+token))
	})

	t.Run("should reject none algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "7"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Bearer "+token))
	})

	t.Run("should allow request with valid token", func(t *testing.T) {
		token, expires, err := IssueToken(cfg, 7, RoleCustomer, time.Now())
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

		assert.Equal(t, http.StatusOK, serve(cfg, "Bearer "+token))
		assert.Equal(t, "7", gotSubject)
		assert.Equal(t, RoleCustomer, gotRole)
	})
}

func TestRequireRole(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	cfg := config.AuthConfig{Enabled: true, JWTSecret: "testsecret", TokenTTL: time.Hour}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	serve := func(cfg config.AuthConfig, role string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/loans/500001/decision", nil)
		if role != "" {
			token, _, err := IssueToken(cfg, 1, role, time.Now())
			require.NoError(t, err)
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		chain := AuthMiddleware(cfg, logger)(RequireRole(cfg, RoleEmployee, logger)(ok))
		chain.ServeHTTP(rec, req)
		return rec
	}

	t.Run("employee token passes", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(cfg, RoleEmployee).Code)
	})

	t.Run("customer token is forbidden", func(t *testing.T) {
		rec := serve(cfg, RoleCustomer)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.JSONEq(t, `{"error":{"code":"FORBIDDEN","message":"This action requires the employee role"}}`, rec.Body.String())
	})

	t.Run("token without a role is forbidden", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7"}).SignedString([]byte(cfg.JWTSecret))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		AuthMiddleware(cfg, logger)(RequireRole(cfg, RoleEmployee, logger)(ok)).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("disabled auth lets everything through", func(t *testing.T) {
		disabled := cfg
		disabled.Enabled = false
		assert.Equal(t, http.StatusOK, serve(disabled, "").Code)
	})
}
