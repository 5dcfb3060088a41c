package handler

import (
	"bank-backoffice/internal/api/handler/dto"
	"bank-backoffice/internal/api/middleware"
	"bank-backoffice/internal/config"
	"bank-backoffice/internal/domain/customer"
	"bank-backoffice/internal/domain/directory"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_IssueToken(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, JWTSecret: "test-secret", TokenTTL: time.Hour}
	fixedNow := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	newHandler := func(svc *MockCustomerService) *AuthHandler {
		h := NewAuthHandler(svc, new(MockStaffAuthenticator), cfg, testLogger())
		h.now = func() time.Time { return fixedNow }
		return h
	}

	t.Run("valid credentials", func(t *testing.T) {
		svc := new(MockCustomerService)
		svc.On("Authenticate", mock.Anything, "jane@example.com", "s3cret-pass").Return(sampleCustomer(), nil).Once()

		rec := httptest.NewRecorder()
		newHandler(svc).IssueToken(rec, newRequest(http.MethodPost, "/auth/token", `{"email":"jane@example.com","password":"s3cret-pass"}`, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.TokenResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, int64(7), resp.CustomerID)
		assert.True(t, resp.ExpiresAt.Equal(fixedNow.Add(time.Hour)))

		claims := &middleware.Claims{}
		_, _, err := jwt.NewParser().ParseUnverified(resp.Token, claims)
		require.NoError(t, err)
		assert.Equal(t, "7", claims.Subject)
		assert.Equal(t, middleware.RoleCustomer, claims.Role)
		svc.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc := new(MockCustomerService)
		svc.On("Authenticate", mock.Anything, "jane@example.com", "nope-nope").Return(nil, customer.ErrInvalidCredentials).Once()

		rec := httptest.NewRecorder()
		newHandler(svc).IssueToken(rec, newRequest(http.MethodPost, "/auth/token", `{"email":"jane@example.com","password":"nope-nope"}`, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
	})

	t.Run("missing password", func(t *testing.T) {
		svc := new(MockCustomerService)

		rec := httptest.NewRecorder()
		newHandler(svc).IssueToken(rec, newRequest(http.MethodPost, "/auth/token", `{"email":"jane@example.com"}`, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"field":"password"`)
		svc.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newHandler(new(MockCustomerService)).IssueToken(rec, newRequest(http.MethodPost, "/auth/token", `{`, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_IssueStaffToken(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, JWTSecret: "test-secret", TokenTTL: time.Hour}
	fixedNow := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	newHandler := func(staff *MockStaffAuthenticator) *AuthHandler {
		h := NewAuthHandler(new(MockCustomerService), staff, cfg, testLogger())
		h.now = func() time.Time { return fixedNow }
		return h
	}

	t.Run("valid credentials", func(t *testing.T) {
		staff := new(MockStaffAuthenticator)
		staff.On("AuthenticateEmployee", mock.Anything, "ava.patel@bank.local", "teller-pass").
			Return(&directory.Employee{ID: 1, Name: "Ava Patel", BranchName: "Downtown"}, nil).Once()

		rec := httptest.NewRecorder()
		newHandler(staff).IssueStaffToken(rec, newRequest(http.MethodPost, "/auth/employee-token", `{"email":"ava.patel@bank.local","password":"teller-pass"}`, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.StaffTokenResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, int64(1), resp.EmployeeID)
		assert.Equal(t, "Downtown", resp.BranchName)

		claims := &middleware.Claims{}
		_, _, err := jwt.NewParser().ParseUnverified(resp.Token, claims)
		require.NoError(t, err)
		assert.Equal(t, "1", claims.Subject)
		assert.Equal(t, middleware.RoleEmployee, claims.Role)
		staff.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		staff := new(MockStaffAuthenticator)
		staff.On("AuthenticateEmployee", mock.Anything, "ava.patel@bank.local", "nope").Return(nil, directory.ErrInvalidStaffLogin).Once()

		rec := httptest.NewRecorder()
		newHandler(staff).IssueStaffToken(rec, newRequest(http.MethodPost, "/auth/employee-token", `{"email":"ava.patel@bank.local","password":"nope"}`, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_CREDENTIALS")
	})
}
