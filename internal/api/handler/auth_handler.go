package handler

import (
	"bank-backoffice/internal/api/handler/dto"
	"bank-backoffice/internal/api/middleware"
	"bank-backoffice/internal/config"
	"bank-backoffice/internal/domain/customer"
	"bank-backoffice/internal/domain/directory"
	"bank-backoffice/internal/pkg/apperrors"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// StaffAuthenticator checks employee credentials.
type StaffAuthenticator interface {
	AuthenticateEmployee(ctx context.Context, email, password string) (*directory.Employee, error)
}

type AuthHandler struct {
	customers customer.CustomerService
	staff     StaffAuthenticator
	cfg       config.AuthConfig
	now       func() time.Time
	logger    *slog.Logger
}

func NewAuthHandler(customers customer.CustomerService, staff StaffAuthenticator, cfg config.AuthConfig, l *slog.Logger) *AuthHandler {
	return &AuthHandler{
		customers: customers,
		staff:     staff,
		cfg:       cfg,
		now:       time.Now,
		logger:    l.With("component", "AuthHandler"),
	}
}

// IssueToken exchanges customer credentials for a bearer token.
//
// @Summary Log in and obtain a JWT bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "Customer credentials"
// @Success 200 {object} dto.TokenResponse "Token issued"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 401 {object} dto.ErrorResponse "Invalid email or password"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, invalidBody(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	cust, err := h.customers.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	token, expires, err := middleware.IssueToken(h.cfg, cust.CustomerID, middleware.RoleCustomer, h.now())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInternalServer, err))
		return
	}

	h.logger.InfoContext(r.Context(), "Token issued", slog.Int64("customerID", cust.CustomerID))
	respondJSON(w, http.StatusOK, dto.TokenResponse{
		Token:      token,
		TokenType:  "Bearer",
		ExpiresAt:  expires,
		CustomerID: cust.CustomerID,
	})
}

// IssueStaffToken exchanges employee credentials for a bearer token carrying
// the employee role, which loan decisions require.
//
// @Summary Employee log in
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "Employee credentials"
// @Success 200 {object} dto.StaffTokenResponse "Token issued"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 401 {object} dto.ErrorResponse "Invalid email or password"
// @Router /auth/employee-token [post]
func (h *AuthHandler) IssueStaffToken(w http.ResponseWriter, r *http.Request) {
	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, invalidBody(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	employee, err := h.staff.AuthenticateEmployee(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	token, expires, err := middleware.IssueToken(h.cfg, employee.ID, middleware.RoleEmployee, h.now())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign staff token", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInternalServer, err))
		return
	}

	h.logger.InfoContext(r.Context(), "Staff token issued", slog.Int64("employeeID", employee.ID))
	respondJSON(w, http.StatusOK, dto.StaffTokenResponse{
		Token:      token,
		TokenType:  "Bearer",
		ExpiresAt:  expires,
		EmployeeID: employee.ID,
		BranchName: employee.BranchName,
	})
}
