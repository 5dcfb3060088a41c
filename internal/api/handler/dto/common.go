package dto

import (
	"bank-backoffice/internal/pkg/apperrors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *TokenRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return apperrors.NewValidationError("email", "email is required")
	}
	if r.Password == "" {
		return apperrors.NewValidationError("password", "password is required")
	}
	return nil
}

type TokenResponse struct {
	Token      string    `json:"token"`
	TokenType  string    `json:"tokenType"`
	ExpiresAt  time.Time `json:"expiresAt"`
	CustomerID int64     `json:"customerId"`
}

type StaffTokenResponse struct {
	Token      string    `json:"token"`
	TokenType  string    `json:"tokenType"`
	ExpiresAt  time.Time `json:"expiresAt"`
	EmployeeID int64     `json:"employeeId"`
	BranchName string    `json:"branchName"`
}

// ParseMoney reads a decimal string amount. Range and precision checks are
// left to the domain.
func ParseMoney(field, value string) (decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero, apperrors.NewValidationError(field, field+" is required")
	}
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, apperrors.NewValidationError(field, field+" must be a decimal number")
	}
	return d, nil
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
