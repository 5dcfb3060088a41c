package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorError(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "With Code",
			appError: &AppError{
				Code:    "TEST_CODE",
				Message: "This is a test error",
			},
			expected: "[TEST_CODE] This is a test error",
		},
		{
			name: "Without Code",
			appError: &AppError{
				Message: "This is a test error without code",
			},
			expected: "This is a test error without code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.appError.Error()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestNewKeepsCategory(t *testing.T) {
	errAccountMissing := New("ACCOUNT_NOT_FOUND", "account not found", ErrNotFound)
	wrapped := fmt.Errorf("%w: account 42", errAccountMissing)

	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.True(t, errors.Is(wrapped, errAccountMissing))
	assert.False(t, errors.Is(wrapped, ErrInsufficientFunds))
	assert.Equal(t, "ACCOUNT_NOT_FOUND", Code(wrapped, "INTERNAL"))
}

func TestCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "plain error falls back", err: errors.New("boom"), expected: "INTERNAL"},
		{name: "app error without code falls back", err: &AppError{Message: "x"}, expected: "INTERNAL"},
		{name: "database error", err: WrapDatabaseError(errors.New("conn reset"), "query failed"), expected: "DB_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Code(tt.err, "INTERNAL"))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("amount", "must be positive")

	assert.True(t, errors.Is(err, ErrValidation))
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "amount", ve.Field)
	assert.Equal(t, "validation failed for field 'amount': must be positive", ve.Error())
}

func TestWrapDatabaseError(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapDatabaseError(cause, "failed to load account")

	assert.True(t, errors.Is(err, ErrDatabase))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "[DB_ERROR] failed to load account", err.Error())
}
