package handler

import (
	"bank-backoffice/internal/api/handler/dto"
	"bank-backoffice/internal/api/middleware"
	"bank-backoffice/internal/pkg/apperrors"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// statusFor maps an error category to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidArgument),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrInvalidAmount),
		errors.Is(err, apperrors.ErrAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	detail := dto.ErrorDetail{Code: apperrors.Code(err, http.StatusText(status))}

	var validationError *apperrors.ValidationError
	switch {
	case status == http.StatusInternalServerError:
		slog.Default().Error("Unhandled internal error", "error", err)
		detail.Code = apperrors.Code(err, "INTERNAL")
		detail.Message = "An unexpected error occurred."
	case errors.As(err, &validationError):
		detail.Code = "VALIDATION_FAILED"
		detail.Message, detail.Field = validationError.Message, validationError.Field
	default:
		detail.Message = err.Error()
	}

	respondJSON(w, status, dto.ErrorResponse{Error: detail})
}

func invalidBody(err error) error {
	return fmt.Errorf("%w: malformed request body: %v", apperrors.ErrInvalidArgument, err)
}

// int64Param reads a positive integer URL parameter.
func int64Param(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s in URL path: %s", apperrors.ErrInvalidArgument, name, raw)
	}
	return id, nil
}

// requester names the authenticated caller for audit log lines.
func requester(r *http.Request) slog.Attr {
	if sub, ok := middleware.SubjectFromContext(r.Context()); ok {
		return slog.String("requested_by", sub)
	}
	return slog.String("requested_by", "anonymous")
}
