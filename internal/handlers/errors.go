package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fmfm/internal/contextutil"
	"fmfm/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleServiceError maps service errors to HTTP status codes. Client errors
// carry the service message, which names the entry; internal errors only
// name item.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, item string) {
	logger := contextutil.LoggerFromContext(ctx)
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "service error", "item", item, "error", err)
	} else {
		logger.WarnContext(ctx, "request failed", "item", item, "error", err)
	}

	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, status, fmt.Sprintf("Validation error: %s", validationErr.Error()))
	case status == http.StatusInternalServerError:
		writeError(w, status, fmt.Sprintf("%s: internal error", item))
	default:
		writeError(w, status, err.Error())
	}
}

// statusFor returns the HTTP status for a service error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateContent), errors.Is(err, service.ErrCollision):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// writeJSON writes v with statusCode.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// numberParam reads the {number} path parameter.
func numberParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "number")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return 0, &service.ValidationError{Field: "number", Message: fmt.Sprintf("%q is not an entry number", raw)}
	}
	return n, nil
}

// intQuery reads a positive integer query parameter, returning def when absent.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &service.ValidationError{Field: name, Message: "must be a positive integer"}
	}
	return n, nil
}
