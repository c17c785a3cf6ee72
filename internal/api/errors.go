package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/airport-gateway/internal/core/domain"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	TraceID   string    `json:"traceId"`
}

// statusFor maps lookup errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	traceID := uuid.NewString()

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	attrs := []any{"trace_id", traceID, "path", r.URL.Path, "status", status, "error", err}
	if status >= http.StatusInternalServerError {
		slog.Error("Lookup failed", attrs...)
	} else {
		slog.Debug("Lookup rejected", attrs...)
	}

	writeJSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
		TraceID:   traceID,
	})
}
