package handler

// RESPONSE HELPERS:
// Every endpoint answers JSON. Errors always carry an "error" string; the
// rankings endpoint additionally keeps its page fields so a client can
// render the same shape on success and failure.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/gh-rankings/internal/apperror"
)

// ErrorResponse is the body of every non-2xx answer outside the rankings
// endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"` // set for validation errors
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps the sentinel inside err to an HTTP status. Anything that
// is not a client error (upstream, schema, exhausted retries, storage)
// becomes a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the message shown to the client. Client errors echo
// the AppError message; server errors use fallback so internal details
// (SQL, URLs, upstream bodies) never leak.
func errorMessage(err error, status int, fallback string) (message, field string) {
	var appErr *apperror.AppError
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		return appErr.Message, appErr.Field
	}
	return fallback, ""
}

// writeError renders err as an ErrorResponse with the mapped status.
func writeError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	msg, field := errorMessage(err, status, fallback)
	writeJSON(w, status, ErrorResponse{Error: msg, Field: field})
}

// WriteError renders err outside a specific endpoint, for middleware.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err, "Internal server error")
}
