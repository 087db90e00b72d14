package handler

// Every JSON response uses one of two envelopes:
//
//	{"response": {"success": "..."}}
//	{"error": {"<kind>": "..."}}
//
// so a client can branch on the top-level key and then on the kind.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/parks/internal/apperror"
)

type successResponse struct {
	Response map[string]string `json:"response"`
}

type errorResponse struct {
	Error map[string]string `json:"error"`
}

// writeJSON sends data with the given status. Headers must be set before
// WriteHeader; anything after is ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// The status is already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

func writeSuccess(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, successResponse{Response: map[string]string{"success": message}})
}

// errorKind maps a domain error to an HTTP status and envelope kind.
func errorKind(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError sends err in the error envelope. Only errors that carry a
// user-facing message expose it; anything else becomes a generic 500 so
// SQL or file paths never reach the client.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, kind := errorKind(err)

	message := "An internal error occurred."
	var (
		appErr  *apperror.AppError
		isKnown = status != http.StatusInternalServerError
	)
	switch {
	case isKnown && errors.As(err, &appErr):
		message = appErr.Message
	case isKnown:
		message = err.Error()
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
	}

	writeJSON(w, status, errorResponse{Error: map[string]string{kind: message}})
}
