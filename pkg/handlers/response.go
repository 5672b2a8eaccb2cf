package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/querygate-inc/querygate-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writePipelineError maps pipeline error categories onto HTTP statuses:
// request-shape and policy failures are the caller's fault, everything else
// is reported as a backend execution failure.
func writePipelineError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, apperrors.ErrSecurityRejected):
		return ErrorResponse(w, http.StatusForbidden, "security_rejection", err.Error())
	case errors.Is(err, apperrors.ErrFeatureDisabled):
		return ErrorResponse(w, http.StatusForbidden, "feature_disabled", err.Error())
	case errors.Is(err, apperrors.ErrInternalOnly):
		return ErrorResponse(w, http.StatusForbidden, "internal_only", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrUnsupportedBackend):
		return ErrorResponse(w, http.StatusBadRequest, "unsupported_backend", err.Error())
	default:
		return ErrorResponse(w, http.StatusInternalServerError, "backend_error", err.Error())
	}
}
