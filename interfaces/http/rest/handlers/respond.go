// Package handlers contains the REST request handlers.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	pkgerrors "markup-backend/pkg/errors"
)

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// respondError maps application error types onto HTTP status codes and
// writes a uniform error body.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case pkgerrors.IsValidation(err):
		status = http.StatusBadRequest
	case pkgerrors.IsNotFound(err):
		status = http.StatusNotFound
	case pkgerrors.IsConflict(err):
		status = http.StatusConflict
	case pkgerrors.IsUnavailable(err):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
	}

	respondJSON(w, logger, status, map[string]interface{}{
		"error":   true,
		"message": err.Error(),
		"code":    status,
	})
}

func respondBadRequest(w http.ResponseWriter, logger *zap.Logger, message string) {
	respondJSON(w, logger, http.StatusBadRequest, map[string]interface{}{
		"error":   true,
		"message": message,
		"code":    http.StatusBadRequest,
	})
}
