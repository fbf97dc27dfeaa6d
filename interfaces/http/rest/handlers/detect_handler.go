package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"markup-backend/application/detect"
	pkgerrors "markup-backend/pkg/errors"
)

// DetectHandler handles symbol/text detection requests.
type DetectHandler struct {
	detect *detect.Service
	logger *zap.Logger
}

// NewDetectHandler creates a new detect handler.
func NewDetectHandler(d *detect.Service, logger *zap.Logger) *DetectHandler {
	return &DetectHandler{detect: d, logger: logger}
}

// DetectRequest names the models to run over the document.
type DetectRequest struct {
	Models []string `json:"models"`
}

// Detect handles POST /documents/{filename}/detect.
func (h *DetectHandler) Detect(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if !h.detect.Enabled() {
		respondError(w, h.logger, pkgerrors.NewUnavailable("detection service is not configured", nil))
		return
	}

	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}

	markups, err := h.detect.Run(r.Context(), filename, req.Models)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"markups": markups,
		"count":   len(markups),
	})
}
