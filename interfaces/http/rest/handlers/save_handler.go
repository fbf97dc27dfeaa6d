package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"markup-backend/application/save"
	"markup-backend/pkg/validation"
)

// maxUploadBytes bounds document uploads at 100 MB.
const maxUploadBytes = 100 << 20

// SaveHandler handles save, download and upload requests.
type SaveHandler struct {
	orchestrator *save.Orchestrator
	logger       *zap.Logger
}

// NewSaveHandler creates a new save handler.
func NewSaveHandler(o *save.Orchestrator, logger *zap.Logger) *SaveHandler {
	return &SaveHandler{orchestrator: o, logger: logger}
}

// SaveDocumentRequest carries the render parameters the converter
// needs to place markups on the page.
type SaveDocumentRequest struct {
	Flatten      bool    `json:"flatten"`
	CanvasWidth  float64 `json:"canvasWidth" validate:"required,gt=0"`
	CanvasHeight float64 `json:"canvasHeight" validate:"required,gt=0"`
	SourceFolder string  `json:"sourceFolder,omitempty"`
}

// SaveInPlace handles POST /documents/{filename}/save.
func (h *SaveHandler) SaveInPlace(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.decodeOptions(w, r)
	if !ok {
		return
	}

	outcome, err := h.orchestrator.SaveInPlace(r.Context(), opts)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, outcome)
}

// Download handles POST /documents/{filename}/download and streams the
// merged document back.
func (h *SaveHandler) Download(w http.ResponseWriter, r *http.Request) {
	opts, ok := h.decodeOptions(w, r)
	if !ok {
		return
	}

	body, err := h.orchestrator.Download(r.Context(), opts)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+opts.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("Failed to stream document", zap.Error(err))
	}
}

// Upload handles POST /documents/upload: a local-only file is
// registered with the backend and the assigned filename returned.
func (h *SaveHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		respondBadRequest(w, h.logger, "Missing file field: "+err.Error())
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		respondBadRequest(w, h.logger, "Failed to read upload: "+err.Error())
		return
	}

	backendName, err := h.orchestrator.RegisterLocalDocument(r.Context(), header.Filename, body)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"filename":        header.Filename,
		"backendFilename": backendName,
	})
}

func (h *SaveHandler) decodeOptions(w http.ResponseWriter, r *http.Request) (save.Options, bool) {
	filename := chi.URLParam(r, "filename")

	var req SaveDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return save.Options{}, false
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, err)
		return save.Options{}, false
	}

	return save.Options{
		Filename:     filename,
		Flatten:      req.Flatten,
		CanvasWidth:  req.CanvasWidth,
		CanvasHeight: req.CanvasHeight,
		SourceFolder: req.SourceFolder,
	}, true
}
