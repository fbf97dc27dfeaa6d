package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"markup-backend/application/history"
	"markup-backend/application/ports"
	"markup-backend/application/store"
	"markup-backend/domain/markup"
	"markup-backend/infrastructure/surface"
	"markup-backend/pkg/validation"
)

// DocumentHandler handles document lifecycle requests: open, embedded
// annotation ingest, body fetch and close.
type DocumentHandler struct {
	store     *store.MarkupStore
	history   *history.Manager
	converter ports.ConverterService
	surface   *surface.Surface
	logger    *zap.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(
	s *store.MarkupStore,
	h *history.Manager,
	converter ports.ConverterService,
	surf *surface.Surface,
	logger *zap.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		store:     s,
		history:   h,
		converter: converter,
		surface:   surf,
		logger:    logger,
	}
}

// EmbeddedAnnotation is one annotation the viewer parsed out of the
// document body on open.
type EmbeddedAnnotation struct {
	PDFAnnotID string         `json:"pdfAnnotId" validate:"required"`
	Type       markup.Type    `json:"type" validate:"required"`
	Page       int            `json:"page" validate:"min=0"`
	Points     []markup.Point `json:"points,omitempty"`
	Start      *markup.Point  `json:"start,omitempty"`
	End        *markup.Point  `json:"end,omitempty"`
	X          float64        `json:"x,omitempty"`
	Y          float64        `json:"y,omitempty"`
	Width      float64        `json:"width,omitempty"`
	Height     float64        `json:"height,omitempty"`
	Text       string         `json:"text,omitempty"`
	Style      *markup.Style  `json:"style,omitempty"`
}

// IngestAnnotationsRequest is the batch posted once per document open.
type IngestAnnotationsRequest struct {
	Annotations []EmbeddedAnnotation `json:"annotations"`
}

// OpenDocument handles POST /documents/{filename}/open: the current
// body is fetched from the backend and put on the render surface.
func (h *DocumentHandler) OpenDocument(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	body, err := h.converter.FetchDocument(r.Context(), filename)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	pages, err := h.surface.LoadDocument(r.Context(), filename, body)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.history.SetActiveDocument(filename)
	h.logger.Info("Document opened",
		zap.String("filename", filename),
		zap.Int("pages", pages),
	)
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"filename":  filename,
		"pageCount": pages,
	})
}

// IngestAnnotations handles POST /documents/{filename}/annotations.
// The viewer posts the annotations it parsed from the body; they are
// adopted as embedded markups exactly once per load.
func (h *DocumentHandler) IngestAnnotations(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	var req IngestAnnotationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}

	sess := h.store.Sessions().Get(filename)
	if sess.AnnotationsLoaded() {
		respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
			"ingested": 0,
			"skipped":  "annotations already loaded for this document",
		})
		return
	}

	ingested := make([]*markup.Markup, 0, len(req.Annotations))
	for _, a := range req.Annotations {
		if err := validation.ValidateStruct(a); err != nil {
			respondError(w, h.logger, err)
			return
		}
		m, err := markup.FromEmbedded(a.Type, filename, a.Page, a.PDFAnnotID)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		m.Points = a.Points
		m.Start = a.Start
		m.End = a.End
		m.X = a.X
		m.Y = a.Y
		m.Width = a.Width
		m.Height = a.Height
		m.Text = a.Text
		if a.Style != nil {
			m.Style = *a.Style
		}
		if err := h.store.Insert(m); err != nil {
			respondError(w, h.logger, err)
			return
		}
		ingested = append(ingested, m)
	}
	sess.MarkAnnotationsLoaded()

	h.logger.Info("Embedded annotations ingested",
		zap.String("filename", filename),
		zap.Int("count", len(ingested)),
	)
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"ingested": len(ingested),
		"markups":  ingested,
	})
}

// GetBody handles GET /documents/{filename}/body and streams the
// currently displayed body.
func (h *DocumentHandler) GetBody(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	body, err := h.surface.Body(filename)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("Failed to stream document", zap.Error(err))
	}
}

// GetStatus handles GET /documents/{filename}: open state, page count
// and surface version for cache checks.
func (h *DocumentHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if !h.surface.Open(filename) {
		respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
			"filename": filename,
			"open":     false,
		})
		return
	}
	pages, err := h.surface.PageCount(filename)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"filename":  filename,
		"open":      true,
		"pageCount": pages,
		"version":   h.surface.Version(filename),
		"markups":   len(h.store.ListByDocument(filename)),
	})
}

// CloseDocument handles DELETE /documents/{filename}: all in-memory
// state for the document is dropped.
func (h *DocumentHandler) CloseDocument(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	h.store.ClearDocument(filename, false)
	h.history.DropDocument(filename)
	h.store.Sessions().Remove(filename)
	h.surface.Close(filename)

	h.logger.Info("Document closed", zap.String("filename", filename))
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message":  "Document closed",
		"filename": filename,
	})
}
