package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"markup-backend/application/history"
	"markup-backend/application/store"
	"markup-backend/domain/markup"
	"markup-backend/pkg/validation"
)

// MarkupHandler handles markup CRUD and manipulation requests.
type MarkupHandler struct {
	store   *store.MarkupStore
	history *history.Manager
	logger  *zap.Logger
}

// NewMarkupHandler creates a new markup handler.
func NewMarkupHandler(s *store.MarkupStore, h *history.Manager, logger *zap.Logger) *MarkupHandler {
	return &MarkupHandler{store: s, history: h, logger: logger}
}

// CreateMarkupRequest carries a new markup's type, page and geometry.
type CreateMarkupRequest struct {
	Type      markup.Type     `json:"type" validate:"required"`
	Page      int             `json:"page" validate:"min=0"`
	Points    []markup.Point  `json:"points,omitempty"`
	Start     *markup.Point   `json:"start,omitempty"`
	End       *markup.Point   `json:"end,omitempty"`
	X         float64         `json:"x,omitempty"`
	Y         float64         `json:"y,omitempty"`
	Width     float64         `json:"width,omitempty"`
	Height    float64         `json:"height,omitempty"`
	Bulge     float64         `json:"bulge,omitempty"`
	Leader    *markup.Point   `json:"leader,omitempty"`
	Text      string          `json:"text,omitempty"`
	StampName string          `json:"stampName,omitempty"`
	ImageRef  string          `json:"imageRef,omitempty"`
	Rotation  float64         `json:"rotation,omitempty"`
	Style     *markup.Style   `json:"style,omitempty"`
}

// MoveRequest is a translation delta in page fractions.
type MoveRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// ResizeRequest names the grabbed handle and the drag delta.
type ResizeRequest struct {
	Handle markup.Handle `json:"handle" validate:"required"`
	DX     float64       `json:"dx"`
	DY     float64       `json:"dy"`
}

// CreateMarkup handles POST /documents/{filename}/markups.
func (h *MarkupHandler) CreateMarkup(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	var req CreateMarkupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	m, err := markup.New(req.Type, filename, req.Page)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	applyGeometry(m, &req)
	if req.Style != nil {
		m.Style = *req.Style
	} else if style, ok := h.store.DefaultStyle(req.Type); ok {
		m.Style = style
	}

	h.history.SetActiveDocument(filename)
	h.history.SaveHistory()
	if err := h.store.Insert(m); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, m)
}

// ListMarkups handles GET /documents/{filename}/markups. The list is
// in draw order, back to front.
func (h *MarkupHandler) ListMarkups(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	markups := h.store.ListByDocument(filename)
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"markups": markups,
		"count":   len(markups),
	})
}

// GetMarkup handles GET /markups/{markupID}.
func (h *MarkupHandler) GetMarkup(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.Get(chi.URLParam(r, "markupID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, m)
}

// UpdateMarkup handles PUT /markups/{markupID}. Identity fields in the
// body are ignored; only geometry, text and style are taken.
func (h *MarkupHandler) UpdateMarkup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "markupID")

	var req CreateMarkupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}

	current, err := h.store.Get(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	applyGeometry(current, &req)
	current.Text = req.Text
	if req.Style != nil {
		current.Style = *req.Style
	}

	h.history.SetActiveDocument(current.Filename)
	h.history.SaveHistory()
	if err := h.store.Update(current); err != nil {
		respondError(w, h.logger, err)
		return
	}
	updated, err := h.store.Get(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, updated)
}

// DeleteMarkup handles DELETE /markups/{markupID}.
func (h *MarkupHandler) DeleteMarkup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "markupID")

	current, err := h.store.Get(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.history.SetActiveDocument(current.Filename)
	h.history.SaveHistory()
	if err := h.store.Delete(id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message": "Markup deleted",
		"id":      id,
	})
}

// MoveMarkup handles POST /markups/{markupID}/move.
func (h *MarkupHandler) MoveMarkup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "markupID")

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}

	h.withHistory(w, id, func() error {
		return h.store.Move(id, req.DX, req.DY)
	})
}

// ResizeMarkup handles POST /markups/{markupID}/resize.
func (h *MarkupHandler) ResizeMarkup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "markupID")

	var req ResizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.withHistory(w, id, func() error {
		return h.store.Resize(id, req.Handle, req.DX, req.DY)
	})
}

// SetText handles PUT /markups/{markupID}/text.
func (h *MarkupHandler) SetText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "markupID")

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}

	h.withHistory(w, id, func() error {
		return h.store.SetText(id, req.Text)
	})
}

// SetStyle handles PUT /markups/{markupID}/style.
func (h *MarkupHandler) SetStyle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "markupID")

	var req markup.Style
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}

	h.withHistory(w, id, func() error {
		return h.store.SetStyle(id, req)
	})
}

// GetBounds handles GET /markups/{markupID}/bounds.
func (h *MarkupHandler) GetBounds(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.Get(chi.URLParam(r, "markupID"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	bounds, ok := m.GetBounds()
	if !ok {
		respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"hasBounds": false})
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"hasBounds": true,
		"minX":      bounds.MinX,
		"minY":      bounds.MinY,
		"maxX":      bounds.MaxX,
		"maxY":      bounds.MaxY,
	})
}

// SetDefaultStyle handles PUT /defaults/{type}.
func (h *MarkupHandler) SetDefaultStyle(w http.ResponseWriter, r *http.Request) {
	t := markup.Type(chi.URLParam(r, "type"))

	var style markup.Style
	if err := json.NewDecoder(r.Body).Decode(&style); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}

	h.store.SetDefaultStyle(t, style)
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"type":  t,
		"style": style,
	})
}

// GetDefaultStyle handles GET /defaults/{type}.
func (h *MarkupHandler) GetDefaultStyle(w http.ResponseWriter, r *http.Request) {
	t := markup.Type(chi.URLParam(r, "type"))
	style, ok := h.store.DefaultStyle(t)
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"type":  t,
		"style": style,
		"set":   ok,
	})
}

// SetInteraction handles PUT /interaction.
func (h *MarkupHandler) SetInteraction(w http.ResponseWriter, r *http.Request) {
	var i store.Interaction
	if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}
	h.store.SetInteraction(i)
	respondJSON(w, h.logger, http.StatusOK, i)
}

// GetInteraction handles GET /interaction.
func (h *MarkupHandler) GetInteraction(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, h.store.Interaction())
}

// withHistory looks up the markup's document, snapshots history and
// applies the mutation, responding with the mutated markup.
func (h *MarkupHandler) withHistory(w http.ResponseWriter, id string, mutate func() error) {
	current, err := h.store.Get(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.history.SetActiveDocument(current.Filename)
	h.history.SaveHistory()
	if err := mutate(); err != nil {
		respondError(w, h.logger, err)
		return
	}

	updated, err := h.store.Get(id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, updated)
}

func applyGeometry(m *markup.Markup, req *CreateMarkupRequest) {
	m.Points = req.Points
	m.Start = req.Start
	m.End = req.End
	m.X = req.X
	m.Y = req.Y
	m.Width = req.Width
	m.Height = req.Height
	m.Bulge = req.Bulge
	m.Leader = req.Leader
	m.Text = req.Text
	m.StampName = req.StampName
	m.ImageRef = req.ImageRef
	m.Rotation = req.Rotation
}
