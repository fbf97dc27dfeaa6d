package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"markup-backend/application/history"
)

// HistoryHandler handles undo, redo and timeline-jump requests.
type HistoryHandler struct {
	history *history.Manager
	logger  *zap.Logger
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(h *history.Manager, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{history: h, logger: logger}
}

// JumpRequest targets a position in the undo or redo stack.
type JumpRequest struct {
	Index int `json:"index"`
}

// Undo handles POST /documents/{filename}/undo.
func (h *HistoryHandler) Undo(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	h.history.SetActiveDocument(filename)
	applied := h.history.Undo()
	h.respondDepths(w, applied)
}

// Redo handles POST /documents/{filename}/redo.
func (h *HistoryHandler) Redo(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	h.history.SetActiveDocument(filename)
	applied := h.history.Redo()
	h.respondDepths(w, applied)
}

// JumpToHistory handles POST /documents/{filename}/history/jump.
func (h *HistoryHandler) JumpToHistory(w http.ResponseWriter, r *http.Request) {
	h.jump(w, r, h.history.JumpToHistory)
}

// JumpToFuture handles POST /documents/{filename}/future/jump.
func (h *HistoryHandler) JumpToFuture(w http.ResponseWriter, r *http.Request) {
	h.jump(w, r, h.history.JumpToFuture)
}

// GetDepths handles GET /documents/{filename}/history.
func (h *HistoryHandler) GetDepths(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	h.history.SetActiveDocument(filename)
	h.respondDepths(w, false)
}

func (h *HistoryHandler) jump(w http.ResponseWriter, r *http.Request, fn func(int) error) {
	filename := chi.URLParam(r, "filename")

	var req JumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}

	h.history.SetActiveDocument(filename)
	if err := fn(req.Index); err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.respondDepths(w, true)
}

func (h *HistoryHandler) respondDepths(w http.ResponseWriter, applied bool) {
	past, future := h.history.Depths()
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"applied":     applied,
		"historySize": past,
		"futureSize":  future,
	})
}
