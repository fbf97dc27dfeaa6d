package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"markup-backend/application/clipboard"
	"markup-backend/pkg/validation"
)

// ClipboardHandler handles copy/paste and symbol library requests.
type ClipboardHandler struct {
	clipboard *clipboard.Service
	logger    *zap.Logger
}

// NewClipboardHandler creates a new clipboard handler.
func NewClipboardHandler(c *clipboard.Service, logger *zap.Logger) *ClipboardHandler {
	return &ClipboardHandler{clipboard: c, logger: logger}
}

// CopyRequest names the markups to put on the clipboard.
type CopyRequest struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

// SaveSymbolRequest names a new library symbol and its source markups.
type SaveSymbolRequest struct {
	Name string   `json:"name" validate:"required,min=1,max=100"`
	IDs  []string `json:"ids" validate:"required,min=1"`
}

// PlaceSymbolRequest positions a symbol's center on a page.
type PlaceSymbolRequest struct {
	Filename string  `json:"filename" validate:"required"`
	Page     int     `json:"page" validate:"min=0"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// Copy handles POST /clipboard/copy.
func (h *ClipboardHandler) Copy(w http.ResponseWriter, r *http.Request) {
	var req CopyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.clipboard.Copy(req.IDs); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"copied": len(req.IDs),
	})
}

// Paste handles POST /documents/{filename}/pages/{page}/paste.
func (h *ClipboardHandler) Paste(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		respondBadRequest(w, h.logger, "Invalid page number")
		return
	}

	pasted, err := h.clipboard.Paste(filename, page)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"markups": pasted,
		"count":   len(pasted),
	})
}

// GetClipboard handles GET /clipboard.
func (h *ClipboardHandler) GetClipboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"hasContent": h.clipboard.HasContent(),
	})
}

// ListSymbols handles GET /symbols.
func (h *ClipboardHandler) ListSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.clipboard.Symbols()
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"symbols": symbols,
		"count":   len(symbols),
	})
}

// SaveSymbol handles POST /symbols.
func (h *ClipboardHandler) SaveSymbol(w http.ResponseWriter, r *http.Request) {
	var req SaveSymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	symbol, err := h.clipboard.SaveAsSymbol(req.Name, req.IDs)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, symbol)
}

// PlaceSymbol handles POST /symbols/{name}/place.
func (h *ClipboardHandler) PlaceSymbol(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req PlaceSymbolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	placed, err := h.clipboard.PlaceSymbol(name, req.Filename, req.Page, req.X, req.Y)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusCreated, map[string]interface{}{
		"markups": placed,
		"count":   len(placed),
	})
}

// DeleteSymbol handles DELETE /symbols/{name}.
func (h *ClipboardHandler) DeleteSymbol(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.clipboard.DeleteSymbol(name); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"message": "Symbol deleted",
		"name":    name,
	})
}

// GetDefaultSignature handles GET /symbols/default-signature.
func (h *ClipboardHandler) GetDefaultSignature(w http.ResponseWriter, r *http.Request) {
	name, err := h.clipboard.DefaultSignature()
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"name": name,
	})
}

// SetDefaultSignature handles PUT /symbols/default-signature.
func (h *ClipboardHandler) SetDefaultSignature(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, h.logger, "Invalid request body: "+err.Error())
		return
	}

	if err := h.clipboard.SetDefaultSignature(req.Name); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"name": req.Name,
	})
}
