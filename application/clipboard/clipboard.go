// Package clipboard implements copy/paste of markup subsets and the
// durable symbol library of reusable markup groups.
package clipboard

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"markup-backend/application/history"
	"markup-backend/application/ports"
	"markup-backend/application/store"
	"markup-backend/domain/markup"
	pkgerrors "markup-backend/pkg/errors"
)

// pasteOffsetFraction shifts pasted markups by this fraction of the
// page so they never sit exactly on top of the source.
const pasteOffsetFraction = 0.02

// Service owns the in-memory clipboard slot and the symbol library.
type Service struct {
	mu      sync.Mutex
	store   *store.MarkupStore
	history *history.Manager
	symbols ports.SymbolStore
	logger  *zap.Logger

	// Single clipboard slot; the last copy wins.
	slot []*markup.Markup
}

// NewService creates the clipboard/symbol service.
func NewService(
	s *store.MarkupStore,
	h *history.Manager,
	symbols ports.SymbolStore,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:   s,
		history: h,
		symbols: symbols,
		logger:  logger,
	}
}

// Copy deep-clones the given markups into the clipboard slot, breaking
// all object identity with the store. The previous slot content is
// replaced.
func (c *Service) Copy(ids []string) error {
	if len(ids) == 0 {
		return pkgerrors.NewValidation("nothing to copy")
	}

	clones := make([]*markup.Markup, 0, len(ids))
	for _, id := range ids {
		m, err := c.store.Get(id)
		if err != nil {
			return err
		}
		clones = append(clones, m)
	}

	c.mu.Lock()
	c.slot = clones
	c.mu.Unlock()
	return nil
}

// Paste clones the clipboard onto the given page of the given file.
// Pasted markups are always new: fresh ids, no embedded identity, and
// an offset so they do not overlap the source exactly. History is
// snapshotted before the store changes.
func (c *Service) Paste(filename string, page int) ([]*markup.Markup, error) {
	c.mu.Lock()
	slot := c.slot
	c.mu.Unlock()

	if len(slot) == 0 {
		return nil, pkgerrors.NewConflict("clipboard is empty")
	}

	// Snapshot the target document's stacks, not whichever document
	// happened to be active last.
	c.history.SetActiveDocument(filename)
	c.history.SaveHistory()

	pasted := make([]*markup.Markup, 0, len(slot))
	for _, src := range slot {
		m := src.Clone()
		m.ID = uuid.New().String()
		m.Filename = filename
		m.Page = page
		m.FromPDF = false
		m.PDFAnnotID = ""
		m.Modified = false
		m.Translate(pasteOffsetFraction, pasteOffsetFraction)
		if err := c.store.Insert(m); err != nil {
			return nil, err
		}
		pasted = append(pasted, m)
	}

	c.logger.Debug("Pasted markups",
		zap.String("filename", filename),
		zap.Int("page", page),
		zap.Int("count", len(pasted)),
	)
	return pasted, nil
}

// HasContent reports whether the clipboard slot is non-empty.
func (c *Service) HasContent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.slot) > 0
}

// SaveAsSymbol normalizes the selected markups to their own local frame
// (origin shifted to the union bounding box) and appends them to the
// persisted symbol library under the given name.
func (c *Service) SaveAsSymbol(name string, ids []string) (*ports.Symbol, error) {
	if name == "" {
		return nil, pkgerrors.NewValidation("symbol name cannot be empty")
	}
	if len(ids) == 0 {
		return nil, pkgerrors.NewValidation("symbol needs at least one markup")
	}

	items := make([]*markup.Markup, 0, len(ids))
	var union markup.Bounds
	haveBounds := false
	for _, id := range ids {
		m, err := c.store.Get(id)
		if err != nil {
			return nil, err
		}
		if b, ok := m.GetBounds(); ok {
			if !haveBounds {
				union = b
				haveBounds = true
			} else {
				union = union.Union(b)
			}
		}
		items = append(items, m)
	}
	if !haveBounds {
		return nil, pkgerrors.NewValidation("selection has no boundable markups")
	}

	for _, m := range items {
		m.Translate(-union.MinX, -union.MinY)
		m.ID = ""
		m.Filename = ""
		m.Page = 0
		m.FromPDF = false
		m.PDFAnnotID = ""
		m.Modified = false
	}

	sym := &ports.Symbol{
		Name:   name,
		Width:  union.Width(),
		Height: union.Height(),
		Items:  items,
	}

	symbols, err := c.symbols.LoadSymbols()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load symbol library")
	}
	symbols = append(symbols, sym)
	if err := c.symbols.SaveSymbols(symbols); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to persist symbol library")
	}

	c.logger.Info("Symbol saved",
		zap.String("name", name),
		zap.Int("items", len(items)),
	)
	return sym, nil
}

// Symbols returns the persisted symbol library.
func (c *Service) Symbols() ([]*ports.Symbol, error) {
	return c.symbols.LoadSymbols()
}

// PlaceSymbol instantiates the named symbol centered at (x, y) on the
// given page, with fresh ids and history tracking.
func (c *Service) PlaceSymbol(name, filename string, page int, x, y float64) ([]*markup.Markup, error) {
	symbols, err := c.symbols.LoadSymbols()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load symbol library")
	}
	var sym *ports.Symbol
	for _, s := range symbols {
		if s.Name == name {
			sym = s
			break
		}
	}
	if sym == nil {
		return nil, pkgerrors.NewNotFound("symbol not found: " + name)
	}

	c.history.SetActiveDocument(filename)
	c.history.SaveHistory()

	// Center the symbol's local frame at the requested point.
	dx := x - sym.Width/2
	dy := y - sym.Height/2

	placed := make([]*markup.Markup, 0, len(sym.Items))
	for _, src := range sym.Items {
		m := src.Clone()
		m.ID = uuid.New().String()
		m.Filename = filename
		m.Page = page
		m.FromPDF = false
		m.PDFAnnotID = ""
		m.Modified = false
		m.Translate(dx, dy)
		if err := c.store.Insert(m); err != nil {
			return nil, err
		}
		placed = append(placed, m)
	}
	return placed, nil
}

// DeleteSymbol removes the named symbol from the library.
func (c *Service) DeleteSymbol(name string) error {
	symbols, err := c.symbols.LoadSymbols()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to load symbol library")
	}
	kept := symbols[:0]
	found := false
	for _, s := range symbols {
		if s.Name == name {
			found = true
			continue
		}
		kept = append(kept, s)
	}
	if !found {
		return pkgerrors.NewNotFound("symbol not found: " + name)
	}
	return c.symbols.SaveSymbols(kept)
}

// DefaultSignature returns the persisted default signature symbol name.
func (c *Service) DefaultSignature() (string, error) {
	return c.symbols.LoadDefaultSignature()
}

// SetDefaultSignature persists the default signature symbol name.
func (c *Service) SetDefaultSignature(name string) error {
	return c.symbols.SaveDefaultSignature(name)
}
