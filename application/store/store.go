// Package store implements the mutable markup collection for open
// documents, plus per-type default styling and live interaction state.
// It owns no persistence or network logic.
package store

import (
	"sort"
	"sync"

	"markup-backend/domain/markup"
	"markup-backend/domain/session"
	pkgerrors "markup-backend/pkg/errors"
)

// InteractionMode describes what the pointer is currently doing.
type InteractionMode string

const (
	InteractionNone   InteractionMode = "none"
	InteractionDraw   InteractionMode = "draw"
	InteractionDrag   InteractionMode = "drag"
	InteractionResize InteractionMode = "resize"
)

// Interaction is the live drag/resize/draw state. It is transient UI
// state and never serialized into a document.
type Interaction struct {
	Mode     InteractionMode `json:"mode"`
	MarkupID string          `json:"markupId,omitempty"`
	Handle   markup.Handle   `json:"handle,omitempty"`
}

// MarkupStore is the mutable collection of markup objects for all open
// documents. All mutations are synchronous and atomic from the caller's
// perspective; the single lock is the store's only concurrency control.
type MarkupStore struct {
	mu       sync.RWMutex
	markups  map[string]*markup.Markup
	byFile   map[string]map[string]struct{}
	order    map[string]int // insertion order for stable listing
	nextSeq  int
	defaults map[markup.Type]markup.Style

	interaction Interaction

	sessions *session.Registry
}

// New creates an empty store bound to the given session registry.
func New(sessions *session.Registry) *MarkupStore {
	return &MarkupStore{
		markups:  make(map[string]*markup.Markup),
		byFile:   make(map[string]map[string]struct{}),
		order:    make(map[string]int),
		defaults: make(map[markup.Type]markup.Style),
		sessions: sessions,
	}
}

// Sessions exposes the per-document session registry the store records
// deletions into.
func (s *MarkupStore) Sessions() *session.Registry {
	return s.sessions
}

// Create builds a session-local markup of the given type, applies the
// type's default style, and inserts it.
func (s *MarkupStore) Create(t markup.Type, filename string, page int) (*markup.Markup, error) {
	m, err := markup.New(t, filename, page)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if style, ok := s.defaults[t]; ok {
		m.Style = style
	}
	s.insertLocked(m)
	return m.Clone(), nil
}

// Insert adds an already-built markup (pasted, placed from a symbol, or
// parsed out of the document body). The markup is normalized first so
// structural invariants hold regardless of where it came from.
func (s *MarkupStore) Insert(m *markup.Markup) error {
	if m == nil {
		return pkgerrors.NewValidation("markup cannot be nil")
	}
	if m.ID == "" {
		return pkgerrors.NewValidation("markup id cannot be empty")
	}
	if m.Filename == "" {
		return pkgerrors.NewValidation("markup filename cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.markups[m.ID]; exists {
		return pkgerrors.NewConflict("markup already exists: " + m.ID)
	}
	c := m.Clone()
	c.Normalize()
	s.insertLocked(c)
	return nil
}

// Get returns a copy of the markup with the given id.
func (s *MarkupStore) Get(id string) (*markup.Markup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.markups[id]
	if !ok {
		return nil, pkgerrors.NewNotFound("markup not found: " + id)
	}
	return m.Clone(), nil
}

// ListByDocument returns copies of all markups for filename in
// insertion order, which is also their z-order.
func (s *MarkupStore) ListByDocument(filename string) []*markup.Markup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listLocked(filename)
}

// Update replaces the stored markup with the given one, keyed by id.
// The id, filename and embedded identity cannot be changed through
// Update; an embedded markup is flagged modified.
func (s *MarkupStore) Update(m *markup.Markup) error {
	if m == nil {
		return pkgerrors.NewValidation("markup cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.markups[m.ID]
	if !ok {
		return pkgerrors.NewNotFound("markup not found: " + m.ID)
	}

	c := m.Clone()
	c.Filename = cur.Filename
	c.Page = cur.Page
	c.FromPDF = cur.FromPDF
	c.PDFAnnotID = cur.PDFAnnotID
	c.Modified = cur.Modified
	c.Normalize()
	c.Touch()
	s.markups[m.ID] = c
	return nil
}

// Move translates the markup by (dx, dy) page fractions.
func (s *MarkupStore) Move(id string, dx, dy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markups[id]
	if !ok {
		return pkgerrors.NewNotFound("markup not found: " + id)
	}
	m.Translate(dx, dy)
	return nil
}

// Resize applies a handle-specific geometry change to the markup.
func (s *MarkupStore) Resize(id string, handle markup.Handle, dx, dy float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markups[id]
	if !ok {
		return pkgerrors.NewNotFound("markup not found: " + id)
	}
	return m.Resize(handle, dx, dy)
}

// SetText updates a markup's text content.
func (s *MarkupStore) SetText(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markups[id]
	if !ok {
		return pkgerrors.NewNotFound("markup not found: " + id)
	}
	m.SetText(text)
	return nil
}

// SetStyle updates a markup's visual style.
func (s *MarkupStore) SetStyle(id string, style markup.Style) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markups[id]
	if !ok {
		return pkgerrors.NewNotFound("markup not found: " + id)
	}
	m.SetStyle(style)
	return nil
}

// Delete removes the markup. If it originated from an embedded
// annotation, the annotation id is recorded in the document session so
// the next save removes it from the document body too.
func (s *MarkupStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.markups[id]
	if !ok {
		return pkgerrors.NewNotFound("markup not found: " + id)
	}
	if m.FromPDF {
		s.sessions.Get(m.Filename).RecordDeleted(m.PDFAnnotID)
	}
	s.removeLocked(m)
	return nil
}

// ClearDocument removes every markup for filename. When recordDeletes
// is true the embedded annotation ids are tracked for removal on save;
// a clear before ownership is taken passes false, since the surface
// will simply re-parse the body.
func (s *MarkupStore) ClearDocument(filename string, recordDeletes bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := s.byFile[filename]
	if !ok {
		return
	}
	sess := s.sessions.Get(filename)
	for id := range ids {
		m := s.markups[id]
		if recordDeletes && m.FromPDF {
			sess.RecordDeleted(m.PDFAnnotID)
		}
		delete(s.markups, id)
		delete(s.order, id)
		sess.Disown(id)
	}
	delete(s.byFile, filename)
}

// Snapshot returns deep copies of the document's markups, in order.
// The copies share no state with the store, so a snapshot taken before
// an async operation stays stable while the user keeps editing.
func (s *MarkupStore) Snapshot(filename string) []*markup.Markup {
	return s.ListByDocument(filename)
}

// ReplaceDocument swaps the document's entire markup collection for the
// given one, used by history restore and the replace-mode save path.
// Annotation ids present in the restored collection are dropped from
// the session's deleted set: a restore that brings a deleted embedded
// markup back must also cancel its pending removal, or the next save
// would strip an annotation the client still renders.
func (s *MarkupStore) ReplaceDocument(filename string, markups []*markup.Markup) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ids, ok := s.byFile[filename]; ok {
		for id := range ids {
			delete(s.markups, id)
			delete(s.order, id)
		}
		delete(s.byFile, filename)
	}
	var restored []string
	for _, m := range markups {
		c := m.Clone()
		c.Filename = filename
		c.Normalize()
		s.insertLocked(c)
		if c.FromPDF && c.PDFAnnotID != "" {
			restored = append(restored, c.PDFAnnotID)
		}
	}
	if len(restored) > 0 {
		s.sessions.Get(filename).ClearDeleted(restored)
	}
}

// SetDefaultStyle records the style applied to newly created markups of
// the given type.
func (s *MarkupStore) SetDefaultStyle(t markup.Type, style markup.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.defaults[t] = style
}

// DefaultStyle returns the default style for a type.
func (s *MarkupStore) DefaultStyle(t markup.Type) (markup.Style, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.defaults[t]
	return st, ok
}

// SetInteraction records the live drag/resize/draw state.
func (s *MarkupStore) SetInteraction(i Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.interaction = i
}

// Interaction returns the live interaction state.
func (s *MarkupStore) Interaction() Interaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.interaction
}

// locked helpers

func (s *MarkupStore) insertLocked(m *markup.Markup) {
	s.markups[m.ID] = m
	ids, ok := s.byFile[m.Filename]
	if !ok {
		ids = make(map[string]struct{})
		s.byFile[m.Filename] = ids
	}
	ids[m.ID] = struct{}{}
	s.order[m.ID] = s.nextSeq
	s.nextSeq++
}

func (s *MarkupStore) removeLocked(m *markup.Markup) {
	delete(s.markups, m.ID)
	delete(s.order, m.ID)
	if ids, ok := s.byFile[m.Filename]; ok {
		delete(ids, m.ID)
		if len(ids) == 0 {
			delete(s.byFile, m.Filename)
		}
	}
	s.sessions.Get(m.Filename).Disown(m.ID)
}

func (s *MarkupStore) listLocked(filename string) []*markup.Markup {
	ids, ok := s.byFile[filename]
	if !ok {
		return nil
	}
	out := make([]*markup.Markup, 0, len(ids))
	for id := range ids {
		out = append(out, s.markups[id].Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return s.order[out[i].ID] < s.order[out[j].ID]
	})
	return out
}

// RebaselineDocument re-flags markups as baseline-correct embedded
// annotations after a successful in-place save, comparing each live
// markup against its copy in the save snapshot. Ids that no longer
// exist (deleted mid-save) are skipped. A markup edited while the save
// was in flight is not flattened: it adopts the embedded identity the
// converter wrote for it, but stays modified so the next save carries
// the newer state. Returns the ids now rendered as embedded baseline.
func (s *MarkupStore) RebaselineDocument(filename string, snapshot []*markup.Markup) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	flagged := make([]string, 0, len(snapshot))
	for _, snap := range snapshot {
		m, ok := s.markups[snap.ID]
		if !ok || m.Filename != filename {
			continue
		}
		switch {
		case m.Equal(snap):
			m.Rebaseline()
		case !snap.FromPDF || snap.Modified:
			// Diverged mid-save, but the snapshot state was written into
			// the document under the markup id.
			m.Rebaseline()
			m.Modified = true
		default:
			// Untouched embedded markup edited mid-save; its annotation
			// was never part of the payload, nothing to re-flag.
			continue
		}
		flagged = append(flagged, snap.ID)
	}
	return flagged
}
