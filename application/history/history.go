// Package history wraps the markup store with bounded per-document
// undo/redo stacks. Switching documents swaps which pair of stacks is
// active; histories are never merged across documents.
package history

import (
	"markup-backend/application/store"
	"markup-backend/domain/markup"
	pkgerrors "markup-backend/pkg/errors"

	"sync"
)

// MaxEntries bounds each stack. Oldest entries are silently dropped.
const MaxEntries = 50

// snapshot is an immutable copy of one document's full markup
// collection at a point in time.
type snapshot []*markup.Markup

// docStacks is the history/future pair for one document.
type docStacks struct {
	history []snapshot
	future  []snapshot
}

// Manager records and restores markup collection snapshots. Snapshots
// are always taken through the live store reference at call time, never
// from a value captured earlier, so deferred and async callers see the
// current state.
type Manager struct {
	mu     sync.Mutex
	store  *store.MarkupStore
	stacks map[string]*docStacks
	active string
}

// NewManager creates a history manager over the given store.
func NewManager(s *store.MarkupStore) *Manager {
	return &Manager{
		store:  s,
		stacks: make(map[string]*docStacks),
	}
}

// SetActiveDocument swaps in the stacks for filename. The outgoing
// document's stacks stay keyed under its identity; nothing is merged.
func (h *Manager) SetActiveDocument(filename string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.active = filename
	if _, ok := h.stacks[filename]; !ok {
		h.stacks[filename] = &docStacks{}
	}
}

// ActiveDocument returns the filename whose stacks are active.
func (h *Manager) ActiveDocument() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.active
}

// SaveHistory pushes the current collection onto the history stack and
// clears the future stack. Call it before mutating through any
// history-aware entry point, so history's top is always the state
// immediately preceding the current one.
func (h *Manager) SaveHistory() {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.activeLocked()
	if st == nil {
		return
	}
	st.history = push(st.history, h.snapshotLocked())
	st.future = nil
}

// Undo restores the most recent history snapshot, moving the current
// state onto the future stack. Returns false when there is nothing to
// undo.
func (h *Manager) Undo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.activeLocked()
	if st == nil || len(st.history) == 0 {
		return false
	}
	st.future = push(st.future, h.snapshotLocked())
	last := len(st.history) - 1
	h.restoreLocked(st.history[last])
	st.history = st.history[:last]
	return true
}

// Redo restores the most recent future snapshot, moving the current
// state back onto the history stack. Returns false when there is
// nothing to redo.
func (h *Manager) Redo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.activeLocked()
	if st == nil || len(st.future) == 0 {
		return false
	}
	st.history = push(st.history, h.snapshotLocked())
	last := len(st.future) - 1
	h.restoreLocked(st.future[last])
	st.future = st.future[:last]
	return true
}

// JumpToHistory restores the history entry at index (0 is oldest).
// Every entry between it and the present, including the present itself,
// is re-partitioned onto the future stack so that repeated Redo walks
// forward through all previously visited states in order.
func (h *Manager) JumpToHistory(index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.activeLocked()
	if st == nil {
		return pkgerrors.NewConflict("no active document")
	}
	if index < 0 || index >= len(st.history) {
		return pkgerrors.NewValidation("history index out of range")
	}

	// Future receives (current, newest..index+1); top ends up index+1.
	st.future = push(st.future, h.snapshotLocked())
	for i := len(st.history) - 1; i > index; i-- {
		st.future = push(st.future, st.history[i])
	}
	h.restoreLocked(st.history[index])
	st.history = st.history[:index]
	return nil
}

// JumpToFuture restores the future entry at index (0 is the farthest
// ahead). Entries between the present and it move onto history.
func (h *Manager) JumpToFuture(index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.activeLocked()
	if st == nil {
		return pkgerrors.NewConflict("no active document")
	}
	if index < 0 || index >= len(st.future) {
		return pkgerrors.NewValidation("future index out of range")
	}

	st.history = push(st.history, h.snapshotLocked())
	for i := len(st.future) - 1; i > index; i-- {
		st.history = push(st.history, st.future[i])
	}
	h.restoreLocked(st.future[index])
	st.future = st.future[:index]
	return nil
}

// Depths returns the active document's history and future stack sizes.
func (h *Manager) Depths() (history, future int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := h.activeLocked()
	if st == nil {
		return 0, 0
	}
	return len(st.history), len(st.future)
}

// DropDocument discards the stacks for filename, used on document
// close and in the discard-and-reparse fallback after a save.
func (h *Manager) DropDocument(filename string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.stacks, filename)
	if h.active == filename {
		h.active = ""
	}
}

func (h *Manager) activeLocked() *docStacks {
	if h.active == "" {
		return nil
	}
	return h.stacks[h.active]
}

func (h *Manager) snapshotLocked() snapshot {
	return h.store.Snapshot(h.active)
}

func (h *Manager) restoreLocked(s snapshot) {
	h.store.ReplaceDocument(h.active, s)
}

// push appends keeping the stack bounded, dropping the oldest entry.
func push(stack []snapshot, s snapshot) []snapshot {
	stack = append(stack, s)
	if len(stack) > MaxEntries {
		stack = stack[1:]
	}
	return stack
}
