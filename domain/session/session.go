// Package session tracks per-document editing state: which markup ids
// the editable layer owns, which ids the user deleted, and whether the
// document's embedded annotations have already been handed over.
package session

import "sync"

// DocumentSession is the per-filename bookkeeping that survives outside
// the markup collection itself. Deleted ids live here because a deleted
// markup no longer exists in the store to carry its own flag. Sessions
// are shared between the store, the save orchestrator and HTTP
// handlers, so every accessor takes the session's own lock.
type DocumentSession struct {
	// Filename is the logical document identity.
	Filename string

	mu         sync.Mutex
	ownedIDs   map[string]struct{}
	deletedIDs map[string]struct{}

	// annotationsLoaded is set once the editable layer has taken
	// ownership; the rendering surface must not re-parse the document's
	// embedded annotations after that.
	annotationsLoaded bool
}

func newDocumentSession(filename string) *DocumentSession {
	return &DocumentSession{
		Filename:   filename,
		ownedIDs:   make(map[string]struct{}),
		deletedIDs: make(map[string]struct{}),
	}
}

// Own records that the editable layer renders the markup from memory.
func (s *DocumentSession) Own(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ownedIDs[id] = struct{}{}
}

// Owns reports whether the editable layer owns the id.
func (s *DocumentSession) Owns(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.ownedIDs[id]
	return ok
}

// Disown removes the id from the owned set.
func (s *DocumentSession) Disown(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.ownedIDs, id)
}

// RecordDeleted remembers an explicitly deleted embedded annotation id
// so the next save can ask the converter to remove it.
func (s *DocumentSession) RecordDeleted(pdfAnnotID string) {
	if pdfAnnotID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletedIDs[pdfAnnotID] = struct{}{}
}

// DeletedIDs returns a copy of the deleted annotation id set.
func (s *DocumentSession) DeletedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.deletedIDs))
	for id := range s.deletedIDs {
		ids = append(ids, id)
	}
	return ids
}

// ClearDeleted forgets the given deletions, typically because a save
// removed them server-side or a history restore brought the markups
// back. Deletions recorded in the meantime stay tracked.
func (s *DocumentSession) ClearDeleted(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.deletedIDs, id)
	}
}

// ResetDeleted forgets every recorded deletion, used when the document
// state is rebuilt wholesale from the body.
func (s *DocumentSession) ResetDeleted() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletedIDs = make(map[string]struct{})
}

// MarkAnnotationsLoaded records that embedded annotations were handed
// to the editable layer.
func (s *DocumentSession) MarkAnnotationsLoaded() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.annotationsLoaded = true
}

// ResetAnnotationsLoaded clears the flag, letting the surface parse the
// document body fresh again.
func (s *DocumentSession) ResetAnnotationsLoaded() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.annotationsLoaded = false
}

// AnnotationsLoaded reports whether embedded annotations were already
// handed over for this document.
func (s *DocumentSession) AnnotationsLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.annotationsLoaded
}

// Registry holds document sessions keyed by filename. There is one
// logical writer per document, but sessions are reached from HTTP
// handlers, so access is guarded.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*DocumentSession
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*DocumentSession)}
}

// Get returns the session for filename, creating it on first use.
func (r *Registry) Get(filename string) *DocumentSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[filename]
	if !ok {
		s = newDocumentSession(filename)
		r.sessions[filename] = s
	}
	return s
}

// Peek returns the session for filename without creating one.
func (r *Registry) Peek(filename string) (*DocumentSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[filename]
	return s, ok
}

// Remove drops the session for filename, usually on document close.
func (r *Registry) Remove(filename string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, filename)
}
