// Package surface is the in-process render surface: it keeps the
// current body of every open document so the viewer can fetch pages,
// and versions each document so stale page caches can be detected.
package surface

import (
	"context"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"markup-backend/application/ports"
	pkgerrors "markup-backend/pkg/errors"
)

// pagePattern matches page object markers in an uncompressed page
// tree. Bodies with fully compressed object streams fall back to a
// page count of 1.
var pagePattern = regexp.MustCompile(`/Type\s*/Page[^s]`)

type document struct {
	body      []byte
	pageCount int
	version   uint64
}

// Surface holds document bodies in memory and hands them out to the
// page renderer.
type Surface struct {
	mu     sync.RWMutex
	docs   map[string]*document
	logger *zap.Logger
}

var _ ports.RenderSurface = (*Surface)(nil)

// New creates an empty surface.
func New(logger *zap.Logger) *Surface {
	return &Surface{
		docs:   make(map[string]*document),
		logger: logger,
	}
}

// LoadDocument replaces the displayed body for a document and returns
// its page count. The version counter advances so renderers know any
// cached pages are stale.
func (s *Surface) LoadDocument(_ context.Context, filename string, body []byte) (int, error) {
	if len(body) == 0 {
		return 0, pkgerrors.NewValidation("document body is empty")
	}
	pages := countPages(body)

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[filename]
	if !ok {
		doc = &document{}
		s.docs[filename] = doc
	}
	doc.body = body
	doc.pageCount = pages
	doc.version++

	s.logger.Debug("Document loaded onto surface",
		zap.String("filename", filename),
		zap.Int("pages", pages),
		zap.Uint64("version", doc.version),
	)
	return pages, nil
}

// ResetPages advances the version counter without replacing the body,
// invalidating any rendered page cache.
func (s *Surface) ResetPages(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[filename]; ok {
		doc.version++
	}
}

// Body returns the current body of an open document.
func (s *Surface) Body(filename string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[filename]
	if !ok {
		return nil, pkgerrors.NewNotFound("document " + filename + " is not open")
	}
	return doc.body, nil
}

// PageCount returns the page count of an open document.
func (s *Surface) PageCount(filename string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[filename]
	if !ok {
		return 0, pkgerrors.NewNotFound("document " + filename + " is not open")
	}
	return doc.pageCount, nil
}

// Version returns the current cache version of an open document, and
// zero when the document is not open.
func (s *Surface) Version(filename string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.docs[filename]; ok {
		return doc.version
	}
	return 0
}

// Close drops a document from the surface.
func (s *Surface) Close(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, filename)
}

// Open reports whether a document is currently on the surface.
func (s *Surface) Open(filename string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[filename]
	return ok
}

func countPages(body []byte) int {
	n := len(pagePattern.FindAll(body, -1))
	if n == 0 {
		return 1
	}
	return n
}
