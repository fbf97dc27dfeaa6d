package session_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markup-backend/domain/session"
)

func TestRegistry_GetCreatesOnce(t *testing.T) {
	r := session.NewRegistry()

	first := r.Get("doc.pdf")
	second := r.Get("doc.pdf")

	assert.Same(t, first, second)
	assert.Equal(t, "doc.pdf", first.Filename)
}

func TestRegistry_PeekAndRemove(t *testing.T) {
	r := session.NewRegistry()

	_, ok := r.Peek("doc.pdf")
	assert.False(t, ok)

	created := r.Get("doc.pdf")
	peeked, ok := r.Peek("doc.pdf")
	require.True(t, ok)
	assert.Same(t, created, peeked)

	r.Remove("doc.pdf")
	_, ok = r.Peek("doc.pdf")
	assert.False(t, ok)
}

func TestSession_Ownership(t *testing.T) {
	s := session.NewRegistry().Get("doc.pdf")

	s.Own("m1")
	assert.True(t, s.Owns("m1"))
	assert.False(t, s.Owns("m2"))

	s.Disown("m1")
	assert.False(t, s.Owns("m1"))
}

func TestSession_DeletedTracking(t *testing.T) {
	s := session.NewRegistry().Get("doc.pdf")

	s.RecordDeleted("ann1")
	s.RecordDeleted("ann1")
	s.RecordDeleted("")
	s.RecordDeleted("ann2")

	assert.ElementsMatch(t, []string{"ann1", "ann2"}, s.DeletedIDs())

	// Targeted clearing leaves other deletions tracked.
	s.ClearDeleted([]string{"ann1"})
	assert.ElementsMatch(t, []string{"ann2"}, s.DeletedIDs())

	s.ResetDeleted()
	assert.Empty(t, s.DeletedIDs())
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := session.NewRegistry().Get("doc.pdf")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.RecordDeleted("ann" + strconv.Itoa(i%10))
			s.Own("m" + strconv.Itoa(i%10))
			s.MarkAnnotationsLoaded()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = s.DeletedIDs()
			_ = s.Owns("m1")
			_ = s.AnnotationsLoaded()
			s.ClearDeleted([]string{"ann1"})
		}
	}()
	wg.Wait()
}

func TestSession_AnnotationsLoadedFlag(t *testing.T) {
	s := session.NewRegistry().Get("doc.pdf")

	assert.False(t, s.AnnotationsLoaded())
	s.MarkAnnotationsLoaded()
	assert.True(t, s.AnnotationsLoaded())
	s.ResetAnnotationsLoaded()
	assert.False(t, s.AnnotationsLoaded())
}
