package clipboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"markup-backend/application/clipboard"
	"markup-backend/application/history"
	"markup-backend/application/ports"
	"markup-backend/application/store"
	"markup-backend/domain/markup"
	"markup-backend/domain/session"
	pkgerrors "markup-backend/pkg/errors"
	"markup-backend/tests/fixtures"
)

// memorySymbolStore keeps the library in memory for tests.
type memorySymbolStore struct {
	symbols   []*ports.Symbol
	signature string
}

func (s *memorySymbolStore) LoadSymbols() ([]*ports.Symbol, error)  { return s.symbols, nil }
func (s *memorySymbolStore) SaveSymbols(v []*ports.Symbol) error    { s.symbols = v; return nil }
func (s *memorySymbolStore) LoadDefaultSignature() (string, error)  { return s.signature, nil }
func (s *memorySymbolStore) SaveDefaultSignature(name string) error { s.signature = name; return nil }

type clipEnv struct {
	store   *store.MarkupStore
	history *history.Manager
	symbols *memorySymbolStore
	service *clipboard.Service
}

func newClipEnv(t *testing.T) *clipEnv {
	t.Helper()
	s := store.New(session.NewRegistry())
	h := history.NewManager(s)
	h.SetActiveDocument("test-doc.pdf")
	symbols := &memorySymbolStore{}
	return &clipEnv{
		store:   s,
		history: h,
		symbols: symbols,
		service: clipboard.NewService(s, h, symbols, zap.NewNop()),
	}
}

func TestCopyPaste(t *testing.T) {
	// Arrange
	env := newClipEnv(t)
	src := fixtures.NewMarkupBuilder().WithID("m1").
		Embedded("ann1").
		WithCorners(0.1, 0.1, 0.3, 0.2).
		Build()
	require.NoError(t, env.store.Insert(src))

	// Act
	require.NoError(t, env.service.Copy([]string{"m1"}))
	pasted, err := env.service.Paste("other.pdf", 3)

	// Assert
	require.NoError(t, err)
	require.Len(t, pasted, 1)
	p := pasted[0]
	assert.NotEqual(t, "m1", p.ID)
	assert.Equal(t, "other.pdf", p.Filename)
	assert.Equal(t, 3, p.Page)
	assert.False(t, p.FromPDF, "pasted markups are never embedded")
	assert.Empty(t, p.PDFAnnotID)
	assert.False(t, p.Modified)

	// Pasted geometry is shifted off the source.
	assert.InDelta(t, 0.12, p.Start.X, 1e-9)
	assert.InDelta(t, 0.12, p.Start.Y, 1e-9)

	// The source is untouched.
	orig, err := env.store.Get("m1")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, orig.Start.X, 1e-9)
	assert.Equal(t, "ann1", orig.PDFAnnotID)
}

func TestPaste_IsUndoable(t *testing.T) {
	env := newClipEnv(t)
	require.NoError(t, env.store.Insert(fixtures.NewMarkupBuilder().WithID("m1").Build()))
	require.NoError(t, env.service.Copy([]string{"m1"}))

	_, err := env.service.Paste("test-doc.pdf", 0)
	require.NoError(t, err)
	require.Len(t, env.store.ListByDocument("test-doc.pdf"), 2)

	require.True(t, env.history.Undo())
	assert.Len(t, env.store.ListByDocument("test-doc.pdf"), 1)
}

func TestPaste_TargetsDestinationHistory(t *testing.T) {
	// Arrange: a different document was active when the paste arrives.
	env := newClipEnv(t)
	require.NoError(t, env.store.Insert(
		fixtures.NewMarkupBuilder().WithID("a1").WithDocument("a.pdf").Build()))
	require.NoError(t, env.store.Insert(fixtures.NewMarkupBuilder().WithID("m1").Build()))
	require.NoError(t, env.service.Copy([]string{"m1"}))
	env.history.SetActiveDocument("a.pdf")

	// Act
	_, err := env.service.Paste("b.pdf", 0)
	require.NoError(t, err)

	// Assert: undo applies to the destination and removes the paste.
	assert.Equal(t, "b.pdf", env.history.ActiveDocument())
	require.True(t, env.history.Undo())
	assert.Empty(t, env.store.ListByDocument("b.pdf"))

	// The bystander document's stacks were never touched.
	env.history.SetActiveDocument("a.pdf")
	hist, fut := env.history.Depths()
	assert.Zero(t, hist)
	assert.Zero(t, fut)
}

func TestPaste_SurvivesSourceDeletion(t *testing.T) {
	env := newClipEnv(t)
	require.NoError(t, env.store.Insert(fixtures.NewMarkupBuilder().WithID("m1").Build()))
	require.NoError(t, env.service.Copy([]string{"m1"}))
	require.NoError(t, env.store.Delete("m1"))

	pasted, err := env.service.Paste("test-doc.pdf", 0)

	require.NoError(t, err)
	assert.Len(t, pasted, 1)
}

func TestCopy_Validation(t *testing.T) {
	env := newClipEnv(t)

	err := env.service.Copy(nil)
	assert.True(t, pkgerrors.IsValidation(err))

	err = env.service.Copy([]string{"missing"})
	assert.True(t, pkgerrors.IsNotFound(err))
	assert.False(t, env.service.HasContent())
}

func TestPaste_EmptyClipboard(t *testing.T) {
	env := newClipEnv(t)
	_, err := env.service.Paste("test-doc.pdf", 0)
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestSaveAsSymbol(t *testing.T) {
	// Arrange: two rectangles whose union spans (0.1,0.1)-(0.5,0.4).
	env := newClipEnv(t)
	require.NoError(t, env.store.Insert(
		fixtures.NewMarkupBuilder().WithID("m1").WithCorners(0.1, 0.1, 0.3, 0.2).Build()))
	require.NoError(t, env.store.Insert(
		fixtures.NewMarkupBuilder().WithID("m2").WithCorners(0.2, 0.3, 0.5, 0.4).Build()))

	// Act
	sym, err := env.service.SaveAsSymbol("valve", []string{"m1", "m2"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "valve", sym.Name)
	assert.InDelta(t, 0.4, sym.Width, 1e-9)
	assert.InDelta(t, 0.3, sym.Height, 1e-9)
	require.Len(t, sym.Items, 2)

	// Items are origin-normalized and identity-free.
	first := sym.Items[0]
	assert.Empty(t, first.ID)
	assert.Empty(t, first.Filename)
	assert.InDelta(t, 0.0, first.Start.X, 1e-9)
	assert.InDelta(t, 0.0, first.Start.Y, 1e-9)

	// Library persisted.
	stored, err := env.service.Symbols()
	require.NoError(t, err)
	require.Len(t, stored, 1)

	// The originals in the store keep their geometry.
	m1, err := env.store.Get("m1")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, m1.Start.X, 1e-9)
}

func TestSaveAsSymbol_Validation(t *testing.T) {
	env := newClipEnv(t)

	_, err := env.service.SaveAsSymbol("", []string{"m1"})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = env.service.SaveAsSymbol("valve", nil)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestPlaceSymbol_Centered(t *testing.T) {
	// Arrange: a 0.2 x 0.1 symbol in its local frame.
	env := newClipEnv(t)
	item := fixtures.NewMarkupBuilder().WithCorners(0, 0, 0.2, 0.1).Build()
	item.ID = ""
	item.Filename = ""
	env.symbols.symbols = []*ports.Symbol{
		{Name: "valve", Width: 0.2, Height: 0.1, Items: []*markup.Markup{item}},
	}

	// Act
	placed, err := env.service.PlaceSymbol("valve", "test-doc.pdf", 1, 0.5, 0.5)

	// Assert: center lands on (0.5, 0.5).
	require.NoError(t, err)
	require.Len(t, placed, 1)
	p := placed[0]
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 1, p.Page)
	assert.False(t, p.FromPDF)
	assert.InDelta(t, 0.4, p.Start.X, 1e-9)
	assert.InDelta(t, 0.45, p.Start.Y, 1e-9)
	assert.InDelta(t, 0.6, p.End.X, 1e-9)
	assert.InDelta(t, 0.55, p.End.Y, 1e-9)
}

func TestPlaceSymbol_TargetsDestinationHistory(t *testing.T) {
	// Arrange
	env := newClipEnv(t)
	item := fixtures.NewMarkupBuilder().WithCorners(0, 0, 0.2, 0.1).Build()
	item.ID = ""
	item.Filename = ""
	env.symbols.symbols = []*ports.Symbol{
		{Name: "valve", Width: 0.2, Height: 0.1, Items: []*markup.Markup{item}},
	}
	env.history.SetActiveDocument("a.pdf")

	// Act
	_, err := env.service.PlaceSymbol("valve", "b.pdf", 0, 0.5, 0.5)
	require.NoError(t, err)

	// Assert: the placement undoes on its own document.
	assert.Equal(t, "b.pdf", env.history.ActiveDocument())
	require.True(t, env.history.Undo())
	assert.Empty(t, env.store.ListByDocument("b.pdf"))
}

func TestPlaceSymbol_NotFound(t *testing.T) {
	env := newClipEnv(t)
	_, err := env.service.PlaceSymbol("ghost", "test-doc.pdf", 0, 0.5, 0.5)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDeleteSymbol(t *testing.T) {
	env := newClipEnv(t)
	env.symbols.symbols = []*ports.Symbol{{Name: "a"}, {Name: "b"}}

	require.NoError(t, env.service.DeleteSymbol("a"))
	symbols, err := env.service.Symbols()
	require.NoError(t, err)
	require.Len(t, symbols, 1)
	assert.Equal(t, "b", symbols[0].Name)

	assert.True(t, pkgerrors.IsNotFound(env.service.DeleteSymbol("a")))
}

func TestDefaultSignature(t *testing.T) {
	env := newClipEnv(t)

	name, err := env.service.DefaultSignature()
	require.NoError(t, err)
	assert.Empty(t, name)

	require.NoError(t, env.service.SetDefaultSignature("john"))
	name, err = env.service.DefaultSignature()
	require.NoError(t, err)
	assert.Equal(t, "john", name)
}
