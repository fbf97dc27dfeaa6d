package markup_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markup-backend/domain/markup"
	pkgerrors "markup-backend/pkg/errors"
	"markup-backend/tests/fixtures"
)

func TestNew(t *testing.T) {
	// Act
	m, err := markup.New(markup.TypePen, "doc.pdf", 2)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "doc.pdf", m.Filename)
	assert.Equal(t, 2, m.Page)
	assert.False(t, m.FromPDF)
	assert.Empty(t, m.PDFAnnotID)
	assert.False(t, m.Modified)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		typ      markup.Type
		filename string
		page     int
	}{
		{"bad type", markup.Type("scribble"), "doc.pdf", 0},
		{"empty filename", markup.TypePen, "", 0},
		{"negative page", markup.TypePen, "doc.pdf", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := markup.New(tt.typ, tt.filename, tt.page)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func TestFromEmbedded(t *testing.T) {
	// Act
	m, err := markup.FromEmbedded(markup.TypeCircle, "doc.pdf", 0, "ann42")

	// Assert
	require.NoError(t, err)
	assert.True(t, m.FromPDF)
	assert.Equal(t, "ann42", m.PDFAnnotID)
	assert.False(t, m.Modified)

	_, err = markup.FromEmbedded(markup.TypeCircle, "doc.pdf", 0, "")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestClone_SharesNothing(t *testing.T) {
	// Arrange
	original := fixtures.NewMarkupBuilder().
		WithType(markup.TypePolyline).
		WithPoints(markup.Point{X: 0.1, Y: 0.1}, markup.Point{X: 0.2, Y: 0.3}).
		Build()
	original.Leader = &markup.Point{X: 0.5, Y: 0.5}

	// Act
	clone := original.Clone()
	clone.Points[0].X = 0.9
	clone.Start.X = 0.9
	clone.Leader.Y = 0.9

	// Assert
	assert.InDelta(t, 0.1, original.Points[0].X, 1e-9)
	assert.InDelta(t, 0.1, original.Start.X, 1e-9)
	assert.InDelta(t, 0.5, original.Leader.Y, 1e-9)
}

func TestClone_Equal(t *testing.T) {
	original := fixtures.NewMarkupBuilder().
		EmbeddedModified("ann1").
		WithText("hello").
		Build()

	clone := original.Clone()

	if diff := cmp.Diff(original, clone); diff != "" {
		t.Errorf("clone differs from original (-want +got):\n%s", diff)
	}
}

func TestEqual(t *testing.T) {
	base := fixtures.NewMarkupBuilder().
		WithID("m1").
		Embedded("ann1").
		WithText("hello").
		Build()

	assert.True(t, base.Equal(base.Clone()))

	moved := base.Clone()
	moved.Translate(0.01, 0)
	assert.False(t, base.Equal(moved))

	touched := base.Clone()
	touched.Modified = true
	assert.False(t, base.Equal(touched))

	retyped := base.Clone()
	retyped.Text = "changed"
	assert.False(t, base.Equal(retyped))

	assert.False(t, base.Equal(nil))
	var none *markup.Markup
	assert.True(t, none.Equal(nil))
}

func TestNormalize_ClearsEmbeddedFieldsOnLocalMarkups(t *testing.T) {
	// Arrange: a wire payload claiming embedded state without the flag.
	m := fixtures.NewMarkupBuilder().Build()
	m.PDFAnnotID = "ann1"
	m.Modified = true

	// Act
	m.Normalize()

	// Assert
	assert.Empty(t, m.PDFAnnotID)
	assert.False(t, m.Modified)
}

func TestNormalize_UnknownTypeDegrades(t *testing.T) {
	m := fixtures.NewMarkupBuilder().Build()
	m.Type = markup.Type("hologram")

	m.Normalize()

	assert.Equal(t, markup.TypeUnknown, m.Type)
}

func TestTouch_OnlyFlagsEmbeddedMarkups(t *testing.T) {
	local := fixtures.NewMarkupBuilder().Build()
	embedded := fixtures.NewMarkupBuilder().Embedded("ann1").Build()

	local.Touch()
	embedded.Touch()

	assert.False(t, local.Modified)
	assert.True(t, embedded.Modified)
}

func TestRebaseline(t *testing.T) {
	t.Run("new markup adopts its own id", func(t *testing.T) {
		m := fixtures.NewMarkupBuilder().WithID("m1").Build()

		m.Rebaseline()

		assert.True(t, m.FromPDF)
		assert.False(t, m.Modified)
		assert.Equal(t, "m1", m.PDFAnnotID)
	})

	t.Run("modified markup adopts its own id", func(t *testing.T) {
		m := fixtures.NewMarkupBuilder().WithID("m2").EmbeddedModified("old-ann").Build()

		m.Rebaseline()

		assert.True(t, m.FromPDF)
		assert.False(t, m.Modified)
		assert.Equal(t, "m2", m.PDFAnnotID)
	})

	t.Run("untouched embedded markup keeps its id", func(t *testing.T) {
		m := fixtures.NewMarkupBuilder().WithID("m3").Embedded("ann7").Build()

		m.Rebaseline()

		assert.True(t, m.FromPDF)
		assert.False(t, m.Modified)
		assert.Equal(t, "ann7", m.PDFAnnotID)
	})
}

func TestSetTextAndStyleTouch(t *testing.T) {
	m := fixtures.NewMarkupBuilder().Embedded("ann1").Build()

	m.SetText("revised")
	assert.True(t, m.Modified)

	m.Modified = false
	m.SetStyle(markup.Style{Color: "#ff0000"})
	assert.True(t, m.Modified)
	assert.Equal(t, "#ff0000", m.Style.Color)
}

func TestTypeKind(t *testing.T) {
	assert.Equal(t, markup.KindPointList, markup.TypeHighlighter.Kind())
	assert.Equal(t, markup.KindSegment, markup.TypeArrow.Kind())
	assert.Equal(t, markup.KindArc, markup.TypeArc.Kind())
	assert.Equal(t, markup.KindBox, markup.TypeStamp.Kind())
	assert.Equal(t, markup.KindAnchor, markup.TypeNote.Kind())
	assert.Equal(t, markup.KindText, markup.TypeText.Kind())
	assert.Equal(t, markup.KindNone, markup.TypeUnknown.Kind())
}
