package markup_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markup-backend/domain/markup"
	"markup-backend/tests/fixtures"
)

func TestGetBounds_PointList(t *testing.T) {
	m := fixtures.NewMarkupBuilder().
		WithType(markup.TypePen).
		WithCorners(0, 0, 0, 0).
		WithPoints(
			markup.Point{X: 0.3, Y: 0.5},
			markup.Point{X: 0.1, Y: 0.7},
			markup.Point{X: 0.2, Y: 0.4},
		).
		Build()
	m.Start, m.End = nil, nil

	b, ok := m.GetBounds()

	require.True(t, ok)
	assert.InDelta(t, 0.1, b.MinX, 1e-9)
	assert.InDelta(t, 0.4, b.MinY, 1e-9)
	assert.InDelta(t, 0.3, b.MaxX, 1e-9)
	assert.InDelta(t, 0.7, b.MaxY, 1e-9)
}

func TestGetBounds_EmptyPointList(t *testing.T) {
	m := fixtures.NewMarkupBuilder().WithType(markup.TypePen).Build()
	m.Points = nil
	m.Start, m.End = nil, nil

	_, ok := m.GetBounds()

	assert.False(t, ok)
}

func TestGetBounds_Segment(t *testing.T) {
	m := fixtures.NewMarkupBuilder().
		WithType(markup.TypeLine).
		WithCorners(0.8, 0.2, 0.1, 0.6).
		Build()

	b, ok := m.GetBounds()

	require.True(t, ok)
	assert.InDelta(t, 0.1, b.MinX, 1e-9)
	assert.InDelta(t, 0.2, b.MinY, 1e-9)
	assert.InDelta(t, 0.8, b.MaxX, 1e-9)
	assert.InDelta(t, 0.6, b.MaxY, 1e-9)
}

func TestGetBounds_ArcIncludesControlPoint(t *testing.T) {
	// Horizontal chord, bulge 1.0: the control point lies
	// bulge * chord/2 = 0.2 off the chord along its normal.
	m := fixtures.NewMarkupBuilder().
		WithType(markup.TypeArc).
		WithCorners(0.2, 0.5, 0.6, 0.5).
		Build()
	m.Bulge = 1.0

	b, ok := m.GetBounds()

	require.True(t, ok)
	assert.InDelta(t, 0.2, b.MinX, 1e-9)
	assert.InDelta(t, 0.6, b.MaxX, 1e-9)
	// Chord length 0.4, offset 0.2 from y=0.5.
	assert.InDelta(t, 0.4, b.Height(), 1e-9)
}

func TestGetBounds_ArcZeroChord(t *testing.T) {
	m := fixtures.NewMarkupBuilder().
		WithType(markup.TypeArc).
		WithCorners(0.5, 0.5, 0.5, 0.5).
		Build()
	m.Bulge = 1.5

	b, ok := m.GetBounds()

	require.True(t, ok)
	assert.InDelta(t, 0, b.Width(), 1e-9)
	assert.InDelta(t, 0, b.Height(), 1e-9)
}

func TestGetBounds_BoxUnionsLeader(t *testing.T) {
	m := fixtures.NewMarkupBuilder().
		WithType(markup.TypeCallout).
		WithCorners(0.4, 0.4, 0.6, 0.5).
		Build()
	m.Leader = &markup.Point{X: 0.1, Y: 0.8}

	b, ok := m.GetBounds()

	require.True(t, ok)
	assert.InDelta(t, 0.1, b.MinX, 1e-9)
	assert.InDelta(t, 0.8, b.MaxY, 1e-9)
	assert.True(t, b.Contains(0.5, 0.45))
}

func TestGetBounds_AnchorSynthesizesBox(t *testing.T) {
	m := fixtures.NewMarkupBuilder().
		WithType(markup.TypeNote).
		WithAnchor(0.5, 0.5).
		Build()
	m.Start, m.End = nil, nil

	b, ok := m.GetBounds()

	require.True(t, ok)
	assert.InDelta(t, 0.02, b.Width(), 1e-9)
	assert.InDelta(t, 0.02, b.Height(), 1e-9)
	assert.True(t, b.Contains(0.5, 0.5))
}

func TestGetBounds_TextExplicitBox(t *testing.T) {
	m := fixtures.NewMarkupBuilder().
		WithType(markup.TypeText).
		WithBox(0.1, 0.2, 0.3, 0.05).
		Build()
	m.Start, m.End = nil, nil

	b, ok := m.GetBounds()

	require.True(t, ok)
	assert.InDelta(t, 0.1, b.MinX, 1e-9)
	assert.InDelta(t, 0.4, b.MaxX, 1e-9)
	assert.InDelta(t, 0.25, b.MaxY, 1e-9)
}

func TestGetBounds_TextEstimatedFromContent(t *testing.T) {
	m := fixtures.NewMarkupBuilder().
		WithType(markup.TypeText).
		WithAnchor(0.1, 0.1).
		WithText("abcd").
		WithStyle(markup.Style{FontSize: 0.02}).
		Build()
	m.Start, m.End = nil, nil
	m.Width, m.Height = 0, 0

	b, ok := m.GetBounds()

	require.True(t, ok)
	// 4 runes * 0.02 font * 0.5 advance ratio.
	assert.InDelta(t, 0.04, b.Width(), 1e-9)
	assert.InDelta(t, 0.02, b.Height(), 1e-9)
}

func TestGetBounds_UnknownType(t *testing.T) {
	m := fixtures.NewMarkupBuilder().Build()
	m.Type = markup.TypeUnknown

	_, ok := m.GetBounds()

	assert.False(t, ok)
}

func TestBoundsUnion(t *testing.T) {
	a := markup.Bounds{MinX: 0.1, MinY: 0.1, MaxX: 0.3, MaxY: 0.2}
	b := markup.Bounds{MinX: 0.2, MinY: 0.05, MaxX: 0.5, MaxY: 0.15}

	u := a.Union(b)

	assert.InDelta(t, 0.1, u.MinX, 1e-9)
	assert.InDelta(t, 0.05, u.MinY, 1e-9)
	assert.InDelta(t, 0.5, u.MaxX, 1e-9)
	assert.InDelta(t, 0.2, u.MaxY, 1e-9)
	assert.False(t, math.IsNaN(u.Width()))
}
