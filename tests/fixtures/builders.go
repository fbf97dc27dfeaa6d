// Package fixtures provides builders for test data.
package fixtures

import (
	"fmt"

	"markup-backend/domain/markup"
)

// MarkupBuilder helps create test markups with default values.
type MarkupBuilder struct {
	m *markup.Markup
}

// NewMarkupBuilder starts from a freehand rectangle on page 0 of a
// test document.
func NewMarkupBuilder() *MarkupBuilder {
	m, err := markup.New(markup.TypeRectangle, "test-doc.pdf", 0)
	if err != nil {
		panic(fmt.Sprintf("fixture: %v", err))
	}
	m.Start = &markup.Point{X: 0.1, Y: 0.1}
	m.End = &markup.Point{X: 0.3, Y: 0.2}
	return &MarkupBuilder{m: m}
}

func (b *MarkupBuilder) WithID(id string) *MarkupBuilder {
	b.m.ID = id
	return b
}

func (b *MarkupBuilder) WithType(t markup.Type) *MarkupBuilder {
	b.m.Type = t
	return b
}

func (b *MarkupBuilder) WithDocument(filename string) *MarkupBuilder {
	b.m.Filename = filename
	return b
}

func (b *MarkupBuilder) WithPage(page int) *MarkupBuilder {
	b.m.Page = page
	return b
}

func (b *MarkupBuilder) WithCorners(x1, y1, x2, y2 float64) *MarkupBuilder {
	b.m.Start = &markup.Point{X: x1, Y: y1}
	b.m.End = &markup.Point{X: x2, Y: y2}
	return b
}

func (b *MarkupBuilder) WithPoints(points ...markup.Point) *MarkupBuilder {
	b.m.Points = points
	return b
}

func (b *MarkupBuilder) WithAnchor(x, y float64) *MarkupBuilder {
	b.m.X = x
	b.m.Y = y
	return b
}

func (b *MarkupBuilder) WithBox(x, y, w, h float64) *MarkupBuilder {
	b.m.X = x
	b.m.Y = y
	b.m.Width = w
	b.m.Height = h
	return b
}

func (b *MarkupBuilder) WithText(text string) *MarkupBuilder {
	b.m.Text = text
	return b
}

func (b *MarkupBuilder) WithStyle(style markup.Style) *MarkupBuilder {
	b.m.Style = style
	return b
}

// Embedded marks the markup as parsed out of the document body under
// the given annotation id.
func (b *MarkupBuilder) Embedded(pdfAnnotID string) *MarkupBuilder {
	b.m.FromPDF = true
	b.m.PDFAnnotID = pdfAnnotID
	b.m.Modified = false
	return b
}

// EmbeddedModified marks the markup as embedded and locally edited.
func (b *MarkupBuilder) EmbeddedModified(pdfAnnotID string) *MarkupBuilder {
	b.Embedded(pdfAnnotID)
	b.m.Modified = true
	return b
}

// Build returns the assembled markup.
func (b *MarkupBuilder) Build() *markup.Markup {
	return b.m
}
