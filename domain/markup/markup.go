// Package markup holds the core annotation model: the tagged Markup
// variant, its geometry helpers, and the invariants that keep embedded
// annotations distinguishable from ones drawn in the current session.
package markup

import (
	"github.com/google/uuid"

	pkgerrors "markup-backend/pkg/errors"
)

// Type discriminates the markup variant. Geometry and styling fields on
// Markup are interpreted according to this tag.
type Type string

const (
	TypePen            Type = "pen"
	TypeHighlighter    Type = "highlighter"
	TypeRectangle      Type = "rectangle"
	TypeCircle         Type = "circle"
	TypeArrow          Type = "arrow"
	TypeLine           Type = "line"
	TypeText           Type = "text"
	TypeCallout        Type = "callout"
	TypeCloud          Type = "cloud"
	TypePolyline       Type = "polyline"
	TypePolylineArrow  Type = "polylineArrow"
	TypeCloudPolyline  Type = "cloudPolyline"
	TypePolygon        Type = "polygon"
	TypeArc            Type = "arc"
	TypeStamp          Type = "stamp"
	TypeSymbol         Type = "symbol"
	TypeImage          Type = "image"
	TypeNote           Type = "note"
	TypeCaret          Type = "caret"
	TypeSound          Type = "sound"
	TypeTextHighlight  Type = "textHighlight"
	TypeTextMarkup     Type = "textMarkup"
	TypeRedact         Type = "redact"
	TypeFileAttachment Type = "fileAttachment"
	TypeUnknown        Type = "unknown"
)

// GeometryKind groups types that share a geometry representation.
type GeometryKind int

const (
	// KindPointList markups carry an ordered point list (freehand
	// strokes, polylines, text quad regions).
	KindPointList GeometryKind = iota
	// KindSegment markups are defined by two endpoints.
	KindSegment
	// KindArc markups are two endpoints plus a bulge ratio.
	KindArc
	// KindBox markups are defined by two opposite corners.
	KindBox
	// KindAnchor markups hang off a single point.
	KindAnchor
	// KindText markups anchor at a point with an optional explicit box.
	KindText
	// KindNone markups have no geometry this engine understands.
	KindNone
)

// Kind returns the geometry family for a markup type.
func (t Type) Kind() GeometryKind {
	switch t {
	case TypePen, TypeHighlighter, TypePolyline, TypePolylineArrow,
		TypeCloudPolyline, TypePolygon, TypeTextHighlight, TypeTextMarkup:
		return KindPointList
	case TypeLine, TypeArrow:
		return KindSegment
	case TypeArc:
		return KindArc
	case TypeRectangle, TypeCircle, TypeCloud, TypeCallout, TypeRedact,
		TypeStamp, TypeSymbol, TypeImage:
		return KindBox
	case TypeNote, TypeCaret, TypeSound, TypeFileAttachment:
		return KindAnchor
	case TypeText:
		return KindText
	default:
		return KindNone
	}
}

// Valid reports whether t is one of the known markup types.
func (t Type) Valid() bool {
	return t.Kind() != KindNone || t == TypeUnknown
}

// Point is a coordinate in normalized page-fraction space: (0,0) is the
// page's top-left corner, (1,1) the bottom-right.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Style carries the visual attributes shared across markup types.
// Fields that do not apply to a type are simply left zero.
type Style struct {
	Color       string  `json:"color,omitempty"`
	FillColor   string  `json:"fillColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
}

// Markup is one user-visible annotation. It is a tagged variant: which
// geometry fields are meaningful depends on Type (see GeometryKind).
//
// FromPDF is true when the markup was parsed out of the document body at
// load time; only then are Modified and PDFAnnotID meaningful. A markup
// with FromPDF false never carries a PDFAnnotID.
type Markup struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	Type     Type   `json:"type"`

	FromPDF    bool   `json:"fromPdf"`
	Modified   bool   `json:"modified,omitempty"`
	PDFAnnotID string `json:"pdfAnnotId,omitempty"`

	// Geometry. Points for KindPointList; Start/End for KindSegment,
	// KindArc and KindBox (box corners); X/Y for KindAnchor and KindText.
	Points []Point `json:"points,omitempty"`
	Start  *Point  `json:"start,omitempty"`
	End    *Point  `json:"end,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Bulge is the arc's height ratio relative to its chord, in [-2, 2].
	Bulge float64 `json:"bulge,omitempty"`

	// Leader is the callout arrow tip, independent of the text box.
	Leader *Point `json:"leader,omitempty"`

	Text      string  `json:"text,omitempty"`
	StampName string  `json:"stampName,omitempty"`
	ImageRef  string  `json:"imageRef,omitempty"`
	Rotation  float64 `json:"rotation,omitempty"`

	Style Style `json:"style"`
}

// New creates a session-local markup with a fresh id. Markups created
// through New are never embedded: FromPDF is false and PDFAnnotID empty.
func New(t Type, filename string, page int) (*Markup, error) {
	if !t.Valid() {
		return nil, pkgerrors.NewValidation("unknown markup type: " + string(t))
	}
	if filename == "" {
		return nil, pkgerrors.NewValidation("filename cannot be empty")
	}
	if page < 0 {
		return nil, pkgerrors.NewValidation("page cannot be negative")
	}
	return &Markup{
		ID:       uuid.New().String(),
		Filename: filename,
		Page:     page,
		Type:     t,
	}, nil
}

// FromEmbedded creates a markup representing an annotation that was
// already present in the document body when it was loaded.
func FromEmbedded(t Type, filename string, page int, pdfAnnotID string) (*Markup, error) {
	if pdfAnnotID == "" {
		return nil, pkgerrors.NewValidation("embedded markup requires a pdfAnnotId")
	}
	m, err := New(t, filename, page)
	if err != nil {
		return nil, err
	}
	m.FromPDF = true
	m.PDFAnnotID = pdfAnnotID
	return m, nil
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (m *Markup) Clone() *Markup {
	c := *m
	if m.Points != nil {
		c.Points = make([]Point, len(m.Points))
		copy(c.Points, m.Points)
	}
	if m.Start != nil {
		s := *m.Start
		c.Start = &s
	}
	if m.End != nil {
		e := *m.End
		c.End = &e
	}
	if m.Leader != nil {
		l := *m.Leader
		c.Leader = &l
	}
	return &c
}

// Equal reports whether the two markups carry the same identity,
// geometry, content and style. Used to tell whether a markup changed
// between a snapshot and the live collection.
func (m *Markup) Equal(o *Markup) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.ID != o.ID || m.Filename != o.Filename || m.Page != o.Page ||
		m.Type != o.Type || m.FromPDF != o.FromPDF ||
		m.Modified != o.Modified || m.PDFAnnotID != o.PDFAnnotID {
		return false
	}
	if m.X != o.X || m.Y != o.Y || m.Width != o.Width || m.Height != o.Height ||
		m.Bulge != o.Bulge || m.Rotation != o.Rotation {
		return false
	}
	if m.Text != o.Text || m.StampName != o.StampName ||
		m.ImageRef != o.ImageRef || m.Style != o.Style {
		return false
	}
	if !pointPtrEqual(m.Start, o.Start) || !pointPtrEqual(m.End, o.End) ||
		!pointPtrEqual(m.Leader, o.Leader) {
		return false
	}
	if len(m.Points) != len(o.Points) {
		return false
	}
	for i := range m.Points {
		if m.Points[i] != o.Points[i] {
			return false
		}
	}
	return true
}

func pointPtrEqual(a, b *Point) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Normalize restores the structural invariants after deserialization:
// a non-embedded markup carries neither PDFAnnotID nor Modified, and an
// unrecognized type degrades to TypeUnknown instead of failing.
func (m *Markup) Normalize() {
	if !m.Type.Valid() {
		m.Type = TypeUnknown
	}
	if !m.FromPDF {
		m.PDFAnnotID = ""
		m.Modified = false
	}
}

// Touch records a user mutation. Modified is only meaningful for
// embedded markups; session-local ones are left untouched.
func (m *Markup) Touch() {
	if m.FromPDF {
		m.Modified = true
	}
}

// Rebaseline marks the markup as matching the saved document body: it
// is embedded and unmodified from here on. Markups that were part of
// the save payload get fresh embedded identities; the converter writes
// the markup id as the annotation name, so the two coincide. Untouched
// embedded markups keep the identity they already had.
func (m *Markup) Rebaseline() {
	if !m.FromPDF || m.Modified || m.PDFAnnotID == "" {
		m.PDFAnnotID = m.ID
	}
	m.FromPDF = true
	m.Modified = false
}

// SetText replaces the markup's text content.
func (m *Markup) SetText(text string) {
	m.Text = text
	m.Touch()
}

// SetStyle replaces the markup's visual style.
func (m *Markup) SetStyle(s Style) {
	m.Style = s
	m.Touch()
}
