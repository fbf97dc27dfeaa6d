package markup

import "math"

// Sizing constants in page-fraction units.
const (
	// anchorBoxSize is the synthesized box around single-point markups
	// (notes, carets, sound clips, file attachments).
	anchorBoxSize = 0.02

	// textCharWidthRatio estimates glyph advance as a fraction of the
	// font size when a text markup has no explicit box.
	textCharWidthRatio = 0.5
)

// Bounds is an axis-aligned box in normalized page-fraction coordinates.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// Width returns the horizontal extent of the bounds.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent of the bounds.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Union returns the smallest bounds covering both b and other.
func (b Bounds) Union(other Bounds) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, other.MinX),
		MinY: math.Min(b.MinY, other.MinY),
		MaxX: math.Max(b.MaxX, other.MaxX),
		MaxY: math.Max(b.MaxY, other.MaxY),
	}
}

// Contains reports whether the point (x, y) lies inside the bounds.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// GetBounds computes the markup's bounding box. The second return value
// is false for unrecognized or malformed markups; callers must treat
// that as "cannot select or bound this markup" and skip it rather than
// fail.
func (m *Markup) GetBounds() (Bounds, bool) {
	switch m.Type.Kind() {
	case KindPointList:
		return pointListBounds(m.Points)
	case KindSegment:
		if m.Start == nil || m.End == nil {
			return Bounds{}, false
		}
		return pointListBounds([]Point{*m.Start, *m.End})
	case KindArc:
		return arcBounds(m)
	case KindBox:
		if m.Start == nil || m.End == nil {
			return Bounds{}, false
		}
		b, ok := pointListBounds([]Point{*m.Start, *m.End})
		if ok && m.Leader != nil {
			b = b.Union(Bounds{MinX: m.Leader.X, MinY: m.Leader.Y, MaxX: m.Leader.X, MaxY: m.Leader.Y})
		}
		return b, ok
	case KindAnchor:
		half := anchorBoxSize / 2
		return Bounds{
			MinX: m.X - half,
			MinY: m.Y - half,
			MaxX: m.X + half,
			MaxY: m.Y + half,
		}, true
	case KindText:
		return textBounds(m)
	default:
		return Bounds{}, false
	}
}

func pointListBounds(points []Point) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := Bounds{
		MinX: points[0].X, MinY: points[0].Y,
		MaxX: points[0].X, MaxY: points[0].Y,
	}
	for _, p := range points[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b, true
}

// arcBounds bounds the triangle formed by the arc's endpoints and its
// quadratic control point. The true curve never leaves that triangle,
// so this is a cheap but sufficient bound for a single quadratic.
func arcBounds(m *Markup) (Bounds, bool) {
	if m.Start == nil || m.End == nil {
		return Bounds{}, false
	}
	ctrl := arcControlPoint(*m.Start, *m.End, m.Bulge)
	return pointListBounds([]Point{*m.Start, *m.End, ctrl})
}

// arcControlPoint derives the quadratic control point from the chord
// and the bulge ratio: the midpoint displaced along the chord's normal
// by bulge times half the chord length.
func arcControlPoint(start, end Point, bulge float64) Point {
	midX := (start.X + end.X) / 2
	midY := (start.Y + end.Y) / 2
	dx := end.X - start.X
	dy := end.Y - start.Y
	chord := math.Hypot(dx, dy)
	if chord == 0 {
		return Point{X: midX, Y: midY}
	}
	// Unit normal to the chord.
	nx := -dy / chord
	ny := dx / chord
	offset := bulge * chord / 2
	return Point{X: midX + nx*offset, Y: midY + ny*offset}
}

// textBounds uses the explicit box when one exists and otherwise
// estimates width from character count and font size.
func textBounds(m *Markup) (Bounds, bool) {
	if m.Width > 0 && m.Height > 0 {
		return Bounds{
			MinX: m.X,
			MinY: m.Y,
			MaxX: m.X + m.Width,
			MaxY: m.Y + m.Height,
		}, true
	}
	fontSize := m.Style.FontSize
	if fontSize <= 0 {
		fontSize = anchorBoxSize
	}
	width := float64(len([]rune(m.Text))) * fontSize * textCharWidthRatio
	if width == 0 {
		width = fontSize
	}
	return Bounds{
		MinX: m.X,
		MinY: m.Y,
		MaxX: m.X + width,
		MaxY: m.Y + fontSize,
	}, true
}
