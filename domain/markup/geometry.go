package markup

import (
	pkgerrors "markup-backend/pkg/errors"
)

// Handle identifies which part of a markup a resize operation grabs.
type Handle string

const (
	HandleTopLeft     Handle = "topLeft"
	HandleTop         Handle = "top"
	HandleTopRight    Handle = "topRight"
	HandleRight       Handle = "right"
	HandleBottomRight Handle = "bottomRight"
	HandleBottom      Handle = "bottom"
	HandleBottomLeft  Handle = "bottomLeft"
	HandleLeft        Handle = "left"
	HandleStart       Handle = "start"
	HandleEnd         Handle = "end"
	HandleBulge       Handle = "bulge"
	HandleLeader      Handle = "leader"
)

// Bulge ratios outside this range produce degenerate arcs, so resize
// clamps into it.
const (
	MinBulge = -2.0
	MaxBulge = 2.0
)

// Translate moves the whole markup by (dx, dy) in page fractions,
// whatever its geometry kind. Embedded markups are flagged modified.
func (m *Markup) Translate(dx, dy float64) {
	for i := range m.Points {
		m.Points[i].X += dx
		m.Points[i].Y += dy
	}
	if m.Start != nil {
		m.Start.X += dx
		m.Start.Y += dy
	}
	if m.End != nil {
		m.End.X += dx
		m.End.Y += dy
	}
	if m.Leader != nil {
		m.Leader.X += dx
		m.Leader.Y += dy
	}
	m.X += dx
	m.Y += dy
	m.Touch()
}

// Resize applies a handle-specific geometry change. Freehand and
// polyline markups have no resize handles; for them the whole point
// cloud is translated, matching how dragging them behaves. Embedded
// markups are flagged modified.
func (m *Markup) Resize(handle Handle, dx, dy float64) error {
	switch m.Type.Kind() {
	case KindPointList:
		m.Translate(dx, dy)
		return nil
	case KindSegment:
		return m.resizeEndpoint(handle, dx, dy)
	case KindArc:
		if handle == HandleBulge {
			return m.resizeBulge(dy)
		}
		return m.resizeEndpoint(handle, dx, dy)
	case KindBox:
		if handle == HandleLeader && m.Leader != nil {
			m.Leader.X += dx
			m.Leader.Y += dy
			m.Touch()
			return nil
		}
		return m.resizeBox(handle, dx, dy)
	case KindAnchor:
		m.Translate(dx, dy)
		return nil
	case KindText:
		return m.resizeTextBox(handle, dx, dy)
	default:
		return pkgerrors.NewValidation("markup type cannot be resized: " + string(m.Type))
	}
}

func (m *Markup) resizeEndpoint(handle Handle, dx, dy float64) error {
	switch handle {
	case HandleStart:
		if m.Start == nil {
			return pkgerrors.NewValidation("markup has no start point")
		}
		m.Start.X += dx
		m.Start.Y += dy
	case HandleEnd:
		if m.End == nil {
			return pkgerrors.NewValidation("markup has no end point")
		}
		m.End.X += dx
		m.End.Y += dy
	default:
		return pkgerrors.NewValidation("invalid handle for endpoint markup: " + string(handle))
	}
	m.Touch()
	return nil
}

// resizeBulge adjusts the arc height by the vertical drag distance
// relative to the chord, clamped so the arc stays drawable.
func (m *Markup) resizeBulge(dy float64) error {
	if m.Start == nil || m.End == nil {
		return pkgerrors.NewValidation("arc is missing endpoints")
	}
	bulge := m.Bulge + dy
	if bulge < MinBulge {
		bulge = MinBulge
	}
	if bulge > MaxBulge {
		bulge = MaxBulge
	}
	m.Bulge = bulge
	m.Touch()
	return nil
}

// resizeBox moves the grabbed corner or edge. Start and End may be any
// two opposite corners when the markup arrives over the wire, so the
// box is normalized first and written back min-corner-first, keeping
// the min/max roles stable even when a corner is dragged past its
// opposite.
func (m *Markup) resizeBox(handle Handle, dx, dy float64) error {
	if m.Start == nil || m.End == nil {
		return pkgerrors.NewValidation("markup has no box corners")
	}

	minX, maxX := ordered(m.Start.X, m.End.X)
	minY, maxY := ordered(m.Start.Y, m.End.Y)

	switch handle {
	case HandleTopLeft:
		minX += dx
		minY += dy
	case HandleTop:
		minY += dy
	case HandleTopRight:
		maxX += dx
		minY += dy
	case HandleRight:
		maxX += dx
	case HandleBottomRight:
		maxX += dx
		maxY += dy
	case HandleBottom:
		maxY += dy
	case HandleBottomLeft:
		minX += dx
		maxY += dy
	case HandleLeft:
		minX += dx
	default:
		return pkgerrors.NewValidation("invalid handle for box markup: " + string(handle))
	}

	minX, maxX = ordered(minX, maxX)
	minY, maxY = ordered(minY, maxY)
	m.Start = &Point{X: minX, Y: minY}
	m.End = &Point{X: maxX, Y: maxY}
	m.Touch()
	return nil
}

func (m *Markup) resizeTextBox(handle Handle, dx, dy float64) error {
	switch handle {
	case HandleRight:
		m.Width += dx
	case HandleBottom:
		m.Height += dy
	case HandleBottomRight:
		m.Width += dx
		m.Height += dy
	default:
		// Grabbing anywhere else moves the anchor.
		m.Translate(dx, dy)
		return nil
	}
	if m.Width < 0 {
		m.Width = 0
	}
	if m.Height < 0 {
		m.Height = 0
	}
	m.Touch()
	return nil
}

func ordered(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}
