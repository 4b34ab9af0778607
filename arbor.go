package arbor

import "github.com/go-gl/mathgl/mgl32"

// Range2D is an axis-aligned rectangle given by its minimum and maximum
// corners. The coordinate system has Y increasing upward.
type Range2D struct {
	Min, Max mgl32.Vec2
}

// Size returns the width and height of the range.
func (r Range2D) Size() mgl32.Vec2 {
	return r.Max.Sub(r.Min)
}

// Center returns the midpoint of the range.
func (r Range2D) Center() mgl32.Vec2 {
	return r.Min.Add(r.Max).Mul(0.5)
}

// Translated returns the range shifted by v.
func (r Range2D) Translated(v mgl32.Vec2) Range2D {
	return Range2D{Min: r.Min.Add(v), Max: r.Max.Add(v)}
}

// Contains reports whether the point p lies inside the range.
// Points on the edge are considered inside.
func (r Range2D) Contains(p mgl32.Vec2) bool {
	return p[0] >= r.Min[0] && p[0] <= r.Max[0] &&
		p[1] >= r.Min[1] && p[1] <= r.Max[1]
}

// Intersects reports whether r and other overlap.
// Adjacent ranges (sharing only an edge) are considered intersecting.
func (r Range2D) Intersects(other Range2D) bool {
	return r.Min[0] <= other.Max[0] && r.Max[0] >= other.Min[0] &&
		r.Min[1] <= other.Max[1] && r.Max[1] >= other.Min[1]
}

// Union returns the smallest range containing both r and other. A zero
// range is treated as empty.
func (r Range2D) Union(other Range2D) Range2D {
	if r == (Range2D{}) {
		return other
	}
	if other == (Range2D{}) {
		return r
	}
	return Range2D{
		Min: mgl32.Vec2{min(r.Min[0], other.Min[0]), min(r.Min[1], other.Min[1])},
		Max: mgl32.Vec2{max(r.Max[0], other.Max[0]), max(r.Max[1], other.Max[1])},
	}
}

// Alignment controls where a rendered text block is placed relative to the
// renderer cursor. The low two bits select the horizontal placement, the next
// two the vertical one.
type Alignment uint8

const (
	alignLeft   Alignment = 0
	alignCenter Alignment = 1
	alignRight  Alignment = 2

	alignLine   Alignment = 0 << 2
	alignBottom Alignment = 1 << 2
	alignMiddle Alignment = 2 << 2
	alignTop    Alignment = 3 << 2

	alignHorizontalMask Alignment = 3
	alignVerticalMask   Alignment = 3 << 2
)

const (
	AlignLineLeft     = alignLine | alignLeft     // baseline at cursor, left edge at cursor (default)
	AlignLineCenter   = alignLine | alignCenter   // baseline at cursor, centered horizontally
	AlignLineRight    = alignLine | alignRight    // baseline at cursor, right edge at cursor
	AlignBottomLeft   = alignBottom | alignLeft   // descent of the last line at cursor
	AlignBottomCenter = alignBottom | alignCenter
	AlignBottomRight  = alignBottom | alignRight
	AlignMiddleLeft   = alignMiddle | alignLeft   // block vertically centered on cursor
	AlignMiddleCenter = alignMiddle | alignCenter
	AlignMiddleRight  = alignMiddle | alignRight
	AlignTopLeft      = alignTop | alignLeft      // ascent of the first line at cursor
	AlignTopCenter    = alignTop | alignCenter
	AlignTopRight     = alignTop | alignRight
)

func (a Alignment) horizontal() Alignment { return a & alignHorizontalMask }
func (a Alignment) vertical() Alignment   { return a & alignVerticalMask }

// String returns the alignment name, e.g. "MiddleCenter".
func (a Alignment) String() string {
	var v, h string
	switch a.vertical() {
	case alignLine:
		v = "Line"
	case alignBottom:
		v = "Bottom"
	case alignMiddle:
		v = "Middle"
	case alignTop:
		v = "Top"
	}
	switch a.horizontal() {
	case alignLeft:
		h = "Left"
	case alignCenter:
		h = "Center"
	case alignRight:
		h = "Right"
	default:
		return "Alignment(invalid)"
	}
	return v + h
}
