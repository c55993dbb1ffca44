package model

// Point is a position in screen coordinates.
type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Rect is a rectangle in screen coordinates, left/top inclusive.
type Rect struct {
	Left   int32 `json:"left"`
	Top    int32 `json:"top"`
	Right  int32 `json:"right"`
	Bottom int32 `json:"bottom"`
}

// Width returns the rectangle width.
func (r Rect) Width() int32 {
	return r.Right - r.Left
}

// Height returns the rectangle height.
func (r Rect) Height() int32 {
	return r.Bottom - r.Top
}

// IsEmpty reports whether the rectangle covers no area.
func (r Rect) IsEmpty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// OffsetTo returns a copy of the rectangle moved so its top-left corner is
// at (x, y).
func (r Rect) OffsetTo(x, y int32) Rect {
	return Rect{
		Left:   x,
		Top:    y,
		Right:  x + r.Width(),
		Bottom: y + r.Height(),
	}
}

// Insets describes space reserved on each edge of a rectangle.
type Insets struct {
	Left   int32 `json:"left"`
	Top    int32 `json:"top"`
	Right  int32 `json:"right"`
	Bottom int32 `json:"bottom"`
}

// AddInsets returns the edge-wise sum of two inset sets.
func AddInsets(a, b Insets) Insets {
	return Insets{
		Left:   a.Left + b.Left,
		Top:    a.Top + b.Top,
		Right:  a.Right + b.Right,
		Bottom: a.Bottom + b.Bottom,
	}
}
