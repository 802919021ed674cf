package framesync

import (
	"image/color"

	"polydrop/internal/geom"
)

// Drawable is a polygon ready for a surface: world-space points in the fixture's vertex
// order and a fill color. It is derived state, rebuilt for every fixture of every frame.
type Drawable struct {
	Points []geom.Vec2
	Color  color.RGBA
}

// NewDrawable returns a drawable whose point buffer can hold capacity points without growing.
func NewDrawable(capacity int) *Drawable {
	return &Drawable{Points: make([]geom.Vec2, 0, capacity)}
}

// Clone returns a copy that does not share the point buffer.
func (d *Drawable) Clone() Drawable {
	return Drawable{Points: append([]geom.Vec2(nil), d.Points...), Color: d.Color}
}
