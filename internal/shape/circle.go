package shape

import (
	"polydrop/internal/geom"

	"github.com/chewxy/math32"
)

// Circle is a solid disc centered at Center in the body frame.
type Circle struct {
	Center geom.Vec2
	Radius float32
}

func (c *Circle) ComputeMass(density float32) MassData {
	rr := c.Radius * c.Radius
	m := density * math32.Pi * rr
	return MassData{
		Mass:   m,
		Center: c.Center,
		I:      m * (0.5*rr + c.Center.Dot(c.Center)),
	}
}

// Edge is a line segment. It has no mass and is only meaningful on static bodies.
type Edge struct {
	V1, V2 geom.Vec2
}
