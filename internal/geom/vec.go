package geom

import "github.com/chewxy/math32"

// Vec2 is a 2D point or direction. World space uses screen orientation: +X right, +Y down.
type Vec2 struct {
	X, Y float32
}

// V is shorthand for Vec2{X: x, Y: y}.
func V(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{X: a.X + b.X, Y: a.Y + b.Y}
}

func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{X: a.X - b.X, Y: a.Y - b.Y}
}

func (a Vec2) Scale(s float32) Vec2 {
	return Vec2{X: a.X * s, Y: a.Y * s}
}

func (a Vec2) Neg() Vec2 {
	return Vec2{X: -a.X, Y: -a.Y}
}

func (a Vec2) Dot(b Vec2) float32 {
	return a.X*b.X + a.Y*b.Y
}

// Cross returns the z component of the 3D cross product a × b.
func (a Vec2) Cross(b Vec2) float32 {
	return a.X*b.Y - a.Y*b.X
}

// CrossScalar returns a × s, i.e. the vector rotated -90° and scaled by s.
func (a Vec2) CrossScalar(s float32) Vec2 {
	return Vec2{X: s * a.Y, Y: -s * a.X}
}

// ScalarCross returns s × a, i.e. the vector rotated +90° and scaled by s.
func ScalarCross(s float32, a Vec2) Vec2 {
	return Vec2{X: -s * a.Y, Y: s * a.X}
}

func (a Vec2) LengthSquared() float32 {
	return a.X*a.X + a.Y*a.Y
}

func (a Vec2) Length() float32 {
	return math32.Sqrt(a.X*a.X + a.Y*a.Y)
}

// Normalize returns the unit vector and the original length. A zero-length vector is returned unchanged.
func (a Vec2) Normalize() (Vec2, float32) {
	l := a.Length()
	if l < epsilon {
		return a, 0
	}
	inv := 1 / l
	return Vec2{X: a.X * inv, Y: a.Y * inv}, l
}

func (a Vec2) DistanceSquared(b Vec2) float32 {
	return a.Sub(b).LengthSquared()
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (a Vec2) IsFinite() bool {
	return !math32.IsNaN(a.X) && !math32.IsNaN(a.Y) && !math32.IsInf(a.X, 0) && !math32.IsInf(a.Y, 0)
}

// epsilon matches the float32 machine epsilon used by the solver for near-zero checks.
const epsilon = 1.1920929e-07

// Epsilon is exported for callers that compare lengths against the same threshold.
const Epsilon = epsilon
