package geom

import "github.com/chewxy/math32"

// Rot is a rotation stored as the sine and cosine of its angle.
type Rot struct {
	S, C float32
}

// NewRot returns the rotation for angle radians.
func NewRot(angle float32) Rot {
	return Rot{S: math32.Sin(angle), C: math32.Cos(angle)}
}

// Identity rotation (angle 0).
var Identity = Rot{S: 0, C: 1}

// Angle returns the rotation angle in radians, in (-π, π].
func (q Rot) Angle() float32 {
	return math32.Atan2(q.S, q.C)
}

// Apply rotates v by q.
func (q Rot) Apply(v Vec2) Vec2 {
	return Vec2{X: q.C*v.X - q.S*v.Y, Y: q.S*v.X + q.C*v.Y}
}

// ApplyInv rotates v by the inverse of q.
func (q Rot) ApplyInv(v Vec2) Vec2 {
	return Vec2{X: q.C*v.X + q.S*v.Y, Y: -q.S*v.X + q.C*v.Y}
}

// MulT returns inverse(q) * r.
func (q Rot) MulT(r Rot) Rot {
	return Rot{S: q.C*r.S - q.S*r.C, C: q.C*r.C + q.S*r.S}
}

// Transform is a rigid transform: rotation Q followed by translation P.
type Transform struct {
	P Vec2
	Q Rot
}

// NewTransform returns the transform for a body origin at p rotated by angle radians.
func NewTransform(p Vec2, angle float32) Transform {
	return Transform{P: p, Q: NewRot(angle)}
}

// Apply maps a local point to world space: rotate by Q first, then translate by P.
func (t Transform) Apply(v Vec2) Vec2 {
	return Vec2{
		X: t.Q.C*v.X - t.Q.S*v.Y + t.P.X,
		Y: t.Q.S*v.X + t.Q.C*v.Y + t.P.Y,
	}
}

// ApplyInv maps a world point back into the local frame.
func (t Transform) ApplyInv(v Vec2) Vec2 {
	return t.Q.ApplyInv(v.Sub(t.P))
}

// MulT returns inverse(a) * b, the transform that maps b-local points into a-local space.
func MulT(a, b Transform) Transform {
	return Transform{
		P: a.Q.ApplyInv(b.P.Sub(a.P)),
		Q: a.Q.MulT(b.Q),
	}
}
