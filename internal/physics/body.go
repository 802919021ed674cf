package physics

import (
	"polydrop/internal/geom"
	"polydrop/internal/shape"
)

// BodyType is the kinematic class of a body.
type BodyType uint8

const (
	// Static bodies have zero mass and never move.
	Static BodyType = iota
	// Kinematic bodies move with their set velocity and ignore forces and contacts.
	Kinematic
	// Dynamic bodies are moved by gravity and contact response.
	Dynamic
)

func (t BodyType) String() string {
	switch t {
	case Static:
		return "static"
	case Kinematic:
		return "kinematic"
	case Dynamic:
		return "dynamic"
	}
	return "unknown"
}

// BodyDef describes a body to create. The zero value is a static body at the origin.
// GravityScale 0 is treated as 1 so that zero-value defs fall normally.
type BodyDef struct {
	Type            BodyType
	Position        geom.Vec2
	Angle           float32
	LinearVelocity  geom.Vec2
	AngularVelocity float32
	LinearDamping   float32
	AngularDamping  float32
	GravityScale    float32
	FixedRotation   bool
}

// FixtureDef binds a shape and material to a body. Shape is copied on CreateFixture, so one
// def (and one Shape value) can be reused for several fixtures.
type FixtureDef struct {
	Shape       *shape.Shape
	Density     float32
	Friction    float32
	Restitution float32
}

// NewFixtureDef returns a def with the default friction (0.2) and no restitution.
func NewFixtureDef(s *shape.Shape, density float32) FixtureDef {
	return FixtureDef{Shape: s, Density: density, Friction: 0.2}
}

// FixtureRef addresses a fixture by body index and per-body fixture index.
type FixtureRef struct {
	Body    int
	Fixture int
}

// Body is a rigid body record in the world arena. The origin transform xf is derived from
// the center of mass c and angle after every step; nothing else writes it.
type Body struct {
	typ BodyType

	xf          geom.Transform
	localCenter geom.Vec2
	c           geom.Vec2
	angle       float32

	v geom.Vec2
	w float32

	mass, invMass float32
	inertia, invI float32

	linearDamping  float32
	angularDamping float32
	gravityScale   float32
	fixedRotation  bool

	fixtures []int
}

func newBody(def BodyDef) Body {
	b := Body{
		typ:            def.Type,
		xf:             geom.NewTransform(def.Position, def.Angle),
		c:              def.Position,
		angle:          def.Angle,
		linearDamping:  def.LinearDamping,
		angularDamping: def.AngularDamping,
		gravityScale:   def.GravityScale,
		fixedRotation:  def.FixedRotation,
	}
	if b.gravityScale == 0 {
		b.gravityScale = 1
	}
	if b.typ != Static {
		b.v = def.LinearVelocity
		b.w = def.AngularVelocity
	}
	if b.typ == Dynamic {
		b.mass = 1
		b.invMass = 1
	}
	return b
}

// resetMassData recomputes mass, inertia and center of mass from the attached fixtures.
func (b *Body) resetMassData(fixtures []Fixture) {
	b.mass, b.invMass = 0, 0
	b.inertia, b.invI = 0, 0
	b.localCenter = geom.Vec2{}

	if b.typ != Dynamic {
		b.c = b.xf.P
		return
	}

	var center geom.Vec2
	var rotI float32
	for _, fi := range b.fixtures {
		f := &fixtures[fi]
		if f.density == 0 {
			continue
		}
		md := f.shape.ComputeMass(f.density)
		b.mass += md.Mass
		center = center.Add(md.Center.Scale(md.Mass))
		rotI += md.I
	}

	if b.mass > 0 {
		b.invMass = 1 / b.mass
		center = center.Scale(b.invMass)
	} else {
		// Dynamic bodies always need positive mass.
		b.mass = 1
		b.invMass = 1
	}

	if rotI > 0 && !b.fixedRotation {
		// Inertia about the center of mass.
		b.inertia = rotI - b.mass*center.Dot(center)
		if b.inertia > 0 {
			b.invI = 1 / b.inertia
		} else {
			b.inertia = 0
		}
	}

	b.localCenter = center
	b.c = b.xf.Apply(center)
}

// synchronize rebuilds the origin transform from the center of mass and angle.
func (b *Body) synchronize() {
	b.xf.Q = geom.NewRot(b.angle)
	b.xf.P = b.c.Sub(b.xf.Q.Apply(b.localCenter))
}
