// Package b2world runs scenes on github.com/ByteArena/box2d behind the same index-based
// contract as the native engine.
//
// Box2D keeps bodies and fixtures in linked lists with the newest element first, so the
// adapter records its own creation-ordered slices and never walks Box2D's lists.
package b2world

import (
	"polydrop/internal/geom"
	"polydrop/internal/physics"
	"polydrop/internal/shape"

	"github.com/ByteArena/box2d"
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

type fixture struct {
	b2    *box2d.B2Fixture
	shape shape.Shape
}

type body struct {
	b2       *box2d.B2Body
	typ      physics.BodyType
	fixtures []fixture
}

// World wraps a box2d.B2World.
type World struct {
	b2       box2d.B2World
	bodies   []body
	listener *contactListener

	// xf caches the float32 transforms read after each step so that BodyTransform does not
	// convert on every call.
	xf []geom.Transform
}

// New returns an empty world with the given gravity.
func New(gravity geom.Vec2) *World {
	w := &World{b2: box2d.MakeB2World(vec(gravity))}
	w.listener = &contactListener{}
	w.b2.SetContactListener(w.listener)
	return w
}

// SetContactListener installs fn for begin-contact events; nil removes it.
func (w *World) SetContactListener(fn physics.ContactFunc) {
	w.listener.fn = fn
}

// CreateBody appends a body and returns its index.
func (w *World) CreateBody(def physics.BodyDef) (int, error) {
	if w.b2.IsLocked() {
		return -1, physics.ErrLocked
	}
	if !def.Position.IsFinite() || !def.LinearVelocity.IsFinite() || !finite(def.Angle) || !finite(def.AngularVelocity) {
		return -1, errors.Wrapf(physics.ErrBodyDef, "position %v angle %v", def.Position, def.Angle)
	}

	bd := box2d.MakeB2BodyDef()
	bd.Type = bodyType(def.Type)
	bd.Position = vec(def.Position)
	bd.Angle = float64(def.Angle)
	bd.LinearVelocity = vec(def.LinearVelocity)
	bd.AngularVelocity = float64(def.AngularVelocity)
	bd.LinearDamping = float64(def.LinearDamping)
	bd.AngularDamping = float64(def.AngularDamping)
	bd.FixedRotation = def.FixedRotation
	if def.GravityScale != 0 {
		bd.GravityScale = float64(def.GravityScale)
	}

	b := w.b2.CreateBody(&bd)
	if b == nil {
		return -1, physics.ErrLocked
	}
	w.bodies = append(w.bodies, body{b2: b, typ: def.Type})
	w.xf = append(w.xf, transform(b.GetTransform()))
	return len(w.bodies) - 1, nil
}

// CreateFixture validates def.Shape, converts it to the matching Box2D shape and attaches it.
// Box2D clones the shape and the adapter keeps its own copy for rendering.
func (w *World) CreateFixture(bodyIndex int, def *physics.FixtureDef) (int, error) {
	if w.b2.IsLocked() {
		return -1, physics.ErrLocked
	}
	if bodyIndex < 0 || bodyIndex >= len(w.bodies) {
		return -1, errors.Wrapf(physics.ErrNoBody, "body %d of %d", bodyIndex, len(w.bodies))
	}
	if def == nil || def.Shape == nil {
		return -1, physics.ErrNilShape
	}
	if !finite(def.Density) || def.Density < 0 {
		return -1, errors.Wrapf(physics.ErrDensity, "density %v", def.Density)
	}
	if !finite(def.Friction) || def.Friction < 0 {
		return -1, errors.Wrapf(physics.ErrFriction, "friction %v", def.Friction)
	}
	if err := def.Shape.Validate(); err != nil {
		return -1, errors.Wrapf(err, "body %d", bodyIndex)
	}

	b := &w.bodies[bodyIndex]
	if def.Shape.Kind == shape.KindEdge && b.typ == physics.Dynamic {
		return -1, errors.Wrap(physics.ErrUnsupported, "edge on dynamic body")
	}

	fd := box2d.MakeB2FixtureDef()
	fd.Shape = b2Shape(def.Shape)
	fd.Density = float64(def.Density)
	fd.Friction = float64(def.Friction)
	fd.Restitution = float64(def.Restitution)
	fd.UserData = physics.FixtureRef{Body: bodyIndex, Fixture: len(b.fixtures)}

	f := b.b2.CreateFixtureFromDef(&fd)
	if f == nil {
		return -1, physics.ErrLocked
	}
	b.fixtures = append(b.fixtures, fixture{b2: f, shape: *def.Shape})
	w.xf[bodyIndex] = transform(b.b2.GetTransform())
	return len(b.fixtures) - 1, nil
}

// Step advances the Box2D world and refreshes the cached transforms in creation order.
func (w *World) Step(dt float32, velocityIterations, positionIterations int) {
	if dt <= 0 || w.b2.IsLocked() {
		return
	}
	w.b2.Step(float64(dt), velocityIterations, positionIterations)
	for i := range w.bodies {
		if w.bodies[i].typ == physics.Static {
			continue
		}
		w.xf[i] = transform(w.bodies[i].b2.GetTransform())
	}
	w.listener.flush()
}

// BodyCount returns the number of bodies created so far.
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// BodyTransform returns the body transform cached after the last step.
func (w *World) BodyTransform(i int) geom.Transform {
	return w.xf[i]
}

// FixtureCount returns the number of fixtures on body i.
func (w *World) FixtureCount(i int) int {
	return len(w.bodies[i].fixtures)
}

// FixtureShape returns the shape the fixture was created from. Callers must not modify it.
func (w *World) FixtureShape(b, f int) *shape.Shape {
	return &w.bodies[b].fixtures[f].shape
}

// BodyType returns the type the body was created with.
func (w *World) BodyType(i int) physics.BodyType {
	return w.bodies[i].typ
}

// Position returns the body origin in world space.
func (w *World) Position(i int) geom.Vec2 {
	return w.xf[i].P
}

// Angle returns the body rotation in radians.
func (w *World) Angle(i int) float32 {
	return float32(w.bodies[i].b2.GetAngle())
}

// LinearVelocity returns the velocity of the center of mass.
func (w *World) LinearVelocity(i int) geom.Vec2 {
	v := w.bodies[i].b2.GetLinearVelocity()
	return geom.V(float32(v.X), float32(v.Y))
}

// Mass returns the mass Box2D computed from the fixture densities.
func (w *World) Mass(i int) float32 {
	return float32(w.bodies[i].b2.GetMass())
}

// ContactCount returns the number of Box2D contacts whose manifolds are touching.
func (w *World) ContactCount() int {
	n := 0
	for c := w.b2.GetContactList(); c != nil; c = c.GetNext() {
		if c.IsTouching() {
			n++
		}
	}
	return n
}

func bodyType(t physics.BodyType) uint8 {
	switch t {
	case physics.Dynamic:
		return box2d.B2BodyType.B2_dynamicBody
	case physics.Kinematic:
		return box2d.B2BodyType.B2_kinematicBody
	}
	return box2d.B2BodyType.B2_staticBody
}

// b2Shape converts a validated shape to a Box2D shape value.
func b2Shape(s *shape.Shape) box2d.B2ShapeInterface {
	switch s.Kind {
	case shape.KindCircle:
		c := box2d.MakeB2CircleShape()
		c.M_p = vec(s.Circle.Center)
		c.M_radius = float64(s.Circle.Radius)
		return &c
	case shape.KindEdge:
		e := box2d.MakeB2EdgeShape()
		e.Set(vec(s.Edge.V1), vec(s.Edge.V2))
		return &e
	}
	// The polygon is already a welded convex hull, so Box2D's own hull pass keeps every vertex.
	verts := make([]box2d.B2Vec2, s.Polygon.Count)
	for i := range verts {
		verts[i] = vec(s.Polygon.Vertices[i])
	}
	p := box2d.MakeB2PolygonShape()
	p.Set(verts, len(verts))
	return &p
}

func vec(v geom.Vec2) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(float64(v.X), float64(v.Y))
}

func transform(xf box2d.B2Transform) geom.Transform {
	return geom.Transform{
		P: geom.V(float32(xf.P.X), float32(xf.P.Y)),
		Q: geom.Rot{S: float32(xf.Q.S), C: float32(xf.Q.C)},
	}
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
