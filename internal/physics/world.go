package physics

import (
	"polydrop/internal/geom"
	"polydrop/internal/shape"

	"github.com/chewxy/math32"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

var (
	ErrLocked      = errors.New("world is locked during step")
	ErrNoBody      = errors.New("body index out of range")
	ErrNilShape    = errors.New("fixture definition has no shape")
	ErrDensity     = errors.New("fixture density must be finite and non-negative")
	ErrFriction    = errors.New("fixture friction must be finite and non-negative")
	ErrBodyDef     = errors.New("body definition is not finite")
	ErrUnsupported = errors.New("shape kind not supported on this body type")
)

// Fixture is a shape bound to a body with material properties. The shape is a private
// snapshot taken at creation time.
type Fixture struct {
	body        int
	shape       shape.Shape
	density     float32
	friction    float32
	restitution float32
}

// ContactFunc is called once when two fixtures start touching.
type ContactFunc func(a, b FixtureRef)

// World holds bodies and fixtures in creation order and steps them with a fixed iteration budget.
// Bodies and fixtures are never removed, so indices stay valid for the life of the world.
type World struct {
	gravity  geom.Vec2
	bodies   []Body
	fixtures []Fixture

	contacts     []contact
	spare        []contact
	contactIndex map[uint64]int
	began        []FixtureRef

	velocities []velocityConstraint
	positions  []positionConstraint

	locked  bool
	onBegin ContactFunc
}

// New returns an empty world with the given gravity (screen space: +Y is down).
func New(gravity geom.Vec2) *World {
	return &World{
		gravity:      gravity,
		contactIndex: make(map[uint64]int),
	}
}

// Gravity returns the world gravity vector.
func (w *World) Gravity() geom.Vec2 {
	return w.gravity
}

// SetGravity sets the gravity vector.
func (w *World) SetGravity(g geom.Vec2) {
	w.gravity = g
}

// SetContactListener installs fn for begin-contact events. Pass nil to remove it.
// fn runs inside Step and must not create bodies or fixtures.
func (w *World) SetContactListener(fn ContactFunc) {
	w.onBegin = fn
}

// CreateBody appends a body and returns its index. Indices follow creation order.
func (w *World) CreateBody(def BodyDef) (int, error) {
	if w.locked {
		return -1, ErrLocked
	}
	if !def.Position.IsFinite() || !finite(def.Angle) || !def.LinearVelocity.IsFinite() || !finite(def.AngularVelocity) {
		return -1, errors.Wrapf(ErrBodyDef, "position %v angle %v", def.Position, def.Angle)
	}
	w.bodies = append(w.bodies, newBody(def))
	return len(w.bodies) - 1, nil
}

// CreateFixture attaches a snapshot of def.Shape to body and returns the fixture's index on
// that body. Mass properties of the body are recomputed.
func (w *World) CreateFixture(body int, def *FixtureDef) (int, error) {
	if w.locked {
		return -1, ErrLocked
	}
	if body < 0 || body >= len(w.bodies) {
		return -1, errors.Wrapf(ErrNoBody, "body %d of %d", body, len(w.bodies))
	}
	if def == nil || def.Shape == nil {
		return -1, ErrNilShape
	}
	if !finite(def.Density) || def.Density < 0 {
		return -1, errors.Wrapf(ErrDensity, "density %v", def.Density)
	}
	if !finite(def.Friction) || def.Friction < 0 {
		return -1, errors.Wrapf(ErrFriction, "friction %v", def.Friction)
	}
	if err := def.Shape.Validate(); err != nil {
		return -1, errors.Wrapf(err, "body %d", body)
	}
	b := &w.bodies[body]
	if def.Shape.Kind == shape.KindEdge && b.typ == Dynamic {
		return -1, errors.Wrap(ErrUnsupported, "edge on dynamic body")
	}

	var snap shape.Shape
	if err := copier.CopyWithOption(&snap, def.Shape, copier.Option{DeepCopy: true}); err != nil {
		return -1, errors.Wrap(err, "snapshot shape")
	}

	w.fixtures = append(w.fixtures, Fixture{
		body:        body,
		shape:       snap,
		density:     def.Density,
		friction:    def.Friction,
		restitution: def.Restitution,
	})
	b.fixtures = append(b.fixtures, len(w.fixtures)-1)
	b.resetMassData(w.fixtures)
	return len(b.fixtures) - 1, nil
}

// BodyCount returns the number of bodies.
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// BodyTransform returns the body's origin transform.
func (w *World) BodyTransform(body int) geom.Transform {
	return w.bodies[body].xf
}

// FixtureCount returns the number of fixtures on body.
func (w *World) FixtureCount(body int) int {
	return len(w.bodies[body].fixtures)
}

// FixtureShape returns the fixture's shape snapshot. Callers must not modify it.
func (w *World) FixtureShape(body, fixture int) *shape.Shape {
	return &w.fixtures[w.bodies[body].fixtures[fixture]].shape
}

// FixtureDensity returns the density the fixture was created with.
func (w *World) FixtureDensity(body, fixture int) float32 {
	return w.fixtures[w.bodies[body].fixtures[fixture]].density
}

// BodyType returns the type the body was created with.
func (w *World) BodyType(body int) BodyType {
	return w.bodies[body].typ
}

// Position returns the body origin in world space.
func (w *World) Position(body int) geom.Vec2 {
	return w.bodies[body].xf.P
}

// Angle returns the body rotation in radians.
func (w *World) Angle(body int) float32 {
	return w.bodies[body].angle
}

// WorldCenter returns the body's center of mass in world space.
func (w *World) WorldCenter(body int) geom.Vec2 {
	return w.bodies[body].c
}

// LinearVelocity returns the velocity of the center of mass.
func (w *World) LinearVelocity(body int) geom.Vec2 {
	return w.bodies[body].v
}

// AngularVelocity returns the angular velocity in radians per second.
func (w *World) AngularVelocity(body int) float32 {
	return w.bodies[body].w
}

// Mass returns the body mass. Static and kinematic bodies report zero.
func (w *World) Mass(body int) float32 {
	return w.bodies[body].mass
}

// WorldPoint maps a body-local point to world space.
func (w *World) WorldPoint(body int, local geom.Vec2) geom.Vec2 {
	return w.bodies[body].xf.Apply(local)
}

// WorldVector rotates a body-local vector into world space without translating it.
func (w *World) WorldVector(body int, local geom.Vec2) geom.Vec2 {
	return w.bodies[body].xf.Q.Apply(local)
}

// ContactCount returns the number of touching fixture pairs found by the last step.
func (w *World) ContactCount() int {
	return len(w.contacts)
}

// Touching reports whether any fixture of body a touched any fixture of body b in the last step.
func (w *World) Touching(a, b int) bool {
	for i := range w.contacts {
		ba := w.fixtures[w.contacts[i].fixtureA].body
		bb := w.fixtures[w.contacts[i].fixtureB].body
		if (ba == a && bb == b) || (ba == b && bb == a) {
			return true
		}
	}
	return false
}

// Step advances the world by dt using the given solver iteration counts. Contacts are updated
// from the current transforms first, then velocities and positions are solved.
func (w *World) Step(dt float32, velocityIterations, positionIterations int) {
	if dt <= 0 || w.locked {
		return
	}
	w.locked = true
	w.collide()
	w.solve(dt, velocityIterations, positionIterations)
	w.locked = false

	if w.onBegin != nil {
		for i := 0; i+1 < len(w.began); i += 2 {
			w.onBegin(w.began[i], w.began[i+1])
		}
	}
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}
