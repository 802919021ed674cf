package physics

import (
	"polydrop/internal/geom"
	"polydrop/internal/shape"

	"github.com/chewxy/math32"
)

// Solver tuning. Lengths are in world units (pixels for the bundled scenes).
const (
	// Contacts closing faster than this get restitution applied.
	velocityThreshold = 1.0
	// Fraction of overlap resolved per position iteration.
	baumgarte = 0.2
	// Largest position correction applied per iteration.
	maxLinearCorrection = 0.2
	// Per-step motion clamps keep a body from tunnelling in a single step.
	maxTranslation = 2.0
	maxRotation    = 0.5 * math32.Pi
)

type velocityPoint struct {
	rA, rB         geom.Vec2
	normalImpulse  float32
	tangentImpulse float32
	normalMass     float32
	tangentMass    float32
	velocityBias   float32
}

type velocityConstraint struct {
	points             [2]velocityPoint
	normal             geom.Vec2
	bodyA, bodyB       int
	invMassA, invMassB float32
	invIA, invIB       float32
	friction           float32
	restitution        float32
	count              int
}

type positionConstraint struct {
	localPoints        [2]geom.Vec2
	localNormal        geom.Vec2
	localPoint         geom.Vec2
	localCenterA       geom.Vec2
	localCenterB       geom.Vec2
	bodyA, bodyB       int
	invMassA, invMassB float32
	invIA, invIB       float32
	radiusA, radiusB   float32
	kind               manifoldType
	count              int
}

// solve runs one island over every body: integrate velocities, iterate the velocity
// constraints, integrate positions, then iterate the position constraints.
func (w *World) solve(h float32, velocityIterations, positionIterations int) {
	for i := range w.bodies {
		b := &w.bodies[i]
		if b.typ != Dynamic {
			continue
		}
		b.v = b.v.Add(w.gravity.Scale(h * b.gravityScale))
		b.v = b.v.Scale(1 / (1 + h*b.linearDamping))
		b.w *= 1 / (1 + h*b.angularDamping)
	}

	w.initConstraints()
	w.warmStart()
	for i := 0; i < velocityIterations; i++ {
		w.solveVelocityConstraints()
	}
	w.storeImpulses()

	for i := range w.bodies {
		b := &w.bodies[i]
		if b.typ == Static {
			continue
		}
		if t := b.v.Scale(h); t.LengthSquared() > maxTranslation*maxTranslation {
			b.v = b.v.Scale(maxTranslation / t.Length())
		}
		if r := h * b.w; r*r > maxRotation*maxRotation {
			b.w *= maxRotation / math32.Abs(r)
		}
		b.c = b.c.Add(b.v.Scale(h))
		b.angle += h * b.w
	}

	for i := 0; i < positionIterations; i++ {
		if w.solvePositionConstraints() {
			break
		}
	}

	for i := range w.bodies {
		if w.bodies[i].typ != Static {
			w.bodies[i].synchronize()
		}
	}
}

func (w *World) initConstraints() {
	w.velocities = w.velocities[:0]
	w.positions = w.positions[:0]

	for ci := range w.contacts {
		c := &w.contacts[ci]
		fa := &w.fixtures[c.fixtureA]
		fb := &w.fixtures[c.fixtureB]
		ba := &w.bodies[fa.body]
		bb := &w.bodies[fb.body]
		m := &c.manifold

		vc := velocityConstraint{
			bodyA:       fa.body,
			bodyB:       fb.body,
			invMassA:    ba.invMass,
			invMassB:    bb.invMass,
			invIA:       ba.invI,
			invIB:       bb.invI,
			friction:    c.friction,
			restitution: c.restitution,
			count:       m.count,
		}
		pc := positionConstraint{
			localNormal:  m.localNormal,
			localPoint:   m.localPoint,
			localCenterA: ba.localCenter,
			localCenterB: bb.localCenter,
			bodyA:        fa.body,
			bodyB:        fb.body,
			invMassA:     ba.invMass,
			invMassB:     bb.invMass,
			invIA:        ba.invI,
			invIB:        bb.invI,
			radiusA:      shape.PolygonRadius,
			radiusB:      shape.PolygonRadius,
			kind:         m.kind,
			count:        m.count,
		}

		var wm worldManifold
		wm.initialize(m, ba.xf, pc.radiusA, bb.xf, pc.radiusB)
		vc.normal = wm.normal
		tangent := vc.normal.CrossScalar(1)

		for j := 0; j < m.count; j++ {
			vp := &vc.points[j]
			vp.normalImpulse = m.points[j].normalImpulse
			vp.tangentImpulse = m.points[j].tangentImpulse
			vp.rA = wm.points[j].Sub(ba.c)
			vp.rB = wm.points[j].Sub(bb.c)

			rnA := vp.rA.Cross(vc.normal)
			rnB := vp.rB.Cross(vc.normal)
			if k := vc.invMassA + vc.invMassB + vc.invIA*rnA*rnA + vc.invIB*rnB*rnB; k > 0 {
				vp.normalMass = 1 / k
			}

			rtA := vp.rA.Cross(tangent)
			rtB := vp.rB.Cross(tangent)
			if k := vc.invMassA + vc.invMassB + vc.invIA*rtA*rtA + vc.invIB*rtB*rtB; k > 0 {
				vp.tangentMass = 1 / k
			}

			dv := bb.v.Add(geom.ScalarCross(bb.w, vp.rB)).Sub(ba.v).Sub(geom.ScalarCross(ba.w, vp.rA))
			if vRel := vc.normal.Dot(dv); vRel < -velocityThreshold {
				vp.velocityBias = -vc.restitution * vRel
			}

			pc.localPoints[j] = m.points[j].localPoint
		}

		w.velocities = append(w.velocities, vc)
		w.positions = append(w.positions, pc)
	}
}

func (w *World) warmStart() {
	for i := range w.velocities {
		vc := &w.velocities[i]
		ba := &w.bodies[vc.bodyA]
		bb := &w.bodies[vc.bodyB]
		tangent := vc.normal.CrossScalar(1)
		for j := 0; j < vc.count; j++ {
			vp := &vc.points[j]
			p := vc.normal.Scale(vp.normalImpulse).Add(tangent.Scale(vp.tangentImpulse))
			applyImpulse(ba, bb, vc, vp, p)
		}
	}
}

// applyImpulse pushes B along p and A against it. Static and kinematic bodies have zero
// inverse mass, so they are unaffected.
func applyImpulse(ba, bb *Body, vc *velocityConstraint, vp *velocityPoint, p geom.Vec2) {
	ba.v = ba.v.Sub(p.Scale(vc.invMassA))
	ba.w -= vc.invIA * vp.rA.Cross(p)
	bb.v = bb.v.Add(p.Scale(vc.invMassB))
	bb.w += vc.invIB * vp.rB.Cross(p)
}

func (w *World) solveVelocityConstraints() {
	for i := range w.velocities {
		vc := &w.velocities[i]
		ba := &w.bodies[vc.bodyA]
		bb := &w.bodies[vc.bodyB]
		tangent := vc.normal.CrossScalar(1)

		// Friction first so the normal solve has the final say on penetration.
		for j := 0; j < vc.count; j++ {
			vp := &vc.points[j]
			dv := bb.v.Add(geom.ScalarCross(bb.w, vp.rB)).Sub(ba.v).Sub(geom.ScalarCross(ba.w, vp.rA))
			lambda := vp.tangentMass * -dv.Dot(tangent)

			maxFriction := vc.friction * vp.normalImpulse
			newImpulse := min(max(vp.tangentImpulse+lambda, -maxFriction), maxFriction)
			lambda = newImpulse - vp.tangentImpulse
			vp.tangentImpulse = newImpulse

			applyImpulse(ba, bb, vc, vp, tangent.Scale(lambda))
		}

		for j := 0; j < vc.count; j++ {
			vp := &vc.points[j]
			dv := bb.v.Add(geom.ScalarCross(bb.w, vp.rB)).Sub(ba.v).Sub(geom.ScalarCross(ba.w, vp.rA))
			lambda := -vp.normalMass * (dv.Dot(vc.normal) - vp.velocityBias)

			newImpulse := max(vp.normalImpulse+lambda, 0)
			lambda = newImpulse - vp.normalImpulse
			vp.normalImpulse = newImpulse

			applyImpulse(ba, bb, vc, vp, vc.normal.Scale(lambda))
		}
	}
}

func (w *World) storeImpulses() {
	for i := range w.velocities {
		vc := &w.velocities[i]
		m := &w.contacts[i].manifold
		for j := 0; j < vc.count; j++ {
			m.points[j].normalImpulse = vc.points[j].normalImpulse
			m.points[j].tangentImpulse = vc.points[j].tangentImpulse
		}
	}
}

// solvePositionConstraints nudges overlapping bodies apart and reports whether every contact
// is within tolerance.
func (w *World) solvePositionConstraints() bool {
	minSeparation := float32(0)

	for i := range w.positions {
		pc := &w.positions[i]
		ba := &w.bodies[pc.bodyA]
		bb := &w.bodies[pc.bodyB]

		for j := 0; j < pc.count; j++ {
			xfA := geom.Transform{Q: geom.NewRot(ba.angle)}
			xfA.P = ba.c.Sub(xfA.Q.Apply(pc.localCenterA))
			xfB := geom.Transform{Q: geom.NewRot(bb.angle)}
			xfB.P = bb.c.Sub(xfB.Q.Apply(pc.localCenterB))

			normal, point, separation := pc.evaluate(xfA, xfB, j)
			rA := point.Sub(ba.c)
			rB := point.Sub(bb.c)
			minSeparation = min(minSeparation, separation)

			// Leave linearSlop of overlap so contacts persist between steps.
			corr := min(max(baumgarte*(separation+shape.LinearSlop), -maxLinearCorrection), 0)

			rnA := rA.Cross(normal)
			rnB := rB.Cross(normal)
			k := pc.invMassA + pc.invMassB + pc.invIA*rnA*rnA + pc.invIB*rnB*rnB
			var impulse float32
			if k > 0 {
				impulse = -corr / k
			}
			p := normal.Scale(impulse)

			ba.c = ba.c.Sub(p.Scale(pc.invMassA))
			ba.angle -= pc.invIA * rA.Cross(p)
			bb.c = bb.c.Add(p.Scale(pc.invMassB))
			bb.angle += pc.invIB * rB.Cross(p)
		}
	}

	return minSeparation >= -3*shape.LinearSlop
}

// evaluate returns the world normal (A to B), contact point and separation for point j.
func (pc *positionConstraint) evaluate(xfA, xfB geom.Transform, j int) (normal, point geom.Vec2, separation float32) {
	switch pc.kind {
	case faceA:
		normal = xfA.Q.Apply(pc.localNormal)
		planePoint := xfA.Apply(pc.localPoint)
		point = xfB.Apply(pc.localPoints[j])
		separation = point.Sub(planePoint).Dot(normal) - pc.radiusA - pc.radiusB
	case faceB:
		normal = xfB.Q.Apply(pc.localNormal)
		planePoint := xfB.Apply(pc.localPoint)
		point = xfA.Apply(pc.localPoints[j])
		separation = point.Sub(planePoint).Dot(normal) - pc.radiusA - pc.radiusB
		normal = normal.Neg()
	}
	return normal, point, separation
}
