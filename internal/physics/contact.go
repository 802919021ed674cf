package physics

import (
	"polydrop/internal/shape"

	"github.com/chewxy/math32"
)

// contact is a touching (or nearly touching) pair of polygon fixtures.
type contact struct {
	fixtureA, fixtureB int
	manifold           manifold
	friction           float32
	restitution        float32
}

func pairKey(a, b int) uint64 {
	return uint64(uint32(a))<<32 | uint64(uint32(b))
}

// collide rebuilds the contact list from the current transforms. Pairs are visited in fixture
// creation order so the solver sees contacts in the same order on every run. Accumulated
// impulses from the previous step are carried over for points whose feature ids still match.
func (w *World) collide() {
	prev := w.contacts
	next := w.spare[:0]
	w.began = w.began[:0]

	for i := range w.fixtures {
		fa := &w.fixtures[i]
		if fa.shape.Kind != shape.KindPolygon {
			// Only polygon pairs generate contacts.
			continue
		}
		ba := &w.bodies[fa.body]
		aLower, aUpper := fa.shape.AABB(ba.xf)

		for j := i + 1; j < len(w.fixtures); j++ {
			fb := &w.fixtures[j]
			if fb.body == fa.body || fb.shape.Kind != shape.KindPolygon {
				continue
			}
			bb := &w.bodies[fb.body]
			if ba.typ != Dynamic && bb.typ != Dynamic {
				continue
			}
			bLower, bUpper := fb.shape.AABB(bb.xf)
			if !aabbOverlap(aLower, aUpper, bLower, bUpper) {
				continue
			}

			c := contact{
				fixtureA:    i,
				fixtureB:    j,
				friction:    math32.Sqrt(fa.friction * fb.friction),
				restitution: max(fa.restitution, fb.restitution),
			}
			collidePolygons(&c.manifold, &fa.shape.Polygon, ba.xf, &fb.shape.Polygon, bb.xf)
			if c.manifold.count == 0 {
				continue
			}

			key := pairKey(i, j)
			if k, ok := w.contactIndex[key]; ok {
				old := &prev[k].manifold
				for p := 0; p < c.manifold.count; p++ {
					np := &c.manifold.points[p]
					for q := 0; q < old.count; q++ {
						if old.points[q].id == np.id {
							np.normalImpulse = old.points[q].normalImpulse
							np.tangentImpulse = old.points[q].tangentImpulse
							break
						}
					}
				}
			} else {
				w.began = append(w.began,
					FixtureRef{Body: fa.body, Fixture: w.localIndex(fa.body, i)},
					FixtureRef{Body: fb.body, Fixture: w.localIndex(fb.body, j)},
				)
			}
			next = append(next, c)
		}
	}

	clear(w.contactIndex)
	for idx := range next {
		w.contactIndex[pairKey(next[idx].fixtureA, next[idx].fixtureB)] = idx
	}
	w.contacts = next
	w.spare = prev[:0]
}

// localIndex maps a world fixture index to its position in the owning body's fixture list.
func (w *World) localIndex(body, fixture int) int {
	for i, f := range w.bodies[body].fixtures {
		if f == fixture {
			return i
		}
	}
	return -1
}
