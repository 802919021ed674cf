package b2world

import (
	"polydrop/internal/physics"

	"github.com/ByteArena/box2d"
)

// contactListener collects begin-contact pairs during a Box2D step. Box2D calls it with the
// world locked, so events are queued and delivered by flush once Step returns.
type contactListener struct {
	fn      physics.ContactFunc
	pending []physics.FixtureRef
}

func (l *contactListener) BeginContact(contact box2d.B2ContactInterface) {
	if l.fn == nil {
		return
	}
	a, okA := contact.GetFixtureA().GetUserData().(physics.FixtureRef)
	b, okB := contact.GetFixtureB().GetUserData().(physics.FixtureRef)
	if !okA || !okB {
		return
	}
	// Report the earlier-created body first, matching the native engine.
	if b.Body < a.Body || (b.Body == a.Body && b.Fixture < a.Fixture) {
		a, b = b, a
	}
	l.pending = append(l.pending, a, b)
}

func (l *contactListener) EndContact(contact box2d.B2ContactInterface) {}

func (l *contactListener) PreSolve(contact box2d.B2ContactInterface, oldManifold box2d.B2Manifold) {}

func (l *contactListener) PostSolve(contact box2d.B2ContactInterface, impulse *box2d.B2ContactImpulse) {
}

func (l *contactListener) flush() {
	if l.fn != nil {
		for i := 0; i+1 < len(l.pending); i += 2 {
			l.fn(l.pending[i], l.pending[i+1])
		}
	}
	l.pending = l.pending[:0]
}
