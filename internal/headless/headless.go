// Package headless is an in-memory render surface for benchmarks, CI and tests.
package headless

import (
	"image/color"

	"polydrop/internal/framesync"
	"polydrop/internal/shape"
)

// Surface records the last presented frame and requests close after a fixed number of frames.
type Surface struct {
	capacity  int
	maxFrames uint64
	open      bool
	closeSent bool

	bg       color.RGBA
	pending  []framesync.Drawable
	last     []framesync.Drawable
	frames   uint64
	drawn    uint64
	injected []framesync.Event
}

// New returns a surface holding at most capacity points per polygon (shape.MaxPolygonVertices
// when capacity is 0) that sends EventClosed once maxFrames frames were presented. maxFrames 0
// runs until closed.
func New(capacity int, maxFrames uint64) *Surface {
	if capacity <= 0 {
		capacity = shape.MaxPolygonVertices
	}
	return &Surface{capacity: capacity, maxFrames: maxFrames, open: true}
}

// IsOpen reports whether Close has not been called.
func (s *Surface) IsOpen() bool {
	return s.open
}

// Inject queues an event for PollEvent.
func (s *Surface) Inject(ev framesync.Event) {
	s.injected = append(s.injected, ev)
}

// PollEvent returns injected events first, then a single EventClosed once the frame limit is
// reached.
func (s *Surface) PollEvent() (framesync.Event, bool) {
	if !s.open {
		return framesync.Event{}, false
	}
	if len(s.injected) > 0 {
		ev := s.injected[0]
		s.injected = s.injected[1:]
		return ev, true
	}
	if s.maxFrames > 0 && s.frames >= s.maxFrames && !s.closeSent {
		s.closeSent = true
		return framesync.Event{Kind: framesync.EventClosed}, true
	}
	return framesync.Event{}, false
}

// Clear starts a frame.
func (s *Surface) Clear(bg color.RGBA) {
	s.bg = bg
	s.pending = s.pending[:0]
}

// Draw keeps a copy of d; the caller may reuse its buffer.
func (s *Surface) Draw(d *framesync.Drawable) {
	s.pending = append(s.pending, d.Clone())
	s.drawn++
}

// Display presents the pending polygons; they become Last.
func (s *Surface) Display() {
	s.last, s.pending = s.pending, s.last[:0]
	s.frames++
}

// MaxPoints returns the capacity given to New.
func (s *Surface) MaxPoints() int {
	return s.capacity
}

// Close stops further events.
func (s *Surface) Close() {
	s.open = false
}

// Last returns the polygons of the most recently presented frame, valid until the next Display.
func (s *Surface) Last() []framesync.Drawable {
	return s.last
}

// Background returns the color of the last Clear.
func (s *Surface) Background() color.RGBA {
	return s.bg
}

// Frames returns the number of presented frames.
func (s *Surface) Frames() uint64 {
	return s.frames
}

// Drawn returns the total number of polygons drawn over all frames.
func (s *Surface) Drawn() uint64 {
	return s.drawn
}
