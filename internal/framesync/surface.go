package framesync

import "image/color"

// EventKind discriminates surface events.
type EventKind uint8

const (
	// EventClosed is a close request: window close button, Esc or q in the terminal.
	EventClosed EventKind = iota + 1
	// EventResized reports a surface size change.
	EventResized
	// EventKey is any other key press.
	EventKey
)

// Event is a surface event. Only EventClosed changes loop state.
type Event struct {
	Kind EventKind
	Key  rune
}

// Canvas is the drawing half of a surface.
type Canvas interface {
	Clear(bg color.RGBA)
	Draw(d *Drawable)
	Display()
	// MaxPoints is the largest polygon the surface can draw. Zero means unbounded.
	MaxPoints() int
}

// Window is a render surface with a lifecycle and an event queue.
type Window interface {
	Canvas
	IsOpen() bool
	// PollEvent returns the next pending event without blocking.
	PollEvent() (Event, bool)
	Close()
}
