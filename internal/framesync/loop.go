package framesync

import "context"

// State is the loop state. The only transition is Running to Closed.
type State uint8

const (
	Running State = iota
	Closed
)

func (s State) String() string {
	if s == Closed {
		return "closed"
	}
	return "running"
}

// Loop drives a Sync against a Window until the window asks to close.
type Loop struct {
	win   Window
	sync  *Sync
	state State

	// OnEvent, if set, sees every event other than EventClosed.
	OnEvent func(Event)
}

// NewLoop returns a loop in the Running state.
func NewLoop(win Window, s *Sync) *Loop {
	return &Loop{win: win, sync: s}
}

// State returns the current loop state.
func (l *Loop) State() State {
	return l.state
}

// Frames returns the number of frames run.
func (l *Loop) Frames() uint64 {
	return l.sync.Frames()
}

// Run polls events and renders frames until a close request or ctx is done, then closes the
// window. It returns nil on a normal close and the render error if a frame fails.
func (l *Loop) Run(ctx context.Context) error {
	defer l.close()

	for l.state == Running {
		if ctx.Err() != nil || !l.win.IsOpen() {
			return nil
		}
		for {
			ev, ok := l.win.PollEvent()
			if !ok {
				break
			}
			if ev.Kind == EventClosed {
				return nil
			}
			if l.OnEvent != nil {
				l.OnEvent(ev)
			}
		}
		if err := l.sync.Frame(l.win); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) close() {
	if l.state == Closed {
		return
	}
	l.state = Closed
	l.win.Close()
}
