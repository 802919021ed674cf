package framesync

import (
	"context"
	"testing"

	"polydrop/internal/geom"
	"polydrop/internal/shape"

	"github.com/pkg/errors"
)

// scriptedWindow is a recorder that queues a close event once frames reach closeAfter.
type scriptedWindow struct {
	recorder
	closeAfter int
	keys       []rune
	open       bool
	closes     int
}

func (w *scriptedWindow) IsOpen() bool { return w.open }

func (w *scriptedWindow) PollEvent() (Event, bool) {
	if len(w.keys) > 0 {
		k := w.keys[0]
		w.keys = w.keys[1:]
		return Event{Kind: EventKey, Key: k}, true
	}
	if w.displayed >= w.closeAfter {
		return Event{Kind: EventClosed}, true
	}
	return Event{}, false
}

func (w *scriptedWindow) Close() {
	w.open = false
	w.closes++
}

func newTestSync(t *testing.T, pts ...geom.Vec2) *Sync {
	t.Helper()
	w := &fakeWorld{bodies: []fakeBody{{shapes: []shape.Shape{mustPolygon(t, pts...)}}}}
	s, err := New(w, DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestLoopRunsUntilCloseRequest(t *testing.T) {
	win := &scriptedWindow{open: true, closeAfter: 5, keys: []rune{'a', 'b'}}
	l := NewLoop(win, newTestSync(t, pentagon...))
	var seen []rune
	l.OnEvent = func(ev Event) { seen = append(seen, ev.Key) }

	if l.State() != Running {
		t.Fatalf("Expected Running before Run, got %v", l.State())
	}
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if l.State() != Closed {
		t.Errorf("Expected Closed, got %v", l.State())
	}
	if l.Frames() != 5 || win.displayed != 5 {
		t.Errorf("Expected 5 frames, got %d (displayed %d)", l.Frames(), win.displayed)
	}
	if win.closes != 1 || win.IsOpen() {
		t.Errorf("Expected window closed exactly once, got %d", win.closes)
	}
	if len(seen) != 2 || seen[0] != 'a' || seen[1] != 'b' {
		t.Errorf("Expected key events [a b], got %q", seen)
	}
}

func TestLoopStopsOnCancelledContext(t *testing.T) {
	win := &scriptedWindow{open: true, closeAfter: 1 << 30}
	l := NewLoop(win, newTestSync(t, pentagon...))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if l.Frames() != 0 {
		t.Errorf("Expected no frames after cancel, got %d", l.Frames())
	}
	if l.State() != Closed || win.closes != 1 {
		t.Errorf("Expected closed window, state %v closes %d", l.State(), win.closes)
	}
}

func TestLoopReturnsRenderError(t *testing.T) {
	win := &scriptedWindow{open: true, closeAfter: 10}
	win.limit = 3
	l := NewLoop(win, newTestSync(t, pentagon...))

	err := l.Run(context.Background())
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("Expected ErrCapacity, got %v", err)
	}
	if l.State() != Closed || win.closes != 1 {
		t.Errorf("Expected loop closed after fatal frame, state %v closes %d", l.State(), win.closes)
	}
	if win.displayed != 0 {
		t.Errorf("Expected no presented frames, got %d", win.displayed)
	}
}

func TestLoopWithClosedWindowDoesNothing(t *testing.T) {
	win := &scriptedWindow{open: false, closeAfter: 10}
	l := NewLoop(win, newTestSync(t, pentagon...))
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if l.Frames() != 0 {
		t.Errorf("Expected no frames, got %d", l.Frames())
	}
}
