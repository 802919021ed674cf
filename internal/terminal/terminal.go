// Package terminal is a text-mode render surface on tcell. World-space polygons are scaled
// from a fixed viewport into character cells and scan-line filled.
package terminal

import (
	"image/color"
	"slices"
	"time"

	"polydrop/internal/debug"
	"polydrop/internal/framesync"
	"polydrop/internal/logger"

	"github.com/gdamore/tcell/v2"
	"github.com/pkg/errors"
)

const (
	fillRune = '█'
	// eventBuffer bounds the pump channel; extra events are dropped when the loop falls behind.
	eventBuffer = 64
)

// Options configures the terminal surface.
type Options struct {
	// Viewport is the world rectangle mapped onto the whole screen.
	MinX, MinY, MaxX, MaxY float32
	Debug                  *debug.Debug
	// Log, when set, shows its last LogLines lines at the bottom of the screen.
	Log      *logger.Logger
	LogLines int
}

// DefaultOptions maps the 800x600 world area of the bundled scenes onto the terminal.
func DefaultOptions() Options {
	return Options{MaxX: 800, MaxY: 600}
}

// Surface implements framesync.Window on a tcell screen.
type Surface struct {
	screen tcell.Screen
	opts   Options
	events chan tcell.Event
	open   bool

	width, height int
	bg            tcell.Style
	polygons      int
	frames        uint64

	// Frame rate over roughly one second of Display calls.
	now       func() time.Time
	fpsStart  time.Time
	fpsFrames int
	fps       int

	// xs holds edge crossings of the current scan line.
	xs []float32
}

// Open initializes the real terminal.
func Open(opts Options) (*Surface, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, errors.Wrap(err, "create terminal screen")
	}
	return New(screen, opts)
}

// New wraps an existing screen (a simulation screen in tests) and initializes it.
func New(screen tcell.Screen, opts Options) (*Surface, error) {
	if !(opts.MaxX > opts.MinX) || !(opts.MaxY > opts.MinY) {
		return nil, errors.Errorf("empty viewport (%v,%v)-(%v,%v)", opts.MinX, opts.MinY, opts.MaxX, opts.MaxY)
	}
	if err := screen.Init(); err != nil {
		return nil, errors.Wrap(err, "init terminal screen")
	}
	s := &Surface{
		screen: screen,
		opts:   opts,
		events: make(chan tcell.Event, eventBuffer),
		open:   true,
		bg:     tcell.StyleDefault,
		now:    time.Now,
	}
	s.width, s.height = screen.Size()

	// PollEvent blocks, so it runs on its own goroutine and returns nil after Fini.
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(s.events)
				return
			}
			select {
			case s.events <- ev:
			default:
			}
		}
	}()
	return s, nil
}

func (s *Surface) IsOpen() bool {
	return s.open
}

// PollEvent returns a queued event without blocking. Esc, Ctrl-C and q request close.
func (s *Surface) PollEvent() (framesync.Event, bool) {
	for s.open {
		var ev tcell.Event
		select {
		case e, ok := <-s.events:
			if !ok {
				return framesync.Event{Kind: framesync.EventClosed}, true
			}
			ev = e
		default:
			return framesync.Event{}, false
		}

		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
				(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
				return framesync.Event{Kind: framesync.EventClosed}, true
			}
			if ev.Key() == tcell.KeyF1 && s.opts.Debug != nil {
				s.opts.Debug.Toggle()
				continue
			}
			if ev.Key() == tcell.KeyRune {
				return framesync.Event{Kind: framesync.EventKey, Key: ev.Rune()}, true
			}
		case *tcell.EventResize:
			s.screen.Sync()
			s.width, s.height = s.screen.Size()
			return framesync.Event{Kind: framesync.EventResized}, true
		}
	}
	return framesync.Event{}, false
}

// Clear fills the screen with the background color.
func (s *Surface) Clear(bg color.RGBA) {
	s.bg = tcell.StyleDefault.Background(rgb(bg))
	s.width, s.height = s.screen.Size()
	s.screen.Fill(' ', s.bg)
	s.polygons = 0
}

// Draw scan-line fills the polygon. A cell is filled when its center is inside.
func (s *Surface) Draw(d *framesync.Drawable) {
	n := len(d.Points)
	if n < 3 || s.width <= 0 || s.height <= 0 {
		return
	}
	style := s.bg.Foreground(rgb(d.Color))
	sx := (s.opts.MaxX - s.opts.MinX) / float32(s.width)
	sy := (s.opts.MaxY - s.opts.MinY) / float32(s.height)

	for row := 0; row < s.height; row++ {
		wy := s.opts.MinY + (float32(row)+0.5)*sy
		s.xs = s.xs[:0]
		for i := 0; i < n; i++ {
			a, b := d.Points[i], d.Points[(i+1)%n]
			// Half-open rule so a vertex on the scan line counts once.
			if (a.Y <= wy) == (b.Y <= wy) {
				continue
			}
			t := (wy - a.Y) / (b.Y - a.Y)
			s.xs = append(s.xs, a.X+t*(b.X-a.X))
		}
		slices.Sort(s.xs)
		for k := 0; k+1 < len(s.xs); k += 2 {
			lo := min(max((s.xs[k]-s.opts.MinX)/sx-0.5, -1), float32(s.width))
			hi := min(max((s.xs[k+1]-s.opts.MinX)/sx-0.5, -1), float32(s.width))
			first := max(0, ceilCell(lo))
			last := min(s.width-1, floorCell(hi))
			for col := first; col <= last; col++ {
				s.screen.SetContent(col, row, fillRune, nil, style)
			}
		}
	}
	s.polygons++
}

// Display draws the log strip and debug overlay, then shows the frame.
func (s *Surface) Display() {
	s.frames++
	s.measure()
	if s.opts.Log != nil && s.opts.LogLines > 0 {
		lines := s.opts.Log.Tail(s.opts.LogLines)
		top := s.height - len(lines)
		for i, line := range lines {
			s.text(0, top+i, line, tcell.ColorGray)
		}
	}
	if s.opts.Debug != nil {
		for i, line := range s.opts.Debug.Lines(s.fps, s.polygons, s.frames) {
			s.text(s.width-len([]rune(line))-1, i, line, tcell.ColorGreen)
		}
	}
	s.screen.Show()
}

// FPS returns the frame rate measured over the last full second.
func (s *Surface) FPS() int {
	return s.fps
}

func (s *Surface) measure() {
	t := s.now()
	if s.fpsStart.IsZero() {
		s.fpsStart = t
		return
	}
	s.fpsFrames++
	if elapsed := t.Sub(s.fpsStart); elapsed >= time.Second {
		s.fps = int(float64(s.fpsFrames)/elapsed.Seconds() + 0.5)
		s.fpsStart = t
		s.fpsFrames = 0
	}
}

// MaxPoints is zero: the scan-line fill handles any vertex count.
func (s *Surface) MaxPoints() int {
	return 0
}

// Close restores the terminal. Safe to call more than once.
func (s *Surface) Close() {
	if !s.open {
		return
	}
	s.open = false
	s.screen.Fini()
}

func (s *Surface) text(x, y int, text string, fg tcell.Color) {
	if y < 0 || y >= s.height {
		return
	}
	style := s.bg.Foreground(fg)
	for _, r := range text {
		if x >= 0 && x < s.width {
			s.screen.SetContent(x, y, r, nil, style)
		}
		x++
	}
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func ceilCell(f float32) int {
	i := int(f)
	if float32(i) < f {
		i++
	}
	return i
}

func floorCell(f float32) int {
	i := int(f)
	if float32(i) > f {
		i--
	}
	return i
}
