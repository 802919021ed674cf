package graphics

import (
	"image/color"

	"polydrop/internal/debug"
	"polydrop/internal/framesync"
	"polydrop/internal/shape"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

const (
	overlayFontSize   = 20
	overlayPadding    = 12
	overlayLineHeight = overlayFontSize + 4
)

// ErrInit is returned when raylib could not create the window or GL context.
var ErrInit = errors.New("window initialization failed")

// Options configures the raylib window.
type Options struct {
	Width      int32
	Height     int32
	Title      string
	TargetFPS  int32
	Fullscreen bool
	Resizable  bool
	// Outline draws a darker border around each filled polygon.
	Outline bool
	// Debug, when set, is drawn at the top-right after the polygons. F1 toggles it.
	Debug *debug.Debug
}

// DefaultOptions returns an 800x600 window at 60 FPS.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 600, Title: "polydrop", TargetFPS: 60}
}

// Window is a raylib render surface. Only one can exist per process.
type Window struct {
	opts      Options
	open      bool
	closeSent bool
	drawing   bool
	polygons  int
	frames    uint64

	// pts is the per-draw vertex scratch; raylib wants its own vector type.
	pts [shape.MaxPolygonVertices]rl.Vector2
}

// Open creates the window. Failure to get a window is fatal for the caller.
func Open(opts Options) (*Window, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, errors.Wrapf(ErrInit, "size %dx%d", opts.Width, opts.Height)
	}
	var flags uint32
	if opts.Fullscreen {
		flags |= rl.FlagFullscreenMode
	}
	if opts.Resizable {
		flags |= rl.FlagWindowResizable
	}
	if flags != 0 {
		rl.SetConfigFlags(flags)
	}
	rl.InitWindow(opts.Width, opts.Height, opts.Title)
	if !rl.IsWindowReady() {
		return nil, ErrInit
	}

	rl.SetExitKey(rl.KeyNull) // ESC does not quit; close via window button
	if opts.TargetFPS > 0 {
		rl.SetTargetFPS(opts.TargetFPS)
	}
	return &Window{opts: opts, open: true}, nil
}

func (w *Window) IsOpen() bool {
	return w.open
}

// PollEvent reports the close button once, then resizes and typed characters. It never blocks.
func (w *Window) PollEvent() (framesync.Event, bool) {
	if !w.open {
		return framesync.Event{}, false
	}
	if !w.closeSent && rl.WindowShouldClose() {
		w.closeSent = true
		return framesync.Event{Kind: framesync.EventClosed}, true
	}
	if rl.IsKeyPressed(rl.KeyF1) && w.opts.Debug != nil {
		w.opts.Debug.Toggle()
	}
	if r := rl.GetCharPressed(); r != 0 {
		return framesync.Event{Kind: framesync.EventKey, Key: rune(r)}, true
	}
	return framesync.Event{}, false
}

// Clear starts a frame.
func (w *Window) Clear(bg color.RGBA) {
	rl.BeginDrawing()
	w.drawing = true
	w.polygons = 0
	rl.ClearBackground(bg)
}

// Draw fills the polygon as a triangle fan. raylib culls fans that are clockwise on screen,
// so the scratch copy is reversed when needed; d itself is never modified.
func (w *Window) Draw(d *framesync.Drawable) {
	n := len(d.Points)
	if n < 3 || n > len(w.pts) {
		return
	}
	var area float32
	for i := 0; i < n; i++ {
		a, b := d.Points[i], d.Points[(i+1)%n]
		area += a.X*b.Y - b.X*a.Y
	}
	for i, p := range d.Points {
		j := i
		if area > 0 {
			j = n - 1 - i
		}
		w.pts[j] = rl.NewVector2(p.X, p.Y)
	}
	pts := w.pts[:n]
	rl.DrawTriangleFan(pts, d.Color)

	if w.opts.Outline {
		edge := outlineColor(d.Color)
		for i := 0; i < n; i++ {
			rl.DrawLineV(pts[i], pts[(i+1)%n], edge)
		}
	}
	w.polygons++
}

// Display draws the debug overlay and presents the frame.
func (w *Window) Display() {
	if !w.drawing {
		return
	}
	w.frames++
	if w.opts.Debug != nil {
		screenW := int32(rl.GetScreenWidth())
		y := int32(overlayPadding)
		for _, text := range w.opts.Debug.Lines(int(rl.GetFPS()), w.polygons, w.frames) {
			x := screenW - rl.MeasureText(text, overlayFontSize) - overlayPadding
			rl.DrawText(text, x, y, overlayFontSize, rl.Green)
			y += overlayLineHeight
		}
	}
	rl.EndDrawing()
	w.drawing = false
}

// MaxPoints is the size of the vertex scratch.
func (w *Window) MaxPoints() int {
	return len(w.pts)
}

// Close destroys the window. Safe to call more than once.
func (w *Window) Close() {
	if !w.open {
		return
	}
	if w.drawing {
		rl.EndDrawing()
		w.drawing = false
	}
	rl.CloseWindow()
	w.open = false
}

// outlineColor darkens c in Lab space for polygon borders.
func outlineColor(c color.RGBA) color.RGBA {
	base, ok := colorful.MakeColor(c)
	if !ok {
		return c
	}
	r, g, b := base.BlendLab(colorful.Color{}, 0.45).Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: c.A}
}
