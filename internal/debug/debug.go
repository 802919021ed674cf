package debug

import (
	"fmt"
	"runtime"
)

const (
	// updateInterval: only refresh text every N frames to reduce allocations.
	updateInterval = 30
)

// Debug holds the text overlay (FPS, heap, polygons drawn, frame count). All lines are off by
// default. It only builds strings; each surface draws them its own way.
type Debug struct {
	ShowFPS      bool
	ShowMemAlloc bool
	ShowPolygons bool

	frameCount   uint32
	lastFpsText  string
	lastMemText  string
	lastPolyText string
	lastMemStats runtime.MemStats
	lines        []string
}

// New returns a Debug system with all overlays hidden.
func New() *Debug {
	return &Debug{}
}

// SetAll shows or hides every line.
func (d *Debug) SetAll(show bool) {
	d.ShowFPS = show
	d.ShowMemAlloc = show
	d.ShowPolygons = show
}

// Toggle flips every line based on whether any is currently shown.
func (d *Debug) Toggle() {
	d.SetAll(!d.Visible())
}

// Visible reports whether any line is enabled.
func (d *Debug) Visible() bool {
	return d.ShowFPS || d.ShowMemAlloc || d.ShowPolygons
}

// Lines returns the overlay text for this frame. Call once per presented frame.
// Text is only recomputed every updateInterval frames; the returned slice is reused.
func (d *Debug) Lines(fps int, polygons int, frames uint64) []string {
	d.frameCount++
	update := (d.frameCount % updateInterval) == 0
	if (d.ShowFPS && d.lastFpsText == "") || (d.ShowMemAlloc && d.lastMemText == "") || (d.ShowPolygons && d.lastPolyText == "") {
		update = true
	}

	if update {
		if d.ShowFPS {
			d.lastFpsText = fmt.Sprintf("FPS: %d", fps)
		}
		if d.ShowMemAlloc {
			runtime.ReadMemStats(&d.lastMemStats)
			mb := float64(d.lastMemStats.Alloc) / (1024 * 1024)
			d.lastMemText = fmt.Sprintf("Mem: %.2f MiB", mb)
		}
		if d.ShowPolygons {
			d.lastPolyText = fmt.Sprintf("Polys: %d  Step: %d", polygons, frames)
		}
	}

	d.lines = d.lines[:0]
	if d.ShowFPS {
		d.lines = append(d.lines, d.lastFpsText)
	}
	if d.ShowMemAlloc {
		d.lines = append(d.lines, d.lastMemText)
	}
	if d.ShowPolygons {
		d.lines = append(d.lines, d.lastPolyText)
	}
	return d.lines
}
