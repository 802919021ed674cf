// Package framesync couples a physics world to a render surface: one fixed step per frame,
// then every polygon fixture is transformed to world space and drawn.
package framesync

import (
	"image/color"
	"iter"

	"polydrop/internal/geom"
	"polydrop/internal/physics"
	"polydrop/internal/shape"

	"github.com/pkg/errors"
)

var (
	// ErrCapacity is returned when a polygon has more points than the surface can draw.
	ErrCapacity = errors.New("polygon exceeds surface point capacity")
	ErrTimeStep = errors.New("time step must be positive")
	ErrIter     = errors.New("solver iteration counts must be positive")
)

// World is the read/step view of a physics world. Both physics.World and b2world.World
// satisfy it. Bodies and fixtures are addressed by creation-order index.
type World interface {
	Step(dt float32, velocityIterations, positionIterations int)
	BodyCount() int
	BodyTransform(body int) geom.Transform
	FixtureCount(body int) int
	FixtureShape(body, fixture int) *shape.Shape
}

// Advance steps w by exactly dt.
func Advance(w World, dt float32, velocityIterations, positionIterations int) {
	w.Step(dt, velocityIterations, positionIterations)
}

// Collect returns the world's polygon fixtures as drawables, bodies then fixtures in creation
// order. Each vertex is rotated by the body angle, then translated by the body position.
// Vertex order is kept as stored, so winding is whatever the shape has.
//
// Every value yielded is scratch, refilled for each fixture. Copy it (Drawable.Clone) to keep
// it past the next iteration. The sequence can be ranged once; ranging it again yields nothing.
// Fixtures of other shape kinds are skipped.
func Collect(w World, scratch *Drawable) iter.Seq2[physics.FixtureRef, *Drawable] {
	spent := false
	return func(yield func(physics.FixtureRef, *Drawable) bool) {
		if spent {
			return
		}
		spent = true

		for b := 0; b < w.BodyCount(); b++ {
			xf := w.BodyTransform(b)
			for f := 0; f < w.FixtureCount(b); f++ {
				s := w.FixtureShape(b, f)
				if s.Kind != shape.KindPolygon {
					continue
				}
				scratch.Points = scratch.Points[:0]
				for i := 0; i < s.Polygon.Count; i++ {
					scratch.Points = append(scratch.Points, xf.Apply(s.Polygon.Vertices[i]))
				}
				if !yield(physics.FixtureRef{Body: b, Fixture: f}, scratch) {
					return
				}
			}
		}
	}
}

// Render clears the canvas, draws every drawable and presents the frame. A drawable larger than
// the canvas capacity aborts the frame with ErrCapacity before anything is presented.
func Render(c Canvas, bg color.RGBA, drawables iter.Seq2[physics.FixtureRef, *Drawable]) error {
	c.Clear(bg)
	limit := c.MaxPoints()
	for ref, d := range drawables {
		if limit > 0 && len(d.Points) > limit {
			return errors.Wrapf(ErrCapacity, "body %d fixture %d has %d points, surface holds %d",
				ref.Body, ref.Fixture, len(d.Points), limit)
		}
		c.Draw(d)
	}
	c.Display()
	return nil
}

// CheckCapacity scans every polygon fixture and reports the first one a surface holding limit
// points could not draw. Run it once after the scene is built.
func CheckCapacity(w World, limit int) error {
	if limit <= 0 {
		return nil
	}
	for b := 0; b < w.BodyCount(); b++ {
		for f := 0; f < w.FixtureCount(b); f++ {
			s := w.FixtureShape(b, f)
			if s.Kind == shape.KindPolygon && s.Polygon.Count > limit {
				return errors.Wrapf(ErrCapacity, "body %d fixture %d has %d points, surface holds %d",
					b, f, s.Polygon.Count, limit)
			}
		}
	}
	return nil
}

// Config holds the fixed per-run simulation and drawing parameters.
type Config struct {
	TimeStep           float32
	VelocityIterations int
	PositionIterations int
	Background         color.RGBA
	// Palette colors bodies by index, cycling. Empty means every polygon is red.
	Palette []color.RGBA
}

// DefaultConfig steps 1/500 s per frame with 10 velocity and 8 position iterations, red on black.
func DefaultConfig() Config {
	return Config{
		TimeStep:           1.0 / 500.0,
		VelocityIterations: 10,
		PositionIterations: 8,
		Background:         color.RGBA{A: 255},
		Palette:            []color.RGBA{{R: 255, A: 255}},
	}
}

// Sync runs frames for one world.
type Sync struct {
	world   World
	cfg     Config
	scratch *Drawable
	frames  uint64
}

// Validate checks the time step and iteration counts.
func (c Config) Validate() error {
	if !(c.TimeStep > 0) {
		return errors.Wrapf(ErrTimeStep, "got %v", c.TimeStep)
	}
	if c.VelocityIterations <= 0 || c.PositionIterations <= 0 {
		return errors.Wrapf(ErrIter, "velocity %d position %d", c.VelocityIterations, c.PositionIterations)
	}
	return nil
}

// New validates cfg and returns a Sync for w.
func New(w World, cfg Config) (*Sync, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = DefaultConfig().Palette
	}
	return &Sync{
		world:   w,
		cfg:     cfg,
		scratch: NewDrawable(shape.MaxPolygonVertices),
	}, nil
}

// Frame advances the world one step and renders it to c.
func (s *Sync) Frame(c Canvas) error {
	Advance(s.world, s.cfg.TimeStep, s.cfg.VelocityIterations, s.cfg.PositionIterations)
	s.frames++
	return Render(c, s.cfg.Background, s.colored(Collect(s.world, s.scratch)))
}

// Frames returns the number of frames stepped so far.
func (s *Sync) Frames() uint64 {
	return s.frames
}

// Config returns the validated configuration.
func (s *Sync) Config() Config {
	return s.cfg
}

func (s *Sync) colored(seq iter.Seq2[physics.FixtureRef, *Drawable]) iter.Seq2[physics.FixtureRef, *Drawable] {
	return func(yield func(physics.FixtureRef, *Drawable) bool) {
		for ref, d := range seq {
			d.Color = s.cfg.Palette[ref.Body%len(s.cfg.Palette)]
			if !yield(ref, d) {
				return
			}
		}
	}
}
