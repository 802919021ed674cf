// Package app composes a run from a SimConfig: scene, physics engine, surface, audio and the
// frame loop.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"polydrop/internal/debug"
	"polydrop/internal/engineconfig"
	"polydrop/internal/framesync"
	"polydrop/internal/geom"
	"polydrop/internal/headless"
	"polydrop/internal/logger"
	"polydrop/internal/physics"
	"polydrop/internal/physics/b2world"
	"polydrop/internal/scene"
	"polydrop/internal/shape"
	"polydrop/internal/terminal"

	"github.com/pkg/errors"
)

// Engine is what a run needs from a physics world. physics.World and b2world.World both
// implement it.
type Engine interface {
	framesync.World
	scene.Builder
	SetContactListener(fn physics.ContactFunc)
	BodyType(body int) physics.BodyType
	Position(body int) geom.Vec2
	Angle(body int) float32
}

var (
	_ Engine = (*physics.World)(nil)
	_ Engine = (*b2world.World)(nil)
)

// Opener opens the raylib window. It lives outside this package so that everything else
// builds without cgo.
type Opener func(cfg engineconfig.SimConfig, d *debug.Debug) (framesync.Window, error)

// SoundStarter starts impact audio and returns the contact callback plus a cleanup func. Like
// Opener it is supplied by the binary, because the speaker needs cgo.
type SoundStarter func(cfg engineconfig.SimConfig, log *logger.Logger) (physics.ContactFunc, func(), error)

// Sim is a built scene ready to run.
type Sim struct {
	Scene scene.Definition
	World Engine
	Sync  *framesync.Sync
}

// NewEngine returns an empty world of the named engine.
func NewEngine(name string, gravity geom.Vec2) (Engine, error) {
	switch name {
	case engineconfig.EngineNative:
		return physics.New(gravity), nil
	case engineconfig.EngineBox2D:
		return b2world.New(gravity), nil
	}
	return nil, errors.Wrapf(engineconfig.ErrInvalid, "engine %q", name)
}

// LoadScene resolves the configured scene: empty is the bundled default, "rain" the seeded
// random scene, anything else a YAML file path.
func LoadScene(cfg engineconfig.SimConfig) (scene.Definition, error) {
	switch cfg.Scene {
	case "":
		return scene.Default(), nil
	case engineconfig.SceneRain:
		opts := scene.DefaultRainOptions()
		opts.Seed = cfg.Seed
		return scene.Rain(opts), nil
	}
	return scene.Load(cfg.Scene)
}

// Setup validates cfg, loads the scene and builds it into a new world.
func Setup(cfg engineconfig.SimConfig) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	def, err := LoadScene(cfg)
	if err != nil {
		return nil, err
	}
	gravity := def.GravityVec()
	if cfg.Gravity != nil {
		gravity = geom.V(cfg.Gravity[0], cfg.Gravity[1])
	}
	w, err := NewEngine(cfg.Engine, gravity)
	if err != nil {
		return nil, err
	}
	if _, err := scene.Build(w, def); err != nil {
		return nil, errors.Wrapf(err, "build scene %q", def.Name)
	}
	fc, err := cfg.FrameConfig()
	if err != nil {
		return nil, err
	}
	s, err := framesync.New(w, fc)
	if err != nil {
		return nil, err
	}
	return &Sim{Scene: def, World: w, Sync: s}, nil
}

// SurfaceCapacity is the polygon size limit of the configured surface, without opening it.
func SurfaceCapacity(surface string) int {
	if surface == engineconfig.SurfaceTerminal {
		return 0
	}
	return shape.MaxPolygonVertices
}

// OpenSurface opens the configured surface. window is only called for the window surface.
func OpenSurface(cfg engineconfig.SimConfig, d *debug.Debug, log *logger.Logger, window Opener) (framesync.Window, error) {
	switch cfg.Surface {
	case engineconfig.SurfaceWindow:
		if window == nil {
			return nil, errors.Wrap(engineconfig.ErrInvalid, "window surface not available")
		}
		return window(cfg, d)
	case engineconfig.SurfaceTerminal:
		opts := terminal.DefaultOptions()
		if cfg.Width > 0 && cfg.Height > 0 {
			opts.MaxX, opts.MaxY = float32(cfg.Width), float32(cfg.Height)
		}
		opts.Debug = d
		opts.Log = log
		opts.LogLines = 1
		s, err := terminal.Open(opts)
		if err != nil {
			return nil, err
		}
		return s, nil
	case engineconfig.SurfaceHeadless:
		return headless.New(0, cfg.Frames), nil
	}
	return nil, errors.Wrapf(engineconfig.ErrInvalid, "surface %q", cfg.Surface)
}

// Run builds the scene, opens the surface and runs frames until the surface closes or ctx is
// done. Sound is optional: if it is not configured or cannot start the run goes on silently.
func Run(ctx context.Context, cfg engineconfig.SimConfig, log *logger.Logger, window Opener, sound SoundStarter) error {
	sim, err := Setup(cfg)
	if err != nil {
		return err
	}
	log.Logf("scene %q: %d bodies, %d polygons, engine %s", sim.Scene.Name, sim.World.BodyCount(),
		sim.Scene.PolygonCount(), cfg.Engine)

	win, err := OpenSurface(cfg, cfg.Debug(), log, window)
	if err != nil {
		return errors.Wrapf(err, "open %s surface", cfg.Surface)
	}
	if err := framesync.CheckCapacity(sim.World, win.MaxPoints()); err != nil {
		win.Close()
		return err
	}

	contacts := 0
	var impact physics.ContactFunc
	if cfg.Sound && sound != nil {
		fn, cleanup, err := sound(cfg, log)
		if err != nil {
			log.Logf("audio disabled: %v", err)
		} else {
			impact = fn
			defer cleanup()
		}
	}
	sim.World.SetContactListener(func(a, b physics.FixtureRef) {
		contacts++
		if impact != nil {
			impact(a, b)
		}
	})

	loop := framesync.NewLoop(win, sim.Sync)
	loop.OnEvent = func(ev framesync.Event) {
		if ev.Kind == framesync.EventResized {
			log.Log("surface resized")
		}
	}
	start := time.Now()
	err = loop.Run(ctx)
	log.Logf("stopped after %d frames in %v, %d contacts", loop.Frames(), time.Since(start).Round(time.Millisecond), contacts)
	return err
}

// Check builds the scene and runs the capacity preflight for the configured surface, then
// writes a summary to out.
func Check(cfg engineconfig.SimConfig, out io.Writer) error {
	sim, err := Setup(cfg)
	if err != nil {
		return err
	}
	limit := SurfaceCapacity(cfg.Surface)
	if err := framesync.CheckCapacity(sim.World, limit); err != nil {
		return err
	}
	g := sim.Scene.GravityVec()
	if cfg.Gravity != nil {
		g = geom.V(cfg.Gravity[0], cfg.Gravity[1])
	}
	fmt.Fprintf(out, "scene:    %s\n", sim.Scene.Name)
	fmt.Fprintf(out, "engine:   %s\n", cfg.Engine)
	fmt.Fprintf(out, "surface:  %s\n", cfg.Surface)
	fmt.Fprintf(out, "bodies:   %d\n", sim.World.BodyCount())
	fmt.Fprintf(out, "polygons: %d\n", sim.Scene.PolygonCount())
	fmt.Fprintf(out, "gravity:  (%g, %g)\n", g.X, g.Y)
	fmt.Fprintf(out, "step:     %gs, %d velocity / %d position iterations\n",
		cfg.TimeStep, cfg.VelocityIterations, cfg.PositionIterations)
	fmt.Fprintln(out, "ok")
	return nil
}

// Bench runs steps frames on a headless surface and writes the timing and final dynamic body
// positions to out.
func Bench(cfg engineconfig.SimConfig, steps uint64, out io.Writer) error {
	if steps == 0 {
		return errors.Wrap(engineconfig.ErrInvalid, "bench needs at least one step")
	}
	cfg.Surface = engineconfig.SurfaceHeadless
	cfg.Frames = steps
	sim, err := Setup(cfg)
	if err != nil {
		return err
	}
	surface := headless.New(0, steps)
	if err := framesync.CheckCapacity(sim.World, surface.MaxPoints()); err != nil {
		return err
	}

	loop := framesync.NewLoop(surface, sim.Sync)
	start := time.Now()
	if err := loop.Run(context.Background()); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Fprintf(out, "%s on %s: %d frames in %v (%.1f µs/frame, %d polygons drawn)\n",
		sim.Scene.Name, cfg.Engine, loop.Frames(), elapsed.Round(time.Microsecond),
		float64(elapsed.Microseconds())/float64(loop.Frames()), surface.Drawn())
	for b := 0; b < sim.World.BodyCount(); b++ {
		if sim.World.BodyType(b) != physics.Dynamic {
			continue
		}
		p := sim.World.Position(b)
		fmt.Fprintf(out, "body %d: (%.2f, %.2f) angle %.3f\n", b, p.X, p.Y, sim.World.Angle(b))
	}
	return nil
}
