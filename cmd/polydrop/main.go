package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"polydrop/internal/app"
	"polydrop/internal/audio"
	"polydrop/internal/commands"
	"polydrop/internal/debug"
	"polydrop/internal/engineconfig"
	"polydrop/internal/env"
	"polydrop/internal/framesync"
	"polydrop/internal/graphics"
	"polydrop/internal/logger"
	"polydrop/internal/physics"

	"github.com/pkg/errors"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// settings are the flags shared by every command. Unset flags leave the config file and
// environment values alone.
type settings struct {
	configPath string
	engine     string
	surface    string
	scene      string
	seed       int64
	frames     uint64
	sound      bool
	debug      bool
}

func (s *settings) bind(fs *flag.FlagSet) {
	fs.StringVar(&s.configPath, "config", engineconfig.ConfigPath, "config file")
	fs.StringVar(&s.engine, "engine", "", "physics engine: native or box2d")
	fs.StringVar(&s.surface, "surface", "", "render surface: window, terminal or headless")
	fs.StringVar(&s.scene, "scene", "", "scene file, or rain for random polygons")
	fs.Int64Var(&s.seed, "seed", 0, "seed for the rain scene (0 picks one)")
	fs.Uint64Var(&s.frames, "frames", 0, "stop a headless run after this many frames")
	fs.BoolVar(&s.sound, "sound", false, "play a tone when bodies collide")
	fs.BoolVar(&s.debug, "debug", false, "show the FPS, memory and polygon overlay")
}

// resolve layers the config file, .env and POLYDROP_* variables, then the flags set on fs.
func (s *settings) resolve(fs *flag.FlagSet) (engineconfig.SimConfig, error) {
	if err := env.Load(".env"); err != nil {
		return engineconfig.SimConfig{}, err
	}
	cfg, err := engineconfig.Load(s.configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "engine":
			cfg.Engine = s.engine
		case "surface":
			cfg.Surface = s.surface
		case "scene":
			cfg.Scene = s.scene
		case "seed":
			cfg.Seed = s.seed
		case "frames":
			cfg.Frames = s.frames
		case "sound":
			cfg.Sound = s.sound
		case "debug":
			cfg.ShowFPS, cfg.ShowMemAlloc, cfg.ShowPolygons = s.debug, s.debug, s.debug
		}
	})
	return cfg, cfg.Validate()
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := commands.NewRegistry()
	reg.Default = "run"

	var runSet settings
	runFlags := newFlagSet("run", stderr)
	runSet.bind(runFlags)
	reg.Register("run", "run the simulation until the surface closes", runFlags, func() error {
		cfg, err := runSet.resolve(runFlags)
		if err != nil {
			return err
		}
		log := logger.New(logPath(cfg))
		if cfg.Surface == engineconfig.SurfaceHeadless {
			log.Echo = func(line string) { fmt.Fprintln(stderr, line) }
		}
		return app.Run(ctx, cfg, log, openWindow, startSound)
	})

	var checkSet settings
	checkFlags := newFlagSet("check", stderr)
	checkSet.bind(checkFlags)
	reg.Register("check", "validate config and scene without opening a surface", checkFlags, func() error {
		cfg, err := checkSet.resolve(checkFlags)
		if err != nil {
			return err
		}
		return app.Check(cfg, stdout)
	})

	var benchSet settings
	var steps uint64
	benchFlags := newFlagSet("bench", stderr)
	benchSet.bind(benchFlags)
	benchFlags.Uint64Var(&steps, "steps", 5000, "frames to run")
	reg.Register("bench", "time a headless run and print final positions", benchFlags, func() error {
		cfg, err := benchSet.resolve(benchFlags)
		if err != nil {
			return err
		}
		return app.Bench(cfg, steps, stdout)
	})

	if len(args) > 0 && (args[0] == "help" || args[0] == "-help" || args[0] == "--help" || args[0] == "-h") {
		reg.Usage(stdout, "polydrop")
		return exitOK
	}

	err := reg.Execute(args)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case errors.Is(err, commands.ErrUsage):
		fmt.Fprintf(stderr, "polydrop: %v\n\n", err)
		reg.Usage(stderr, "polydrop")
		return exitUsage
	}
	fmt.Fprintf(stderr, "polydrop: %v\n", err)
	return exitError
}

func logPath(cfg engineconfig.SimConfig) string {
	if cfg.LogPath != "" {
		return cfg.LogPath
	}
	return logger.LogFilePath
}

func openWindow(cfg engineconfig.SimConfig, d *debug.Debug) (framesync.Window, error) {
	opts := graphics.DefaultOptions()
	opts.Width, opts.Height = cfg.Width, cfg.Height
	if cfg.TargetFPS > 0 {
		opts.TargetFPS = cfg.TargetFPS
	}
	opts.Fullscreen = cfg.Fullscreen
	opts.Outline = cfg.Outline
	opts.Debug = d
	w, err := graphics.Open(opts)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func startSound(cfg engineconfig.SimConfig, log *logger.Logger) (physics.ContactFunc, func(), error) {
	sm := audio.NewSoundManager(log)
	sm.Volume = cfg.Volume
	if err := sm.Initialize(); err != nil {
		return nil, nil, err
	}
	return sm.Impact, sm.Cleanup, nil
}
