package engineconfig

import (
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"polydrop/internal/debug"
	"polydrop/internal/framesync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// ConfigPath is the path to the config file, relative to the process working directory.
const ConfigPath = "config/polydrop.json"

// EnvPrefix prefixes every environment override, e.g. POLYDROP_ENGINE=box2d.
const EnvPrefix = "POLYDROP_"

var ErrInvalid = errors.New("invalid configuration")

// Engine, surface and scene names accepted by the config and the CLI.
const (
	EngineNative = "native"
	EngineBox2D  = "box2d"

	SurfaceWindow   = "window"
	SurfaceTerminal = "terminal"
	SurfaceHeadless = "headless"

	// SceneRain selects the random polygon scene. An empty scene is the embedded default.
	SceneRain = "rain"
)

// SimConfig holds the run settings. Persisted across runs; command-line flags override it.
type SimConfig struct {
	Engine  string `json:"engine"`
	Surface string `json:"surface"`
	Scene   string `json:"scene,omitempty"`
	Seed    int64  `json:"seed,omitempty"`
	// Frames stops a headless run after that many frames. Zero runs until interrupted.
	Frames uint64 `json:"frames,omitempty"`

	TimeStep           float32 `json:"time_step"`
	VelocityIterations int     `json:"velocity_iterations"`
	PositionIterations int     `json:"position_iterations"`
	// Gravity replaces the scene's gravity when set.
	Gravity *[2]float32 `json:"gravity,omitempty"`

	Background string   `json:"background"`
	Palette    []string `json:"palette"`

	Width      int32 `json:"width"`
	Height     int32 `json:"height"`
	TargetFPS  int32 `json:"target_fps"`
	Fullscreen bool  `json:"fullscreen,omitempty"`
	Outline    bool  `json:"outline,omitempty"`

	Sound  bool    `json:"sound,omitempty"`
	Volume float64 `json:"volume"`

	ShowFPS      bool `json:"show_fps"`
	ShowMemAlloc bool `json:"show_memalloc"`
	ShowPolygons bool `json:"show_polygons"`

	LogPath string `json:"log_path,omitempty"`
}

// Default returns the settings of the classic two-pentagon run: native engine, a window,
// 1/500 s steps with 10 velocity and 8 position iterations, red polygons on black.
func Default() SimConfig {
	return SimConfig{
		Engine:             EngineNative,
		Surface:            SurfaceWindow,
		TimeStep:           1.0 / 500.0,
		VelocityIterations: 10,
		PositionIterations: 8,
		Background:         "#000000",
		Palette:            []string{"#ff0000"},
		Width:              800,
		Height:             600,
		TargetFPS:          60,
		Volume:             0.5,
	}
}

// Load reads settings from path on top of Default(). A missing file is not an error; an
// unreadable or malformed one is.
func Load(path string) (SimConfig, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, errors.Wrapf(err, "read config %s", path)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return Default(), errors.Wrapf(err, "parse config %s", path)
	}
	return c, nil
}

// Save writes settings to path, creating the directory if needed.
func Save(path string, c SimConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "\t")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from POLYDROP_* variables found by lookup (os.LookupEnv).
func (c *SimConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	if v, ok := get("ENGINE"); ok {
		c.Engine = strings.ToLower(v)
	}
	if v, ok := get("SURFACE"); ok {
		c.Surface = strings.ToLower(v)
	}
	if v, ok := get("SCENE"); ok {
		c.Scene = v
	}
	if v, ok := get("BACKGROUND"); ok {
		c.Background = v
	}
	if v, ok := get("PALETTE"); ok {
		c.Palette = strings.Split(v, ",")
	}
	if v, ok := get("LOG"); ok {
		c.LogPath = v
	}
	if v, ok := get("SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(ErrInvalid, "%sSEED=%q", EnvPrefix, v)
		}
		c.Seed = n
	}
	if v, ok := get("FRAMES"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errors.Wrapf(ErrInvalid, "%sFRAMES=%q", EnvPrefix, v)
		}
		c.Frames = n
	}
	if v, ok := get("TIMESTEP"); ok {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return errors.Wrapf(ErrInvalid, "%sTIMESTEP=%q", EnvPrefix, v)
		}
		c.TimeStep = float32(f)
	}
	if v, ok := get("SOUND"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(ErrInvalid, "%sSOUND=%q", EnvPrefix, v)
		}
		c.Sound = b
	}
	if v, ok := get("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(ErrInvalid, "%sDEBUG=%q", EnvPrefix, v)
		}
		c.ShowFPS, c.ShowMemAlloc, c.ShowPolygons = b, b, b
	}
	return nil
}

// Validate reports the first setting that cannot start a run.
func (c *SimConfig) Validate() error {
	switch c.Engine {
	case EngineNative, EngineBox2D:
	default:
		return errors.Wrapf(ErrInvalid, "engine %q (want %s or %s)", c.Engine, EngineNative, EngineBox2D)
	}
	switch c.Surface {
	case SurfaceWindow, SurfaceTerminal, SurfaceHeadless:
	default:
		return errors.Wrapf(ErrInvalid, "surface %q (want %s, %s or %s)", c.Surface,
			SurfaceWindow, SurfaceTerminal, SurfaceHeadless)
	}
	if c.Surface == SurfaceWindow && (c.Width <= 0 || c.Height <= 0) {
		return errors.Wrapf(ErrInvalid, "window size %dx%d", c.Width, c.Height)
	}
	if c.Volume < 0 || c.Volume > 1 {
		return errors.Wrapf(ErrInvalid, "volume %v outside [0, 1]", c.Volume)
	}
	_, err := c.FrameConfig()
	return err
}

// FrameConfig converts the simulation and color settings for framesync.New.
func (c *SimConfig) FrameConfig() (framesync.Config, error) {
	bg, err := ParseColor(c.Background)
	if err != nil {
		return framesync.Config{}, errors.Wrap(err, "background")
	}
	palette := make([]color.RGBA, 0, len(c.Palette))
	for i, s := range c.Palette {
		col, err := ParseColor(s)
		if err != nil {
			return framesync.Config{}, errors.Wrapf(err, "palette[%d]", i)
		}
		palette = append(palette, col)
	}
	fc := framesync.Config{
		TimeStep:           c.TimeStep,
		VelocityIterations: c.VelocityIterations,
		PositionIterations: c.PositionIterations,
		Background:         bg,
		Palette:            palette,
	}
	if err := fc.Validate(); err != nil {
		return framesync.Config{}, err
	}
	return fc, nil
}

// Debug returns an overlay with the configured lines shown.
func (c *SimConfig) Debug() *debug.Debug {
	d := debug.New()
	d.ShowFPS = c.ShowFPS
	d.ShowMemAlloc = c.ShowMemAlloc
	d.ShowPolygons = c.ShowPolygons
	return d
}

// ParseColor parses "#rrggbb" or "#rgb" into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	col, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(ErrInvalid, "color %q", s)
	}
	r, g, b := col.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
