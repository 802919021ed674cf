package engineconfig

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"polydrop/internal/framesync"

	"github.com/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Expected default config valid, got %v", err)
	}
	fc, err := c.FrameConfig()
	if err != nil {
		t.Fatalf("FrameConfig: %v", err)
	}
	want := framesync.DefaultConfig()
	if fc.TimeStep != want.TimeStep || fc.VelocityIterations != 10 || fc.PositionIterations != 8 {
		t.Errorf("Expected default step settings, got %+v", fc)
	}
	if fc.Background != want.Background || len(fc.Palette) != 1 || fc.Palette[0] != want.Palette[0] {
		t.Errorf("Expected red on black, got %v %v", fc.Background, fc.Palette)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.Engine != EngineNative || c.Width != 800 {
		t.Errorf("Expected defaults, got %+v", c)
	}
}

func TestSaveThenLoadPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config", "polydrop.json")
	c := Default()
	c.Engine = EngineBox2D
	c.Palette = []string{"#00ff00", "#0000ff"}
	if err := Save(path, c); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Engine != EngineBox2D || len(got.Palette) != 2 {
		t.Errorf("Expected saved settings, got %+v", got)
	}

	// Fields missing from the file keep their defaults.
	partial := filepath.Join(dir, "partial.json")
	if err := os.WriteFile(partial, []byte(`{"surface": "terminal"}`), 0644); err != nil {
		t.Fatal(err)
	}
	got, err = Load(partial)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Surface != SurfaceTerminal || got.VelocityIterations != 10 {
		t.Errorf("Expected terminal surface over defaults, got %+v", got)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"engine": `), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("Expected parse error")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimConfig)
		want   error
	}{
		{"engine", func(c *SimConfig) { c.Engine = "havok" }, ErrInvalid},
		{"surface", func(c *SimConfig) { c.Surface = "vga" }, ErrInvalid},
		{"window size", func(c *SimConfig) { c.Width = 0 }, ErrInvalid},
		{"volume", func(c *SimConfig) { c.Volume = 2 }, ErrInvalid},
		{"background", func(c *SimConfig) { c.Background = "black" }, ErrInvalid},
		{"palette", func(c *SimConfig) { c.Palette = []string{"#ff0000", "#12"} }, ErrInvalid},
		{"time step", func(c *SimConfig) { c.TimeStep = 0 }, framesync.ErrTimeStep},
		{"iterations", func(c *SimConfig) { c.PositionIterations = -1 }, framesync.ErrIter},
	}
	for _, tt := range tests {
		c := Default()
		tt.mutate(&c)
		if err := c.Validate(); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	// Headless runs do not need a window size.
	c := Default()
	c.Surface = SurfaceHeadless
	c.Width = 0
	if err := c.Validate(); err != nil {
		t.Errorf("Expected headless config valid, got %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	vars := map[string]string{
		"POLYDROP_ENGINE":  "BOX2D",
		"POLYDROP_SURFACE": "headless",
		"POLYDROP_SCENE":   "rain",
		"POLYDROP_SEED":    "42",
		"POLYDROP_FRAMES":  "300",
		"POLYDROP_SOUND":   "true",
		"POLYDROP_DEBUG":   "1",
		"POLYDROP_PALETTE": "#fff,#000",
		"POLYDROP_LOG":     "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
	c := Default()
	if err := c.ApplyEnv(lookup); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if c.Engine != EngineBox2D || c.Surface != SurfaceHeadless || c.Scene != SceneRain {
		t.Errorf("Expected string overrides, got %+v", c)
	}
	if c.Seed != 42 || c.Frames != 300 || !c.Sound {
		t.Errorf("Expected numeric overrides, got seed %d frames %d sound %v", c.Seed, c.Frames, c.Sound)
	}
	if !c.ShowFPS || !c.ShowMemAlloc || !c.ShowPolygons {
		t.Errorf("Expected debug lines on")
	}
	if c.LogPath != "" {
		t.Errorf("Expected empty variable ignored, got %q", c.LogPath)
	}
	fc, err := c.FrameConfig()
	if err != nil {
		t.Fatalf("FrameConfig: %v", err)
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if len(fc.Palette) != 2 || fc.Palette[0] != white {
		t.Errorf("Expected white then black, got %v", fc.Palette)
	}

	vars = map[string]string{"POLYDROP_SEED": "many"}
	if err := c.ApplyEnv(lookup); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for bad seed, got %v", err)
	}
}

func TestDebugOverlay(t *testing.T) {
	c := Default()
	c.ShowPolygons = true
	d := c.Debug()
	if d.ShowFPS || !d.ShowPolygons {
		t.Errorf("Expected only the polygon line, got %+v", d)
	}
}

func TestParseColor(t *testing.T) {
	got, err := ParseColor("ff8000")
	if err != nil {
		t.Fatalf("ParseColor: %v", err)
	}
	if want := (color.RGBA{R: 255, G: 128, A: 255}); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
