package scene

import (
	"time"

	"github.com/chewxy/math32"
)

// RainOptions controls the random polygon scene.
// Count polygons are spread across [MinX, MaxX] and stacked upwards from Top.
// Seed == 0 uses a time-based seed.
type RainOptions struct {
	Count     int
	MinX      float32
	MaxX      float32
	Top       float32
	MinRadius float32
	MaxRadius float32
	Seed      int64
}

// DefaultRainOptions drops 24 polygons over the default ground.
func DefaultRainOptions() RainOptions {
	return RainOptions{
		Count:     24,
		MinX:      290,
		MaxX:      510,
		Top:       40,
		MinRadius: 6,
		MaxRadius: 14,
	}
}

// Rain returns the default scene with opts.Count extra dynamic polygons of 3 to 8 vertices.
// The same seed always produces the same scene.
func Rain(opts RainOptions) Definition {
	def := Default()
	def.Name = "rain"
	if opts.Count <= 0 {
		return def
	}
	if opts.MaxX <= opts.MinX {
		opts.MaxX = opts.MinX + 1
	}
	if opts.MinRadius <= 0 {
		opts.MinRadius = 6
	}
	if opts.MaxRadius < opts.MinRadius {
		opts.MaxRadius = opts.MinRadius
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	s := int32(seed ^ seed>>32)

	// Keep the ground as the last body so bodies stay grouped by role.
	ground := def.Bodies[len(def.Bodies)-1]
	def.Bodies = def.Bodies[:len(def.Bodies)-1]

	spacing := 2 * opts.MaxRadius
	for i := 0; i < opts.Count; i++ {
		row := int32(i)
		n := 3 + int(hash2D(row, 0, s)*6)
		if n > 8 {
			n = 8
		}
		r := lerp(opts.MinRadius, opts.MaxRadius, hash2D(row, 1, s))
		x := lerp(opts.MinX, opts.MaxX, hash2D(row, 2, s))
		y := opts.Top - float32(i)*spacing
		angle := hash2D(row, 3, s) * 2 * math32.Pi

		// Points on a circle at jittered, increasing angles form a convex polygon.
		step := 2 * math32.Pi / float32(n)
		verts := make([][2]float32, n)
		for k := 0; k < n; k++ {
			a := float32(k)*step + (hash2D(row, int32(4+k), s)-0.5)*0.6*step
			verts[k] = [2]float32{r * math32.Cos(a), r * math32.Sin(a)}
		}

		density := float32(1)
		def.Bodies = append(def.Bodies, Body{
			Type:     "dynamic",
			Position: [2]float32{x, y},
			Angle:    angle,
			Fixtures: []Fixture{{Kind: "polygon", Density: &density, Vertices: verts}},
		})
	}
	def.Bodies = append(def.Bodies, ground)
	return def
}

// hash2D maps integer lattice coordinates to a deterministic pseudo-random float in [0,1].
func hash2D(x, y, seed int32) float32 {
	n := x*374761393 + y*668265263 + seed*362437
	n = (n ^ (n >> 13)) * 1274126177
	n = n ^ (n >> 16)
	const invMaxInt = 1.0 / 2147483647.0
	return float32(n&0x7fffffff) * float32(invMaxInt)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
