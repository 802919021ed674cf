package framesync

import (
	"image/color"
	"testing"

	"polydrop/internal/geom"
	"polydrop/internal/physics"
	"polydrop/internal/shape"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

type fakeBody struct {
	xf     geom.Transform
	shapes []shape.Shape
}

// fakeWorld moves every body down by dt on each step.
type fakeWorld struct {
	bodies []fakeBody
	steps  int
}

func (w *fakeWorld) Step(dt float32, _, _ int) {
	w.steps++
	for i := range w.bodies {
		w.bodies[i].xf.P.Y += dt
	}
}

func (w *fakeWorld) BodyCount() int { return len(w.bodies) }

func (w *fakeWorld) BodyTransform(b int) geom.Transform { return w.bodies[b].xf }

func (w *fakeWorld) FixtureCount(b int) int { return len(w.bodies[b].shapes) }

func (w *fakeWorld) FixtureShape(b, f int) *shape.Shape { return &w.bodies[b].shapes[f] }

// recorder is a Canvas that keeps copies of everything drawn.
type recorder struct {
	limit     int
	cleared   []color.RGBA
	drawn     []Drawable
	displayed int
}

func (r *recorder) Clear(bg color.RGBA) {
	r.cleared = append(r.cleared, bg)
	r.drawn = r.drawn[:0]
}

func (r *recorder) Draw(d *Drawable) { r.drawn = append(r.drawn, d.Clone()) }

func (r *recorder) Display() { r.displayed++ }

func (r *recorder) MaxPoints() int { return r.limit }

func mustPolygon(t *testing.T, pts ...geom.Vec2) shape.Shape {
	t.Helper()
	s, err := shape.NewPolygon(pts)
	if err != nil {
		t.Fatalf("NewPolygon: %v", err)
	}
	return s
}

var pentagon = []geom.Vec2{geom.V(-10, 20), geom.V(-10, 0), geom.V(0, -30), geom.V(10, 0), geom.V(10, 10)}

func near(a, b geom.Vec2) bool {
	return math32.Abs(a.X-b.X) < 1e-3 && math32.Abs(a.Y-b.Y) < 1e-3
}

func collectAll(w World) []Drawable {
	var out []Drawable
	for _, d := range Collect(w, NewDrawable(8)) {
		out = append(out, d.Clone())
	}
	return out
}

func TestCollectTransformsVertices(t *testing.T) {
	poly := mustPolygon(t, pentagon...)
	cases := []struct {
		name  string
		angle float32
	}{
		{"zero", 0},
		{"quarter turn", math32.Pi / 2},
		{"arbitrary", 0.7},
	}
	for _, tc := range cases {
		w := &fakeWorld{bodies: []fakeBody{{xf: geom.NewTransform(geom.V(400, 120), tc.angle), shapes: []shape.Shape{poly}}}}
		got := collectAll(w)
		if len(got) != 1 {
			t.Fatalf("%s: expected 1 drawable, got %d", tc.name, len(got))
		}
		s, c := math32.Sin(tc.angle), math32.Cos(tc.angle)
		for i := 0; i < poly.Polygon.Count; i++ {
			v := poly.Polygon.Vertices[i]
			want := geom.V(c*v.X-s*v.Y+400, s*v.X+c*v.Y+120)
			if !near(got[0].Points[i], want) {
				t.Errorf("%s: vertex %d expected %v, got %v", tc.name, i, want, got[0].Points[i])
			}
		}
	}
}

func TestCollectQuarterTurnExample(t *testing.T) {
	// A single local vertex (10, 20) on a body at (400, 120) rotated 90 degrees lands at (380, 130).
	tri := mustPolygon(t, geom.V(10, 20), geom.V(0, 0), geom.V(20, 0))
	w := &fakeWorld{bodies: []fakeBody{{xf: geom.NewTransform(geom.V(400, 120), math32.Pi/2), shapes: []shape.Shape{tri}}}}
	got := collectAll(w)[0]
	found := false
	for _, p := range got.Points {
		if near(p, geom.V(380, 130)) {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected (380, 130) among %v", got.Points)
	}
}

func signedArea(pts []geom.Vec2) float32 {
	var a float32
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return a / 2
}

func TestCollectPreservesWinding(t *testing.T) {
	poly := mustPolygon(t, pentagon...)
	local := poly.Polygon.Points()
	for _, angle := range []float32{0, 1, 2.5, -2} {
		w := &fakeWorld{bodies: []fakeBody{{xf: geom.NewTransform(geom.V(-50, 75), angle), shapes: []shape.Shape{poly}}}}
		got := collectAll(w)[0].Points
		if (signedArea(got) > 0) != (signedArea(local) > 0) {
			t.Errorf("angle %v: winding flipped (%v vs %v)", angle, signedArea(got), signedArea(local))
		}
		if d := signedArea(got) - signedArea(local); math32.Abs(d) > 0.05 {
			t.Errorf("angle %v: area changed by %v", angle, d)
		}
	}
}

func TestCollectOrderAndSkipsOtherKinds(t *testing.T) {
	var circle shape.Shape
	if err := circle.SetCircle(geom.V(0, 0), 5); err != nil {
		t.Fatalf("SetCircle: %v", err)
	}
	tri := mustPolygon(t, geom.V(0, 0), geom.V(1, 0), geom.V(0, 1))
	w := &fakeWorld{bodies: []fakeBody{
		{xf: geom.NewTransform(geom.V(1, 1), 0), shapes: []shape.Shape{circle, tri}},
		{xf: geom.NewTransform(geom.V(2, 2), 0)},
		{xf: geom.NewTransform(geom.V(3, 3), 0), shapes: []shape.Shape{tri, tri}},
	}}

	var refs []physics.FixtureRef
	for ref := range Collect(w, NewDrawable(8)) {
		refs = append(refs, ref)
	}
	want := []physics.FixtureRef{{Body: 0, Fixture: 1}, {Body: 2, Fixture: 0}, {Body: 2, Fixture: 1}}
	if len(refs) != len(want) {
		t.Fatalf("Expected %v, got %v", want, refs)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("position %d: expected %v, got %v", i, want[i], refs[i])
		}
	}
}

func TestCollectReusesScratchWithoutLeftovers(t *testing.T) {
	octagon := mustPolygon(t,
		geom.V(2, 0), geom.V(1.4, 1.4), geom.V(0, 2), geom.V(-1.4, 1.4),
		geom.V(-2, 0), geom.V(-1.4, -1.4), geom.V(0, -2), geom.V(1.4, -1.4))
	tri := mustPolygon(t, geom.V(0, 0), geom.V(1, 0), geom.V(0, 1))
	w := &fakeWorld{bodies: []fakeBody{{shapes: []shape.Shape{octagon, tri}}}}

	scratch := NewDrawable(8)
	var counts []int
	var ptrs []*Drawable
	for _, d := range Collect(w, scratch) {
		counts = append(counts, len(d.Points))
		ptrs = append(ptrs, d)
	}
	if len(counts) != 2 || counts[0] != 8 || counts[1] != 3 {
		t.Errorf("Expected point counts [8 3], got %v", counts)
	}
	for _, p := range ptrs {
		if p != scratch {
			t.Errorf("Expected every drawable to be the scratch buffer")
		}
	}
}

func TestCollectIsSingleUse(t *testing.T) {
	w := &fakeWorld{bodies: []fakeBody{{shapes: []shape.Shape{mustPolygon(t, pentagon...)}}}}
	seq := Collect(w, NewDrawable(8))
	n := 0
	for range seq {
		n++
	}
	for range seq {
		n++
	}
	if n != 1 {
		t.Errorf("Expected one drawable over two ranges, got %d", n)
	}
}

func TestFramesAreIsolated(t *testing.T) {
	w := &fakeWorld{bodies: []fakeBody{{xf: geom.NewTransform(geom.V(0, 0), 0), shapes: []shape.Shape{mustPolygon(t, pentagon...)}}}}
	s, err := New(w, Config{TimeStep: 1, VelocityIterations: 1, PositionIterations: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := &recorder{}
	for frame := 1; frame <= 3; frame++ {
		if err := s.Frame(r); err != nil {
			t.Fatalf("Frame: %v", err)
		}
		if len(r.drawn) != 1 {
			t.Fatalf("frame %d: expected 1 drawable, got %d", frame, len(r.drawn))
		}
		// The body moves down by 1 per step; each frame reflects only the state after its own step.
		want := w.bodies[0].shapes[0].Polygon.Vertices[0].Add(geom.V(0, float32(frame)))
		if !near(r.drawn[0].Points[0], want) {
			t.Errorf("frame %d: expected %v, got %v", frame, want, r.drawn[0].Points[0])
		}
	}
	if s.Frames() != 3 || w.steps != 3 || r.displayed != 3 {
		t.Errorf("Expected 3 frames, steps and displays, got %d %d %d", s.Frames(), w.steps, r.displayed)
	}
}

func TestRenderCapacityAbortsFrame(t *testing.T) {
	w := &fakeWorld{bodies: []fakeBody{{shapes: []shape.Shape{mustPolygon(t, pentagon...)}}}}
	r := &recorder{limit: 4}
	err := Render(r, color.RGBA{}, Collect(w, NewDrawable(8)))
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("Expected ErrCapacity, got %v", err)
	}
	if r.displayed != 0 || len(r.drawn) != 0 {
		t.Errorf("Expected nothing presented, got %d displays and %d draws", r.displayed, len(r.drawn))
	}
	if err := CheckCapacity(w, 4); !errors.Is(err, ErrCapacity) {
		t.Errorf("Expected preflight ErrCapacity, got %v", err)
	}
	if err := CheckCapacity(w, 8); err != nil {
		t.Errorf("Expected pentagon to fit in 8 points, got %v", err)
	}
	if err := CheckCapacity(w, 0); err != nil {
		t.Errorf("Expected unbounded surface to accept everything, got %v", err)
	}
}

func TestSyncPaletteByBody(t *testing.T) {
	tri := mustPolygon(t, geom.V(0, 0), geom.V(1, 0), geom.V(0, 1))
	w := &fakeWorld{bodies: []fakeBody{{shapes: []shape.Shape{tri}}, {shapes: []shape.Shape{tri}}, {shapes: []shape.Shape{tri}}}}
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	cfg := DefaultConfig()
	cfg.Palette = []color.RGBA{red, blue}
	s, err := New(w, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := &recorder{}
	if err := s.Frame(r); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	want := []color.RGBA{red, blue, red}
	for i, d := range r.drawn {
		if d.Color != want[i] {
			t.Errorf("body %d: expected %v, got %v", i, want[i], d.Color)
		}
	}
	if r.cleared[0] != cfg.Background {
		t.Errorf("Expected background %v, got %v", cfg.Background, r.cleared[0])
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	w := &fakeWorld{}
	if _, err := New(w, Config{TimeStep: 0, VelocityIterations: 1, PositionIterations: 1}); !errors.Is(err, ErrTimeStep) {
		t.Errorf("Expected ErrTimeStep, got %v", err)
	}
	if _, err := New(w, Config{TimeStep: 0.01, VelocityIterations: 0, PositionIterations: 1}); !errors.Is(err, ErrIter) {
		t.Errorf("Expected ErrIter, got %v", err)
	}
}

func TestCollectFromNativeWorld(t *testing.T) {
	w := physics.New(geom.V(0, 9.8))
	var s shape.Shape
	fd := physics.NewFixtureDef(&s, 1)
	for _, pos := range []geom.Vec2{geom.V(400, 120), geom.V(430, 120)} {
		id, err := w.CreateBody(physics.BodyDef{Type: physics.Dynamic, Position: pos})
		if err != nil {
			t.Fatalf("CreateBody: %v", err)
		}
		if err := s.SetPolygon(pentagon); err != nil {
			t.Fatalf("SetPolygon: %v", err)
		}
		if _, err := w.CreateFixture(id, &fd); err != nil {
			t.Fatalf("CreateFixture: %v", err)
		}
	}
	got := collectAll(w)
	if len(got) != 2 {
		t.Fatalf("Expected 2 drawables, got %d", len(got))
	}
	for i, d := range got {
		if len(d.Points) != 5 {
			t.Errorf("body %d: expected 5 points, got %d", i, len(d.Points))
		}
	}
	// Hull order starts at the right-most lowest vertex (10, 0).
	if !near(got[1].Points[0], geom.V(440, 120)) {
		t.Errorf("Expected first vertex of body 1 at (440, 120), got %v", got[1].Points[0])
	}
}
