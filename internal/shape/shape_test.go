package shape

import (
	"testing"

	"polydrop/internal/geom"

	"github.com/pkg/errors"
)

var pentagon = []geom.Vec2{
	geom.V(-10, 20),
	geom.V(-10, 0),
	geom.V(0, -30),
	geom.V(10, 0),
	geom.V(10, 10),
}

func TestPolygonSetStartsAtRightMostLowestVertex(t *testing.T) {
	var p Polygon
	if err := p.Set(pentagon); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if p.Count != 5 {
		t.Fatalf("Expected 5 vertices, got %d", p.Count)
	}
	// The input is already convex and counter-clockwise, so the hull is the same ring
	// rotated to begin at (10, 0).
	want := []geom.Vec2{geom.V(10, 0), geom.V(10, 10), geom.V(-10, 20), geom.V(-10, 0), geom.V(0, -30)}
	for i, v := range want {
		if p.Vertices[i] != v {
			t.Errorf("vertex %d: expected %v, got %v", i, v, p.Vertices[i])
		}
	}
}

func TestPolygonNormalsPointOutward(t *testing.T) {
	var p Polygon
	if err := p.Set(pentagon); err != nil {
		t.Fatalf("Set: %v", err)
	}
	for i := 0; i < p.Count; i++ {
		mid := p.Vertices[i].Add(p.Vertices[(i+1)%p.Count]).Scale(0.5)
		if p.Normals[i].Dot(mid.Sub(p.Centroid)) <= 0 {
			t.Errorf("normal %d (%v) points inward", i, p.Normals[i])
		}
		if l := p.Normals[i].Length(); l < 0.999 || l > 1.001 {
			t.Errorf("normal %d not unit length: %v", i, l)
		}
	}
}

func TestPolygonSetRejectsBadCounts(t *testing.T) {
	var p Polygon
	if err := p.Set(pentagon[:2]); !errors.Is(err, ErrVertexCount) {
		t.Errorf("Expected ErrVertexCount for 2 points, got %v", err)
	}
	nine := make([]geom.Vec2, 9)
	for i := range nine {
		nine[i] = geom.V(float32(i), float32(i*i))
	}
	if err := p.Set(nine); !errors.Is(err, ErrVertexCount) {
		t.Errorf("Expected ErrVertexCount for 9 points, got %v", err)
	}
	if p.Count != 0 {
		t.Errorf("Expected polygon untouched after error, got count %d", p.Count)
	}
}

func TestPolygonSetRejectsDegenerate(t *testing.T) {
	var p Polygon
	collinear := []geom.Vec2{geom.V(0, 0), geom.V(1, 1), geom.V(2, 2)}
	if err := p.Set(collinear); !errors.Is(err, ErrDegenerate) {
		t.Errorf("Expected ErrDegenerate for collinear points, got %v", err)
	}
	welded := []geom.Vec2{geom.V(0, 0), geom.V(0.001, 0), geom.V(5, 5)}
	if err := p.Set(welded); !errors.Is(err, ErrDegenerate) {
		t.Errorf("Expected ErrDegenerate for welded points, got %v", err)
	}
}

func TestPolygonHullDropsInteriorPoints(t *testing.T) {
	var p Polygon
	pts := []geom.Vec2{geom.V(0, 0), geom.V(4, 0), geom.V(2, 1), geom.V(4, 4), geom.V(0, 4)}
	if err := p.Set(pts); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if p.Count != 4 {
		t.Errorf("Expected interior point dropped (4 vertices), got %d", p.Count)
	}
}

func TestPolygonMassOfSquare(t *testing.T) {
	var p Polygon
	if err := p.Set([]geom.Vec2{geom.V(-1, -1), geom.V(1, -1), geom.V(1, 1), geom.V(-1, 1)}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	md := p.ComputeMass(2)
	if md.Mass < 7.999 || md.Mass > 8.001 {
		t.Errorf("Expected mass 8, got %v", md.Mass)
	}
	if md.Center.Length() > 1e-5 {
		t.Errorf("Expected centroid at origin, got %v", md.Center)
	}
	// I = m (w² + h²) / 12 for a 2x2 square.
	wantI := float32(8 * (4 + 4) / 12.0)
	if d := md.I - wantI; d > 1e-3 || d < -1e-3 {
		t.Errorf("Expected inertia %v, got %v", wantI, md.I)
	}
}

func TestShapeValidate(t *testing.T) {
	s, err := NewPolygon(pentagon)
	if err != nil {
		t.Fatalf("NewPolygon: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Expected valid polygon, got %v", err)
	}
	var c Shape
	if err := c.SetCircle(geom.V(0, 0), 0); !errors.Is(err, ErrRadius) {
		t.Errorf("Expected ErrRadius, got %v", err)
	}
	bad := Shape{Kind: Kind(42)}
	if err := bad.Validate(); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for name, want := range map[string]Kind{"polygon": KindPolygon, "circle": KindCircle, "line": KindEdge} {
		got, err := ParseKind(name)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; expected %v", name, got, err, want)
		}
	}
	if _, err := ParseKind("blob"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
}
