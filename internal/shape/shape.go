// Package shape holds the collision geometry attached to fixtures. Shapes live in their
// owning body's local frame; nothing in here knows where a body is.
package shape

import (
	"polydrop/internal/geom"

	"github.com/pkg/errors"
)

const (
	// MaxPolygonVertices bounds polygon vertex count, matching the engine convention of 8.
	MaxPolygonVertices = 8
	// LinearSlop is the collision and constraint tolerance in world units.
	LinearSlop = 0.005
	// PolygonRadius is the skin around polygons used by collision detection.
	PolygonRadius = 2 * LinearSlop
)

var (
	ErrVertexCount = errors.New("polygon vertex count out of range")
	ErrDegenerate  = errors.New("polygon is degenerate")
	ErrRadius      = errors.New("circle radius must be positive")
	ErrUnknownKind = errors.New("unknown shape kind")
)

// Kind tags which arm of Shape is populated.
type Kind uint8

const (
	KindPolygon Kind = iota
	KindCircle
	KindEdge
)

func (k Kind) String() string {
	switch k {
	case KindPolygon:
		return "polygon"
	case KindCircle:
		return "circle"
	case KindEdge:
		return "edge"
	}
	return "unknown"
}

// ParseKind maps a scene-file name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "polygon", "poly":
		return KindPolygon, nil
	case "circle":
		return KindCircle, nil
	case "edge", "line":
		return KindEdge, nil
	}
	return 0, errors.Wrapf(ErrUnknownKind, "%q", s)
}

// Shape is a tagged union over the supported shape kinds. Only the arm named by Kind is meaningful.
type Shape struct {
	Kind    Kind
	Polygon Polygon
	Circle  Circle
	Edge    Edge
}

// MassData is the mass, centroid (local frame) and rotational inertia about the local origin.
type MassData struct {
	Mass   float32
	Center geom.Vec2
	I      float32
}

// NewPolygon builds a polygon shape from points; see Polygon.Set.
func NewPolygon(points []geom.Vec2) (Shape, error) {
	var s Shape
	err := s.SetPolygon(points)
	return s, err
}

// SetPolygon switches s to the polygon arm and stores the hull of points.
func (s *Shape) SetPolygon(points []geom.Vec2) error {
	s.Kind = KindPolygon
	return s.Polygon.Set(points)
}

// SetCircle switches s to the circle arm.
func (s *Shape) SetCircle(center geom.Vec2, radius float32) error {
	if radius <= 0 {
		return errors.Wrapf(ErrRadius, "radius %v", radius)
	}
	s.Kind = KindCircle
	s.Circle = Circle{Center: center, Radius: radius}
	return nil
}

// SetEdge switches s to the edge arm.
func (s *Shape) SetEdge(v1, v2 geom.Vec2) error {
	if v1.DistanceSquared(v2) <= LinearSlop*LinearSlop {
		return errors.Wrap(ErrDegenerate, "edge endpoints coincide")
	}
	s.Kind = KindEdge
	s.Edge = Edge{V1: v1, V2: v2}
	return nil
}

// Validate checks that the active arm holds usable geometry.
func (s *Shape) Validate() error {
	switch s.Kind {
	case KindPolygon:
		if s.Polygon.Count < 3 || s.Polygon.Count > MaxPolygonVertices {
			return errors.Wrapf(ErrVertexCount, "count %d", s.Polygon.Count)
		}
	case KindCircle:
		if s.Circle.Radius <= 0 {
			return errors.Wrapf(ErrRadius, "radius %v", s.Circle.Radius)
		}
	case KindEdge:
		if s.Edge.V1.DistanceSquared(s.Edge.V2) <= LinearSlop*LinearSlop {
			return errors.Wrap(ErrDegenerate, "edge endpoints coincide")
		}
	default:
		return errors.Wrapf(ErrUnknownKind, "kind %d", s.Kind)
	}
	return nil
}

// ComputeMass returns mass properties for the active arm at the given density.
func (s *Shape) ComputeMass(density float32) MassData {
	switch s.Kind {
	case KindPolygon:
		return s.Polygon.ComputeMass(density)
	case KindCircle:
		return s.Circle.ComputeMass(density)
	}
	// Edges have no area.
	return MassData{}
}

// Radius returns the collision skin radius of the active arm.
func (s *Shape) Radius() float32 {
	switch s.Kind {
	case KindPolygon:
		return PolygonRadius
	case KindCircle:
		return s.Circle.Radius
	}
	return PolygonRadius
}

// AABB returns the world-space bounds of the shape under xf, inflated by its skin radius.
func (s *Shape) AABB(xf geom.Transform) (lower, upper geom.Vec2) {
	switch s.Kind {
	case KindPolygon:
		lower = xf.Apply(s.Polygon.Vertices[0])
		upper = lower
		for i := 1; i < s.Polygon.Count; i++ {
			v := xf.Apply(s.Polygon.Vertices[i])
			lower = geom.V(min(lower.X, v.X), min(lower.Y, v.Y))
			upper = geom.V(max(upper.X, v.X), max(upper.Y, v.Y))
		}
	case KindCircle:
		c := xf.Apply(s.Circle.Center)
		lower, upper = c, c
	case KindEdge:
		a, b := xf.Apply(s.Edge.V1), xf.Apply(s.Edge.V2)
		lower = geom.V(min(a.X, b.X), min(a.Y, b.Y))
		upper = geom.V(max(a.X, b.X), max(a.Y, b.Y))
	}
	r := s.Radius()
	return lower.Sub(geom.V(r, r)), upper.Add(geom.V(r, r))
}
