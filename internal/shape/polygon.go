package shape

import (
	"polydrop/internal/geom"

	"github.com/pkg/errors"
)

// Polygon is a convex polygon with counter-clockwise vertices (in a Y-up reading of the
// coordinates) and outward edge normals. Vertex order is fixed by Set and never changes.
type Polygon struct {
	Vertices [MaxPolygonVertices]geom.Vec2
	Normals  [MaxPolygonVertices]geom.Vec2
	Centroid geom.Vec2
	Count    int
}

// Set replaces the polygon with the convex hull of points. Points closer than half the linear
// slop are welded and collinear points are dropped, so Count may be lower than len(points).
// On error the polygon is left unchanged.
func (p *Polygon) Set(points []geom.Vec2) error {
	if len(points) < 3 || len(points) > MaxPolygonVertices {
		return errors.Wrapf(ErrVertexCount, "got %d points, want 3..%d", len(points), MaxPolygonVertices)
	}

	var ps [MaxPolygonVertices]geom.Vec2
	n := 0
	const weldSq = (0.5 * LinearSlop) * (0.5 * LinearSlop)
	for _, v := range points {
		if !v.IsFinite() {
			return errors.Wrapf(ErrDegenerate, "non-finite vertex %v", v)
		}
		unique := true
		for j := 0; j < n; j++ {
			if v.DistanceSquared(ps[j]) < weldSq {
				unique = false
				break
			}
		}
		if unique {
			ps[n] = v
			n++
		}
	}
	if n < 3 {
		return errors.Wrapf(ErrDegenerate, "%d distinct points", n)
	}

	// Gift wrapping from the right-most (then lowest) point.
	i0 := 0
	x0 := ps[0].X
	for i := 1; i < n; i++ {
		x := ps[i].X
		if x > x0 || (x == x0 && ps[i].Y < ps[i0].Y) {
			i0 = i
			x0 = x
		}
	}

	var hull [MaxPolygonVertices]int
	m := 0
	ih := i0
	for {
		if m == MaxPolygonVertices {
			return errors.Wrap(ErrDegenerate, "hull did not close")
		}
		hull[m] = ih
		ie := 0
		for j := 1; j < n; j++ {
			if ie == ih {
				ie = j
				continue
			}
			r := ps[ie].Sub(ps[hull[m]])
			v := ps[j].Sub(ps[hull[m]])
			c := r.Cross(v)
			if c < 0 {
				ie = j
			}
			// Collinear: keep the farthest point.
			if c == 0 && v.LengthSquared() > r.LengthSquared() {
				ie = j
			}
		}
		m++
		ih = ie
		if ie == i0 {
			break
		}
	}
	if m < 3 {
		return errors.Wrapf(ErrDegenerate, "hull has %d vertices", m)
	}

	var out Polygon
	out.Count = m
	for i := 0; i < m; i++ {
		out.Vertices[i] = ps[hull[i]]
	}
	for i := 0; i < m; i++ {
		next := i + 1
		if next == m {
			next = 0
		}
		edge := out.Vertices[next].Sub(out.Vertices[i])
		normal, l := edge.CrossScalar(1).Normalize()
		if l <= geom.Epsilon {
			return errors.Wrap(ErrDegenerate, "zero-length edge")
		}
		out.Normals[i] = normal
	}
	out.Centroid = centroid(out.Vertices[:m])
	*p = out
	return nil
}

// Points returns the stored vertices in hull order.
func (p *Polygon) Points() []geom.Vec2 {
	return p.Vertices[:p.Count]
}

func centroid(vs []geom.Vec2) geom.Vec2 {
	var c geom.Vec2
	var area float32
	// Triangle fan around the first vertex keeps the sums well conditioned.
	ref := vs[0]
	const inv3 = 1.0 / 3.0
	for i := range vs {
		e1 := vs[i].Sub(ref)
		next := vs[0]
		if i+1 < len(vs) {
			next = vs[i+1]
		}
		e2 := next.Sub(ref)
		a := 0.5 * e1.Cross(e2)
		area += a
		c = c.Add(e1.Add(e2).Scale(a * inv3))
	}
	if area <= geom.Epsilon {
		return ref
	}
	return c.Scale(1 / area).Add(ref)
}

// ComputeMass integrates area, centroid and inertia over the polygon's triangle fan.
func (p *Polygon) ComputeMass(density float32) MassData {
	var center geom.Vec2
	var area, inertia float32
	s := p.Vertices[0]
	const inv3 = 1.0 / 3.0

	for i := 0; i < p.Count; i++ {
		e1 := p.Vertices[i].Sub(s)
		next := p.Vertices[0]
		if i+1 < p.Count {
			next = p.Vertices[i+1]
		}
		e2 := next.Sub(s)

		d := e1.Cross(e2)
		triArea := 0.5 * d
		area += triArea
		center = center.Add(e1.Add(e2).Scale(triArea * inv3))

		intx2 := e1.X*e1.X + e2.X*e1.X + e2.X*e2.X
		inty2 := e1.Y*e1.Y + e2.Y*e1.Y + e2.Y*e2.Y
		inertia += (0.25 * inv3 * d) * (intx2 + inty2)
	}

	var md MassData
	md.Mass = density * area
	if area > geom.Epsilon {
		center = center.Scale(1 / area)
	}
	md.Center = center.Add(s)
	// Shift inertia from the reference vertex to the body origin.
	md.I = density*inertia + md.Mass*(md.Center.Dot(md.Center)-center.Dot(center))
	return md
}
