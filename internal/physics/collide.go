package physics

import (
	"math"

	"polydrop/internal/geom"
	"polydrop/internal/shape"
)

type manifoldType uint8

const (
	// faceA: the reference face belongs to fixture A; points are stored in B's frame.
	faceA manifoldType = iota
	// faceB: the reference face belongs to fixture B; points are stored in A's frame.
	faceB
)

const (
	featureVertex uint8 = iota
	featureFace
)

// contactID identifies the pair of features that produced a contact point. It stays stable
// between steps while the same edges touch, which is what lets impulses be warm-started.
type contactID struct {
	indexA, indexB uint8
	typeA, typeB   uint8
}

func (id contactID) flipped() contactID {
	return contactID{indexA: id.indexB, indexB: id.indexA, typeA: id.typeB, typeB: id.typeA}
}

type manifoldPoint struct {
	localPoint     geom.Vec2
	normalImpulse  float32
	tangentImpulse float32
	id             contactID
}

type manifold struct {
	points      [2]manifoldPoint
	localNormal geom.Vec2
	localPoint  geom.Vec2
	kind        manifoldType
	count       int
}

type clipVertex struct {
	v  geom.Vec2
	id contactID
}

// findMaxSeparation returns the edge of poly1 with the largest separation from poly2.
func findMaxSeparation(poly1 *shape.Polygon, xf1 geom.Transform, poly2 *shape.Polygon, xf2 geom.Transform) (int, float32) {
	xf := geom.MulT(xf2, xf1)
	best := 0
	maxSep := float32(-math.MaxFloat32)
	for i := 0; i < poly1.Count; i++ {
		n := xf.Q.Apply(poly1.Normals[i])
		v1 := xf.Apply(poly1.Vertices[i])

		si := float32(math.MaxFloat32)
		for j := 0; j < poly2.Count; j++ {
			if sij := n.Dot(poly2.Vertices[j].Sub(v1)); sij < si {
				si = sij
			}
		}
		if si > maxSep {
			maxSep = si
			best = i
		}
	}
	return best, maxSep
}

// findIncidentEdge picks the edge of poly2 most anti-parallel to edge1 of poly1, in world space.
func findIncidentEdge(c *[2]clipVertex, poly1 *shape.Polygon, xf1 geom.Transform, edge1 int, poly2 *shape.Polygon, xf2 geom.Transform) {
	// Reference normal in poly2's frame.
	normal1 := xf2.Q.ApplyInv(xf1.Q.Apply(poly1.Normals[edge1]))

	index := 0
	minDot := float32(math.MaxFloat32)
	for i := 0; i < poly2.Count; i++ {
		if d := normal1.Dot(poly2.Normals[i]); d < minDot {
			minDot = d
			index = i
		}
	}

	i1 := index
	i2 := i1 + 1
	if i2 == poly2.Count {
		i2 = 0
	}
	c[0] = clipVertex{
		v:  xf2.Apply(poly2.Vertices[i1]),
		id: contactID{indexA: uint8(edge1), indexB: uint8(i1), typeA: featureFace, typeB: featureVertex},
	}
	c[1] = clipVertex{
		v:  xf2.Apply(poly2.Vertices[i2]),
		id: contactID{indexA: uint8(edge1), indexB: uint8(i2), typeA: featureFace, typeB: featureVertex},
	}
}

// clipSegmentToLine keeps the part of vIn behind the plane normal·x = offset.
func clipSegmentToLine(vOut *[2]clipVertex, vIn [2]clipVertex, normal geom.Vec2, offset float32, vertexIndexA int) int {
	n := 0
	d0 := normal.Dot(vIn[0].v) - offset
	d1 := normal.Dot(vIn[1].v) - offset

	if d0 <= 0 {
		vOut[n] = vIn[0]
		n++
	}
	if d1 <= 0 {
		vOut[n] = vIn[1]
		n++
	}

	if d0*d1 < 0 {
		t := d0 / (d0 - d1)
		vOut[n] = clipVertex{
			v: vIn[0].v.Add(vIn[1].v.Sub(vIn[0].v).Scale(t)),
			id: contactID{
				indexA: uint8(vertexIndexA),
				indexB: vIn[0].id.indexB,
				typeA:  featureVertex,
				typeB:  featureFace,
			},
		}
		n++
	}
	return n
}

// collidePolygons computes the contact manifold for two convex polygons using the separating
// axis test followed by reference-face clipping. m.count is 0 when the polygons are apart.
func collidePolygons(m *manifold, polyA *shape.Polygon, xfA geom.Transform, polyB *shape.Polygon, xfB geom.Transform) {
	m.count = 0
	const totalRadius = 2 * shape.PolygonRadius

	edgeA, sepA := findMaxSeparation(polyA, xfA, polyB, xfB)
	if sepA > totalRadius {
		return
	}
	edgeB, sepB := findMaxSeparation(polyB, xfB, polyA, xfA)
	if sepB > totalRadius {
		return
	}

	var (
		poly1, poly2 *shape.Polygon
		xf1, xf2     geom.Transform
		edge1        int
		flip         bool
	)
	const tol = 0.1 * shape.LinearSlop
	if sepB > sepA+tol {
		poly1, poly2 = polyB, polyA
		xf1, xf2 = xfB, xfA
		edge1 = edgeB
		m.kind = faceB
		flip = true
	} else {
		poly1, poly2 = polyA, polyB
		xf1, xf2 = xfA, xfB
		edge1 = edgeA
		m.kind = faceA
	}

	var incident [2]clipVertex
	findIncidentEdge(&incident, poly1, xf1, edge1, poly2, xf2)

	iv1 := edge1
	iv2 := edge1 + 1
	if iv2 == poly1.Count {
		iv2 = 0
	}
	v11 := poly1.Vertices[iv1]
	v12 := poly1.Vertices[iv2]

	localTangent, _ := v12.Sub(v11).Normalize()
	localNormal := localTangent.CrossScalar(1)
	planePoint := v11.Add(v12).Scale(0.5)

	tangent := xf1.Q.Apply(localTangent)
	normal := tangent.CrossScalar(1)

	v11 = xf1.Apply(v11)
	v12 = xf1.Apply(v12)

	frontOffset := normal.Dot(v11)
	sideOffset1 := -tangent.Dot(v11) + totalRadius
	sideOffset2 := tangent.Dot(v12) + totalRadius

	var clip1, clip2 [2]clipVertex
	if clipSegmentToLine(&clip1, incident, tangent.Neg(), sideOffset1, iv1) < 2 {
		return
	}
	if clipSegmentToLine(&clip2, clip1, tangent, sideOffset2, iv2) < 2 {
		return
	}

	m.localNormal = localNormal
	m.localPoint = planePoint

	count := 0
	for i := 0; i < 2; i++ {
		separation := normal.Dot(clip2[i].v) - frontOffset
		if separation > totalRadius {
			continue
		}
		id := clip2[i].id
		if flip {
			id = id.flipped()
		}
		m.points[count] = manifoldPoint{
			localPoint: xf2.ApplyInv(clip2[i].v),
			id:         id,
		}
		count++
	}
	m.count = count
}

// worldManifold resolves a manifold against the current transforms: world normal (A to B),
// mid-skin contact points and their separations.
type worldManifold struct {
	normal      geom.Vec2
	points      [2]geom.Vec2
	separations [2]float32
}

func (wm *worldManifold) initialize(m *manifold, xfA geom.Transform, radiusA float32, xfB geom.Transform, radiusB float32) {
	if m.count == 0 {
		return
	}
	switch m.kind {
	case faceA:
		wm.normal = xfA.Q.Apply(m.localNormal)
		planePoint := xfA.Apply(m.localPoint)
		for i := 0; i < m.count; i++ {
			clipPoint := xfB.Apply(m.points[i].localPoint)
			cA := clipPoint.Add(wm.normal.Scale(radiusA - clipPoint.Sub(planePoint).Dot(wm.normal)))
			cB := clipPoint.Sub(wm.normal.Scale(radiusB))
			wm.points[i] = cA.Add(cB).Scale(0.5)
			wm.separations[i] = cB.Sub(cA).Dot(wm.normal)
		}
	case faceB:
		wm.normal = xfB.Q.Apply(m.localNormal)
		planePoint := xfB.Apply(m.localPoint)
		for i := 0; i < m.count; i++ {
			clipPoint := xfA.Apply(m.points[i].localPoint)
			cB := clipPoint.Add(wm.normal.Scale(radiusB - clipPoint.Sub(planePoint).Dot(wm.normal)))
			cA := clipPoint.Sub(wm.normal.Scale(radiusA))
			wm.points[i] = cA.Add(cB).Scale(0.5)
			wm.separations[i] = cA.Sub(cB).Dot(wm.normal)
		}
		// Keep the normal pointing from A to B.
		wm.normal = wm.normal.Neg()
	}
}

// aabbOverlap reports whether two fixtures' inflated bounds intersect.
func aabbOverlap(aLower, aUpper, bLower, bUpper geom.Vec2) bool {
	return aLower.X <= bUpper.X && aUpper.X >= bLower.X &&
		aLower.Y <= bUpper.Y && aUpper.Y >= bLower.Y
}
