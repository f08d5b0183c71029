package gjk

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DistanceMaxIterations bounds the closest point search
	DistanceMaxIterations = 64

	// DistanceRelativeTolerance stops the search once a new support point improves the
	// squared distance estimate by less than this fraction
	DistanceRelativeTolerance = 1e-10

	// intersectionEpsilon is the squared core distance below which shapes are treated as touching
	intersectionEpsilon = 1e-20
)

// Point is a degenerate convex shape, used as the core of rounded shapes such as spheres
type Point struct {
	Position mgl64.Vec3
}

func (p Point) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	return p.Position
}

func (p Point) Center() mgl64.Vec3 {
	return p.Position
}

// DistanceResult describes the closest features of two convex shapes
type DistanceResult struct {
	// Intersecting is set when the (margin expanded) shapes overlap; the other fields are then undefined
	Intersecting bool
	Distance     float64
	// Normal is the unit direction from A toward B
	Normal mgl64.Vec3
	PointA mgl64.Vec3
	PointB mgl64.Vec3
}

type supportVertex struct {
	w, a, b mgl64.Vec3
}

type distanceSimplex struct {
	vertices [4]supportVertex
	weights  [4]float64
	count    int
}

// Distance computes the separation of two convex shapes, each inflated by a margin.
//
// Rounded shapes are expressed as a core and a margin (a sphere is a Point with its radius as margin)
// so the search converges exactly on polytopes instead of creeping along curved surfaces.
func Distance(a, b Convex, marginA, marginB float64) DistanceResult {
	var simplex distanceSimplex

	direction := a.Center().Sub(b.Center())
	if direction.LenSqr() < 1e-16 {
		direction = mgl64.Vec3{1, 0, 0}
	}
	simplex.vertices[0] = support(a, b, direction.Mul(-1))
	simplex.weights[0] = 1
	simplex.count = 1
	v := simplex.vertices[0].w

	for i := 0; i < DistanceMaxIterations; i++ {
		vv := v.Dot(v)
		if vv < intersectionEpsilon {
			return DistanceResult{Intersecting: true}
		}

		w := support(a, b, v.Mul(-1))
		// No support point gets meaningfully closer to the origin
		if vv-v.Dot(w.w) <= DistanceRelativeTolerance*vv {
			break
		}
		if simplex.contains(w.w) {
			break
		}

		simplex.vertices[simplex.count] = w
		simplex.count++

		if !simplex.reduce() {
			// Origin enclosed by a tetrahedron
			return DistanceResult{Intersecting: true}
		}

		newV := simplex.closest()
		if newV.Dot(newV) >= vv {
			// Numerical stall; keep the previous estimate
			break
		}
		v = newV
	}

	pointA, pointB := simplex.witnesses()
	coreDistance := v.Len()
	if coreDistance*coreDistance < intersectionEpsilon {
		return DistanceResult{Intersecting: true}
	}

	distance := coreDistance - marginA - marginB
	if distance <= 0 {
		return DistanceResult{Intersecting: true}
	}

	normal := v.Mul(-1.0 / coreDistance)
	return DistanceResult{
		Distance: distance,
		Normal:   normal,
		PointA:   pointA.Add(normal.Mul(marginA)),
		PointB:   pointB.Sub(normal.Mul(marginB)),
	}
}

func support(a, b Convex, direction mgl64.Vec3) supportVertex {
	pa := a.SupportWorld(direction)
	pb := b.SupportWorld(direction.Mul(-1))
	return supportVertex{w: pa.Sub(pb), a: pa, b: pb}
}

func (s *distanceSimplex) contains(w mgl64.Vec3) bool {
	for i := 0; i < s.count; i++ {
		if s.vertices[i].w.Sub(w).LenSqr() < 1e-24 {
			return true
		}
	}
	return false
}

func (s *distanceSimplex) closest() mgl64.Vec3 {
	var v mgl64.Vec3
	for i := 0; i < s.count; i++ {
		v = v.Add(s.vertices[i].w.Mul(s.weights[i]))
	}
	return v
}

func (s *distanceSimplex) witnesses() (mgl64.Vec3, mgl64.Vec3) {
	var pa, pb mgl64.Vec3
	for i := 0; i < s.count; i++ {
		pa = pa.Add(s.vertices[i].a.Mul(s.weights[i]))
		pb = pb.Add(s.vertices[i].b.Mul(s.weights[i]))
	}
	return pa, pb
}

// keep shrinks the simplex to the listed vertices with their barycentric weights
func (s *distanceSimplex) keep(indices []int, weights []float64) {
	var vertices [4]supportVertex
	for i, index := range indices {
		vertices[i] = s.vertices[index]
	}
	s.vertices = vertices
	s.count = len(indices)
	for i := range s.weights {
		s.weights[i] = 0
	}
	copy(s.weights[:], weights)
}

// reduce finds the feature of the simplex closest to the origin and keeps only its vertices.
// It returns false when the origin lies inside a tetrahedron.
func (s *distanceSimplex) reduce() bool {
	switch s.count {
	case 1:
		s.weights[0] = 1
	case 2:
		s.reduceSegment(0, 1)
	case 3:
		s.reduceTriangle(0, 1, 2)
	case 4:
		return s.reduceTetrahedron()
	}
	return true
}

func (s *distanceSimplex) reduceSegment(i0, i1 int) {
	a := s.vertices[i0].w
	b := s.vertices[i1].w
	ab := b.Sub(a)

	denominator := ab.Dot(ab)
	if denominator < 1e-30 {
		s.keep([]int{i0}, []float64{1})
		return
	}

	t := -a.Dot(ab) / denominator
	switch {
	case t <= 0:
		s.keep([]int{i0}, []float64{1})
	case t >= 1:
		s.keep([]int{i1}, []float64{1})
	default:
		s.keep([]int{i0, i1}, []float64{1 - t, t})
	}
}

// reduceTriangle follows the Voronoi region tests of Ericson's ClosestPtPointTriangle for p = origin
func (s *distanceSimplex) reduceTriangle(i0, i1, i2 int) {
	a := s.vertices[i0].w
	b := s.vertices[i1].w
	c := s.vertices[i2].w

	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := a.Mul(-1)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		s.keep([]int{i0}, []float64{1})
		return
	}

	bp := b.Mul(-1)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		s.keep([]int{i1}, []float64{1})
		return
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		t := d1 / (d1 - d3)
		s.keep([]int{i0, i1}, []float64{1 - t, t})
		return
	}

	cp := c.Mul(-1)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		s.keep([]int{i2}, []float64{1})
		return
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		t := d2 / (d2 - d6)
		s.keep([]int{i0, i2}, []float64{1 - t, t})
		return
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		t := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		s.keep([]int{i1, i2}, []float64{1 - t, t})
		return
	}

	sum := va + vb + vc
	if math.Abs(sum) < 1e-30 {
		// Degenerate triangle, fall back on its longest edge
		s.reduceSegment(i0, i1)
		return
	}
	denominator := 1.0 / sum
	v := vb * denominator
	w := vc * denominator
	s.keep([]int{i0, i1, i2}, []float64{1 - v - w, v, w})
}

func (s *distanceSimplex) reduceTetrahedron() bool {
	faces := [4][4]int{
		{0, 1, 2, 3},
		{0, 1, 3, 2},
		{0, 2, 3, 1},
		{1, 2, 3, 0},
	}

	original := *s
	best := math.Inf(1)
	var bestSimplex distanceSimplex
	outside := false

	for _, face := range faces {
		a := original.vertices[face[0]].w
		b := original.vertices[face[1]].w
		c := original.vertices[face[2]].w
		d := original.vertices[face[3]].w

		normal := b.Sub(a).Cross(c.Sub(a))
		signOrigin := normal.Dot(a.Mul(-1))
		signOpposite := normal.Dot(d.Sub(a))
		if signOrigin*signOpposite >= 0 && math.Abs(signOpposite) > 1e-30 {
			// The origin is on the same side as the opposite vertex
			continue
		}
		outside = true

		candidate := original
		candidate.reduceTriangle(face[0], face[1], face[2])
		v := candidate.closest()
		if dist := v.Dot(v); dist < best {
			best = dist
			bestSimplex = candidate
		}
	}

	if !outside {
		return false
	}
	*s = bestSimplex
	return true
}
