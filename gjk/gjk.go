// Package gjk implements the Gilbert-Johnson-Keerthi algorithm for convex shapes.
//
// GJK works on the Minkowski difference A - B, only ever querying support points, so any
// convex shape exposing a support mapping can be tested. Two queries are provided:
//   - GJK: boolean intersection, leaving a tetrahedron containing the origin for EPA
//   - Distance: closest points and separating normal of disjoint shapes, used by sweeps
package gjk

import (
	"sync"

	"github.com/Swaelo/physcore/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Convex is anything with a world space support mapping
type Convex interface {
	SupportWorld(direction mgl64.Vec3) mgl64.Vec3
	Center() mgl64.Vec3
}

// Posed places a convex shape at a pose
type Posed struct {
	Shape actor.ShapeInterface
	Pose  actor.Transform
}

func (p Posed) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	localDirection := p.Pose.Rotation.Conjugate().Rotate(direction)
	return p.Pose.TransformPoint(p.Shape.Support(localDirection))
}

func (p Posed) Center() mgl64.Vec3 {
	return p.Pose.Position
}

// Simplex represents a set of 1-4 points in the Minkowski difference space.
// Size progression: point, line, triangle, tetrahedron.
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport returns furthestPoint(A, direction) - furthestPoint(B, -direction)
func MinkowskiSupport(a, b Convex, direction mgl64.Vec3) mgl64.Vec3 {
	supportA := a.SupportWorld(direction)
	supportB := b.SupportWorld(direction.Mul(-1))
	return supportA.Sub(supportB)
}

// GJK reports whether two convex shapes overlap.
//
// The simplex is modified in place; on collision it is a tetrahedron containing the
// origin, which EPA uses as its initial polytope.
func GJK(a, b Convex, simplex *Simplex) bool {
	// Starting toward the other shape typically reduces iterations
	direction := b.Center().Sub(a.Center())
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.Points[0] = MinkowskiSupport(a, b, direction)
	simplex.Count = 1

	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		return true // shapes exactly touching at a point
	}

	const maxIterations = 32
	for i := 0; i < maxIterations; i++ {
		newPoint := MinkowskiSupport(a, b, direction)

		// The new point does not pass the origin: the shapes are separated
		if newPoint.Dot(direction) <= 0 {
			return false
		}

		simplex.Points[simplex.Count] = newPoint
		simplex.Count++

		// Reduces the simplex to its feature closest to the origin and updates direction
		if containsOrigin(simplex, &direction) {
			return true
		}
	}

	return false
}

// containsOrigin reduces the simplex to the feature closest to the origin and points the
// search direction at the origin from it. Only a tetrahedron can enclose the origin.
func containsOrigin(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	case 4:
		return tetrahedron(simplex, direction)
	}
	return false
}

// setSimplex rewrites the simplex, most recent point last
func setSimplex(simplex *Simplex, points ...mgl64.Vec3) {
	copy(simplex.Points[:], points)
	simplex.Count = len(points)
}

// line handles a segment; Points[1] is the newest vertex
func line(simplex *Simplex, direction *mgl64.Vec3) bool {
	a, b := simplex.Points[1], simplex.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		setSimplex(simplex, a)
		*direction = ao
		return false
	}

	if ab.Dot(ao) <= 0 {
		setSimplex(simplex, a)
		*direction = ao
		return false
	}

	perpendicular := ab.Cross(ao).Cross(ab)
	if perpendicular.LenSqr() < 1e-8 {
		// origin on the segment: touching
		return true
	}
	*direction = perpendicular
	return false
}

// triangle handles a triangle; Points[2] is the newest vertex
func triangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	a, b, c := simplex.Points[2], simplex.Points[1], simplex.Points[0]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)
	abc := ab.Cross(ac)

	if abc.LenSqr() < 1e-10 {
		// collinear, drop the oldest vertex
		setSimplex(simplex, b, a)
		return line(simplex, direction)
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		setSimplex(simplex, b, a)
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}
	if abc.Cross(ac).Dot(ao) > 0 {
		setSimplex(simplex, c, a)
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	if abc.Dot(ao) > 0 {
		*direction = abc
	} else {
		// keep the winding facing the origin
		setSimplex(simplex, a, c, b)
		*direction = abc.Mul(-1)
	}
	return false
}

// tetrahedron handles the only simplex able to enclose the origin; Points[3] is the newest vertex
func tetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	a, b, c, d := simplex.Points[3], simplex.Points[2], simplex.Points[1], simplex.Points[0]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	// face normals oriented away from the opposite vertex
	abc := outward(ab.Cross(ac), ad)
	acd := outward(ac.Cross(ad), ab)
	adb := outward(ad.Cross(ab), ac)

	if abc.LenSqr() < 1e-10 || acd.LenSqr() < 1e-10 || adb.LenSqr() < 1e-10 {
		setSimplex(simplex, c, b, a)
		return triangle(simplex, direction)
	}

	switch {
	case abc.Dot(ao) > 0:
		setSimplex(simplex, c, b, a)
	case acd.Dot(ao) > 0:
		setSimplex(simplex, d, c, a)
	case adb.Dot(ao) > 0:
		setSimplex(simplex, b, d, a)
	default:
		return true
	}
	return triangle(simplex, direction)
}

func outward(normal, towardOpposite mgl64.Vec3) mgl64.Vec3 {
	if normal.Dot(towardOpposite) > 0 {
		return normal.Mul(-1)
	}
	return normal
}
