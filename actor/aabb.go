package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Expand grows the box by margin on every side
func (a AABB) Expand(margin float64) AABB {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

// Union returns the smallest box containing both boxes
func (a AABB) Union(other AABB) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(a.Min[0], other.Min[0]), math.Min(a.Min[1], other.Min[1]), math.Min(a.Min[2], other.Min[2])},
		Max: mgl64.Vec3{math.Max(a.Max[0], other.Max[0]), math.Max(a.Max[1], other.Max[1]), math.Max(a.Max[2], other.Max[2])},
	}
}

// RayIntersect runs a slab test of the ray origin + t*direction against the box.
// It returns the entry and exit parameters clipped to [0, maximumT].
func (a AABB) RayIntersect(origin, direction mgl64.Vec3, maximumT float64) (tEnter, tExit float64, hit bool) {
	tEnter = 0
	tExit = maximumT

	for axis := 0; axis < 3; axis++ {
		if math.Abs(direction[axis]) < 1e-15 {
			// Parallel to the slab: the origin must lie inside it
			if origin[axis] < a.Min[axis] || origin[axis] > a.Max[axis] {
				return 0, 0, false
			}
			continue
		}

		inv := 1.0 / direction[axis]
		t0 := (a.Min[axis] - origin[axis]) * inv
		t1 := (a.Max[axis] - origin[axis]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}

		tEnter = math.Max(tEnter, t0)
		tExit = math.Min(tExit, t1)
		if tEnter > tExit {
			return 0, 0, false
		}
	}

	return tEnter, tExit, true
}
