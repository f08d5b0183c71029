package epa

import (
	"math"

	"github.com/Swaelo/physcore/actor"
	"github.com/Swaelo/physcore/constraint"
	"github.com/Swaelo/physcore/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// FeatureQuantum is the grid step, relative to the size of shape B, used to derive
	// feature ids from contact positions in the local space of B
	FeatureQuantum = 0.1

	// clipTolerance keeps points lying on a clipping plane
	clipTolerance = 1e-6
)

type contactPoint struct {
	position mgl64.Vec3
	depth    float64
}

// Manifold builds the contacts of two overlapping shapes using Sutherland-Hodgman clipping
// of their touching features. Offsets are relative to the position of A and the manifold
// normal points from B toward A.
func Manifold(a, b gjk.Posed, penetration Penetration) constraint.ConvexContactManifold {
	normal := penetration.Normal
	featureA := worldFeature(a, normal)
	featureB := worldFeature(b, normal.Mul(-1))

	var points []contactPoint
	switch {
	case len(featureA) == 1:
		points = append(points, contactPoint{position: featureA[0].Sub(normal.Mul(penetration.Depth / 2)), depth: penetration.Depth})
	case len(featureB) == 1:
		points = append(points, contactPoint{position: featureB[0].Add(normal.Mul(penetration.Depth / 2)), depth: penetration.Depth})
	default:
		// The feature with fewer vertices is clipped against the other one; A wins ties
		reference, incident, outward := featureA, featureB, normal
		if len(featureA) < len(featureB) {
			reference, incident, outward = featureB, featureA, normal.Mul(-1)
		}
		points = clipFeatures(incident, reference, outward)
	}

	if len(points) == 0 {
		deepest := b.SupportWorld(normal.Mul(-1))
		points = append(points, contactPoint{position: deepest.Add(normal.Mul(penetration.Depth / 2)), depth: penetration.Depth})
	}
	if len(points) > constraint.MaximumConvexContactCount {
		points = reduceContacts(points, normal)
	}

	manifold := constraint.ConvexContactManifold{
		OffsetB: b.Pose.Position.Sub(a.Pose.Position),
		Normal:  normal.Mul(-1),
	}
	scale := featureScale(b)
	for _, point := range points {
		manifold.Add(point.position.Sub(a.Pose.Position), point.depth, FeatureID(b.Pose, point.position, scale))
	}
	return manifold
}

// FeatureID names a contact by its quantized position in the local space of a collidable,
// so the same contact keeps its id across frames while the pair barely moves
func FeatureID(pose actor.Transform, world mgl64.Vec3, scale float64) int32 {
	local := pose.InverseTransformPoint(world)
	quantum := FeatureQuantum * scale
	x := int32(math.Floor(local.X()/quantum + 0.5))
	y := int32(math.Floor(local.Y()/quantum + 0.5))
	z := int32(math.Floor(local.Z()/quantum + 0.5))
	return MixFeature(x, y, z)
}

// MixFeature hashes a sequence of words into a feature id with an FNV-1a step per word
// and a murmur3 finalizer. Mirrored inputs such as (x, y, z) and (-x, y, -z) differ.
func MixFeature(coordinates ...int32) int32 {
	h := uint32(2166136261)
	for _, c := range coordinates {
		h = (h ^ uint32(c)) * 16777619
	}
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return int32(h)
}

func featureScale(p gjk.Posed) float64 {
	maximumRadius, _ := p.Shape.ComputeAngularExpansionData()
	return math.Max(maximumRadius, 1e-3)
}

func worldFeature(p gjk.Posed, direction mgl64.Vec3) []mgl64.Vec3 {
	local := p.Shape.GetContactFeature(p.Pose.Rotation.Conjugate().Rotate(direction))
	world := make([]mgl64.Vec3, len(local))
	for i, point := range local {
		world[i] = p.Pose.TransformPoint(point)
	}
	return world
}

// clipFeatures trims the incident feature to the side planes of the reference feature and
// keeps the points below the reference face. outward is the reference face normal.
func clipFeatures(incident, reference []mgl64.Vec3, outward mgl64.Vec3) []contactPoint {
	clipped := incident
	if len(reference) >= 2 {
		center := centroid(reference)
		for i := 0; i < len(reference) && len(clipped) > 0; i++ {
			v1 := reference[i]
			v2 := reference[(i+1)%len(reference)]
			sideNormal := v2.Sub(v1).Cross(outward)
			if sideNormal.LenSqr() < 1e-20 {
				continue
			}
			sideNormal = sideNormal.Normalize()
			if center.Sub(v1).Dot(sideNormal) < 0 {
				sideNormal = sideNormal.Mul(-1)
			}
			clipped = clipPolygon(clipped, v1, sideNormal)
		}
	}

	planeNormal := outward
	if len(reference) >= 3 {
		if faceNormal := reference[1].Sub(reference[0]).Cross(reference[2].Sub(reference[0])); faceNormal.LenSqr() > 1e-20 {
			planeNormal = faceNormal.Normalize()
			if planeNormal.Dot(outward) < 0 {
				planeNormal = planeNormal.Mul(-1)
			}
		}
	}

	var points []contactPoint
	for _, point := range clipped {
		separation := point.Sub(reference[0]).Dot(planeNormal)
		if separation > clipTolerance {
			continue
		}
		points = append(points, contactPoint{
			position: point.Sub(planeNormal.Mul(separation / 2)),
			depth:    -separation,
		})
	}
	return points
}

// clipPolygon keeps the part of a polygon on the positive side of a plane
func clipPolygon(polygon []mgl64.Vec3, planePoint, planeNormal mgl64.Vec3) []mgl64.Vec3 {
	if len(polygon) == 1 {
		if polygon[0].Sub(planePoint).Dot(planeNormal) >= -clipTolerance {
			return polygon
		}
		return nil
	}

	output := make([]mgl64.Vec3, 0, len(polygon)+1)
	for i := range polygon {
		current := polygon[i]
		next := polygon[(i+1)%len(polygon)]
		currentDistance := current.Sub(planePoint).Dot(planeNormal)
		nextDistance := next.Sub(planePoint).Dot(planeNormal)

		if currentDistance >= -clipTolerance {
			output = append(output, current)
		}
		if (currentDistance >= -clipTolerance) != (nextDistance >= -clipTolerance) {
			t := currentDistance / (currentDistance - nextDistance)
			output = append(output, current.Add(next.Sub(current).Mul(t)))
		}
		// A segment is its own closing edge
		if len(polygon) == 2 && i == 0 {
			if nextDistance >= -clipTolerance {
				output = append(output, next)
			}
			break
		}
	}
	return output
}

func centroid(points []mgl64.Vec3) mgl64.Vec3 {
	var sum mgl64.Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.Mul(1 / float64(len(points)))
}

// reduceContacts keeps the deepest contact and the extremes of the contact patch
func reduceContacts(points []contactPoint, normal mgl64.Vec3) []contactPoint {
	tangentX, tangentY := tangentBasis(normal)

	deepest, minX, maxX, minY, maxY := 0, 0, 0, 0, 0
	for i, p := range points {
		if p.depth > points[deepest].depth {
			deepest = i
		}
		x, y := p.position.Dot(tangentX), p.position.Dot(tangentY)
		if x < points[minX].position.Dot(tangentX) {
			minX = i
		}
		if x > points[maxX].position.Dot(tangentX) {
			maxX = i
		}
		if y < points[minY].position.Dot(tangentY) {
			minY = i
		}
		if y > points[maxY].position.Dot(tangentY) {
			maxY = i
		}
	}

	reduced := make([]contactPoint, 0, constraint.MaximumConvexContactCount)
	seen := make(map[int]bool, 5)
	for _, i := range []int{deepest, minX, maxX, minY, maxY} {
		if seen[i] || len(reduced) == constraint.MaximumConvexContactCount {
			continue
		}
		seen[i] = true
		reduced = append(reduced, points[i])
	}
	return reduced
}

func tangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	tangent := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		tangent = mgl64.Vec3{0, 1, 0}
	}
	tangent = tangent.Sub(normal.Mul(tangent.Dot(normal))).Normalize()
	return tangent, normal.Cross(tangent).Normalize()
}
