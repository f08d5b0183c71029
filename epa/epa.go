// Package epa implements the Expanding Polytope Algorithm and contact manifold generation.
//
// EPA runs after GJK reports an overlap. It grows a polytope inside the Minkowski difference
// A - B, starting from the GJK tetrahedron, until the face closest to the origin is on the
// boundary. That face gives the penetration normal and depth. Manifold generation then clips
// the touching features of both shapes into up to four contacts.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"fmt"
	"math"

	"github.com/Swaelo/physcore/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations limits polytope expansion; simple shapes converge in 5 to 15
	MaxIterations = 32

	// ConvergenceTolerance is the support distance improvement below which the closest face is final
	ConvergenceTolerance = 0.001

	// NormalSnapThreshold clamps nearly zero normal components to exactly zero
	NormalSnapThreshold = 1e-8

	// DegeneratePenetrationEstimate is the depth reported when GJK ended without a tetrahedron
	DegeneratePenetrationEstimate = 0.01
)

// Penetration is the minimum translation separating two overlapping shapes
type Penetration struct {
	// Normal points from A toward B: moving A by -Normal*Depth separates the shapes
	Normal mgl64.Vec3
	Depth  float64
}

// Penetrate computes the penetration of two shapes GJK found overlapping.
// The simplex is the one GJK left behind; it is not modified.
func Penetrate(a, b gjk.Convex, simplex *gjk.Simplex) (Penetration, error) {
	if simplex.Count < 4 {
		return degeneratePenetration(a, b, simplex), nil
	}

	p := polytopePool.Get().(*polytope)
	defer polytopePool.Put(p)
	p.reset()

	if err := p.init(simplex); err != nil {
		return degeneratePenetration(a, b, simplex), nil
	}

	var best face
	for i := 0; i < MaxIterations; i++ {
		if len(p.faces) == 0 {
			break
		}
		best = p.faces[p.closest()]

		support := gjk.MinkowskiSupport(a, b, best.normal)
		if support.Dot(best.normal)-best.distance < ConvergenceTolerance {
			return Penetration{Normal: best.normal, Depth: best.distance}, nil
		}
		p.expand(support)
	}

	return Penetration{Normal: best.normal, Depth: best.distance},
		fmt.Errorf("epa: no convergence after %d iterations (%d faces)", MaxIterations, len(p.faces))
}

// degeneratePenetration estimates a penetration when shapes barely touch and GJK could not
// build a tetrahedron: from the simplex point closest to the origin, or from the centers.
func degeneratePenetration(a, b gjk.Convex, simplex *gjk.Simplex) Penetration {
	closest := -1
	closestLength := math.Inf(1)
	for i := 0; i < simplex.Count; i++ {
		if length := simplex.Points[i].Len(); length > NormalSnapThreshold && length < closestLength {
			closest, closestLength = i, length
		}
	}
	if closest >= 0 && simplex.Count >= 2 {
		return Penetration{Normal: snapNormal(simplex.Points[closest].Mul(1 / closestLength)), Depth: closestLength}
	}

	normal := b.Center().Sub(a.Center())
	if normal.Len() < NormalSnapThreshold {
		normal = mgl64.Vec3{0, 1, 0}
	}
	return Penetration{Normal: snapNormal(normal), Depth: DegeneratePenetrationEstimate}
}
