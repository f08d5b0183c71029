package constraint

import (
	"math"

	"github.com/Swaelo/physcore/actor"
)

const (
	// DefaultCompliance controls soft constraint stiffness for contact resolution.
	// Lower values = stiffer contacts (less penetration, potential jitter)
	// Higher values = softer contacts (more penetration, smoother)
	// Typical range: 1e-10 (very stiff) to 1e-6 (soft)
	DefaultCompliance = 1e-7

	// DefaultMaximumRecoveryVelocity caps the speed of depenetration, in m/s
	DefaultMaximumRecoveryVelocity = 2.0
)

// SpringSettings describes how soft a contact is
type SpringSettings struct {
	Compliance   float64
	DampingRatio float64
}

// PairMaterial holds the properties of a collidable pair copied into every contact constraint
type PairMaterial struct {
	// FrictionCoefficient bounds the friction impulse while the contact sticks
	FrictionCoefficient     float64
	// DynamicFriction bounds it once the contact slides
	DynamicFriction         float64
	Restitution             float64
	MaximumRecoveryVelocity float64
	Spring                  SpringSettings
}

// NewPairMaterial combines the materials of both collidables
func NewPairMaterial(matA, matB actor.Material) PairMaterial {
	compliance := matA.Compliance + matB.Compliance
	if compliance <= 0 {
		compliance = DefaultCompliance
	}

	recovery := math.Max(matA.MaximumRecoveryVelocity, matB.MaximumRecoveryVelocity)
	if recovery <= 0 {
		recovery = DefaultMaximumRecoveryVelocity
	}

	return PairMaterial{
		FrictionCoefficient:     ComputeStaticFriction(matA, matB),
		DynamicFriction:         ComputeDynamicFriction(matA, matB),
		Restitution:             ComputeRestitution(matA, matB),
		MaximumRecoveryVelocity: recovery,
		Spring:                  SpringSettings{Compliance: compliance, DampingRatio: 1},
	}
}

func ComputeRestitution(matA, matB actor.Material) float64 {
	// Average (more realistic than max, where one bouncy body makes everything bounce)
	return (matA.Restitution + matB.Restitution) / 2.0
}

func ComputeStaticFriction(matA, matB actor.Material) float64 {
	// Geometric mean, the usual convention
	return math.Sqrt(matA.StaticFriction * matB.StaticFriction)
}

func ComputeDynamicFriction(matA, matB actor.Material) float64 {
	return math.Sqrt(matA.DynamicFriction * matB.DynamicFriction)
}
