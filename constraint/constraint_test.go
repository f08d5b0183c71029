package constraint

import (
	"math"
	"testing"

	"github.com/Swaelo/physcore/actor"
	"github.com/stretchr/testify/assert"
)

func TestComputeRestitution(t *testing.T) {
	tests := []struct {
		name     string
		matA     actor.Material
		matB     actor.Material
		expected float64
	}{
		{
			name:     "both zero restitution",
			matA:     actor.Material{Restitution: 0.0},
			matB:     actor.Material{Restitution: 0.0},
			expected: 0.0,
		},
		{
			name:     "one zero, one high restitution",
			matA:     actor.Material{Restitution: 0.0},
			matB:     actor.Material{Restitution: 0.8},
			expected: 0.4,
		},
		{
			name:     "both perfect restitution",
			matA:     actor.Material{Restitution: 1.0},
			matB:     actor.Material{Restitution: 1.0},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeRestitution(tt.matA, tt.matB)
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("ComputeRestitution() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestComputeFriction(t *testing.T) {
	matA := actor.Material{StaticFriction: 0.4, DynamicFriction: 0.25}
	matB := actor.Material{StaticFriction: 0.9, DynamicFriction: 1.0}

	assert.InDelta(t, 0.6, ComputeStaticFriction(matA, matB), 1e-12)
	assert.InDelta(t, 0.5, ComputeDynamicFriction(matA, matB), 1e-12)
}

func TestNewPairMaterial(t *testing.T) {
	tests := []struct {
		name             string
		matA             actor.Material
		matB             actor.Material
		expectCompliance float64
		expectRecovery   float64
		expectStatic     float64
		expectDynamic    float64
	}{
		{
			name:             "defaults when unset",
			expectCompliance: DefaultCompliance,
			expectRecovery:   DefaultMaximumRecoveryVelocity,
		},
		{
			name:             "compliance adds, recovery takes the max",
			matA:             actor.Material{Compliance: 1e-6, MaximumRecoveryVelocity: 1},
			matB:             actor.Material{Compliance: 2e-6, MaximumRecoveryVelocity: 4},
			expectCompliance: 3e-6,
			expectRecovery:   4,
		},
		{
			name:             "friction uses the geometric mean",
			matA:             actor.Material{StaticFriction: 0.4, DynamicFriction: 0.25},
			matB:             actor.Material{StaticFriction: 0.9, DynamicFriction: 1.0},
			expectCompliance: DefaultCompliance,
			expectRecovery:   DefaultMaximumRecoveryVelocity,
			expectStatic:     0.6,
			expectDynamic:    0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			material := NewPairMaterial(tt.matA, tt.matB)
			assert.InDelta(t, tt.expectCompliance, material.Spring.Compliance, 1e-15)
			assert.Equal(t, 1.0, material.Spring.DampingRatio)
			assert.Equal(t, tt.expectRecovery, material.MaximumRecoveryVelocity)
			assert.InDelta(t, tt.expectStatic, material.FrictionCoefficient, 1e-12)
			assert.InDelta(t, tt.expectDynamic, material.DynamicFriction, 1e-12)
		})
	}
}
