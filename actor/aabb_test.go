package actor

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func unitBox(center mgl64.Vec3) AABB {
	return AABB{Min: center.Sub(mgl64.Vec3{1, 1, 1}), Max: center.Add(mgl64.Vec3{1, 1, 1})}
}

func TestAABBOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     AABB
		expected bool
	}{
		{"separated on x", unitBox(mgl64.Vec3{0, 0, 0}), unitBox(mgl64.Vec3{3, 0, 0}), false},
		{"separated on z only", unitBox(mgl64.Vec3{0, 0, 0}), unitBox(mgl64.Vec3{1, 1, 2.5}), false},
		{"overlapping", unitBox(mgl64.Vec3{0, 0, 0}), unitBox(mgl64.Vec3{1, 1, 1}), true},
		{"face touching", unitBox(mgl64.Vec3{0, 0, 0}), unitBox(mgl64.Vec3{2, 0, 0}), true},
		{"corner touching", unitBox(mgl64.Vec3{0, 0, 0}), unitBox(mgl64.Vec3{2, 2, 2}), true},
		{"contained", unitBox(mgl64.Vec3{0, 0, 0}), AABB{Min: mgl64.Vec3{-0.1, -0.1, -0.1}, Max: mgl64.Vec3{0.1, 0.1, 0.1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.expected {
				t.Errorf("Overlaps() = %v, want %v", got, tt.expected)
			}
			if got := tt.b.Overlaps(tt.a); got != tt.expected {
				t.Errorf("Overlaps() is not symmetric")
			}
		})
	}
}

func TestAABBContainsPoint(t *testing.T) {
	box := unitBox(mgl64.Vec3{0, 0, 0})

	assert.True(t, box.ContainsPoint(mgl64.Vec3{0, 0, 0}))
	assert.True(t, box.ContainsPoint(mgl64.Vec3{1, 1, 1}), "corners are inside")
	assert.False(t, box.ContainsPoint(mgl64.Vec3{1.0001, 0, 0}))
	assert.False(t, box.ContainsPoint(mgl64.Vec3{0, -2, 0}))
}

func TestAABBExpandAndUnion(t *testing.T) {
	a := unitBox(mgl64.Vec3{0, 0, 0})
	b := unitBox(mgl64.Vec3{4, -3, 0})

	expanded := a.Expand(0.5)
	assert.Equal(t, mgl64.Vec3{-1.5, -1.5, -1.5}, expanded.Min)
	assert.Equal(t, mgl64.Vec3{1.5, 1.5, 1.5}, expanded.Max)

	union := a.Union(b)
	assert.Equal(t, mgl64.Vec3{-1, -4, -1}, union.Min)
	assert.Equal(t, mgl64.Vec3{5, 1, 1}, union.Max)
}

func TestAABBRayIntersect(t *testing.T) {
	box := unitBox(mgl64.Vec3{5, 0, 0})

	tests := []struct {
		name      string
		origin    mgl64.Vec3
		direction mgl64.Vec3
		maximumT  float64
		hit       bool
		tEnter    float64
		tExit     float64
	}{
		{"straight through", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 100, true, 4, 6},
		{"scaled direction", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}, 100, true, 2, 3},
		{"clipped by maximum", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 5, true, 4, 5},
		{"too short", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 3, false, 0, 0},
		{"miss above", mgl64.Vec3{0, 2, 0}, mgl64.Vec3{1, 0, 0}, 100, false, 0, 0},
		{"pointing away", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{-1, 0, 0}, 100, false, 0, 0},
		{"starting inside", mgl64.Vec3{5, 0, 0}, mgl64.Vec3{0, 1, 0}, 100, true, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tEnter, tExit, hit := box.RayIntersect(tt.origin, tt.direction, tt.maximumT)
			assert.Equal(t, tt.hit, hit)
			if tt.hit {
				assert.InDelta(t, tt.tEnter, tEnter, 1e-12)
				assert.InDelta(t, tt.tExit, tExit, 1e-12)
			}
		})
	}
}
