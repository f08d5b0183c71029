package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec3ApproxEqual(a, b mgl64.Vec3, epsilon float64) bool {
	return math.Abs(a.X()-b.X()) < epsilon &&
		math.Abs(a.Y()-b.Y()) < epsilon &&
		math.Abs(a.Z()-b.Z()) < epsilon
}

func TestShapeTypeString(t *testing.T) {
	assert.Equal(t, "sphere", ShapeTypeSphere.String())
	assert.Equal(t, "box", ShapeTypeBox.String())
	assert.Equal(t, "plane", ShapeTypePlane.String())
	assert.Equal(t, "compound", ShapeTypeCompound.String())
	assert.Equal(t, "unknown", ShapeTypeCount.String())
}

func TestBoxComputeInertia(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}
	mass := box.ComputeMass(1)
	assert.InDelta(t, 48.0, mass, 1e-12)

	inertia := box.ComputeInertia(mass)
	// (m/12)(d1² + d2²) with full dimensions 2, 4, 6
	assert.InDelta(t, 4*(16+36), inertia.At(0, 0), 1e-9)
	assert.InDelta(t, 4*(4+36), inertia.At(1, 1), 1e-9)
	assert.InDelta(t, 4*(4+16), inertia.At(2, 2), 1e-9)
}

func TestSphereComputeInertia(t *testing.T) {
	sphere := &Sphere{Radius: 2}
	inertia := sphere.ComputeInertia(10)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 16.0, inertia.At(i, i), 1e-12)
	}
	assert.InDelta(t, 4.0/3.0*math.Pi*8, sphere.ComputeMass(1), 1e-12)
}

func TestBoxComputeBoundsWithRotation(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}

	min, max := box.ComputeBounds(mgl64.QuatIdent())
	assert.True(t, vec3ApproxEqual(min, mgl64.Vec3{-1, -1, -1}, 1e-12))
	assert.True(t, vec3ApproxEqual(max, mgl64.Vec3{1, 1, 1}, 1e-12))

	min, max = box.ComputeBounds(mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}))
	assert.InDelta(t, math.Sqrt2, max.X(), 1e-9)
	assert.InDelta(t, math.Sqrt2, max.Y(), 1e-9)
	assert.InDelta(t, 1.0, max.Z(), 1e-9)
	assert.InDelta(t, -math.Sqrt2, min.X(), 1e-9)
}

func TestAngularExpansionData(t *testing.T) {
	tests := []struct {
		name          string
		shape         ShapeInterface
		maximumRadius float64
		expansion     float64
	}{
		{"sphere never expands", &Sphere{Radius: 2}, 2, 0},
		{"cube", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, math.Sqrt(3), math.Sqrt(3) - 1},
		{"flat box", &Box{HalfExtents: mgl64.Vec3{2, 0.5, 2}}, 2.8722813232690143, 2.8722813232690143 - 0.5},
		{"compound", &Compound{Children: []CompoundChild{
			{Shape: &Sphere{Radius: 1}, LocalPose: NewTransformAt(mgl64.Vec3{2, 0, 0}, mgl64.QuatIdent())},
		}}, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maximumRadius, expansion := tt.shape.ComputeAngularExpansionData()
			assert.InDelta(t, tt.maximumRadius, maximumRadius, 1e-9)
			assert.InDelta(t, tt.expansion, expansion, 1e-9)
		})
	}
}

func TestBoxSupportWithRotation(t *testing.T) {
	body := NewRigidBody(NewTransformAt(mgl64.Vec3{0, 0, 0}, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})),
		&Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, 1)

	support := body.SupportWorld(mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, math.Sqrt2, support.X(), 1e-9)
}

func TestBoxGetContactFeature(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}

	feature := box.GetContactFeature(mgl64.Vec3{0.1, -1, 0.2})
	require.Len(t, feature, 4)
	for _, vertex := range feature {
		assert.Equal(t, -2.0, vertex.Y())
	}
}

func TestShapeRayTest(t *testing.T) {
	identity := NewTransform()
	offset := NewTransformAt(mgl64.Vec3{5, 0, 0}, mgl64.QuatIdent())
	turned := NewTransformAt(mgl64.Vec3{5, 0, 0}, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1}))
	compound := &Compound{Children: []CompoundChild{
		{Shape: &Sphere{Radius: 1}, LocalPose: NewTransformAt(mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent())},
		{Shape: &Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}}, LocalPose: NewTransformAt(mgl64.Vec3{-3, 0, 0}, mgl64.QuatIdent())},
	}}

	tests := []struct {
		name      string
		shape     ShapeInterface
		pose      Transform
		origin    mgl64.Vec3
		direction mgl64.Vec3
		maximumT  float64
		hit       bool
		t         float64
		normal    mgl64.Vec3
	}{
		{"sphere hit", &Sphere{Radius: 1}, offset, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 10, true, 4, mgl64.Vec3{-1, 0, 0}},
		{"sphere scaled direction", &Sphere{Radius: 1}, offset, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}, 10, true, 2, mgl64.Vec3{-1, 0, 0}},
		{"sphere beyond maximum", &Sphere{Radius: 1}, offset, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 3, false, 0, mgl64.Vec3{}},
		{"sphere miss", &Sphere{Radius: 1}, offset, mgl64.Vec3{0, 2, 0}, mgl64.Vec3{1, 0, 0}, 10, false, 0, mgl64.Vec3{}},
		{"sphere from inside", &Sphere{Radius: 1}, offset, mgl64.Vec3{5, 0, 0}, mgl64.Vec3{0, 1, 0}, 10, true, 0, mgl64.Vec3{0, -1, 0}},
		{"box hit", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, offset, mgl64.Vec3{5, 10, 0}, mgl64.Vec3{0, -1, 0}, 20, true, 9, mgl64.Vec3{0, 1, 0}},
		{"rotated box face", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, turned, mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{1, 0, 0}, 10, true, 5.5 - math.Sqrt2, mgl64.Vec3{-math.Sqrt2 / 2, math.Sqrt2 / 2, 0}},
		{"box pointing away", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, offset, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{-1, 0, 0}, 10, false, 0, mgl64.Vec3{}},
		{"plane from above", &Plane{Normal: mgl64.Vec3{0, 1, 0}}, identity, mgl64.Vec3{0, 4, 0}, mgl64.Vec3{0, -2, 0}, 10, true, 2, mgl64.Vec3{0, 1, 0}},
		{"plane parallel", &Plane{Normal: mgl64.Vec3{0, 1, 0}}, identity, mgl64.Vec3{0, 4, 0}, mgl64.Vec3{1, 0, 0}, 10, false, 0, mgl64.Vec3{}},
		{"plane from below", &Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: 1}, identity, mgl64.Vec3{0, -2, 0}, mgl64.Vec3{1, 0, 0}, 10, true, 0, mgl64.Vec3{0, 1, 0}},
		{"compound closest child", compound, offset, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 10, true, 1.5, mgl64.Vec3{-1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, rayT, normal := tt.shape.RayTest(tt.pose, tt.origin, tt.direction, tt.maximumT)
			require.Equal(t, tt.hit, hit)
			if !tt.hit {
				return
			}
			assert.InDelta(t, tt.t, rayT, 1e-9)
			if !vec3ApproxEqual(normal, tt.normal, 1e-9) {
				t.Errorf("normal = %v, want %v", normal, tt.normal)
			}
		})
	}
}

func TestCompoundBoundsAndInertia(t *testing.T) {
	compound := &Compound{Children: []CompoundChild{
		{Shape: &Sphere{Radius: 1}, LocalPose: NewTransformAt(mgl64.Vec3{2, 0, 0}, mgl64.QuatIdent())},
		{Shape: &Sphere{Radius: 1}, LocalPose: NewTransformAt(mgl64.Vec3{-2, 0, 0}, mgl64.QuatIdent())},
	}}

	min, max := compound.ComputeBounds(mgl64.QuatIdent())
	assert.True(t, vec3ApproxEqual(min, mgl64.Vec3{-3, -1, -1}, 1e-12))
	assert.True(t, vec3ApproxEqual(max, mgl64.Vec3{3, 1, 1}, 1e-12))

	min, max = compound.ComputeBounds(mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))
	assert.True(t, vec3ApproxEqual(min, mgl64.Vec3{-1, -3, -1}, 1e-9))
	assert.True(t, vec3ApproxEqual(max, mgl64.Vec3{1, 3, 1}, 1e-9))

	inertia := compound.ComputeInertia(2)
	// Each sphere: 2/5 * 1 * 1 plus 1 * 2² off axis
	assert.InDelta(t, 0.8, inertia.At(0, 0), 1e-9)
	assert.InDelta(t, 0.8+8, inertia.At(1, 1), 1e-9)

	support := compound.Support(mgl64.Vec3{1, 0, 0})
	assert.True(t, vec3ApproxEqual(support, mgl64.Vec3{3, 0, 0}, 1e-12))
}
