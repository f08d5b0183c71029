package gjk

import (
	"testing"

	"github.com/Swaelo/physcore/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func box(position, halfExtents mgl64.Vec3) Posed {
	return Posed{Shape: &actor.Box{HalfExtents: halfExtents}, Pose: actor.NewTransformAt(position, mgl64.QuatIdent())}
}

func sphere(position mgl64.Vec3, radius float64) Posed {
	return Posed{Shape: &actor.Sphere{Radius: radius}, Pose: actor.NewTransformAt(position, mgl64.QuatIdent())}
}

func TestMinkowskiSupport(t *testing.T) {
	a := box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1})
	b := box(mgl64.Vec3{5, 0, 0}, mgl64.Vec3{1, 1, 1})

	support := MinkowskiSupport(a, b, mgl64.Vec3{1, 0, 0})
	// furthest of A along +x is 1, furthest of B along -x is 4
	assert.InDelta(t, -3.0, support.X(), 1e-12)
}

func TestGJK(t *testing.T) {
	unit := mgl64.Vec3{1, 1, 1}
	rotated := Posed{
		Shape: &actor.Box{HalfExtents: unit},
		Pose:  actor.NewTransformAt(mgl64.Vec3{2.2, 0, 0}, mgl64.QuatRotate(0.785398, mgl64.Vec3{0, 0, 1})),
	}

	tests := []struct {
		name     string
		a, b     Convex
		expected bool
	}{
		{"overlapping spheres", sphere(mgl64.Vec3{0, 0, 0}, 1), sphere(mgl64.Vec3{1.5, 0, 0}, 1), true},
		{"separated spheres", sphere(mgl64.Vec3{0, 0, 0}, 1), sphere(mgl64.Vec3{2.5, 0, 0}, 1), false},
		{"concentric spheres", sphere(mgl64.Vec3{0, 0, 0}, 1), sphere(mgl64.Vec3{0, 0, 0}, 0.5), true},
		{"overlapping boxes", box(mgl64.Vec3{0, 0, 0}, unit), box(mgl64.Vec3{1.5, 1.5, 0}, unit), true},
		{"separated boxes", box(mgl64.Vec3{0, 0, 0}, unit), box(mgl64.Vec3{0, 3, 0}, unit), false},
		{"rotated box corner reaching in", box(mgl64.Vec3{0, 0, 0}, unit), rotated, true},
		{"sphere against box face", sphere(mgl64.Vec3{0, 1.9, 0}, 1), box(mgl64.Vec3{0, 0, 0}, unit), true},
		{"sphere near box corner", sphere(mgl64.Vec3{1.8, 1.8, 1.8}, 1), box(mgl64.Vec3{0, 0, 0}, unit), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			simplex := SimplexPool.Get().(*Simplex)
			defer SimplexPool.Put(simplex)
			simplex.Reset()

			assert.Equal(t, tt.expected, GJK(tt.a, tt.b, simplex))
		})
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name             string
		a, b             Convex
		marginA, marginB float64
		intersecting     bool
		distance         float64
		normal           mgl64.Vec3
	}{
		{
			name:     "sphere cores",
			a:        Point{Position: mgl64.Vec3{0, 0, 0}},
			b:        Point{Position: mgl64.Vec3{5, 0, 0}},
			marginA:  1,
			marginB:  0.5,
			distance: 3.5,
			normal:   mgl64.Vec3{1, 0, 0},
		},
		{
			name:     "boxes face to face",
			a:        box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}),
			b:        box(mgl64.Vec3{0, -4, 0}, mgl64.Vec3{1, 1, 1}),
			distance: 2,
			normal:   mgl64.Vec3{0, -1, 0},
		},
		{
			name:     "sphere core against box",
			a:        Point{Position: mgl64.Vec3{0, 0, 3}},
			b:        box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}),
			marginA:  0.5,
			distance: 1.5,
			normal:   mgl64.Vec3{0, 0, -1},
		},
		{
			name:     "point toward box edge",
			a:        Point{Position: mgl64.Vec3{2, 2, 0}},
			b:        box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}),
			distance: 1.4142135623730951,
			normal:   mgl64.Vec3{-1, -1, 0}.Normalize(),
		},
		{
			name:         "margins overlap",
			a:            Point{Position: mgl64.Vec3{0, 0, 0}},
			b:            Point{Position: mgl64.Vec3{1, 0, 0}},
			marginA:      0.6,
			marginB:      0.6,
			intersecting: true,
		},
		{
			name:         "cores overlap",
			a:            box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1}),
			b:            box(mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{1, 1, 1}),
			intersecting: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Distance(tt.a, tt.b, tt.marginA, tt.marginB)
			assert.Equal(t, tt.intersecting, result.Intersecting)
			if tt.intersecting {
				return
			}
			assert.InDelta(t, tt.distance, result.Distance, 1e-6)
			for i := 0; i < 3; i++ {
				assert.InDelta(t, tt.normal[i], result.Normal[i], 1e-6)
			}
			assert.InDelta(t, tt.distance, result.PointB.Sub(result.PointA).Len(), 1e-6)
		})
	}
}

func TestLine(t *testing.T) {
	t.Run("origin beside the segment", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{-1, 1, 0}, {1, 1, 0}}, Count: 2}
		direction := mgl64.Vec3{}

		assert.False(t, line(&simplex, &direction))
		assert.Equal(t, 2, simplex.Count)
		assert.Less(t, direction.Y(), 0.0)
	})

	t.Run("origin on the segment", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{-1, 0, 0}, {1, 0, 0}}, Count: 2}
		direction := mgl64.Vec3{}

		assert.True(t, line(&simplex, &direction))
	})

	t.Run("origin behind the newest point", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{3, 0, 0}, {1, 0, 0}}, Count: 2}
		direction := mgl64.Vec3{}

		assert.False(t, line(&simplex, &direction))
		assert.Equal(t, 1, simplex.Count)
		assert.Equal(t, mgl64.Vec3{1, 0, 0}, simplex.Points[0])
		assert.Equal(t, mgl64.Vec3{-1, 0, 0}, direction)
	})
}

func TestTriangle(t *testing.T) {
	t.Run("origin above the face", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{-1, -1, -1}, {1, -1, -1}, {0, 1, -1}}, Count: 3}
		direction := mgl64.Vec3{}

		assert.False(t, triangle(&simplex, &direction))
		assert.Equal(t, 3, simplex.Count)
		assert.Greater(t, direction.Z(), 0.0)
	})

	t.Run("collinear falls back to a segment", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{-2, 1, 0}, {-1, 1, 0}, {1, 1, 0}}, Count: 3}
		direction := mgl64.Vec3{}

		assert.False(t, triangle(&simplex, &direction))
		assert.LessOrEqual(t, simplex.Count, 2)
	})
}

func TestTetrahedron(t *testing.T) {
	t.Run("origin inside", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{1, -1, -1}, {-1, -1, -1}, {0, 1, -1}, {0, 0, 1}}, Count: 4}
		direction := mgl64.Vec3{}

		assert.True(t, tetrahedron(&simplex, &direction))
	})

	t.Run("origin outside", func(t *testing.T) {
		simplex := Simplex{Points: [4]mgl64.Vec3{{6, -1, -1}, {4, -1, -1}, {5, 1, -1}, {5, 0, 1}}, Count: 4}
		direction := mgl64.Vec3{}

		assert.False(t, tetrahedron(&simplex, &direction))
		assert.LessOrEqual(t, simplex.Count, 3)
		assert.Less(t, direction.X(), 0.0)
	})
}
