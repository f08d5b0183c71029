package physcore

import (
	"testing"

	"github.com/Swaelo/physcore/actor"
	"github.com/Swaelo/physcore/config"
	"github.com/Swaelo/physcore/sweep"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addStaticBox(sim *Simulation, position mgl64.Vec3, halfExtent float64) actor.CollidableReference {
	shape := &actor.Box{HalfExtents: mgl64.Vec3{halfExtent, halfExtent, halfExtent}}
	handle := sim.AddStatic(actor.NewStatic(actor.NewTransformAt(position, mgl64.QuatIdent()), shape))
	return actor.NewStaticReference(handle)
}

// rayRecorder keeps every hit it is given, optionally lowering maximumT to each of them
type rayRecorder struct {
	shrink bool
	ts     []float64
	hits   []actor.CollidableReference
}

func (r *rayRecorder) AllowTest(actor.CollidableReference) bool { return true }

func (r *rayRecorder) OnRayHit(ray RayData, maximumT *float64, t float64, normal mgl64.Vec3, collidable actor.CollidableReference) {
	r.ts = append(r.ts, t)
	r.hits = append(r.hits, collidable)
	if r.shrink {
		*maximumT = t
	}
}

// sweepRecorder rejects some children and keeps every hit
type sweepRecorder struct {
	skipChild int
	hits      []float64
	zeroHits  int
}

func (s *sweepRecorder) AllowTest(actor.CollidableReference) bool { return true }

func (s *sweepRecorder) AllowTestChild(_ actor.CollidableReference, childIndex int) bool {
	return childIndex != s.skipChild
}

func (s *sweepRecorder) OnHit(maximumT *float64, t float64, location, normal mgl64.Vec3, collidable actor.CollidableReference) {
	s.hits = append(s.hits, t)
}

func (s *sweepRecorder) OnHitAtZeroT(maximumT *float64, collidable actor.CollidableReference) {
	s.zeroHits++
}

func vec3InDelta(t *testing.T, expected, actual mgl64.Vec3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, expected[i], actual[i], delta, "component %d of %v", i, actual)
	}
}

// rowScene inserts the farthest box first
func rowScene(t *testing.T) (*Simulation, []actor.CollidableReference) {
	sim := newTestSimulation(t, config.FlushSequential, 1)
	far := addStaticBox(sim, mgl64.Vec3{20, 0, 0}, 0.5)
	near := addStaticBox(sim, mgl64.Vec3{5, 0, 0}, 0.5)
	middle := addStaticBox(sim, mgl64.Vec3{10, 0, 0}, 0.5)
	return sim, []actor.CollidableReference{near, middle, far}
}

func TestRayCastClosestHit(t *testing.T) {
	sim, row := rowScene(t)

	tests := []struct {
		name       string
		filter     func(actor.CollidableReference) bool
		maximumT   float64
		wantHit    bool
		wantT      float64
		collidable actor.CollidableReference
	}{
		{"nearest", nil, 100, true, 4.5, row[0]},
		{"filtered", func(c actor.CollidableReference) bool { return c != row[0] }, 100, true, 9.5, row[1]},
		{"too short", nil, 4, false, 0, actor.CollidableReference{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := sim.RayCast(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, tt.maximumT, &ClosestRayHit{Filter: tt.filter}, 0)
			closest := handler.(*ClosestRayHit)

			require.Equal(t, tt.wantHit, closest.Hit)
			if !tt.wantHit {
				return
			}
			assert.InDelta(t, tt.wantT, closest.T, 1e-9)
			vec3InDelta(t, mgl64.Vec3{-1, 0, 0}, closest.Normal, 1e-9)
			assert.Equal(t, tt.collidable, closest.Collidable)
		})
	}
}

func TestRayCastHitOrder(t *testing.T) {
	sim, row := rowScene(t)

	t.Run("every hit", func(t *testing.T) {
		recorder := sim.RayCast(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 100, &rayRecorder{}, 1).(*rayRecorder)
		assert.Equal(t, row, recorder.hits)
		require.Len(t, recorder.ts, 3)
		assert.InDeltaSlice(t, []float64{4.5, 9.5, 19.5}, recorder.ts, 1e-9)
	})

	t.Run("shrinking maximum t", func(t *testing.T) {
		recorder := sim.RayCast(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 100, &rayRecorder{shrink: true}, 2).(*rayRecorder)
		require.NotEmpty(t, recorder.ts)
		for i := 1; i < len(recorder.ts); i++ {
			assert.Less(t, recorder.ts[i], recorder.ts[i-1])
		}
		assert.Equal(t, row[0], recorder.hits[len(recorder.hits)-1])
	})

	t.Run("backwards", func(t *testing.T) {
		recorder := sim.RayCast(mgl64.Vec3{30, 0, 0}, mgl64.Vec3{-1, 0, 0}, 100, &rayRecorder{}, 3).(*rayRecorder)
		assert.Equal(t, []actor.CollidableReference{row[2], row[1], row[0]}, recorder.hits)
	})
}

func TestRayCastSeesBodiesAddedSinceLastStep(t *testing.T) {
	sim := newTestSimulation(t, config.FlushSequential, 1)
	sim.UpdateBroadPhase()
	addBox(sim, mgl64.Vec3{0, 3, 0}, 0.5)
	ground := addGround(sim)

	closest := sim.RayCast(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0, -1, 0}, 100, &ClosestRayHit{}, 0).(*ClosestRayHit)
	require.True(t, closest.Hit)
	assert.InDelta(t, 6.5, closest.T, 1e-9)
	assert.Equal(t, actor.NewDynamicReference(0), closest.Collidable)

	closest = sim.RayCast(mgl64.Vec3{5, 10, 0}, mgl64.Vec3{0, -1, 0}, 100, &ClosestRayHit{}, 0).(*ClosestRayHit)
	require.True(t, closest.Hit)
	assert.InDelta(t, 10, closest.T, 1e-9)
	assert.Equal(t, actor.NewStaticReference(ground), closest.Collidable)
}

func TestSweepClosestHit(t *testing.T) {
	sphere := &actor.Sphere{Radius: 1}
	moving := actor.BodyVelocity{Linear: mgl64.Vec3{1, 0, 0}}

	tests := []struct {
		name         string
		origin       mgl64.Vec3
		velocity     actor.BodyVelocity
		wantT        float64
		wantLocation mgl64.Vec3
		wantNormal   mgl64.Vec3
	}{
		{"box ahead", mgl64.Vec3{0, 0, 0}, moving, 3, mgl64.Vec3{4, 0, 0}, mgl64.Vec3{-1, 0, 0}},
		{"away from the origin", mgl64.Vec3{-100, 0, 0}, actor.BodyVelocity{Linear: mgl64.Vec3{50, 0, 0}}, 2.06, mgl64.Vec3{4, 0, 0}, mgl64.Vec3{-1, 0, 0}},
		{"ground below", mgl64.Vec3{-20, 5, 0}, actor.BodyVelocity{Linear: mgl64.Vec3{0, -1, 0}}, 5.5, mgl64.Vec3{-20, -1.5, 0}, mgl64.Vec3{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newTestSimulation(t, config.FlushSequential, 1)
			box := addStaticBox(sim, mgl64.Vec3{5, 0, 0}, 1)
			ground := actor.NewStaticReference(sim.AddStatic(actor.NewStatic(
				actor.NewTransformAt(mgl64.Vec3{0, -2, 0}, mgl64.QuatIdent()), &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: -0.5})))

			pose := actor.NewTransformAt(tt.origin, mgl64.QuatIdent())
			closest := sim.Sweep(sphere, pose, tt.velocity, 10, &ClosestSweepHit{}).(*ClosestSweepHit)

			require.True(t, closest.Hit)
			assert.InDelta(t, tt.wantT, closest.T, 1e-3)
			vec3InDelta(t, tt.wantLocation, closest.Location, 1e-2)
			vec3InDelta(t, tt.wantNormal, closest.Normal, 1e-3)
			if tt.wantNormal.Y() > 0 {
				assert.Equal(t, ground, closest.Collidable)
			} else {
				assert.Equal(t, box, closest.Collidable)
			}
		})
	}
}

func TestSweepOverlappingAtStart(t *testing.T) {
	sim := newTestSimulation(t, config.FlushSequential, 1)
	box := addStaticBox(sim, mgl64.Vec3{0.5, 0, 0}, 1)

	pose := actor.NewTransformAt(mgl64.Vec3{}, mgl64.QuatIdent())
	velocity := actor.BodyVelocity{Linear: mgl64.Vec3{1, 0, 0}}

	recorder := sim.Sweep(&actor.Sphere{Radius: 0.5}, pose, velocity, 10, &sweepRecorder{skipChild: -1}).(*sweepRecorder)
	assert.Equal(t, 1, recorder.zeroHits)
	assert.Empty(t, recorder.hits)

	closest := sim.Sweep(&actor.Sphere{Radius: 0.5}, pose, velocity, 10, &ClosestSweepHit{}).(*ClosestSweepHit)
	require.True(t, closest.Hit)
	assert.Zero(t, closest.T)
	assert.Equal(t, box, closest.Collidable)
}

func TestSweepCompoundTargetChildFilter(t *testing.T) {
	sim := newTestSimulation(t, config.FlushSequential, 1)
	half := mgl64.Vec3{0.5, 0.5, 0.5}
	sim.AddStatic(actor.NewStatic(actor.NewTransformAt(mgl64.Vec3{5, 0, 0}, mgl64.QuatIdent()), &actor.Compound{Children: []actor.CompoundChild{
		{Shape: &actor.Box{HalfExtents: half}, LocalPose: actor.NewTransformAt(mgl64.Vec3{-1, 0, 0}, mgl64.QuatIdent())},
		{Shape: &actor.Box{HalfExtents: half}, LocalPose: actor.NewTransformAt(mgl64.Vec3{4, 0, 0}, mgl64.QuatIdent())},
	}}))

	pose := actor.NewTransformAt(mgl64.Vec3{}, mgl64.QuatIdent())
	velocity := actor.BodyVelocity{Linear: mgl64.Vec3{1, 0, 0}}

	tests := []struct {
		name      string
		skipChild int
		wantT     float64
	}{
		{"all children", -1, 2.5},
		{"first child skipped", 0, 7.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := sim.Sweep(&actor.Sphere{Radius: 1}, pose, velocity, 20, &sweepRecorder{skipChild: tt.skipChild}).(*sweepRecorder)
			require.Len(t, recorder.hits, 1)
			assert.InDelta(t, tt.wantT, recorder.hits[0], 1e-3)
		})
	}
}

func TestSweepUnregisteredPairIsSkipped(t *testing.T) {
	sim := newTestSimulation(t, config.FlushSequential, 1)
	addStaticBox(sim, mgl64.Vec3{3, 0, 0}, 1)

	query := &actor.Compound{Children: []actor.CompoundChild{
		{Shape: &actor.Sphere{Radius: 0.5}, LocalPose: actor.NewTransform()},
	}}
	velocity := actor.BodyVelocity{Linear: mgl64.Vec3{1, 0, 0}}

	closest := sim.Sweep(query, actor.NewTransform(), velocity, 10, &ClosestSweepHit{}).(*ClosestSweepHit)
	assert.False(t, closest.Hit)

	sim.SweepTasks().Register(actor.ShapeTypeCompound, actor.ShapeTypeBox, func(a, b sweep.Body, maximumT float64, _ sweep.Settings, _ sweep.ChildFilter) sweep.Result {
		return sweep.Result{Hit: true, T0: 1, T1: 1, Normal: mgl64.Vec3{-1, 0, 0}}
	})
	closest = sim.Sweep(query, actor.NewTransform(), velocity, 10, &ClosestSweepHit{}).(*ClosestSweepHit)
	require.True(t, closest.Hit)
	assert.Equal(t, 1.0, closest.T)
}

func TestSweepWithSettings(t *testing.T) {
	sim := newTestSimulation(t, config.FlushSequential, 1)
	addStaticBox(sim, mgl64.Vec3{5, 0, 0}, 1)

	settings := sweep.Settings{MinimumProgression: 0.01, ConvergenceThreshold: 1e-6, MaximumIterations: 100}
	velocity := actor.BodyVelocity{Linear: mgl64.Vec3{1, 0, 0}}
	closest := sim.SweepWithSettings(&actor.Sphere{Radius: 1}, actor.NewTransform(), velocity, 10, settings, &ClosestSweepHit{}).(*ClosestSweepHit)

	require.True(t, closest.Hit)
	assert.InDelta(t, 3, closest.T, 1e-5)
}

func TestSweepBoundsIncludeRotation(t *testing.T) {
	box := &actor.Box{HalfExtents: mgl64.Vec3{2, 0.1, 0.1}}
	pose := actor.NewTransformAt(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent())

	still := sweepBounds(box, pose, actor.BodyVelocity{}, 1)
	assert.Equal(t, mgl64.Vec3{-1, -0.1, -0.1}, still.Min)
	assert.Equal(t, mgl64.Vec3{3, 0.1, 0.1}, still.Max)

	spinning := sweepBounds(box, pose, actor.BodyVelocity{Angular: mgl64.Vec3{0, 0, 10}}, 1)
	assert.Less(t, spinning.Min.Y(), -1.0)
	assert.Greater(t, spinning.Max.Y(), 1.0)
}
