package physcore

import (
	"math"

	"github.com/Swaelo/physcore/actor"
	"github.com/Swaelo/physcore/sweep"
	"github.com/go-gl/mathgl/mgl64"
)

// RayData describes the ray being tested, as passed to RayCast
type RayData struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
	MaximumT  float64
	ID        int
}

// RayHitHandler filters and receives the hits of a ray cast. OnRayHit may lower maximumT to
// stop the traversal from reporting farther hits.
type RayHitHandler interface {
	AllowTest(collidable actor.CollidableReference) bool
	OnRayHit(ray RayData, maximumT *float64, t float64, normal mgl64.Vec3, collidable actor.CollidableReference)
}

// SweepHitHandler filters and receives the hits of a shape sweep. Locations are in world space
// and normals point from the hit collidable toward the swept shape.
type SweepHitHandler interface {
	AllowTest(collidable actor.CollidableReference) bool
	AllowTestChild(collidable actor.CollidableReference, childIndex int) bool
	OnHit(maximumT *float64, t float64, location, normal mgl64.Vec3, collidable actor.CollidableReference)
	// OnHitAtZeroT is called instead of OnHit when the shapes already overlap at the start
	OnHitAtZeroT(maximumT *float64, collidable actor.CollidableReference)
}

type rayLeafTester struct {
	simulation *Simulation
	ray        RayData
	handler    RayHitHandler
}

func (r *rayLeafTester) TestLeaf(collidable actor.CollidableReference, maximumT *float64) {
	if !r.handler.AllowTest(collidable) {
		return
	}
	target := r.simulation.collidableState(collidable)
	hit, t, normal := target.shape.RayTest(target.pose, r.ray.Origin, r.ray.Direction, *maximumT)
	if hit && t < *maximumT {
		r.handler.OnRayHit(r.ray, maximumT, t, normal, collidable)
	}
}

// RayCast reports to handler every collidable origin + t*direction hits for t in [0, maximumT],
// nearest bounds first. The handler is returned with whatever state it accumulated.
func (s *Simulation) RayCast(origin, direction mgl64.Vec3, maximumT float64, handler RayHitHandler, id int) RayHitHandler {
	s.ensureBroadPhase()
	tester := &rayLeafTester{
		simulation: s,
		ray:        RayData{Origin: origin, Direction: direction, MaximumT: maximumT, ID: id},
		handler:    handler,
	}
	s.broadPhase.RayCast(origin, direction, maximumT, tester)
	return tester.handler
}

type sweepLeafTester struct {
	simulation *Simulation
	shape      actor.ShapeInterface
	pose       actor.Transform
	velocity   actor.BodyVelocity
	settings   sweep.Settings
	handler    SweepHitHandler
}

func (sw *sweepLeafTester) TestLeaf(collidable actor.CollidableReference, maximumT *float64) {
	if !sw.handler.AllowTest(collidable) {
		return
	}
	target := sw.simulation.collidableState(collidable)

	// The query sits at the origin so precision does not depend on where it is in the world
	query := sweep.Body{
		Shape:    sw.shape,
		Pose:     actor.NewTransformAt(mgl64.Vec3{}, sw.pose.Rotation),
		Velocity: sw.velocity,
	}
	targetBody := sweep.Body{
		Shape: target.shape,
		Pose:  actor.NewTransformAt(target.pose.Position.Sub(sw.pose.Position), target.pose.Rotation),
	}
	filter := sweep.ChildFilterFunc(func(childIndex int) bool {
		return sw.handler.AllowTestChild(collidable, childIndex)
	})

	result, ok := sw.simulation.sweepTasks.Sweep(query, targetBody, *maximumT, sw.settings, filter)
	if !ok || !result.Hit {
		return
	}
	if result.T1 > 0 {
		sw.handler.OnHit(maximumT, result.T1, result.Location.Add(sw.pose.Position), result.Normal, collidable)
	} else {
		sw.handler.OnHitAtZeroT(maximumT, collidable)
	}
}

// Sweep moves shape from pose with a constant velocity for maximumT and reports the collidables
// it would hit. Thresholds derive from the shape and its speed, overridden by the sweep config.
func (s *Simulation) Sweep(shape actor.ShapeInterface, pose actor.Transform, velocity actor.BodyVelocity,
	maximumT float64, handler SweepHitHandler) SweepHitHandler {
	settings := sweep.DefaultSettings(shape, velocity, maximumT)
	if s.config.Sweep.MinimumProgression > 0 {
		settings.MinimumProgression = s.config.Sweep.MinimumProgression
	}
	if s.config.Sweep.ConvergenceThreshold > 0 {
		settings.ConvergenceThreshold = s.config.Sweep.ConvergenceThreshold
	}
	if s.config.Sweep.MaximumIterations > 0 {
		settings.MaximumIterations = s.config.Sweep.MaximumIterations
	}
	return s.SweepWithSettings(shape, pose, velocity, maximumT, settings, handler)
}

// SweepWithSettings is Sweep with explicit advancement thresholds
func (s *Simulation) SweepWithSettings(shape actor.ShapeInterface, pose actor.Transform, velocity actor.BodyVelocity,
	maximumT float64, settings sweep.Settings, handler SweepHitHandler) SweepHitHandler {
	s.ensureBroadPhase()
	tester := &sweepLeafTester{
		simulation: s,
		shape:      shape,
		pose:       pose,
		velocity:   velocity,
		settings:   settings,
		handler:    handler,
	}
	s.broadPhase.Sweep(sweepBounds(shape, pose, velocity, maximumT), velocity.Linear, maximumT, tester)
	return tester.handler
}

// sweepBounds returns the bounds of the shape at pose, grown by how far rotation can move its surface
func sweepBounds(shape actor.ShapeInterface, pose actor.Transform, velocity actor.BodyVelocity, maximumT float64) actor.AABB {
	minimum, maximum := shape.ComputeBounds(pose.Rotation)
	maximumRadius, maximumAngularExpansion := shape.ComputeAngularExpansionData()
	expansion := math.Min(velocity.Angular.Len()*maximumT*maximumRadius, maximumAngularExpansion)

	bounds := actor.AABB{Min: pose.Position.Add(minimum), Max: pose.Position.Add(maximum)}
	return bounds.Expand(expansion)
}

// ClosestRayHit keeps the nearest hit of a ray cast. Filter, if set, rejects collidables.
type ClosestRayHit struct {
	Filter     func(collidable actor.CollidableReference) bool
	Hit        bool
	T          float64
	Normal     mgl64.Vec3
	Collidable actor.CollidableReference
}

func (h *ClosestRayHit) AllowTest(collidable actor.CollidableReference) bool {
	return h.Filter == nil || h.Filter(collidable)
}

func (h *ClosestRayHit) OnRayHit(_ RayData, maximumT *float64, t float64, normal mgl64.Vec3, collidable actor.CollidableReference) {
	h.Hit = true
	h.T = t
	h.Normal = normal
	h.Collidable = collidable
	*maximumT = t
}

// ClosestSweepHit keeps the earliest hit of a sweep. Filter, if set, rejects collidables.
type ClosestSweepHit struct {
	Filter     func(collidable actor.CollidableReference) bool
	Hit        bool
	T          float64
	Location   mgl64.Vec3
	Normal     mgl64.Vec3
	Collidable actor.CollidableReference
}

func (h *ClosestSweepHit) AllowTest(collidable actor.CollidableReference) bool {
	return h.Filter == nil || h.Filter(collidable)
}

func (h *ClosestSweepHit) AllowTestChild(actor.CollidableReference, int) bool {
	return true
}

func (h *ClosestSweepHit) OnHit(maximumT *float64, t float64, location, normal mgl64.Vec3, collidable actor.CollidableReference) {
	if h.Hit && t >= h.T {
		return
	}
	h.Hit = true
	h.T = t
	h.Location = location
	h.Normal = normal
	h.Collidable = collidable
	*maximumT = t
}

func (h *ClosestSweepHit) OnHitAtZeroT(maximumT *float64, collidable actor.CollidableReference) {
	if h.Hit && h.T == 0 {
		return
	}
	h.Hit = true
	h.T = 0
	h.Location = mgl64.Vec3{}
	h.Normal = mgl64.Vec3{}
	h.Collidable = collidable
	*maximumT = 0
}
