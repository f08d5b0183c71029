package physcore

import (
	"fmt"
	"log/slog"

	"github.com/Swaelo/physcore/actor"
	"github.com/Swaelo/physcore/config"
	"github.com/Swaelo/physcore/constraint"
	"github.com/Swaelo/physcore/sweep"
	"github.com/go-gl/mathgl/mgl64"
)

// Solver consumes the contact constraints at the end of every step
type Solver interface {
	Solve(dt float64, simulation *Simulation)
}

// Simulation owns the bodies and statics, the broad phase, the narrow phase and the contact
// constraints they produce. Constraints are solved by an external Solver, if any.
type Simulation struct {
	// Gravity acceleration (m/s², or N/kg)
	Gravity mgl64.Vec3
	Solver  Solver
	Events  Events

	config config.Config
	logger *slog.Logger

	bodies      []*actor.RigidBody
	freeBodies  []actor.BodyHandle
	statics     []*actor.Static
	freeStatics []actor.StaticHandle

	broadPhase      BroadPhase
	broadPhaseDirty bool

	constraints *constraint.Store
	pairCache   *PairCache
	narrowPhase *NarrowPhase
	sweepTasks  *sweep.Registry
}

// NewSimulation creates an empty simulation. A nil logger uses slog.Default().
func NewSimulation(cfg config.Config, logger *slog.Logger) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new simulation: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Simulation{
		Gravity:     mgl64.Vec3(cfg.Gravity),
		Events:      NewEvents(),
		config:      cfg,
		logger:      logger,
		broadPhase:  NewSpatialGrid(cfg.CellSize, cfg.CellCount),
		constraints: constraint.NewStore(logger),
		pairCache:   NewPairCache(),
		sweepTasks:  sweep.DefaultRegistry(),
	}
	constraint.RegisterContactConstraints(s.constraints)
	s.narrowPhase = newNarrowPhase(s.collidableState, s.constraints, s.pairCache, logger)

	return s, nil
}

// AddBody adds a rigid body and returns its handle. Handles of removed bodies are reused.
func (s *Simulation) AddBody(body *actor.RigidBody) actor.BodyHandle {
	s.broadPhaseDirty = true
	if n := len(s.freeBodies); n > 0 {
		handle := s.freeBodies[n-1]
		s.freeBodies = s.freeBodies[:n-1]
		s.bodies[handle] = body
		return handle
	}
	s.bodies = append(s.bodies, body)
	return actor.BodyHandle(len(s.bodies) - 1)
}

// RemoveBody removes a body and the contact constraints it takes part in
func (s *Simulation) RemoveBody(handle actor.BodyHandle) {
	if s.Body(handle) == nil {
		return
	}
	s.forget(actor.NewDynamicReference(handle))
	s.bodies[handle] = nil
	s.freeBodies = append(s.freeBodies, handle)
	s.broadPhaseDirty = true
}

// AddStatic adds a static collidable and returns its handle
func (s *Simulation) AddStatic(static *actor.Static) actor.StaticHandle {
	s.broadPhaseDirty = true
	if n := len(s.freeStatics); n > 0 {
		handle := s.freeStatics[n-1]
		s.freeStatics = s.freeStatics[:n-1]
		s.statics[handle] = static
		return handle
	}
	s.statics = append(s.statics, static)
	return actor.StaticHandle(len(s.statics) - 1)
}

// RemoveStatic removes a static and the contact constraints it takes part in
func (s *Simulation) RemoveStatic(handle actor.StaticHandle) {
	if s.Static(handle) == nil {
		return
	}
	s.forget(actor.NewStaticReference(handle))
	s.statics[handle] = nil
	s.freeStatics = append(s.freeStatics, handle)
	s.broadPhaseDirty = true
}

func (s *Simulation) forget(collidable actor.CollidableReference) {
	removed := s.pairCache.Forget(collidable)
	pairs := make([]actor.CollidablePair, 0, len(removed))
	for pair := range removed {
		pairs = append(pairs, pair)
	}
	sortPairs(pairs)

	for _, pair := range pairs {
		s.constraints.Remove(removed[pair].Handle())
		s.Events.emit(ContactRemovedEvent{Pair: pair})
	}
	if len(pairs) > 0 {
		s.logger.Debug("removed constraints of collidable", "collidable", collidable, "count", len(pairs))
	}
}

// Body returns the body of a handle, nil if it was removed
func (s *Simulation) Body(handle actor.BodyHandle) *actor.RigidBody {
	if handle < 0 || int(handle) >= len(s.bodies) {
		return nil
	}
	return s.bodies[handle]
}

// Static returns the static of a handle, nil if it was removed
func (s *Simulation) Static(handle actor.StaticHandle) *actor.Static {
	if handle < 0 || int(handle) >= len(s.statics) {
		return nil
	}
	return s.statics[handle]
}

func (s *Simulation) Constraints() *constraint.Store { return s.constraints }
func (s *Simulation) PairCache() *PairCache         { return s.pairCache }
func (s *Simulation) SweepTasks() *sweep.Registry    { return s.sweepTasks }
func (s *Simulation) Config() config.Config         { return s.config }

// collidableState resolves a reference to the shape, pose and material it currently has
func (s *Simulation) collidableState(ref actor.CollidableReference) collidableState {
	if ref.Mobility() == actor.CollidableDynamic {
		body := s.bodies[ref.BodyHandle()]
		return collidableState{shape: body.Shape, pose: body.Transform, material: body.Material}
	}
	static := s.statics[ref.StaticHandle()]
	return collidableState{shape: static.Shape, pose: static.Transform, material: static.Material}
}

// bounds returns the current world bounds of a collidable
func (s *Simulation) bounds(ref actor.CollidableReference) actor.AABB {
	if ref.Mobility() == actor.CollidableDynamic {
		return s.bodies[ref.BodyHandle()].AABB()
	}
	return s.statics[ref.StaticHandle()].AABB()
}

// UpdateBroadPhase reinserts every collidable with its current bounds. Step calls it, queries
// run between steps use the bounds of the last one unless bodies were added or moved by hand.
func (s *Simulation) UpdateBroadPhase() {
	s.broadPhase.Clear()
	for handle, static := range s.statics {
		if static != nil {
			s.broadPhase.Insert(actor.NewStaticReference(actor.StaticHandle(handle)), static.AABB())
		}
	}
	for handle, body := range s.bodies {
		if body != nil {
			body.UpdateBounds()
			s.broadPhase.Insert(actor.NewDynamicReference(actor.BodyHandle(handle)), body.AABB())
		}
	}
	if grid, ok := s.broadPhase.(*SpatialGrid); ok {
		grid.SortCells()
	}
	s.broadPhaseDirty = false
}

func (s *Simulation) ensureBroadPhase() {
	if s.broadPhaseDirty {
		s.UpdateBroadPhase()
	}
}

// Step integrates the bodies, refreshes the contact constraints and hands them to the solver
func (s *Simulation) Step(dt float64) {
	workers := max(config.DefaultWorkers, s.config.Workers)

	s.integrate(dt, workers)
	s.UpdateBroadPhase()

	s.narrowPhase.Process(s.broadPhase.FindPairs(workers), workers)
	stats := s.narrowPhase.Flush(s.config.FlushMode)
	added, removed := s.pairCache.Swap()
	s.Events.recordPairChanges(s.pairCache, added, removed)

	s.logger.Debug("step",
		"dt", dt,
		"updated", stats.Updated,
		"added", stats.Added,
		"removed", stats.Removed,
		"constraints", s.constraints.ConstraintCount(),
		"batches", s.constraints.BatchCount())

	s.Events.flush()

	if s.Solver != nil {
		s.Solver.Solve(dt, s)
	}
}

func (s *Simulation) integrate(dt float64, workers int) {
	task(workers, s.bodies, func(body *actor.RigidBody) {
		if body != nil {
			body.Integrate(dt, s.Gravity)
		}
	})
}
