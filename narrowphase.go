package physcore

import (
	"log/slog"
	"slices"

	"github.com/Swaelo/physcore/actor"
	"github.com/Swaelo/physcore/config"
	"github.com/Swaelo/physcore/constraint"
	"github.com/Swaelo/physcore/epa"
	"github.com/Swaelo/physcore/gjk"
)

// collidableState is a collidable resolved for one frame
type collidableState struct {
	shape    actor.ShapeInterface
	pose     actor.Transform
	material actor.Material
}

type pairUpdate struct {
	pair   actor.CollidablePair
	typeID int
	cache  constraint.ConstraintCache
}

// narrowPhaseWorker owns everything one worker produces during a step
type narrowPhaseWorker struct {
	pending [][]constraint.PendingConstraint
	updates []pairUpdate
}

// FlushStats summarizes what a flush did to the constraint store
type FlushStats struct {
	Updated int
	Added   int
	Removed int
}

// NarrowPhase turns broad phase pairs into contact manifolds and keeps one contact
// constraint per touching pair, carrying impulses over through feature ids.
type NarrowPhase struct {
	resolve     func(ref actor.CollidableReference) collidableState
	constraints *constraint.Store
	pairCache   *PairCache
	workers     []narrowPhaseWorker
	logger      *slog.Logger
}

var _ constraint.ConstraintUpdater = (*NarrowPhase)(nil)

func newNarrowPhase(resolve func(ref actor.CollidableReference) collidableState, constraints *constraint.Store,
	pairCache *PairCache, logger *slog.Logger) *NarrowPhase {
	return &NarrowPhase{
		resolve:     resolve,
		constraints: constraints,
		pairCache:   pairCache,
		logger:      logger,
	}
}

// prepare resets the worker buffers, keeping their capacity
func (np *NarrowPhase) prepare(workersCount int) {
	for len(np.workers) < workersCount {
		np.workers = append(np.workers, narrowPhaseWorker{})
	}
	np.workers = np.workers[:workersCount]
	for w := range np.workers {
		worker := &np.workers[w]
		for len(worker.pending) < np.constraints.TypeCount() {
			worker.pending = append(worker.pending, nil)
		}
		for typeID := range worker.pending {
			worker.pending[typeID] = worker.pending[typeID][:0]
		}
		worker.updates = worker.updates[:0]
	}
}

// Process collides every pair of the channel on workersCount goroutines
func (np *NarrowPhase) Process(pairs <-chan actor.CollidablePair, workersCount int) {
	workersCount = max(1, workersCount)
	np.prepare(workersCount)
	fanOut(workersCount, pairs, np.handlePair)
}

func (np *NarrowPhase) handlePair(worker int, pair actor.CollidablePair) {
	a := np.resolve(pair.A)
	b := np.resolve(pair.B)

	manifold, ok := np.collide(a, b)
	if !ok {
		return
	}

	twoBody := pair.B.Mobility() == actor.CollidableDynamic
	typeID := constraint.ContactTypeID(manifold.Convex(), twoBody, manifold.ContactCount())
	accessor := np.constraints.Accessor(typeID)
	if accessor == nil {
		np.logger.Warn("no constraint type for manifold", "a", pair.A, "b", pair.B, "convex", manifold.Convex(), "contacts", manifold.ContactCount())
		return
	}

	var handles constraint.BodyHandles = constraint.OneBodyHandles{A: pair.A.BodyHandle()}
	if twoBody {
		handles = constraint.TwoBodyHandles{A: pair.A.BodyHandle(), B: pair.B.BodyHandle()}
	}
	accessor.UpdateConstraintForManifold(np, worker, pair, manifold, constraint.NewPairMaterial(a.material, b.material), handles)
}

// UpdateConstraint updates the constraint of a pair in place when its type did not change, and
// queues a new one otherwise. Contacts whose feature id existed last frame keep their impulse.
func (np *NarrowPhase) UpdateConstraint(accessor constraint.ContactConstraintAccessor, workerIndex int, pair actor.CollidablePair,
	cache constraint.ConstraintCache, description any, bodyHandles constraint.BodyHandles) {
	worker := &np.workers[workerIndex]
	typeID := accessor.TypeID()
	var newImpulses [constraint.MaximumContactCount]float64

	previous, found := np.pairCache.Previous(pair)
	if found {
		var oldImpulses [constraint.MaximumContactCount]float64
		oldRef := np.constraints.Reference(previous.Handle())
		np.constraints.Accessor(previous.TypeID).GatherOldImpulses(oldRef, oldImpulses[:])
		correlateImpulses(cache.Features(), previous.Cache.Features(), oldImpulses[:], newImpulses[:])

		if previous.TypeID == typeID {
			oldRef.TypeBatch.SetDescription(oldRef.IndexInTypeBatch, description)
			accessor.ScatterNewImpulses(oldRef, newImpulses[:])
			cache.SetConstraintHandle(previous.Handle())
			worker.updates = append(worker.updates, pairUpdate{pair: pair, typeID: typeID, cache: cache})
			return
		}
	}

	worker.pending[typeID] = append(worker.pending[typeID], constraint.PendingConstraint{
		Pair:        pair,
		BodyHandles: bodyHandles,
		Description: description,
		Cache:       cache,
		Impulses:    newImpulses,
	})
}

// correlateImpulses copies the old impulse of every new contact whose feature id is found in the old cache
func correlateImpulses(newFeatures, oldFeatures []int32, oldImpulses, newImpulses []float64) {
	for i, id := range newFeatures {
		newImpulses[i] = 0
		for j, oldID := range oldFeatures {
			if id == oldID {
				newImpulses[i] = oldImpulses[j]
				break
			}
		}
	}
}

// Flush applies the work of every worker to the constraint store: in place updates are recorded,
// constraints of pairs that stopped touching (or changed type) are removed, then new ones are added.
func (np *NarrowPhase) Flush(mode config.FlushMode) FlushStats {
	var stats FlushStats
	for w := range np.workers {
		for _, update := range np.workers[w].updates {
			np.pairCache.Update(update.pair, update.typeID, update.cache)
			stats.Updated++
		}
	}

	for _, pair := range np.pairCache.Stale() {
		entry, _ := np.pairCache.Previous(pair)
		np.constraints.Remove(entry.Handle())
		np.logger.Debug("stale constraint removed", "a", pair.A, "b", pair.B, "constraint", entry.Handle())
		stats.Removed++
	}

	lists := make([][]constraint.PendingConstraint, len(np.workers))
	for typeID := 0; typeID < np.constraints.TypeCount(); typeID++ {
		accessor := np.constraints.Accessor(typeID)
		if accessor == nil {
			continue
		}
		for w := range np.workers {
			if typeID < len(np.workers[w].pending) {
				lists[w] = np.workers[w].pending[typeID]
			} else {
				lists[w] = nil
			}
			stats.Added += len(lists[w])
		}

		switch mode {
		case config.FlushDeterministic:
			if targets := deterministicTargets(lists); len(targets) > 0 {
				accessor.DeterministicallyAdd(targets, lists, np.constraints, np.pairCache)
			}
		case config.FlushSpeculative:
			for _, list := range lists {
				if len(list) == 0 {
					continue
				}
				batches := make([]int, len(list))
				for i := range list {
					batches[i] = np.constraints.FindCandidateBatch(list[i].BodyHandles)
				}
				accessor.FlushWithSpeculativeBatches(list, typeID, batches, np.constraints, np.pairCache)
			}
		default:
			for _, list := range lists {
				if len(list) > 0 {
					accessor.FlushSequentially(list, typeID, np.constraints, np.pairCache)
				}
			}
		}
	}

	return stats
}

// deterministicTargets orders the pending constraints of all workers by pair, so the result
// does not depend on which worker handled which pair
func deterministicTargets(lists [][]constraint.PendingConstraint) []constraint.PendingTarget {
	var targets []constraint.PendingTarget
	for w, list := range lists {
		for i := range list {
			targets = append(targets, constraint.PendingTarget{WorkerIndex: w, Index: i})
		}
	}
	slices.SortFunc(targets, func(a, b constraint.PendingTarget) int {
		pairA := lists[a.WorkerIndex][a.Index].Pair
		pairB := lists[b.WorkerIndex][b.Index].Pair
		switch {
		case pairA.Less(pairB):
			return -1
		case pairB.Less(pairA):
			return 1
		}
		return 0
	})
	return targets
}

// collide builds the manifold of two collidables, reporting false when they do not touch
func (np *NarrowPhase) collide(a, b collidableState) (constraint.ContactManifold, bool) {
	typeA, typeB := a.shape.Type(), b.shape.Type()
	switch {
	case typeA == actor.ShapeTypePlane && typeB == actor.ShapeTypePlane:
		return nil, false
	case typeA == actor.ShapeTypeCompound || typeB == actor.ShapeTypeCompound:
		return np.collideCompound(a, b)
	}

	manifold, ok := np.collidePrimitive(a, b)
	if !ok {
		return nil, false
	}
	return &manifold, true
}

func (np *NarrowPhase) collidePrimitive(a, b collidableState) (constraint.ConvexContactManifold, bool) {
	if a.shape.Type() == actor.ShapeTypePlane || b.shape.Type() == actor.ShapeTypePlane {
		return collidePlane(a, b)
	}
	return np.collideConvex(a, b)
}

// collideConvex runs GJK then EPA and clips the touching features
func (np *NarrowPhase) collideConvex(a, b collidableState) (constraint.ConvexContactManifold, bool) {
	posedA := gjk.Posed{Shape: a.shape, Pose: a.pose}
	posedB := gjk.Posed{Shape: b.shape, Pose: b.pose}

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	if !gjk.GJK(posedA, posedB, simplex) {
		return constraint.ConvexContactManifold{}, false
	}

	penetration, err := epa.Penetrate(posedA, posedB, simplex)
	if err != nil {
		// The estimate is still usable, only less precise
		np.logger.Debug("penetration estimate", "error", err, "depth", penetration.Depth)
	}
	if penetration.Depth <= 0 {
		return constraint.ConvexContactManifold{}, false
	}

	manifold := epa.Manifold(posedA, posedB, penetration)
	return manifold, manifold.Count > 0
}

// collidePlane builds contacts analytically from the feature of the other shape facing the plane.
// Feature ids are taken in the local space of the non plane collidable.
func collidePlane(a, b collidableState) (constraint.ConvexContactManifold, bool) {
	planeState, object := b, a
	planeIsA := a.shape.Type() == actor.ShapeTypePlane
	if planeIsA {
		planeState, object = a, b
	}
	plane := planeState.shape.(*actor.Plane)

	normal := planeState.pose.Rotation.Rotate(plane.Normal)
	surface := planeState.pose.TransformPoint(plane.Normal.Mul(-plane.Distance))
	feature := object.shape.GetContactFeature(object.pose.Rotation.Conjugate().Rotate(normal.Mul(-1)))

	manifold := constraint.ConvexContactManifold{
		OffsetB: b.pose.Position.Sub(a.pose.Position),
		Normal:  normal,
	}
	if planeIsA {
		manifold.Normal = normal.Mul(-1)
	}

	radius, _ := object.shape.ComputeAngularExpansionData()
	scale := max(radius, 1e-3)
	for _, point := range feature {
		world := object.pose.TransformPoint(point)
		depth := -normal.Dot(world.Sub(surface))
		if depth <= 0 {
			continue
		}
		position := world.Add(normal.Mul(depth / 2))
		if !manifold.Add(position.Sub(a.pose.Position), depth, epa.FeatureID(object.pose, position, scale)) {
			break
		}
	}
	return manifold, manifold.Count > 0
}

// compoundPart is one convex piece of a collidable with its index among the compound children
type compoundPart struct {
	state  collidableState
	index  int
	bounds actor.AABB
}

func compoundParts(state collidableState) []compoundPart {
	compound, ok := state.shape.(*actor.Compound)
	if !ok {
		return []compoundPart{{state: state, bounds: actor.ComputeAABB(state.shape, state.pose)}}
	}

	parts := make([]compoundPart, len(compound.Children))
	for i, child := range compound.Children {
		pose := compound.ChildPose(state.pose, i)
		parts[i] = compoundPart{
			state:  collidableState{shape: child.Shape, pose: pose, material: state.material},
			index:  i,
			bounds: actor.ComputeAABB(child.Shape, pose),
		}
	}
	return parts
}

// collideCompound collides every overlapping pair of children into a nonconvex manifold.
// A single contact is reported as a convex manifold.
func (np *NarrowPhase) collideCompound(a, b collidableState) (constraint.ContactManifold, bool) {
	manifold := &constraint.NonconvexContactManifold{OffsetB: b.pose.Position.Sub(a.pose.Position)}

	partsB := compoundParts(b)
	for _, partA := range compoundParts(a) {
		for _, partB := range partsB {
			if !partA.bounds.Overlaps(partB.bounds) {
				continue
			}
			childManifold, ok := np.collidePrimitive(partA.state, partB.state)
			if !ok {
				continue
			}

			childOffset := partA.state.pose.Position.Sub(a.pose.Position)
			for i := 0; i < childManifold.Count; i++ {
				contact := childManifold.Contacts[i]
				manifold.Add(constraint.NonconvexContact{
					Offset:    childOffset.Add(contact.Offset),
					Normal:    childManifold.Normal,
					Depth:     contact.Depth,
					FeatureID: childFeatureID(contact.FeatureID, partA.index, partB.index),
				})
			}
		}
	}

	switch manifold.Count {
	case 0:
		return nil, false
	case 1:
		contact := manifold.Contacts[0]
		convex := &constraint.ConvexContactManifold{OffsetB: manifold.OffsetB, Normal: contact.Normal}
		convex.Add(contact.Offset, contact.Depth, contact.FeatureID)
		return convex, true
	}
	return manifold, true
}

// childFeatureID keeps feature ids of different child pairs apart
func childFeatureID(id int32, childA, childB int) int32 {
	return epa.MixFeature(id, int32(childA), int32(childB))
}

