package constraint

import (
	"fmt"
	"unsafe"

	"github.com/Swaelo/physcore/actor"
)

// BodyHandles lists the bodies a constraint acts on
type BodyHandles interface {
	BodyCount() int
	Handle(index int) actor.BodyHandle
}

// OneBodyHandles is used when collidable B is static
type OneBodyHandles struct {
	A actor.BodyHandle
}

func (h OneBodyHandles) BodyCount() int                    { return 1 }
func (h OneBodyHandles) Handle(index int) actor.BodyHandle { return h.A }

type TwoBodyHandles struct {
	A actor.BodyHandle
	B actor.BodyHandle
}

func (h TwoBodyHandles) BodyCount() int { return 2 }
func (h TwoBodyHandles) Handle(index int) actor.BodyHandle {
	if index == 0 {
		return h.A
	}
	return h.B
}

// ConstraintReference locates a constraint inside its type batch
type ConstraintReference struct {
	TypeBatch        TypeBatch
	IndexInTypeBatch int
}

// PendingConstraint is a new constraint collected by a narrow phase worker, waiting for a flush
type PendingConstraint struct {
	Pair        actor.CollidablePair
	BodyHandles BodyHandles
	Description any
	Cache       ConstraintCache
	Impulses    [MaximumContactCount]float64
}

// PendingTarget points at a pending constraint inside one worker's list
type PendingTarget struct {
	WorkerIndex int
	Index       int
}

// ConstraintUpdater is the narrow phase routine that either updates the existing constraint
// of a pair in place or queues a new one, correlating feature ids with the previous frame.
type ConstraintUpdater interface {
	UpdateConstraint(accessor ContactConstraintAccessor, workerIndex int, pair actor.CollidablePair,
		cache ConstraintCache, description any, bodyHandles BodyHandles)
}

// ConstraintAdder stores new constraints
type ConstraintAdder interface {
	AddConstraint(typeID int, bodyHandles BodyHandles, description any) ConstraintHandle
	AddConstraintToBatch(batchIndex, typeID int, bodyHandles BodyHandles, description any) ConstraintHandle
	Reference(handle ConstraintHandle) ConstraintReference
}

// PairCacheWriter records the constraint created for a pair
type PairCacheWriter interface {
	CompleteConstraintAdd(pair actor.CollidablePair, typeID int, cache ConstraintCache, handle ConstraintHandle)
}

// ContactConstraintAccessor converts manifolds of one contact constraint type into
// descriptions and moves accumulated impulses in and out of that type's lane bundles.
type ContactConstraintAccessor interface {
	TypeID() int
	ContactCount() int
	Convex() bool
	BodyCount() int
	// BundleStride is the number of lane groups in one accumulated impulse bundle
	BundleStride() int
	CreateTypeBatch() TypeBatch

	GatherOldImpulses(ref ConstraintReference, oldImpulses []float64)
	ScatterNewImpulses(ref ConstraintReference, newImpulses []float64)

	DeterministicallyAdd(targets []PendingTarget, workers [][]PendingConstraint, adder ConstraintAdder, pairCache PairCacheWriter)
	FlushSequentially(list []PendingConstraint, typeID int, adder ConstraintAdder, pairCache PairCacheWriter)
	FlushWithSpeculativeBatches(list []PendingConstraint, typeID int, speculativeBatchIndices []int, adder ConstraintAdder, pairCache PairCacheWriter)
	UpdateConstraintForManifold(updater ConstraintUpdater, workerIndex int, pair actor.CollidablePair,
		manifold ContactManifold, material PairMaterial, bodyHandles BodyHandles)
}

// accessorLayout holds the facts fixed when a constraint type is registered
type accessorLayout struct {
	typeID       int
	contactCount int
	convex       bool
	bodyCount    int
	stride       int
}

func (l *accessorLayout) TypeID() int       { return l.typeID }
func (l *accessorLayout) ContactCount() int { return l.contactCount }
func (l *accessorLayout) Convex() bool      { return l.convex }
func (l *accessorLayout) BodyCount() int    { return l.bodyCount }
func (l *accessorLayout) BundleStride() int { return l.stride }

// newAccessorLayout derives the layout from the type parameters and panics when the
// description, cache and impulse types disagree. A mismatch means the type wiring is broken.
func newAccessorLayout[C any, PC constraintCachePtr[C], I AccumulatedImpulses](typeID, descriptionContacts int, convex bool, bodyCount int) accessorLayout {
	var impulses I
	var cache C

	contactCount := impulses.ContactCount()
	if contactCount < 1 || contactCount > MaximumContactCount {
		panic(fmt.Sprintf("constraint type %d: impulse type %T declares %d contacts", typeID, impulses, contactCount))
	}
	if impulses.Convex() != convex {
		panic(fmt.Sprintf("constraint type %d: impulse type %T convexity does not match the description", typeID, impulses))
	}
	if descriptionContacts != contactCount {
		panic(fmt.Sprintf("constraint type %d: description holds %d contacts, impulse type %T holds %d",
			typeID, descriptionContacts, impulses, contactCount))
	}

	expectedLanes := NonconvexLanesPerContact * contactCount
	if convex {
		expectedLanes = ConvexHeaderLanes + contactCount
	}
	if size := unsafe.Sizeof(impulses); size != uintptr(expectedLanes)*vectorSize {
		panic(fmt.Sprintf("constraint type %d: impulse type %T is %d bytes, expected %d lane groups of %d bytes",
			typeID, impulses, size, expectedLanes, vectorSize))
	}

	if size := unsafe.Sizeof(cache); size != uintptr(4*(1+contactCount)) {
		panic(fmt.Sprintf("constraint type %d: cache type %T is %d bytes, expected %d for %d contacts",
			typeID, cache, size, 4*(1+contactCount), contactCount))
	}
	if tag := PC(&cache).CacheTypeID(); tag != contactCount-1 {
		panic(fmt.Sprintf("constraint type %d: cache type %T has type id %d, expected %d", typeID, cache, tag, contactCount-1))
	}
	if features := len(PC(&cache).Features()); features != contactCount {
		panic(fmt.Sprintf("constraint type %d: cache type %T tracks %d feature ids, expected %d", typeID, cache, features, contactCount))
	}

	return accessorLayout{
		typeID:       typeID,
		contactCount: contactCount,
		convex:       convex,
		bodyCount:    bodyCount,
		stride:       expectedLanes,
	}
}

func (l *accessorLayout) checkManifold(manifold ContactManifold) {
	if manifold.Convex() != l.convex {
		panic(fmt.Sprintf("constraint type %d: manifold convexity does not match the accessor", l.typeID))
	}
	if count := manifold.ContactCount(); count != l.contactCount {
		panic(fmt.Sprintf("constraint type %d: manifold has %d contacts, accessor expects %d", l.typeID, count, l.contactCount))
	}
}

func (l *accessorLayout) badHandles(bodyHandles BodyHandles) {
	panic(fmt.Sprintf("constraint type %d: body handles %T do not match a %d body constraint", l.typeID, bodyHandles, l.bodyCount))
}

// convexImpulses addresses the penetration lanes following the friction header
type convexImpulses struct {
	accessorLayout
}

func (c *convexImpulses) GatherOldImpulses(ref ConstraintReference, oldImpulses []float64) {
	arena := ref.TypeBatch.AccumulatedImpulses()
	bundle, lane := BundleIndices(ref.IndexInTypeBatch)
	penetration := arena[c.stride*bundle+ConvexHeaderLanes:]
	for i := 0; i < c.contactCount; i++ {
		oldImpulses[i] = penetration[i][lane]
	}
}

func (c *convexImpulses) ScatterNewImpulses(ref ConstraintReference, newImpulses []float64) {
	arena := ref.TypeBatch.AccumulatedImpulses()
	bundle, lane := BundleIndices(ref.IndexInTypeBatch)
	penetration := arena[c.stride*bundle+ConvexHeaderLanes:]
	for i := 0; i < c.contactCount; i++ {
		penetration[i][lane] = newImpulses[i]
	}
}

func (c *convexImpulses) DeterministicallyAdd(targets []PendingTarget, workers [][]PendingConstraint, adder ConstraintAdder, pairCache PairCacheWriter) {
	deterministicallyAdd(c, c.typeID, targets, workers, adder, pairCache)
}

func (c *convexImpulses) FlushSequentially(list []PendingConstraint, typeID int, adder ConstraintAdder, pairCache PairCacheWriter) {
	flushSequentially(c, list, typeID, adder, pairCache)
}

func (c *convexImpulses) FlushWithSpeculativeBatches(list []PendingConstraint, typeID int, speculativeBatchIndices []int, adder ConstraintAdder, pairCache PairCacheWriter) {
	flushWithSpeculativeBatches(c, list, typeID, speculativeBatchIndices, adder, pairCache)
}

// nonconvexImpulses addresses the penetration lane of each contact block; tangent lanes are left alone
type nonconvexImpulses struct {
	accessorLayout
}

func (c *nonconvexImpulses) GatherOldImpulses(ref ConstraintReference, oldImpulses []float64) {
	arena := ref.TypeBatch.AccumulatedImpulses()
	bundle, lane := BundleIndices(ref.IndexInTypeBatch)
	contacts := arena[c.stride*bundle:]
	for i := 0; i < c.contactCount; i++ {
		oldImpulses[i] = contacts[i*NonconvexLanesPerContact][lane]
	}
}

func (c *nonconvexImpulses) ScatterNewImpulses(ref ConstraintReference, newImpulses []float64) {
	arena := ref.TypeBatch.AccumulatedImpulses()
	bundle, lane := BundleIndices(ref.IndexInTypeBatch)
	contacts := arena[c.stride*bundle:]
	for i := 0; i < c.contactCount; i++ {
		contacts[i*NonconvexLanesPerContact][lane] = newImpulses[i]
	}
}

func (c *nonconvexImpulses) DeterministicallyAdd(targets []PendingTarget, workers [][]PendingConstraint, adder ConstraintAdder, pairCache PairCacheWriter) {
	deterministicallyAdd(c, c.typeID, targets, workers, adder, pairCache)
}

func (c *nonconvexImpulses) FlushSequentially(list []PendingConstraint, typeID int, adder ConstraintAdder, pairCache PairCacheWriter) {
	flushSequentially(c, list, typeID, adder, pairCache)
}

func (c *nonconvexImpulses) FlushWithSpeculativeBatches(list []PendingConstraint, typeID int, speculativeBatchIndices []int, adder ConstraintAdder, pairCache PairCacheWriter) {
	flushWithSpeculativeBatches(c, list, typeID, speculativeBatchIndices, adder, pairCache)
}

// impulseScatterer is the part of an accessor flushes need
type impulseScatterer interface {
	ScatterNewImpulses(ref ConstraintReference, newImpulses []float64)
}

func completeAdd(scatterer impulseScatterer, typeID int, pending *PendingConstraint, handle ConstraintHandle, adder ConstraintAdder, pairCache PairCacheWriter) {
	scatterer.ScatterNewImpulses(adder.Reference(handle), pending.Impulses[:])
	pairCache.CompleteConstraintAdd(pending.Pair, typeID, pending.Cache, handle)
}

func deterministicallyAdd(scatterer impulseScatterer, typeID int, targets []PendingTarget, workers [][]PendingConstraint, adder ConstraintAdder, pairCache PairCacheWriter) {
	for _, target := range targets {
		pending := &workers[target.WorkerIndex][target.Index]
		handle := adder.AddConstraint(typeID, pending.BodyHandles, pending.Description)
		completeAdd(scatterer, typeID, pending, handle, adder, pairCache)
	}
}

func flushSequentially(scatterer impulseScatterer, list []PendingConstraint, typeID int, adder ConstraintAdder, pairCache PairCacheWriter) {
	for i := range list {
		pending := &list[i]
		handle := adder.AddConstraint(typeID, pending.BodyHandles, pending.Description)
		completeAdd(scatterer, typeID, pending, handle, adder, pairCache)
	}
}

func flushWithSpeculativeBatches(scatterer impulseScatterer, list []PendingConstraint, typeID int, speculativeBatchIndices []int, adder ConstraintAdder, pairCache PairCacheWriter) {
	if len(speculativeBatchIndices) < len(list) {
		panic(fmt.Sprintf("constraint type %d: %d speculative batch slots for %d pending constraints", typeID, len(speculativeBatchIndices), len(list)))
	}
	for i := range list {
		pending := &list[i]
		handle := adder.AddConstraintToBatch(speculativeBatchIndices[i], typeID, pending.BodyHandles, pending.Description)
		completeAdd(scatterer, typeID, pending, handle, adder, pairCache)
	}
}
