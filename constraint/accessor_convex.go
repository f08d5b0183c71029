package constraint

import (
	"fmt"

	"github.com/Swaelo/physcore/actor"
)

// ConvexOneBodyAccessor handles convex manifolds between a body and a static
type ConvexOneBodyAccessor[D any, C any, I AccumulatedImpulses, PD convexOneBodyDescriptionPtr[D], PC constraintCachePtr[C]] struct {
	convexImpulses
}

func NewConvexOneBodyAccessor[D any, C any, I AccumulatedImpulses, PD convexOneBodyDescriptionPtr[D], PC constraintCachePtr[C]](typeID int) *ConvexOneBodyAccessor[D, C, I, PD, PC] {
	var description D
	layout := newAccessorLayout[C, PC, I](typeID, len(PD(&description).ContactData()), true, 1)
	return &ConvexOneBodyAccessor[D, C, I, PD, PC]{convexImpulses{layout}}
}

func (a *ConvexOneBodyAccessor[D, C, I, PD, PC]) CreateTypeBatch() TypeBatch {
	return newTypeBatch[D, I](a.typeID)
}

func (a *ConvexOneBodyAccessor[D, C, I, PD, PC]) UpdateConstraintForManifold(updater ConstraintUpdater, workerIndex int, pair actor.CollidablePair,
	manifold ContactManifold, material PairMaterial, bodyHandles BodyHandles) {
	contacts := a.convexManifold(manifold)
	handles, ok := bodyHandles.(OneBodyHandles)
	if !ok {
		a.badHandles(bodyHandles)
	}

	var description D
	var cache C
	copyConvexContacts(PD(&description).ContactData(), PC(&cache).Features(), contacts)
	PD(&description).SetProperties(contacts.Normal, material)
	updater.UpdateConstraint(a, workerIndex, pair, PC(&cache), description, handles)
}

// ConvexTwoBodyAccessor handles convex manifolds between two bodies
type ConvexTwoBodyAccessor[D any, C any, I AccumulatedImpulses, PD convexTwoBodyDescriptionPtr[D], PC constraintCachePtr[C]] struct {
	convexImpulses
}

func NewConvexTwoBodyAccessor[D any, C any, I AccumulatedImpulses, PD convexTwoBodyDescriptionPtr[D], PC constraintCachePtr[C]](typeID int) *ConvexTwoBodyAccessor[D, C, I, PD, PC] {
	var description D
	layout := newAccessorLayout[C, PC, I](typeID, len(PD(&description).ContactData()), true, 2)
	return &ConvexTwoBodyAccessor[D, C, I, PD, PC]{convexImpulses{layout}}
}

func (a *ConvexTwoBodyAccessor[D, C, I, PD, PC]) CreateTypeBatch() TypeBatch {
	return newTypeBatch[D, I](a.typeID)
}

func (a *ConvexTwoBodyAccessor[D, C, I, PD, PC]) UpdateConstraintForManifold(updater ConstraintUpdater, workerIndex int, pair actor.CollidablePair,
	manifold ContactManifold, material PairMaterial, bodyHandles BodyHandles) {
	contacts := a.convexManifold(manifold)
	handles, ok := bodyHandles.(TwoBodyHandles)
	if !ok {
		a.badHandles(bodyHandles)
	}

	var description D
	var cache C
	copyConvexContacts(PD(&description).ContactData(), PC(&cache).Features(), contacts)
	PD(&description).SetProperties(contacts.OffsetB, contacts.Normal, material)
	updater.UpdateConstraint(a, workerIndex, pair, PC(&cache), description, handles)
}

func (c *convexImpulses) convexManifold(manifold ContactManifold) *ConvexContactManifold {
	c.checkManifold(manifold)
	contacts, ok := manifold.(*ConvexContactManifold)
	if !ok {
		panic(fmt.Sprintf("constraint type %d: unsupported convex manifold %T", c.typeID, manifold))
	}
	return contacts
}

func copyConvexContacts(target []ConvexContactData, features []int32, manifold *ConvexContactManifold) {
	for i := range target {
		contact := &manifold.Contacts[i]
		target[i].OffsetA = contact.Offset
		target[i].PenetrationDepth = contact.Depth
		features[i] = contact.FeatureID
	}
}
