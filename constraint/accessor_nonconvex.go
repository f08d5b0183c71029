package constraint

import (
	"fmt"

	"github.com/Swaelo/physcore/actor"
)

// NonconvexOneBodyAccessor handles nonconvex manifolds between a body and a static
type NonconvexOneBodyAccessor[D any, C any, I AccumulatedImpulses, PD nonconvexOneBodyDescriptionPtr[D], PC constraintCachePtr[C]] struct {
	nonconvexImpulses
}

func NewNonconvexOneBodyAccessor[D any, C any, I AccumulatedImpulses, PD nonconvexOneBodyDescriptionPtr[D], PC constraintCachePtr[C]](typeID int) *NonconvexOneBodyAccessor[D, C, I, PD, PC] {
	var description D
	layout := newAccessorLayout[C, PC, I](typeID, len(PD(&description).ContactData()), false, 1)
	return &NonconvexOneBodyAccessor[D, C, I, PD, PC]{nonconvexImpulses{layout}}
}

func (a *NonconvexOneBodyAccessor[D, C, I, PD, PC]) CreateTypeBatch() TypeBatch {
	return newTypeBatch[D, I](a.typeID)
}

func (a *NonconvexOneBodyAccessor[D, C, I, PD, PC]) UpdateConstraintForManifold(updater ConstraintUpdater, workerIndex int, pair actor.CollidablePair,
	manifold ContactManifold, material PairMaterial, bodyHandles BodyHandles) {
	contacts := a.nonconvexManifold(manifold)
	handles, ok := bodyHandles.(OneBodyHandles)
	if !ok {
		a.badHandles(bodyHandles)
	}

	var description D
	var cache C
	copyNonconvexContacts(PD(&description).ContactData(), PC(&cache).Features(), contacts)
	PD(&description).SetProperties(material)
	updater.UpdateConstraint(a, workerIndex, pair, PC(&cache), description, handles)
}

// NonconvexTwoBodyAccessor handles nonconvex manifolds between two bodies
type NonconvexTwoBodyAccessor[D any, C any, I AccumulatedImpulses, PD nonconvexTwoBodyDescriptionPtr[D], PC constraintCachePtr[C]] struct {
	nonconvexImpulses
}

func NewNonconvexTwoBodyAccessor[D any, C any, I AccumulatedImpulses, PD nonconvexTwoBodyDescriptionPtr[D], PC constraintCachePtr[C]](typeID int) *NonconvexTwoBodyAccessor[D, C, I, PD, PC] {
	var description D
	layout := newAccessorLayout[C, PC, I](typeID, len(PD(&description).ContactData()), false, 2)
	return &NonconvexTwoBodyAccessor[D, C, I, PD, PC]{nonconvexImpulses{layout}}
}

func (a *NonconvexTwoBodyAccessor[D, C, I, PD, PC]) CreateTypeBatch() TypeBatch {
	return newTypeBatch[D, I](a.typeID)
}

func (a *NonconvexTwoBodyAccessor[D, C, I, PD, PC]) UpdateConstraintForManifold(updater ConstraintUpdater, workerIndex int, pair actor.CollidablePair,
	manifold ContactManifold, material PairMaterial, bodyHandles BodyHandles) {
	contacts := a.nonconvexManifold(manifold)
	handles, ok := bodyHandles.(TwoBodyHandles)
	if !ok {
		a.badHandles(bodyHandles)
	}

	var description D
	var cache C
	copyNonconvexContacts(PD(&description).ContactData(), PC(&cache).Features(), contacts)
	PD(&description).SetProperties(contacts.OffsetB, material)
	updater.UpdateConstraint(a, workerIndex, pair, PC(&cache), description, handles)
}

func (c *nonconvexImpulses) nonconvexManifold(manifold ContactManifold) *NonconvexContactManifold {
	c.checkManifold(manifold)
	contacts, ok := manifold.(*NonconvexContactManifold)
	if !ok {
		panic(fmt.Sprintf("constraint type %d: unsupported nonconvex manifold %T", c.typeID, manifold))
	}
	return contacts
}

func copyNonconvexContacts(target []NonconvexContactData, features []int32, manifold *NonconvexContactManifold) {
	for i := range target {
		contact := &manifold.Contacts[i]
		target[i].OffsetA = contact.Offset
		target[i].Normal = contact.Normal
		target[i].PenetrationDepth = contact.Depth
		features[i] = contact.FeatureID
	}
}
