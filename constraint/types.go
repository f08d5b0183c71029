package constraint

// Contact constraint type ids. Convex types hold 1 to 4 contacts, nonconvex types 2 to 8.
const (
	convexOneBodyTypeBase    = 0
	convexTwoBodyTypeBase    = convexOneBodyTypeBase + MaximumConvexContactCount
	nonconvexOneBodyTypeBase = convexTwoBodyTypeBase + MaximumConvexContactCount
	nonconvexTwoBodyTypeBase = nonconvexOneBodyTypeBase + MaximumNonconvexContactCount - 1

	// ContactTypeCount is the number of contact constraint types
	ContactTypeCount = nonconvexTwoBodyTypeBase + MaximumNonconvexContactCount - 1
)

// ContactTypeID returns the type id of a contact constraint, or -1 for an unsupported contact count
func ContactTypeID(convex, twoBody bool, contactCount int) int {
	if convex {
		if contactCount < 1 || contactCount > MaximumConvexContactCount {
			return -1
		}
		if twoBody {
			return convexTwoBodyTypeBase + contactCount - 1
		}
		return convexOneBodyTypeBase + contactCount - 1
	}

	if contactCount < 2 || contactCount > MaximumNonconvexContactCount {
		return -1
	}
	if twoBody {
		return nonconvexTwoBodyTypeBase + contactCount - 2
	}
	return nonconvexOneBodyTypeBase + contactCount - 2
}

// RegisterContactConstraints registers an accessor for every contact constraint type
func RegisterContactConstraints(store *Store) {
	for _, accessor := range NewContactAccessors() {
		store.Register(accessor)
	}
}

// NewContactAccessors builds the accessors of every contact constraint type, indexed by type id
func NewContactAccessors() []ContactConstraintAccessor {
	return []ContactConstraintAccessor{
		NewConvexOneBodyAccessor[Contact1OneBody, ConstraintCache1, Contact1Impulses](ContactTypeID(true, false, 1)),
		NewConvexOneBodyAccessor[Contact2OneBody, ConstraintCache2, Contact2Impulses](ContactTypeID(true, false, 2)),
		NewConvexOneBodyAccessor[Contact3OneBody, ConstraintCache3, Contact3Impulses](ContactTypeID(true, false, 3)),
		NewConvexOneBodyAccessor[Contact4OneBody, ConstraintCache4, Contact4Impulses](ContactTypeID(true, false, 4)),

		NewConvexTwoBodyAccessor[Contact1TwoBody, ConstraintCache1, Contact1Impulses](ContactTypeID(true, true, 1)),
		NewConvexTwoBodyAccessor[Contact2TwoBody, ConstraintCache2, Contact2Impulses](ContactTypeID(true, true, 2)),
		NewConvexTwoBodyAccessor[Contact3TwoBody, ConstraintCache3, Contact3Impulses](ContactTypeID(true, true, 3)),
		NewConvexTwoBodyAccessor[Contact4TwoBody, ConstraintCache4, Contact4Impulses](ContactTypeID(true, true, 4)),

		NewNonconvexOneBodyAccessor[Nonconvex2OneBody, ConstraintCache2, Nonconvex2Impulses](ContactTypeID(false, false, 2)),
		NewNonconvexOneBodyAccessor[Nonconvex3OneBody, ConstraintCache3, Nonconvex3Impulses](ContactTypeID(false, false, 3)),
		NewNonconvexOneBodyAccessor[Nonconvex4OneBody, ConstraintCache4, Nonconvex4Impulses](ContactTypeID(false, false, 4)),
		NewNonconvexOneBodyAccessor[Nonconvex5OneBody, ConstraintCache5, Nonconvex5Impulses](ContactTypeID(false, false, 5)),
		NewNonconvexOneBodyAccessor[Nonconvex6OneBody, ConstraintCache6, Nonconvex6Impulses](ContactTypeID(false, false, 6)),
		NewNonconvexOneBodyAccessor[Nonconvex7OneBody, ConstraintCache7, Nonconvex7Impulses](ContactTypeID(false, false, 7)),
		NewNonconvexOneBodyAccessor[Nonconvex8OneBody, ConstraintCache8, Nonconvex8Impulses](ContactTypeID(false, false, 8)),

		NewNonconvexTwoBodyAccessor[Nonconvex2TwoBody, ConstraintCache2, Nonconvex2Impulses](ContactTypeID(false, true, 2)),
		NewNonconvexTwoBodyAccessor[Nonconvex3TwoBody, ConstraintCache3, Nonconvex3Impulses](ContactTypeID(false, true, 3)),
		NewNonconvexTwoBodyAccessor[Nonconvex4TwoBody, ConstraintCache4, Nonconvex4Impulses](ContactTypeID(false, true, 4)),
		NewNonconvexTwoBodyAccessor[Nonconvex5TwoBody, ConstraintCache5, Nonconvex5Impulses](ContactTypeID(false, true, 5)),
		NewNonconvexTwoBodyAccessor[Nonconvex6TwoBody, ConstraintCache6, Nonconvex6Impulses](ContactTypeID(false, true, 6)),
		NewNonconvexTwoBodyAccessor[Nonconvex7TwoBody, ConstraintCache7, Nonconvex7Impulses](ContactTypeID(false, true, 7)),
		NewNonconvexTwoBodyAccessor[Nonconvex8TwoBody, ConstraintCache8, Nonconvex8Impulses](ContactTypeID(false, true, 8)),
	}
}
