package constraint

// AccumulatedImpulses is implemented by the lane bundle layouts holding solver warm start state.
// The methods only describe the layout; they are called on zero values.
type AccumulatedImpulses interface {
	ContactCount() int
	Convex() bool
}

const (
	// ConvexHeaderLanes is the number of lane groups preceding the penetration impulses in a convex bundle
	ConvexHeaderLanes = 3

	// NonconvexLanesPerContact is the number of lane groups per contact in a nonconvex bundle
	NonconvexLanesPerContact = 3
)

// WarmStartFriction documents that only penetration impulses survive a manifold update.
// Friction and twist lanes are left as they were: losing friction warm starting when the
// contact set changes is considered imperceptible. Kept as a named switch so the
// tradeoff can be measured; nothing reads it yet.
const WarmStartFriction = false

// ConvexImpulseHeader holds the friction impulses shared by every contact of a convex manifold
type ConvexImpulseHeader struct {
	TangentX Vector
	TangentY Vector
	Twist    Vector
}

func (ConvexImpulseHeader) Convex() bool { return true }

type Contact1Impulses struct {
	ConvexImpulseHeader
	Penetration [1]Vector
}

type Contact2Impulses struct {
	ConvexImpulseHeader
	Penetration [2]Vector
}

type Contact3Impulses struct {
	ConvexImpulseHeader
	Penetration [3]Vector
}

type Contact4Impulses struct {
	ConvexImpulseHeader
	Penetration [4]Vector
}

func (Contact1Impulses) ContactCount() int { return 1 }
func (Contact2Impulses) ContactCount() int { return 2 }
func (Contact3Impulses) ContactCount() int { return 3 }
func (Contact4Impulses) ContactCount() int { return 4 }

// NonconvexContactImpulses is the independent state of one contact with its own normal
type NonconvexContactImpulses struct {
	Penetration Vector
	TangentX    Vector
	TangentY    Vector
}

// nonconvexLayout tags nonconvex bundles; zero sized, it must stay the first field
type nonconvexLayout struct{}

func (nonconvexLayout) Convex() bool { return false }

type Nonconvex2Impulses struct {
	nonconvexLayout
	Contacts [2]NonconvexContactImpulses
}

type Nonconvex3Impulses struct {
	nonconvexLayout
	Contacts [3]NonconvexContactImpulses
}

type Nonconvex4Impulses struct {
	nonconvexLayout
	Contacts [4]NonconvexContactImpulses
}

type Nonconvex5Impulses struct {
	nonconvexLayout
	Contacts [5]NonconvexContactImpulses
}

type Nonconvex6Impulses struct {
	nonconvexLayout
	Contacts [6]NonconvexContactImpulses
}

type Nonconvex7Impulses struct {
	nonconvexLayout
	Contacts [7]NonconvexContactImpulses
}

type Nonconvex8Impulses struct {
	nonconvexLayout
	Contacts [8]NonconvexContactImpulses
}

func (Nonconvex2Impulses) ContactCount() int { return 2 }
func (Nonconvex3Impulses) ContactCount() int { return 3 }
func (Nonconvex4Impulses) ContactCount() int { return 4 }
func (Nonconvex5Impulses) ContactCount() int { return 5 }
func (Nonconvex6Impulses) ContactCount() int { return 6 }
func (Nonconvex7Impulses) ContactCount() int { return 7 }
func (Nonconvex8Impulses) ContactCount() int { return 8 }
