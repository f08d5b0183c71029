package actor

import "fmt"

// BodyHandle identifies a dynamic body for its whole lifetime, independent of its storage index
type BodyHandle int32

// StaticHandle identifies a static collidable for its whole lifetime
type StaticHandle int32

// CollidableMobility tells which table a collidable reference resolves through
type CollidableMobility uint32

const (
	CollidableDynamic CollidableMobility = iota
	CollidableStatic
)

const (
	mobilityShift = 30
	handleMask    = (1 << mobilityShift) - 1
)

// CollidableReference packs the mobility and the handle of a collidable in 32 bits
type CollidableReference struct {
	Packed uint32
}

func NewDynamicReference(handle BodyHandle) CollidableReference {
	return CollidableReference{Packed: uint32(CollidableDynamic)<<mobilityShift | uint32(handle)&handleMask}
}

func NewStaticReference(handle StaticHandle) CollidableReference {
	return CollidableReference{Packed: uint32(CollidableStatic)<<mobilityShift | uint32(handle)&handleMask}
}

func (r CollidableReference) Mobility() CollidableMobility {
	return CollidableMobility(r.Packed >> mobilityShift)
}

func (r CollidableReference) RawHandleValue() int32 {
	return int32(r.Packed & handleMask)
}

// BodyHandle panics when the reference points at a static
func (r CollidableReference) BodyHandle() BodyHandle {
	if r.Mobility() != CollidableDynamic {
		panic(fmt.Sprintf("collidable %v is not a body", r))
	}
	return BodyHandle(r.RawHandleValue())
}

// StaticHandle panics when the reference points at a body
func (r CollidableReference) StaticHandle() StaticHandle {
	if r.Mobility() != CollidableStatic {
		panic(fmt.Sprintf("collidable %v is not a static", r))
	}
	return StaticHandle(r.RawHandleValue())
}

func (r CollidableReference) String() string {
	if r.Mobility() == CollidableStatic {
		return fmt.Sprintf("static:%d", r.RawHandleValue())
	}
	return fmt.Sprintf("body:%d", r.RawHandleValue())
}

// CollidablePair is an unordered pair of collidables, normalized so a static is always B
type CollidablePair struct {
	A CollidableReference
	B CollidableReference
}

// NewCollidablePair orders the references: statics go to B, and two bodies are sorted by handle
func NewCollidablePair(a, b CollidableReference) CollidablePair {
	if a.Mobility() == CollidableStatic || (b.Mobility() == CollidableDynamic && b.Packed < a.Packed) {
		a, b = b, a
	}
	return CollidablePair{A: a, B: b}
}

// Less orders pairs for deterministic processing
func (p CollidablePair) Less(other CollidablePair) bool {
	if p.A.Packed != other.A.Packed {
		return p.A.Packed < other.A.Packed
	}
	return p.B.Packed < other.B.Packed
}
