package constraint

import "fmt"

// TypeBatch stores every constraint of one type inside one batch: descriptions,
// handles and the accumulated impulse arena, all indexed by the same flat index.
type TypeBatch interface {
	TypeID() int
	Count() int
	Handle(index int) ConstraintHandle
	Description(index int) any
	SetDescription(index int, description any)
	// AccumulatedImpulses is the lane bundle arena, BundleStride lane groups per bundle
	AccumulatedImpulses() []Vector
	Add(handle ConstraintHandle, description any) int
	// RemoveAt moves the last constraint into the freed slot and returns its handle
	RemoveAt(index int) (moved ConstraintHandle, didMove bool)
}

type typeBatch[D any, I AccumulatedImpulses] struct {
	typeID       int
	stride       int
	descriptions []D
	handles      []ConstraintHandle
	impulses     []Vector
}

func newTypeBatch[D any, I AccumulatedImpulses](typeID int) *typeBatch[D, I] {
	return &typeBatch[D, I]{
		typeID: typeID,
		stride: LaneGroupCount[I](),
	}
}

func (b *typeBatch[D, I]) TypeID() int                       { return b.typeID }
func (b *typeBatch[D, I]) Count() int                        { return len(b.handles) }
func (b *typeBatch[D, I]) Handle(index int) ConstraintHandle { return b.handles[index] }
func (b *typeBatch[D, I]) Description(index int) any         { return b.descriptions[index] }
func (b *typeBatch[D, I]) AccumulatedImpulses() []Vector     { return b.impulses }

// Bundle views one bundle of the arena with its typed layout
func (b *typeBatch[D, I]) Bundle(bundleIndex int) *I {
	return BundleAt[I](b.impulses, bundleIndex)
}

func (b *typeBatch[D, I]) SetDescription(index int, description any) {
	b.descriptions[index] = b.typed(description)
}

func (b *typeBatch[D, I]) typed(description any) D {
	switch d := description.(type) {
	case D:
		return d
	case *D:
		return *d
	default:
		var expected D
		panic(fmt.Sprintf("type batch %d stores %T, got %T", b.typeID, expected, description))
	}
}

func (b *typeBatch[D, I]) Add(handle ConstraintHandle, description any) int {
	index := len(b.handles)
	b.descriptions = append(b.descriptions, b.typed(description))
	b.handles = append(b.handles, handle)

	if required := BundleCount(index+1) * b.stride; required > len(b.impulses) {
		b.impulses = append(b.impulses, make([]Vector, required-len(b.impulses))...)
	}
	clearLane(b.impulses, b.stride, index)
	return index
}

func (b *typeBatch[D, I]) RemoveAt(index int) (ConstraintHandle, bool) {
	last := len(b.handles) - 1
	if index < 0 || index > last {
		panic(fmt.Sprintf("type batch %d: remove index %d out of range of %d constraints", b.typeID, index, last+1))
	}

	didMove := index != last
	if didMove {
		b.descriptions[index] = b.descriptions[last]
		b.handles[index] = b.handles[last]
		copyLane(b.impulses, b.stride, last, index)
	}
	clearLane(b.impulses, b.stride, last)

	var zero D
	b.descriptions[last] = zero
	moved := b.handles[index]
	b.descriptions = b.descriptions[:last]
	b.handles = b.handles[:last]
	b.impulses = b.impulses[:BundleCount(last)*b.stride]
	return moved, didMove
}
