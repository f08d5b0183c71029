package constraint

import (
	"fmt"
	"unsafe"
)

// LaneWidth is the number of constraints bundled side by side in one lane group
const LaneWidth = 4

// Vector is one lane group: the same scalar for LaneWidth different constraints
type Vector [LaneWidth]float64

// vectorSize is the byte size of a lane group
const vectorSize = unsafe.Sizeof(Vector{})

// BundleIndices maps a flat index inside a type batch to its bundle and lane
func BundleIndices(index int) (bundle, lane int) {
	return index / LaneWidth, index % LaneWidth
}

// BundleCount returns how many bundles are needed to hold count constraints
func BundleCount(count int) int {
	return (count + LaneWidth - 1) / LaneWidth
}

// LaneGroupCount returns the number of lane groups making up a bundle of type I
func LaneGroupCount[I any]() int {
	var bundle I
	size := unsafe.Sizeof(bundle)
	if size%vectorSize != 0 {
		panic(fmt.Sprintf("bundle type %T is %d bytes, not a whole number of %d byte lane groups", bundle, size, vectorSize))
	}
	return int(size / vectorSize)
}

// BundleAt views the bundle at bundleIndex of an impulse arena as a typed layout.
// The arena stride must be LaneGroupCount[I]().
func BundleAt[I any](arena []Vector, bundleIndex int) *I {
	stride := LaneGroupCount[I]()
	start := bundleIndex * stride
	if start < 0 || start+stride > len(arena) {
		panic(fmt.Sprintf("bundle %d out of range of an arena of %d lane groups", bundleIndex, len(arena)))
	}
	return (*I)(unsafe.Pointer(&arena[start]))
}

// copyLane moves every lane group of one constraint to another slot
func copyLane(arena []Vector, stride, source, target int) {
	sourceBundle, sourceLane := BundleIndices(source)
	targetBundle, targetLane := BundleIndices(target)
	sourceBase := sourceBundle * stride
	targetBase := targetBundle * stride
	for group := 0; group < stride; group++ {
		arena[targetBase+group][targetLane] = arena[sourceBase+group][sourceLane]
	}
}

// clearLane zeroes every lane group of one constraint
func clearLane(arena []Vector, stride, index int) {
	bundle, lane := BundleIndices(index)
	base := bundle * stride
	for group := 0; group < stride; group++ {
		arena[base+group][lane] = 0
	}
}
