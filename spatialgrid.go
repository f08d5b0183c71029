package physcore

import (
	"math"
	"sort"

	"github.com/Swaelo/physcore/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// maxLeafCells is the number of cells above which a leaf is kept out of the grid and
	// tested against everything instead (planes, very large statics)
	maxLeafCells = 512

	// maxQueryCells is the number of cells above which a query scans every leaf
	maxQueryCells = 4096
)

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the leaves overlapping it. Hash collisions share cells.
type Cell struct {
	leafIndices []int
}

type gridLeaf struct {
	collidable actor.CollidableReference
	bounds     actor.AABB
	oversized  bool
}

// LeafTester receives the leaves a query reaches, nearest first. It may shrink maximumT to
// prune the leaves that follow.
type LeafTester interface {
	TestLeaf(collidable actor.CollidableReference, maximumT *float64)
}

// BroadPhase enumerates collidable pairs and query candidates from their bounds
type BroadPhase interface {
	Clear()
	Insert(collidable actor.CollidableReference, bounds actor.AABB)
	FindPairs(workersCount int) <-chan actor.CollidablePair
	RayCast(origin, direction mgl64.Vec3, maximumT float64, tester LeafTester)
	Sweep(bounds actor.AABB, direction mgl64.Vec3, maximumT float64, tester LeafTester)
}

// SpatialGrid is a uniform grid hashed into a fixed number of cells
type SpatialGrid struct {
	cellSize  float64
	cells     []Cell
	cellMask  int
	leaves    []gridLeaf
	oversized []int
}

var _ BroadPhase = (*SpatialGrid)(nil)

// NewSpatialGrid rounds numCells up to a power of two
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].leafIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds a leaf to every cell its bounds overlap
func (sg *SpatialGrid) Insert(collidable actor.CollidableReference, bounds actor.AABB) {
	leafIndex := len(sg.leaves)
	minCell, maxCell, count := sg.cellRange(bounds)
	oversized := count > maxLeafCells
	sg.leaves = append(sg.leaves, gridLeaf{collidable: collidable, bounds: bounds, oversized: oversized})

	if oversized {
		sg.oversized = append(sg.oversized, leafIndex)
		return
	}
	sg.forEachCell(minCell, maxCell, func(cellIdx int) {
		sg.cells[cellIdx].leafIndices = append(sg.cells[cellIdx].leafIndices, leafIndex)
	})
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].leafIndices = sg.cells[i].leafIndices[:0]
	}
	sg.leaves = sg.leaves[:0]
	sg.oversized = sg.oversized[:0]
}

// SortCells orders the leaves of every cell so pair enumeration is reproducible
func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].leafIndices) > 1 {
			sort.Ints(sg.cells[i].leafIndices)
		}
	}
}

func (sg *SpatialGrid) LeafCount() int {
	return len(sg.leaves)
}

// FindPairs streams every pair of overlapping leaves involving at least one body.
// Each pair is sent once; the channel is closed when all workers are done.
func (sg *SpatialGrid) FindPairs(workersCount int) <-chan actor.CollidablePair {
	workersCount = max(1, workersCount)
	pairsChan := make(chan actor.CollidablePair, workersCount*10)

	go func() {
		defer close(pairsChan)

		taskIndexed(workersCount, len(sg.leaves), func(_, leafIdx int) {
			sg.findLeafPairs(leafIdx, pairsChan)
		})
	}()

	return pairsChan
}

func (sg *SpatialGrid) findLeafPairs(leafIdx int, pairsChan chan<- actor.CollidablePair) {
	leafA := sg.leaves[leafIdx]
	test := func(otherIdx int) {
		leafB := sg.leaves[otherIdx]
		if leafA.collidable.Mobility() == actor.CollidableStatic && leafB.collidable.Mobility() == actor.CollidableStatic {
			return
		}
		if leafA.bounds.Overlaps(leafB.bounds) {
			pairsChan <- actor.NewCollidablePair(leafA.collidable, leafB.collidable)
		}
	}

	if leafA.oversized {
		for _, otherIdx := range sg.oversized {
			if otherIdx > leafIdx {
				test(otherIdx)
			}
		}
		return
	}

	// A leaf spanning several cells meets the same neighbour more than once
	seen := make(map[int]struct{})
	minCell, maxCell, _ := sg.cellRange(leafA.bounds)
	sg.forEachCell(minCell, maxCell, func(cellIdx int) {
		for _, otherIdx := range sg.cells[cellIdx].leafIndices {
			if otherIdx <= leafIdx {
				continue
			}
			if _, ok := seen[otherIdx]; ok {
				continue
			}
			seen[otherIdx] = struct{}{}
			test(otherIdx)
		}
	})
	for _, otherIdx := range sg.oversized {
		test(otherIdx)
	}
}

// RayCast reports the leaves whose bounds origin + t*direction enters for t in [0, maximumT]
func (sg *SpatialGrid) RayCast(origin, direction mgl64.Vec3, maximumT float64, tester LeafTester) {
	sg.Sweep(actor.AABB{Min: origin, Max: origin}, direction, maximumT, tester)
}

// Sweep reports the leaves the box reaches while translating by t*direction for t in [0, maximumT],
// ordered by the time the box first touches their bounds
func (sg *SpatialGrid) Sweep(bounds actor.AABB, direction mgl64.Vec3, maximumT float64, tester LeafTester) {
	type candidate struct {
		leafIdx int
		t       float64
	}

	halfExtents := bounds.Max.Sub(bounds.Min).Mul(0.5)
	center := bounds.Min.Add(halfExtents)

	var candidates []candidate
	for _, leafIdx := range sg.queryLeaves(bounds, direction, maximumT) {
		leaf := sg.leaves[leafIdx]
		expanded := actor.AABB{Min: leaf.bounds.Min.Sub(halfExtents), Max: leaf.bounds.Max.Add(halfExtents)}
		if tEnter, _, hit := expanded.RayIntersect(center, direction, maximumT); hit {
			candidates = append(candidates, candidate{leafIdx: leafIdx, t: tEnter})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].t != candidates[j].t {
			return candidates[i].t < candidates[j].t
		}
		return candidates[i].leafIdx < candidates[j].leafIdx
	})

	for _, c := range candidates {
		if c.t > maximumT {
			break
		}
		tester.TestLeaf(sg.leaves[c.leafIdx].collidable, &maximumT)
	}
}

// queryLeaves lists, without duplicates, the leaves sharing a cell with the swept region
func (sg *SpatialGrid) queryLeaves(bounds actor.AABB, direction mgl64.Vec3, maximumT float64) []int {
	if math.IsInf(maximumT, 0) || math.IsNaN(maximumT) {
		return sg.allLeaves()
	}
	end := actor.AABB{Min: bounds.Min.Add(direction.Mul(maximumT)), Max: bounds.Max.Add(direction.Mul(maximumT))}
	swept := bounds.Union(end)

	minCell, maxCell, count := sg.cellRange(swept)
	if count > maxQueryCells {
		return sg.allLeaves()
	}

	seen := make(map[int]struct{})
	var leaves []int
	sg.forEachCell(minCell, maxCell, func(cellIdx int) {
		for _, leafIdx := range sg.cells[cellIdx].leafIndices {
			if _, ok := seen[leafIdx]; !ok {
				seen[leafIdx] = struct{}{}
				leaves = append(leaves, leafIdx)
			}
		}
	})
	return append(leaves, sg.oversized...)
}

func (sg *SpatialGrid) allLeaves() []int {
	leaves := make([]int, len(sg.leaves))
	for i := range leaves {
		leaves[i] = i
	}
	return leaves
}

// cellRange returns the cells covered by bounds and how many there are
func (sg *SpatialGrid) cellRange(bounds actor.AABB) (CellKey, CellKey, float64) {
	count := 1.0
	for i := 0; i < 3; i++ {
		count *= math.Floor(bounds.Max[i]/sg.cellSize) - math.Floor(bounds.Min[i]/sg.cellSize) + 1
	}
	if count > maxQueryCells || math.IsNaN(count) {
		return CellKey{}, CellKey{}, math.Max(count, maxQueryCells+1)
	}
	return sg.worldToCell(bounds.Min), sg.worldToCell(bounds.Max), count
}

func (sg *SpatialGrid) forEachCell(minCell, maxCell CellKey, fn func(cellIdx int)) {
	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(sg.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

// worldToCell converts a world position to cell coordinates
func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

// hashCell maps a cell to an index in the cell array
func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
