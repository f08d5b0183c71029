package physcore

import (
	"testing"

	"github.com/Swaelo/physcore/actor"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxBounds(center mgl64.Vec3, halfExtent float64) actor.AABB {
	half := mgl64.Vec3{halfExtent, halfExtent, halfExtent}
	return actor.AABB{Min: center.Sub(half), Max: center.Add(half)}
}

func planeBounds() actor.AABB {
	return actor.ComputeAABB(&actor.Plane{Normal: mgl64.Vec3{0, 1, 0}}, actor.NewTransform())
}

func bodyRef(handle int) actor.CollidableReference {
	return actor.NewDynamicReference(actor.BodyHandle(handle))
}

func staticRef(handle int) actor.CollidableReference {
	return actor.NewStaticReference(actor.StaticHandle(handle))
}

func collectPairs(pairs <-chan actor.CollidablePair) []actor.CollidablePair {
	var result []actor.CollidablePair
	for pair := range pairs {
		result = append(result, pair)
	}
	sortPairs(result)
	return result
}

// recordingTester lists the leaves it is given and optionally caps maximumT after the first one
type recordingTester struct {
	visited []actor.CollidableReference
	capT    float64
}

func (r *recordingTester) TestLeaf(collidable actor.CollidableReference, maximumT *float64) {
	r.visited = append(r.visited, collidable)
	if r.capT > 0 && *maximumT > r.capT {
		*maximumT = r.capT
	}
}

func TestWorldToCell(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)

	tests := []struct {
		name     string
		position mgl64.Vec3
		expected CellKey
	}{
		{"origin", mgl64.Vec3{0, 0, 0}, CellKey{0, 0, 0}},
		{"positive", mgl64.Vec3{1.5, 2.3, 3.7}, CellKey{1, 2, 3}},
		{"negative", mgl64.Vec3{-1.5, -2.3, -3.7}, CellKey{-2, -3, -4}},
		{"fractional", mgl64.Vec3{0.5, 0.5, 0.5}, CellKey{0, 0, 0}},
		{"large", mgl64.Vec3{100.7, -200.3, 50.1}, CellKey{100, -201, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, grid.worldToCell(tt.position))
		})
	}
}

func TestHashCell(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)

	tests := []struct {
		name     string
		key      CellKey
		expected int
	}{
		{"origin", CellKey{0, 0, 0}, 0},
		{"simple", CellKey{1, 2, 3}, 6},
		{"negative", CellKey{-1, -2, -3}, 10},
		{"large", CellKey{100, 200, 300}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grid.hashCell(tt.key)
			assert.GreaterOrEqual(t, result, 0)
			assert.Less(t, result, len(grid.cells))
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNewSpatialGridRoundsCellCount(t *testing.T) {
	tests := []struct {
		requested int
		expected  int
	}{
		{0, 1},
		{1, 1},
		{3, 4},
		{16, 16},
		{1000, 1024},
	}

	for _, tt := range tests {
		grid := NewSpatialGrid(1.0, tt.requested)
		assert.Len(t, grid.cells, tt.expected, "requested %d", tt.requested)
	}
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name          string
		bounds        actor.AABB
		wantOversized bool
		wantCells     int
	}{
		{"single cell", boxBounds(mgl64.Vec3{1.5, 2.5, 3.5}, 0.4), false, 1},
		{"cell boundary", boxBounds(mgl64.Vec3{1, 1, 1}, 0.5), false, 8},
		{"many cells", boxBounds(mgl64.Vec3{0, 0, 0}, 2.5), false, 216},
		{"plane", planeBounds(), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := NewSpatialGrid(1.0, 1024)
			grid.Insert(bodyRef(0), tt.bounds)

			require.Equal(t, 1, grid.LeafCount())
			assert.Equal(t, tt.wantOversized, grid.leaves[0].oversized)
			if tt.wantOversized {
				assert.Equal(t, []int{0}, grid.oversized)
				return
			}

			minCell, maxCell, count := grid.cellRange(tt.bounds)
			assert.Equal(t, float64(tt.wantCells), count)
			grid.forEachCell(minCell, maxCell, func(cellIdx int) {
				assert.Contains(t, grid.cells[cellIdx].leafIndices, 0)
			})
		})
	}
}

func TestClear(t *testing.T) {
	grid := NewSpatialGrid(1.0, 64)
	grid.Insert(bodyRef(0), boxBounds(mgl64.Vec3{0, 0, 0}, 0.4))
	grid.Insert(staticRef(0), planeBounds())

	grid.Clear()

	assert.Zero(t, grid.LeafCount())
	assert.Empty(t, grid.oversized)
	for _, cell := range grid.cells {
		assert.Empty(t, cell.leafIndices)
	}
}

func TestSortCells(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)
	grid.cells[0].leafIndices = []int{5, 2, 8, 1, 9}

	grid.SortCells()

	assert.Equal(t, []int{1, 2, 5, 8, 9}, grid.cells[0].leafIndices)
}

func TestFindPairs(t *testing.T) {
	type leaf struct {
		collidable actor.CollidableReference
		bounds     actor.AABB
	}

	tests := []struct {
		name     string
		leaves   []leaf
		expected []actor.CollidablePair
	}{
		{
			name: "separated",
			leaves: []leaf{
				{bodyRef(0), boxBounds(mgl64.Vec3{0, 0, 0}, 0.4)},
				{bodyRef(1), boxBounds(mgl64.Vec3{5, 5, 5}, 0.4)},
			},
		},
		{
			name: "overlapping bodies",
			leaves: []leaf{
				{bodyRef(1), boxBounds(mgl64.Vec3{0, 0, 0}, 0.5)},
				{bodyRef(0), boxBounds(mgl64.Vec3{0.5, 0, 0}, 0.5)},
			},
			expected: []actor.CollidablePair{actor.NewCollidablePair(bodyRef(0), bodyRef(1))},
		},
		{
			name: "statics never pair",
			leaves: []leaf{
				{staticRef(0), boxBounds(mgl64.Vec3{0, 0, 0}, 0.5)},
				{staticRef(1), boxBounds(mgl64.Vec3{0.5, 0, 0}, 0.5)},
				{staticRef(2), planeBounds()},
			},
		},
		{
			name: "body resting on plane",
			leaves: []leaf{
				{staticRef(0), planeBounds()},
				{bodyRef(0), boxBounds(mgl64.Vec3{0, 0.45, 0}, 0.5)},
				{bodyRef(1), boxBounds(mgl64.Vec3{10, 5, 0}, 0.5)},
			},
			expected: []actor.CollidablePair{actor.NewCollidablePair(bodyRef(0), staticRef(0))},
		},
		{
			name: "large body meets every neighbour once",
			leaves: []leaf{
				{bodyRef(0), boxBounds(mgl64.Vec3{0, 0, 0}, 3)},
				{bodyRef(1), boxBounds(mgl64.Vec3{2, 2, 2}, 0.5)},
				{bodyRef(2), boxBounds(mgl64.Vec3{-2, -2, 2}, 0.5)},
			},
			expected: []actor.CollidablePair{
				actor.NewCollidablePair(bodyRef(0), bodyRef(1)),
				actor.NewCollidablePair(bodyRef(0), bodyRef(2)),
			},
		},
	}

	for _, tt := range tests {
		for _, workers := range []int{1, 4} {
			t.Run(tt.name, func(t *testing.T) {
				grid := NewSpatialGrid(1.0, 1024)
				for _, l := range tt.leaves {
					grid.Insert(l.collidable, l.bounds)
				}
				grid.SortCells()

				pairs := collectPairs(grid.FindPairs(workers))
				if len(tt.expected) == 0 {
					assert.Empty(t, pairs)
					return
				}
				assert.Equal(t, tt.expected, pairs)
			})
		}
	}
}

func TestRayCastVisitsNearestFirst(t *testing.T) {
	grid := NewSpatialGrid(1.0, 1024)
	grid.Insert(bodyRef(0), boxBounds(mgl64.Vec3{20, 0, 0}, 0.5))
	grid.Insert(bodyRef(1), boxBounds(mgl64.Vec3{5, 0, 0}, 0.5))
	grid.Insert(bodyRef(2), boxBounds(mgl64.Vec3{10, 0, 0}, 0.5))
	grid.Insert(bodyRef(3), boxBounds(mgl64.Vec3{10, 10, 0}, 0.5))

	t.Run("all candidates", func(t *testing.T) {
		tester := &recordingTester{}
		grid.RayCast(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 100, tester)
		assert.Equal(t, []actor.CollidableReference{bodyRef(1), bodyRef(2), bodyRef(0)}, tester.visited)
	})

	t.Run("maximum t lowered by the tester", func(t *testing.T) {
		tester := &recordingTester{capT: 7}
		grid.RayCast(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 100, tester)
		assert.Equal(t, []actor.CollidableReference{bodyRef(1)}, tester.visited)
	})

	t.Run("short ray", func(t *testing.T) {
		tester := &recordingTester{}
		grid.RayCast(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, 3, tester)
		assert.Empty(t, tester.visited)
	})
}

func TestSweepBounds(t *testing.T) {
	grid := NewSpatialGrid(2.0, 1024)
	grid.Insert(staticRef(0), planeBounds())
	grid.Insert(bodyRef(0), boxBounds(mgl64.Vec3{6, 3, 0}, 0.5))
	grid.Insert(bodyRef(1), boxBounds(mgl64.Vec3{6, 0.5, 0}, 0.5))

	tester := &recordingTester{}
	grid.Sweep(boxBounds(mgl64.Vec3{0, 0.5, 0}, 1), mgl64.Vec3{1, 0, 0}, 10, tester)

	// The plane bounds already overlap at t = 0, the low box is reached at t = 4.5 and the high one never
	assert.Equal(t, []actor.CollidableReference{staticRef(0), bodyRef(1)}, tester.visited)
}

func BenchmarkFindPairs(b *testing.B) {
	grid := NewSpatialGrid(1.0, 1024)
	for i := 0; i < 1000; i++ {
		position := mgl64.Vec3{float64(i%10) * 0.9, float64((i/10)%10) * 0.9, float64(i/100) * 0.9}
		grid.Insert(bodyRef(i), boxBounds(position, 0.5))
	}
	grid.SortCells()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for range grid.FindPairs(4) {
		}
	}
}
