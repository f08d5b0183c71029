package physcore

import (
	"slices"

	"github.com/Swaelo/physcore/actor"
	"github.com/Swaelo/physcore/constraint"
)

// PairEntry is what the pair cache remembers about a touching pair
type PairEntry struct {
	TypeID int
	Cache  constraint.ConstraintCache
}

func (e PairEntry) Handle() constraint.ConstraintHandle {
	return e.Cache.ConstraintHandle()
}

// PairCache tracks the constraint of every touching pair across two frames. The narrow phase
// reads the previous frame while the current one is filled by flushes; Swap then promotes it.
type PairCache struct {
	previous map[actor.CollidablePair]PairEntry
	current  map[actor.CollidablePair]PairEntry
}

var _ constraint.PairCacheWriter = (*PairCache)(nil)

func NewPairCache() *PairCache {
	return &PairCache{
		previous: make(map[actor.CollidablePair]PairEntry),
		current:  make(map[actor.CollidablePair]PairEntry),
	}
}

// Previous returns the entry of a pair in the last completed frame. Safe for concurrent readers.
func (pc *PairCache) Previous(pair actor.CollidablePair) (PairEntry, bool) {
	entry, ok := pc.previous[pair]
	return entry, ok
}

// Current returns the entry of a pair in the frame being built
func (pc *PairCache) Current(pair actor.CollidablePair) (PairEntry, bool) {
	entry, ok := pc.current[pair]
	return entry, ok
}

func (pc *PairCache) Count() int {
	return len(pc.previous)
}

// Update records a pair whose constraint was updated in place
func (pc *PairCache) Update(pair actor.CollidablePair, typeID int, cache constraint.ConstraintCache) {
	pc.current[pair] = PairEntry{TypeID: typeID, Cache: cache}
}

// CompleteConstraintAdd records the constraint just created for a pair
func (pc *PairCache) CompleteConstraintAdd(pair actor.CollidablePair, typeID int, cache constraint.ConstraintCache, handle constraint.ConstraintHandle) {
	cache.SetConstraintHandle(handle)
	pc.current[pair] = PairEntry{TypeID: typeID, Cache: cache}
}

// Stale lists the previous frame entries whose constraint is not carried into the current frame
func (pc *PairCache) Stale() []actor.CollidablePair {
	var stale []actor.CollidablePair
	for pair, entry := range pc.previous {
		if current, ok := pc.current[pair]; !ok || current.Handle() != entry.Handle() {
			stale = append(stale, pair)
		}
	}
	sortPairs(stale)
	return stale
}

// Swap makes the current frame the previous one and reports which pairs started and stopped touching
func (pc *PairCache) Swap() (added, removed []actor.CollidablePair) {
	for pair := range pc.current {
		if _, ok := pc.previous[pair]; !ok {
			added = append(added, pair)
		}
	}
	for pair := range pc.previous {
		if _, ok := pc.current[pair]; !ok {
			removed = append(removed, pair)
		}
	}
	sortPairs(added)
	sortPairs(removed)

	pc.previous, pc.current = pc.current, pc.previous
	clear(pc.current)
	return added, removed
}

// Forget drops every pair involving a collidable from both frames and returns their previous entries
func (pc *PairCache) Forget(collidable actor.CollidableReference) map[actor.CollidablePair]PairEntry {
	forgotten := make(map[actor.CollidablePair]PairEntry)
	for pair, entry := range pc.previous {
		if pair.A == collidable || pair.B == collidable {
			forgotten[pair] = entry
			delete(pc.previous, pair)
		}
	}
	for pair := range pc.current {
		if pair.A == collidable || pair.B == collidable {
			delete(pc.current, pair)
		}
	}
	return forgotten
}

func sortPairs(pairs []actor.CollidablePair) {
	slices.SortFunc(pairs, func(a, b actor.CollidablePair) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
}
