package constraint

import (
	"fmt"
	"log/slog"

	"github.com/Swaelo/physcore/actor"
)

type ConstraintHandle int32

// ConstraintLocation is where a live constraint is stored
type ConstraintLocation struct {
	BatchIndex       int
	TypeID           int
	IndexInTypeBatch int
}

type constraintSlot struct {
	location    ConstraintLocation
	bodyHandles BodyHandles
	live        bool
}

// constraintBatch never holds two constraints acting on the same body
type constraintBatch struct {
	typeBatches []TypeBatch
	bodies      map[actor.BodyHandle]struct{}
}

func (b *constraintBatch) conflicts(bodyHandles BodyHandles) bool {
	for i := 0; i < bodyHandles.BodyCount(); i++ {
		if _, ok := b.bodies[bodyHandles.Handle(i)]; ok {
			return true
		}
	}
	return false
}

// Store owns every constraint, grouped into batches and then by type
type Store struct {
	accessors []ContactConstraintAccessor
	batches   []*constraintBatch
	slots     []constraintSlot
	free      []ConstraintHandle
	count     int
	logger    *slog.Logger
}

func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger}
}

// Register makes a constraint type known to the store. Registering a type id twice panics.
func (s *Store) Register(accessor ContactConstraintAccessor) {
	id := accessor.TypeID()
	if id < 0 {
		panic(fmt.Sprintf("constraint type id %d is negative", id))
	}
	for len(s.accessors) <= id {
		s.accessors = append(s.accessors, nil)
	}
	if s.accessors[id] != nil {
		panic(fmt.Sprintf("constraint type id %d registered twice", id))
	}
	s.accessors[id] = accessor
	s.logger.Debug("constraint type registered", "type", id, "contacts", accessor.ContactCount(),
		"convex", accessor.Convex(), "bodies", accessor.BodyCount())
}

// Accessor returns the accessor registered for a type id, or nil
func (s *Store) Accessor(typeID int) ContactConstraintAccessor {
	if typeID < 0 || typeID >= len(s.accessors) {
		return nil
	}
	return s.accessors[typeID]
}

func (s *Store) TypeCount() int       { return len(s.accessors) }
func (s *Store) BatchCount() int      { return len(s.batches) }
func (s *Store) ConstraintCount() int { return s.count }

// Batch returns the non empty type batches of one constraint batch
func (s *Store) Batch(batchIndex int) []TypeBatch {
	var typeBatches []TypeBatch
	for _, typeBatch := range s.batches[batchIndex].typeBatches {
		if typeBatch != nil && typeBatch.Count() > 0 {
			typeBatches = append(typeBatches, typeBatch)
		}
	}
	return typeBatches
}

// FindCandidateBatch returns the first batch free of every referenced body.
// A result equal to BatchCount means a new batch is needed. It does not modify the store.
func (s *Store) FindCandidateBatch(bodyHandles BodyHandles) int {
	for i, batch := range s.batches {
		if !batch.conflicts(bodyHandles) {
			return i
		}
	}
	return len(s.batches)
}

func (s *Store) AddConstraint(typeID int, bodyHandles BodyHandles, description any) ConstraintHandle {
	return s.addToBatch(s.FindCandidateBatch(bodyHandles), typeID, bodyHandles, description)
}

// AddConstraintToBatch adds into a batch chosen ahead of time. When earlier adds of the same
// flush made that batch conflict, the constraint falls back to the first free batch.
func (s *Store) AddConstraintToBatch(batchIndex, typeID int, bodyHandles BodyHandles, description any) ConstraintHandle {
	if batchIndex < 0 || batchIndex > len(s.batches) || (batchIndex < len(s.batches) && s.batches[batchIndex].conflicts(bodyHandles)) {
		batchIndex = s.FindCandidateBatch(bodyHandles)
	}
	return s.addToBatch(batchIndex, typeID, bodyHandles, description)
}

func (s *Store) addToBatch(batchIndex, typeID int, bodyHandles BodyHandles, description any) ConstraintHandle {
	accessor := s.Accessor(typeID)
	if accessor == nil {
		panic(fmt.Sprintf("constraint type id %d is not registered", typeID))
	}
	if bodyHandles.BodyCount() != accessor.BodyCount() {
		panic(fmt.Sprintf("constraint type %d acts on %d bodies, got %d", typeID, accessor.BodyCount(), bodyHandles.BodyCount()))
	}

	if batchIndex == len(s.batches) {
		s.batches = append(s.batches, &constraintBatch{bodies: make(map[actor.BodyHandle]struct{})})
	}
	batch := s.batches[batchIndex]
	for len(batch.typeBatches) <= typeID {
		batch.typeBatches = append(batch.typeBatches, nil)
	}
	if batch.typeBatches[typeID] == nil {
		batch.typeBatches[typeID] = accessor.CreateTypeBatch()
	}

	handle := s.allocateHandle()
	index := batch.typeBatches[typeID].Add(handle, description)
	for i := 0; i < bodyHandles.BodyCount(); i++ {
		batch.bodies[bodyHandles.Handle(i)] = struct{}{}
	}

	s.slots[handle] = constraintSlot{
		location:    ConstraintLocation{BatchIndex: batchIndex, TypeID: typeID, IndexInTypeBatch: index},
		bodyHandles: bodyHandles,
		live:        true,
	}
	s.count++
	return handle
}

func (s *Store) allocateHandle() ConstraintHandle {
	if n := len(s.free); n > 0 {
		handle := s.free[n-1]
		s.free = s.free[:n-1]
		return handle
	}
	s.slots = append(s.slots, constraintSlot{})
	return ConstraintHandle(len(s.slots) - 1)
}

func (s *Store) Contains(handle ConstraintHandle) bool {
	return handle >= 0 && int(handle) < len(s.slots) && s.slots[handle].live
}

func (s *Store) slot(handle ConstraintHandle) *constraintSlot {
	if !s.Contains(handle) {
		panic(fmt.Sprintf("constraint handle %d does not exist", handle))
	}
	return &s.slots[handle]
}

func (s *Store) Location(handle ConstraintHandle) ConstraintLocation {
	return s.slot(handle).location
}

func (s *Store) BodyHandles(handle ConstraintHandle) BodyHandles {
	return s.slot(handle).bodyHandles
}

func (s *Store) Reference(handle ConstraintHandle) ConstraintReference {
	location := s.slot(handle).location
	return ConstraintReference{
		TypeBatch:        s.batches[location.BatchIndex].typeBatches[location.TypeID],
		IndexInTypeBatch: location.IndexInTypeBatch,
	}
}

func (s *Store) Description(handle ConstraintHandle) any {
	ref := s.Reference(handle)
	return ref.TypeBatch.Description(ref.IndexInTypeBatch)
}

// Remove deletes a constraint. The last constraint of its type batch takes its slot,
// impulses included.
func (s *Store) Remove(handle ConstraintHandle) {
	slot := s.slot(handle)
	location := slot.location
	batch := s.batches[location.BatchIndex]

	moved, didMove := batch.typeBatches[location.TypeID].RemoveAt(location.IndexInTypeBatch)
	if didMove {
		s.slots[moved].location.IndexInTypeBatch = location.IndexInTypeBatch
	}
	for i := 0; i < slot.bodyHandles.BodyCount(); i++ {
		delete(batch.bodies, slot.bodyHandles.Handle(i))
	}

	*slot = constraintSlot{}
	s.free = append(s.free, handle)
	s.count--
}
