package physcore

import (
	"github.com/Swaelo/physcore/actor"
	"github.com/Swaelo/physcore/constraint"
)

const (
	CONTACT_ADDED EventType = iota
	CONTACT_REMOVED
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// ContactAddedEvent is sent when a pair gets its first contact constraint
type ContactAddedEvent struct {
	Pair       actor.CollidablePair
	TypeID     int
	Constraint constraint.ConstraintHandle
}

func (e ContactAddedEvent) Type() EventType { return CONTACT_ADDED }

// ContactRemovedEvent is sent when a pair stops touching or one of its collidables is removed
type ContactRemovedEvent struct {
	Pair actor.CollidablePair
}

func (e ContactRemovedEvent) Type() EventType { return CONTACT_REMOVED }

// EventListener - callback for events
type EventListener func(event Event)

// Events buffers contact events during a step and sends them to listeners at its end
type Events struct {
	listeners map[EventType][]EventListener
	buffer    []Event
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 256),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		e.listeners = make(map[EventType][]EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// recordPairChanges turns the pair cache frame difference into events
func (e *Events) recordPairChanges(pairCache *PairCache, added, removed []actor.CollidablePair) {
	for _, pair := range added {
		entry, _ := pairCache.Previous(pair)
		e.emit(ContactAddedEvent{Pair: pair, TypeID: entry.TypeID, Constraint: entry.Handle()})
	}
	for _, pair := range removed {
		e.emit(ContactRemovedEvent{Pair: pair})
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
