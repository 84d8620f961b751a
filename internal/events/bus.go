// internal/events/bus.go
package events

import (
	"sync"
)

// Handler receives a finalized event. Delivery is at-least-once per event
// id; handlers must tolerate duplicates and must not block for long.
type Handler func(AutonomousEvent)

// Bus broadcasts finalized events to subscribers. Handlers run
// synchronously in Publish order so tests can subscribe and assert
// delivery without sleeping; publication is fire-and-forget from the
// core's point of view.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all future events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers the event to every subscriber.
func (b *Bus) Publish(ev AutonomousEvent) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}
