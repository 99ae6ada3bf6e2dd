// Package events provides in-process pub/sub for reservation lifecycle
// notifications. Side channels (logs, caches, future webhooks) subscribe here
// instead of being called from the decision path.
package events

import (
	"sync"
	"time"
)

// Event types published by the order service.
const (
	TypeOrderCreated      = "order.created"
	TypeOrderConfirmed    = "order.confirmed"
	TypeOrderRetimed      = "order.retimed"
	TypeOverrideCommitted = "override.committed"
)

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	OrderID   int64
	VehicleID int64
	ActorID   int64
	CreatedAt time.Time
}

// Handler reacts to an event. Handlers run synchronously; the caller decides
// the concurrency model.
type Handler func(event Event) error

// Bus provides in-process pub/sub for events.
type Bus struct {
	subscribers map[string][]Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}
