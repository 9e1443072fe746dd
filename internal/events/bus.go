package events

import (
	"sync"
	"time"
)

// Handler processes a single event. Handlers run synchronously on the
// publishing goroutine and must be fast and non-blocking.
type Handler func(Event)

// Bus distributes events to subscribed handlers. Safe for concurrent
// Publish and Subscribe.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	closed   bool
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all subsequent events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish stamps the event and delivers it to every handler in
// subscription order.
func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

// Close stops delivery; later publishes are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = nil
	return nil
}
