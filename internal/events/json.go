package events

import (
	"encoding/json"
	"io"
	"sync"
)

// JSONEmitter writes events as JSON lines to a writer, for machine
// consumption of a run (--event-log). Thread-safe for concurrent
// Emit calls.
type JSONEmitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONEmitter creates a JSON emitter that writes to w. Each event
// becomes a single newline-delimited JSON object.
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{enc: json.NewEncoder(w)}
}

// Emit writes one event.
func (e *JSONEmitter) Emit(event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(event)
}

// Handler returns a bus handler that emits every event. Encoding
// errors are dropped; the event log is best effort.
func (e *JSONEmitter) Handler() Handler {
	return func(event Event) {
		_ = e.Emit(event)
	}
}
