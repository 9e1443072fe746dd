// Package events carries harness lifecycle events from jobs to the
// consumers that present them: the log handler, the TUI bridge and
// the optional JSON event log.
package events

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a single occurrence in the harness lifecycle.
type Event struct {
	// Time is when the event occurred (set by the bus on publish).
	Time time.Time `json:"time"`

	// Type identifies what happened.
	Type EventType `json:"type"`

	// Image is the image name this event relates to (empty for
	// harness-level events).
	Image string `json:"image,omitempty"`

	// Env is the environment name (empty for build events).
	Env string `json:"env,omitempty"`

	// Container is the container name (run events only).
	Container string `json:"container,omitempty"`

	// Payload contains event-specific data.
	Payload any `json:"payload,omitempty"`

	// Error contains the error message if this is a failure event.
	Error string `json:"error,omitempty"`
}

// EventType is a string constant identifying the event category.
type EventType string

// Harness lifecycle events.
const (
	HarnessStarted   EventType = "harness.started"
	HarnessCompleted EventType = "harness.completed"
	HarnessFailed    EventType = "harness.failed"
)

// Phase events. Builds always run; the run phase is skipped entirely
// in build-only mode.
const (
	PhaseBuildStarted EventType = "phase.build.started"
	PhaseRunStarted   EventType = "phase.run.started"
	PhaseRunSkipped   EventType = "phase.run.skipped"
)

// Build job lifecycle events.
const (
	BuildQueued    EventType = "build.queued"
	BuildStarted   EventType = "build.started"
	BuildSucceeded EventType = "build.succeeded"
	BuildFailed    EventType = "build.failed"
)

// Run job lifecycle events.
const (
	RunQueued    EventType = "run.queued"
	RunStarted   EventType = "run.started"
	RunSucceeded EventType = "run.succeeded"
	RunFailed    EventType = "run.failed"
)

// ContainerLog carries one line of container output.
// Payload: the line (string).
const ContainerLog EventType = "container.log"

// NewEvent creates an event for an image.
func NewEvent(eventType EventType, image string) Event {
	return Event{
		Type:  eventType,
		Image: image,
	}
}

// WithEnv returns a copy of the event with the environment name set.
func (e Event) WithEnv(env string) Event {
	e.Env = env
	return e
}

// WithContainer returns a copy of the event with the container name set.
func (e Event) WithContainer(container string) Event {
	e.Container = container
	return e
}

// WithPayload returns a copy of the event with the payload set.
func (e Event) WithPayload(payload any) Event {
	e.Payload = payload
	return e
}

// WithError returns a copy of the event with the error message set.
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// IsFailure returns true if this is a failure event type.
func (e Event) IsFailure() bool {
	return strings.HasSuffix(string(e.Type), ".failed")
}

// String returns a human-readable representation of the event.
func (e Event) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Type))

	if e.Container != "" {
		parts = append(parts, e.Container)
	} else if e.Image != "" {
		if e.Env != "" {
			parts = append(parts, e.Image+"/"+e.Env)
		} else {
			parts = append(parts, e.Image)
		}
	}

	return strings.Join(parts, " ")
}
