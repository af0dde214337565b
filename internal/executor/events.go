package executor

import (
	"log"
	"sync/atomic"
	"time"
)

// EventType classifies an execution event.
type EventType string

const (
	// EventStepStarted indicates a step began running.
	EventStepStarted EventType = "step_started"
	// EventStepCompleted indicates a step finished with usable output, or
	// was skipped.
	EventStepCompleted EventType = "step_completed"
	// EventStepError indicates a step failed.
	EventStepError EventType = "step_error"
)

// Event is a progress notification emitted while a plan runs. Events feed
// the render loop; they carry display data only and never affect scheduling.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// StepID identifies the step.
	StepID string
	// Agent is the resolved agent name for the step.
	Agent string
	// Action is the step's action verb.
	Action string
	// Message carries extra display context (skip reasons, errors).
	Message string
	// Err is the step failure for error events.
	Err error
	// Duration is the step's elapsed time, set on completion and error.
	Duration time.Duration
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// EventEmitter fans execution events out to one subscriber over a buffered
// channel. A slow subscriber never stalls the scheduler: after a short
// grace period the event is dropped and counted.
type EventEmitter struct {
	events  chan Event
	dropped atomic.Uint64
}

// NewEventEmitter creates an emitter with the given channel buffer size.
func NewEventEmitter(bufferSize int) *EventEmitter {
	return &EventEmitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit sends an event, dropping it if the subscriber cannot keep up.
func (e *EventEmitter) Emit(event Event) {
	event.Timestamp = time.Now()

	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
	case <-time.After(100 * time.Millisecond):
		count := e.dropped.Add(1)
		if count%10 == 1 {
			log.Printf("[executor] event channel full, dropped event (total dropped: %d): type=%s step=%s", count, event.Type, event.StepID)
		}
	}
}

// Events returns the read-only event channel for the subscriber.
func (e *EventEmitter) Events() <-chan Event {
	return e.events
}

// DroppedCount returns how many events were dropped so far.
func (e *EventEmitter) DroppedCount() uint64 {
	return e.dropped.Load()
}

// Close closes the event channel. Call only after Execute has returned.
func (e *EventEmitter) Close() {
	close(e.events)
}
