package jobs

import (
	"sync"
	"time"

	"scribe/internal/history"
)

// EventType classifies messages emitted during job execution.
type EventType string

const (
	EventTypeStatus EventType = "status"
	EventTypeLog    EventType = "log"
	EventTypeResult EventType = "result"
	EventTypeError  EventType = "error"
)

// Event is a sequenced payload consumed by subscribers. Log events carry
// one line of child output; exactly one result or error event closes a
// job's stream.
type Event struct {
	Seq         int64
	Timestamp   time.Time
	JobID       string
	Type        EventType
	Status      history.Status
	Message     string
	LineSeq     int
	ExitCode    int
	DerivedPath string
}

// Bus stamps events with a monotonically increasing sequence number and a
// timestamp. One counter covers status, log, and terminal events, so their
// relative order is recoverable from the sequence alone.
type Bus struct {
	mu      sync.Mutex
	nextSeq int64
}

// NewBus creates an event sequencer starting at one.
func NewBus() *Bus {
	return &Bus{}
}

// Publish assigns the next sequence number and a timestamp.
func (b *Bus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	return event
}
