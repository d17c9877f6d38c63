package jobs

import (
	"testing"
	"time"
)

func TestBusAssignsIncreasingSequence(t *testing.T) {
	bus := NewBus()

	first := bus.Publish(Event{Type: EventTypeStatus, Message: "a"})
	second := bus.Publish(Event{Type: EventTypeLog, Message: "b"})

	if first.Seq != 1 {
		t.Fatalf("sequence must start at one, got %d", first.Seq)
	}
	if second.Seq != first.Seq+1 {
		t.Fatalf("sequence must increase by one: %d then %d", first.Seq, second.Seq)
	}
	if first.Timestamp.IsZero() || second.Timestamp.IsZero() {
		t.Fatal("publish must assign timestamps")
	}
}

func TestBusKeepsExplicitTimestamp(t *testing.T) {
	bus := NewBus()
	stamp := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	event := bus.Publish(Event{Type: EventTypeLog, Timestamp: stamp})
	if !event.Timestamp.Equal(stamp) {
		t.Fatalf("explicit timestamp overwritten: %v", event.Timestamp)
	}
}

func TestEventOrderingAcrossTypes(t *testing.T) {
	bus := NewBus()

	events := []Event{
		bus.Publish(Event{Type: EventTypeStatus}),
		bus.Publish(Event{Type: EventTypeLog, LineSeq: 0}),
		bus.Publish(Event{Type: EventTypeLog, LineSeq: 1}),
		bus.Publish(Event{Type: EventTypeResult}),
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Fatalf("event %d out of order: %d after %d", i, events[i].Seq, events[i-1].Seq)
		}
	}
}
