package batch

import "testing"

// TestEventBusSince verifies incremental event reads by sequence.
func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(3)
	bus.Publish(Event{Type: EventTypeLog, Message: "1"})
	bus.Publish(Event{Type: EventTypeLog, Message: "2"})
	bus.Publish(Event{Type: EventTypeLog, Message: "3"})

	events := bus.Since(1)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
}

// TestEventBusCapsHistory verifies buffer limit trimming behavior.
func TestEventBusCapsHistory(t *testing.T) {
	bus := NewEventBus(2)
	bus.Publish(Event{Message: "1"})
	bus.Publish(Event{Message: "2"})
	bus.Publish(Event{Message: "3"})

	events := bus.Since(0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Message != "2" || events[1].Message != "3" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

// TestEventBusStampsTimestamps verifies published events carry UTC times.
func TestEventBusStampsTimestamps(t *testing.T) {
	bus := NewEventBus(10)
	published := bus.Publish(Event{Message: "hello"})

	if published.Timestamp.IsZero() {
		t.Fatal("expected a timestamp")
	}
	if published.Timestamp.Location() != published.Timestamp.UTC().Location() {
		t.Fatalf("timestamp not UTC: %v", published.Timestamp)
	}
}
