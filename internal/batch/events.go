package batch

import (
	"sync"
	"time"

	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

// EventType classifies messages emitted while a batch runs.
type EventType string

const (
	// EventTypeBatch reports a batch lifecycle transition.
	EventTypeBatch EventType = "batch"
	// EventTypeJob reports one job starting or finishing.
	EventTypeJob EventType = "job"
	// EventTypeLog carries a free-form progress line.
	EventTypeLog EventType = "log"
	// EventTypeSummary is the terminal event carrying the batch summary.
	EventTypeSummary EventType = "summary"
)

// Event is a sequenced progress payload consumed by UI subscribers.
// Seq is monotonic per batch; delivery preserves publish order.
type Event struct {
	Seq       int64                `json:"seq"`
	Timestamp time.Time            `json:"timestamp"`
	BatchID   string               `json:"batchId"`
	Type      EventType            `json:"type"`
	Severity  domain.Severity      `json:"severity"`
	Message   string               `json:"message,omitempty"`
	State     domain.BatchState    `json:"state,omitempty"`
	Source    string               `json:"source,omitempty"`
	Outcome   domain.Outcome       `json:"outcome,omitempty"`
	Done      int                  `json:"done,omitempty"`
	Total     int                  `json:"total,omitempty"`
	Summary   *domain.BatchSummary `json:"summary,omitempty"`
}

// EventBus stores recent events for one batch and provides incremental
// reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
