package batch

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bai0012/audio-toolkit-gui/internal/domain"
)

// ErrUnknownBatch is returned for operations naming a batch that was
// never submitted.
var ErrUnknownBatch = errors.New("unknown batch")

// ErrBatchFinished is returned when cancelling a batch already in a
// terminal state.
var ErrBatchFinished = errors.New("batch already finished")

// Manager is the registry of submitted batches. It enforces the
// lifecycle state machine; the orchestrator's workers drive transitions.
type Manager struct {
	mu      sync.RWMutex
	batches map[string]*domain.Batch
	order   []string
}

// NewManager creates an empty batch registry.
func NewManager() *Manager {
	return &Manager{batches: make(map[string]*domain.Batch)}
}

// Register adds a new batch in pending state.
func (m *Manager) Register(id string, kind domain.PipelineKind, submittedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.batches[id]; exists {
		return fmt.Errorf("batch %s already registered", id)
	}

	m.batches[id] = &domain.Batch{
		ID:          id,
		Kind:        kind,
		State:       domain.BatchStatePending,
		SubmittedAt: submittedAt,
	}
	m.order = append(m.order, id)
	return nil
}

// Transition validates and applies one state change.
func (m *Manager) Transition(id string, state domain.BatchState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	batch, ok := m.batches[id]
	if !ok {
		return ErrUnknownBatch
	}
	if batch.State == state {
		return nil
	}
	if !isValidTransition(batch.State, state) {
		return fmt.Errorf("invalid transition: %s -> %s", batch.State, state)
	}

	batch.State = state
	return nil
}

// Get returns a snapshot of one batch.
func (m *Manager) Get(id string) (domain.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	batch, ok := m.batches[id]
	if !ok {
		return domain.Batch{}, ErrUnknownBatch
	}
	return *batch, nil
}

// List returns snapshots of every batch in submission order.
func (m *Manager) List() []domain.Batch {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Batch, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.batches[id])
	}
	return out
}

// isValidTransition enforces the allowed batch state machine edges.
func isValidTransition(from, to domain.BatchState) bool {
	switch from {
	case domain.BatchStatePending:
		return to == domain.BatchStateRunning
	case domain.BatchStateRunning:
		return to == domain.BatchStateCompleted || to == domain.BatchStateCancelled
	default:
		return false
	}
}
