package memory

import (
	"context"
	"sync"

	"github.com/aretw0/tiptoe/pkg/domain"
)

// Recorder implements ports.Recorder by keeping events in memory.
// Safe for concurrent use.
type Recorder struct {
	mu     sync.RWMutex
	events []domain.CommandEvent
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record stores a copy of the event.
func (r *Recorder) Record(ctx context.Context, event *domain.CommandEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns the recorded events in order.
func (r *Recorder) Events() []domain.CommandEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.CommandEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events in order.
func (r *Recorder) Kinds() []domain.CommandKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.CommandKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}
