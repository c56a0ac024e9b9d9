package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventCommand  EventType = "command"
	EventDispatch EventType = "dispatch"
	EventDecay    EventType = "decay"
	EventPrune    EventType = "prune"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// CommandEvent records one processed command and the state it produced.
type CommandEvent struct {
	EventBase
	Kind   CommandKind `json:"kind"`
	Detail string      `json:"detail"`
	Before string      `json:"before"`
	After  string      `json:"after"`
}

// DispatchEvent records a "goto" instruction. Dropped is set when no live
// session was perched under the step's tag.
type DispatchEvent struct {
	EventBase
	Step    Step  `json:"step"`
	Dropped bool  `json:"dropped,omitempty"`
	Err     error `json:"-"`
}

// DecayEvent records an idle cycling state collapsing back to rest.
type DecayEvent struct {
	EventBase
	Idle time.Duration `json:"idle"`
}

// PruneEvent records a registry pruning pass.
type PruneEvent struct {
	EventBase
	Released int `json:"released"`
	Live     int `json:"live"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnCommand  func(context.Context, *CommandEvent)
	OnDispatch func(context.Context, *DispatchEvent)
	OnDecay    func(context.Context, *DecayEvent)
	OnPrune    func(context.Context, *PruneEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnCommand:  chain(h.OnCommand, other.OnCommand),
		OnDispatch: chain(h.OnDispatch, other.OnDispatch),
		OnDecay:    chain(h.OnDecay, other.OnDecay),
		OnPrune:    chain(h.OnPrune, other.OnPrune),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
