package domain

import (
	"fmt"
	"time"

	"github.com/aretw0/tiptoe/pkg/history"
)

// Mode defines which navigation regime the engine is in.
type Mode string

const (
	ModeIdle    Mode = "idle"    // No steps observed yet
	ModeAtRest  Mode = "at_rest" // Ordinary tracking
	ModeCycling Mode = "cycling" // Transient juggling through Ring
)

// State is the navigation state evolved by the engine.
//
// State is passed by value, but History is shared: handing a State to the
// engine transfers ownership of its history, and the caller must use the
// State returned instead.
type State struct {
	Mode Mode

	// StartedAt anchors the decay timer while cycling.
	StartedAt time.Time

	// Ring holds the steps being toggled through while cycling.
	// The last element is the current position.
	Ring []Step

	// History holds tracked steps, most recent last. While cycling it is the
	// remainder that is not part of Ring. Nil while idle.
	History *history.Stack[Step]
}

// Idle returns the initial state.
func Idle() State {
	return State{Mode: ModeIdle}
}

// AtRest returns a tracking state over h.
func AtRest(h *history.Stack[Step]) State {
	return State{Mode: ModeAtRest, History: h}
}

// Cycling returns a juggling state.
func Cycling(startedAt time.Time, ring []Step, remainder *history.Stack[Step]) State {
	return State{Mode: ModeCycling, StartedAt: startedAt, Ring: ring, History: remainder}
}

// Steps returns a copy of the tracked history, oldest first.
func (s State) Steps() []Step {
	if s.History == nil {
		return nil
	}
	return s.History.Items()
}

// Current returns the step the user is positioned at while cycling.
func (s State) Current() (Step, bool) {
	if s.Mode != ModeCycling || len(s.Ring) == 0 {
		return Step{}, false
	}
	return s.Ring[len(s.Ring)-1], true
}

func (s State) String() string {
	switch s.Mode {
	case ModeAtRest:
		return fmt.Sprintf("AtRest(%d)", s.History.Len())
	case ModeCycling:
		return fmt.Sprintf("Cycling(%d/%d)", len(s.Ring), s.History.Len())
	default:
		return "Idle"
	}
}
