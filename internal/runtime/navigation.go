package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/session"
)

// Handle applies one command to state and returns the next state.
// Unknown or inapplicable commands leave the state unchanged.
func (e *Engine) Handle(state domain.State, cmd domain.Command, now time.Time) domain.State {
	if state.Mode != domain.ModeIdle && state.History == nil {
		state.History = e.newHistory()
	}

	switch c := cmd.(type) {
	case domain.Connect:
		e.connect(c)
		return state
	case domain.Register:
		e.register(c)
		return state
	case domain.Stepped:
		return e.stepped(state, c.Step)
	case domain.Juggle:
		return e.juggle(state, now)
	case domain.Reach:
		return e.reach(state, now)
	case domain.Hop:
		return e.hop(state, now)
	case domain.Clear:
		return e.clear(state)
	}
	e.logger.Warn("ignoring unknown command", "kind", cmd.Kind())
	return state
}

// Tick collapses a cycling state whose decay window has passed.
func (e *Engine) Tick(state domain.State, now time.Time) domain.State {
	if state.Mode != domain.ModeCycling {
		return state
	}
	idle := now.Sub(state.StartedAt)
	if idle <= e.decay {
		return state
	}

	if e.hooks.OnDecay != nil {
		e.hooks.OnDecay(context.Background(), &domain.DecayEvent{
			EventBase: domain.EventBase{Timestamp: now, Type: domain.EventDecay},
			Idle:      idle,
		})
	}
	return e.settle(state)
}

func (e *Engine) connect(c domain.Connect) {
	p := session.New(c.Name, c.Link, session.WithLogger(e.logger))
	h := e.roost.Add(p, session.PhaseStart)
	e.logger.Info("peer connected", "peer", c.Name, "session_id", p.ID(), "handle", uint64(h))
}

func (e *Engine) register(c domain.Register) {
	if prev, ok := e.roost.Find(c.Tag); ok {
		if cur, _ := e.roost.Get(c.Handle); cur != prev {
			e.logger.Info("tag taken over", "tag", c.Tag, "previous", prev.Name())
		}
	}
	if !e.roost.Perch(c.Tag, c.Handle) {
		e.logger.Warn("cannot perch", "tag", c.Tag, "err", fmt.Errorf("handle %d: %w", c.Handle, domain.ErrUnknownHandle))
	}
}

// clear forgets every step. The emptied history is reused by the next step.
func (e *Engine) clear(state domain.State) domain.State {
	if state.History != nil {
		state.History.Clear()
		e.spare = state.History
	}
	return domain.Idle()
}

// settle flushes the ring onto the remainder, current position last, and
// returns to ordinary tracking.
func (e *Engine) settle(state domain.State) domain.State {
	h := state.History
	if h == nil {
		h = e.newHistory()
	}
	for _, step := range state.Ring {
		h.Push(step)
	}
	return domain.AtRest(h)
}

func (e *Engine) stepped(state domain.State, step domain.Step) domain.State {
	switch state.Mode {
	case domain.ModeIdle:
		h := e.newHistory()
		h.Push(step)
		return domain.AtRest(h)
	case domain.ModeCycling:
		state = e.settle(state)
	}
	state.History.Push(step)
	return state
}

// enterCycling takes the two most recent steps into a ring and goes back to
// the older one.
func (e *Engine) enterCycling(state domain.State, now time.Time) domain.State {
	if state.Mode != domain.ModeAtRest || state.History.Len() < 2 {
		return state
	}
	latest, _ := state.History.Pop()
	previous, _ := state.History.Pop()
	ring := []domain.Step{latest, previous}
	e.dispatch(previous, now)
	return domain.Cycling(now, ring, state.History)
}

// rotate moves the front of the ring to its back and goes there.
func (e *Engine) rotate(state domain.State, now time.Time) domain.State {
	ring := state.Ring
	if len(ring) > 1 {
		ring = append(ring[1:len(ring):len(ring)], ring[0])
	}
	if len(ring) > 0 {
		e.dispatch(ring[len(ring)-1], now)
	}
	return domain.Cycling(now, ring, state.History)
}

func (e *Engine) juggle(state domain.State, now time.Time) domain.State {
	switch state.Mode {
	case domain.ModeAtRest:
		return e.enterCycling(state, now)
	case domain.ModeCycling:
		return e.rotate(state, now)
	}
	return state
}

func (e *Engine) reach(state domain.State, now time.Time) domain.State {
	switch state.Mode {
	case domain.ModeAtRest:
		return e.enterCycling(state, now)
	case domain.ModeCycling:
		if state.History == nil || state.History.Len() == 0 {
			return e.rotate(state, now)
		}
		older, _ := state.History.Pop()
		ring := append(state.Ring[:len(state.Ring):len(state.Ring)], older)
		e.dispatch(older, now)
		return domain.Cycling(now, ring, state.History)
	}
	return state
}

// hop swaps the two most recent steps and goes to the one now on top.
func (e *Engine) hop(state domain.State, now time.Time) domain.State {
	if state.Mode == domain.ModeCycling {
		state = e.settle(state)
	}
	if state.Mode != domain.ModeAtRest || state.History.Len() < 2 {
		return state
	}
	latest, _ := state.History.Pop()
	previous, _ := state.History.Pop()
	state.History.Push(latest)
	state.History.Push(previous)
	e.dispatch(previous, now)
	return state
}

// dispatch sends "goto" to whichever session is perched under the step's
// tag. Steps whose tag has no live session are dropped.
func (e *Engine) dispatch(step domain.Step, now time.Time) {
	event := &domain.DispatchEvent{
		EventBase: domain.EventBase{Timestamp: now, Type: domain.EventDispatch},
		Step:      step,
	}

	p, ok := e.roost.Find(step.Tag)
	if !ok {
		event.Dropped = true
		e.logger.Debug("no peer perched for step, dropping", "step", step.String())
	} else {
		event.Err = p.Goto(step.Ref)
	}

	if e.hooks.OnDispatch != nil {
		e.hooks.OnDispatch(context.Background(), event)
	}
}
