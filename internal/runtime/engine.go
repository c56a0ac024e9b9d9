package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tiptoe/internal/logging"
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/history"
	"github.com/aretw0/tiptoe/pkg/ports"
	"github.com/aretw0/tiptoe/pkg/registry"
	"github.com/aretw0/tiptoe/pkg/session"
)

// Roost is the session directory owned by the engine.
type Roost = registry.Roost[session.Phase, *session.Peer]

// Engine is the navigation state machine. It owns the sessions, the command
// queue, and every side effect of a command: dispatching goto lines,
// recording events and firing hooks.
//
// The navigation State itself is not held by the engine; callers thread it
// through Pump and Handle. Enqueue is safe for concurrent use, everything
// else must be called from the goroutine that drives Pump.
type Engine struct {
	roost *Roost

	mu    sync.Mutex
	queue []domain.Command

	capacity      int
	decay         time.Duration
	pruneInterval time.Duration
	lastPrune     time.Time

	// spare is a cleared history kept for the next step after Clear.
	spare *history.Stack[domain.Step]

	hooks    domain.LifecycleHooks
	recorder ports.Recorder
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCapacity bounds the tracked history.
func WithCapacity(capacity int) EngineOption {
	return func(e *Engine) {
		e.capacity = capacity
	}
}

// WithDecay sets how long cycling survives without navigation commands.
func WithDecay(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.decay = d
	}
}

// WithPruneInterval sets how often closed sessions are released.
func WithPruneInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.pruneInterval = d
	}
}

// WithLogger configures a logger for the engine and its sessions.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks configures observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithRecorder configures a sink for processed commands.
func WithRecorder(r ports.Recorder) EngineOption {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithClockStart anchors the prune timer. Without it the first Pump does.
func WithClockStart(t time.Time) EngineOption {
	return func(e *Engine) {
		e.lastPrune = t
	}
}

// NewEngine creates an engine with an empty roost.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		roost:         registry.New[session.Phase, *session.Peer](),
		capacity:      domain.DefaultCapacity,
		decay:         domain.DefaultDecay,
		pruneInterval: domain.DefaultPruneInterval,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.capacity < 2 {
		e.capacity = 2
	}
	return e
}

// Enqueue appends cmd to the command queue. Commands are handled in FIFO
// order by the next Pump.
func (e *Engine) Enqueue(cmd domain.Command) {
	e.mu.Lock()
	e.queue = append(e.queue, cmd)
	e.mu.Unlock()
}

// Pending returns the number of queued commands.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) dequeue() (domain.Command, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return nil, false
	}
	cmd := e.queue[0]
	e.queue[0] = nil
	e.queue = e.queue[1:]
	return cmd, true
}

// Pump runs one iteration: poll every session once, apply decay, drain the
// queue and prune closed sessions when due. It reports whether any work
// happened, so the caller can back off when idle.
func (e *Engine) Pump(state domain.State, now time.Time) (domain.State, bool) {
	worked := e.poll()

	before := state.Mode
	state = e.Tick(state, now)
	if state.Mode != before {
		worked = true
	}

	for {
		cmd, ok := e.dequeue()
		if !ok {
			break
		}
		state = e.apply(state, cmd, now)
		worked = true
	}

	if e.lastPrune.IsZero() {
		e.lastPrune = now
	}
	if now.Sub(e.lastPrune) > e.pruneInterval {
		if e.prune(now) > 0 {
			worked = true
		}
		e.lastPrune = now
	}

	return state, worked
}

// poll gives every session one chance to read a line.
func (e *Engine) poll() bool {
	worked := false
	e.roost.Each(func(h registry.Handle, cell *registry.Cell[session.Phase], p *session.Peer) {
		phase, ok := cell.Take()
		if !ok {
			return
		}
		next, did := p.Pump(phase, h, e.Enqueue)
		cell.Put(next)

		if next == session.PhaseClosed && phase != session.PhaseClosed {
			if err := p.Close(); err != nil {
				e.logger.Debug("closing link failed", "peer", p.Name(), "err", err)
			}
			e.logger.Info("peer disconnected", "peer", p.Name(), "tag", p.Tag())
		}
		worked = worked || did
	})
	return worked
}

// prune releases closed sessions and every perch pointing at them.
func (e *Engine) prune(now time.Time) int {
	released := e.roost.Prune(session.IsClosed)
	live := e.roost.Len()
	if released > 0 {
		e.logger.Debug("pruned sessions", "released", released, "live", live)
	}
	if e.hooks.OnPrune != nil {
		e.hooks.OnPrune(context.Background(), &domain.PruneEvent{
			EventBase: domain.EventBase{Timestamp: now, Type: domain.EventPrune},
			Released:  released,
			Live:      live,
		})
	}
	return released
}

// apply handles cmd and reports it to the logger, hooks and recorder.
func (e *Engine) apply(state domain.State, cmd domain.Command, now time.Time) domain.State {
	before := state.String()
	state = e.Handle(state, cmd, now)

	event := &domain.CommandEvent{
		EventBase: domain.EventBase{Timestamp: now, Type: domain.EventCommand},
		Kind:      cmd.Kind(),
		Detail:    domain.Describe(cmd),
		Before:    before,
		After:     state.String(),
	}
	e.logger.Debug("command", "kind", event.Kind, "detail", event.Detail, "before", event.Before, "after", event.After)

	ctx := context.Background()
	if e.hooks.OnCommand != nil {
		e.hooks.OnCommand(ctx, event)
	}
	if e.recorder != nil {
		if err := e.recorder.Record(ctx, event); err != nil {
			e.logger.Warn("failed to record command", "kind", event.Kind, "err", err)
		}
	}
	return state
}

func (e *Engine) newHistory() *history.Stack[domain.Step] {
	if h := e.spare; h != nil {
		e.spare = nil
		return h
	}
	return history.New[domain.Step](e.capacity)
}

// Roost exposes the session directory for introspection.
func (e *Engine) Roost() *Roost {
	return e.roost
}

// Peers describes every live session, in connection order.
func (e *Engine) Peers() []domain.PeerInfo {
	var peers []domain.PeerInfo
	e.roost.Each(func(_ registry.Handle, cell *registry.Cell[session.Phase], p *session.Peer) {
		peers = append(peers, p.Info(cell.Peek()))
	})
	return peers
}

// Snapshot copies state together with the session list.
func (e *Engine) Snapshot(state domain.State, now time.Time) *domain.Snapshot {
	return domain.NewSnapshot(state, e.Peers(), now)
}
