package tiptoe

import (
	"log/slog"
	"time"

	"github.com/aretw0/tiptoe/internal/logging"
	"github.com/aretw0/tiptoe/internal/runtime"
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/ports"
)

// Server is the high-level entry point of the library.
// It owns the navigation state and the engine that evolves it.
//
// A Server is driven by a single goroutine calling Pump. Only Enqueue may be
// called from other goroutines; everything else reads state the pump owns.
type Server struct {
	runtime *runtime.Engine
	state   domain.State
	logger  *slog.Logger

	runtimeOpts []runtime.EngineOption
	hooks       domain.LifecycleHooks
	recorder    ports.Recorder
}

// Option defines a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Repeated use merges them.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Server) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithRecorder sets a sink for every processed command.
func WithRecorder(r ports.Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// WithCapacity bounds the tracked history (default 128).
func WithCapacity(capacity int) Option {
	return func(s *Server) {
		s.runtimeOpts = append(s.runtimeOpts, runtime.WithCapacity(capacity))
	}
}

// WithDecay sets the idle window after which cycling collapses (default 700ms).
func WithDecay(d time.Duration) Option {
	return func(s *Server) {
		s.runtimeOpts = append(s.runtimeOpts, runtime.WithDecay(d))
	}
}

// WithPruneInterval sets how often closed sessions are released (default 10s).
func WithPruneInterval(d time.Duration) Option {
	return func(s *Server) {
		s.runtimeOpts = append(s.runtimeOpts, runtime.WithPruneInterval(d))
	}
}

// WithClockStart anchors the prune timer, mostly for tests.
func WithClockStart(t time.Time) Option {
	return func(s *Server) {
		s.runtimeOpts = append(s.runtimeOpts, runtime.WithClockStart(t))
	}
}

// New creates an idle Server.
func New(opts ...Option) *Server {
	s := &Server{state: domain.Idle()}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(s.logger),
		runtime.WithLifecycleHooks(s.hooks),
	}
	if s.recorder != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithRecorder(s.recorder))
	}
	runtimeOpts = append(runtimeOpts, s.runtimeOpts...)

	s.runtime = runtime.NewEngine(runtimeOpts...)
	return s
}

// Connect hands a freshly accepted link to the server. The session is
// created on the next Pump.
func (s *Server) Connect(name string, link domain.PeerLink) {
	s.runtime.Enqueue(domain.Connect{Name: name, Link: link})
}

// Enqueue queues a command for the next Pump.
func (s *Server) Enqueue(cmd domain.Command) {
	s.runtime.Enqueue(cmd)
}

// Pump runs one iteration of the engine and reports whether any work
// happened.
func (s *Server) Pump(now time.Time) bool {
	var worked bool
	s.state, worked = s.runtime.Pump(s.state, now)
	return worked
}

// State returns the current navigation state. Its history is shared with the
// server and must not be modified; use Snapshot for a detached copy.
func (s *Server) State() domain.State {
	return s.state
}

// Peers describes every live session.
func (s *Server) Peers() []domain.PeerInfo {
	return s.runtime.Peers()
}

// Snapshot returns an immutable copy of the observable state.
func (s *Server) Snapshot() *domain.Snapshot {
	return s.runtime.Snapshot(s.state, time.Now())
}
