package runner

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/tiptoe"
	"github.com/aretw0/tiptoe/internal/logging"
	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/ports"
)

// Runner drives a Server: it accepts connections, pumps the engine and backs
// off while there is nothing to do. All engine work happens on the goroutine
// calling Run (or Step); other goroutines observe it through Snapshot.
type Runner struct {
	// Server is the engine being driven. Required.
	Server *tiptoe.Server

	// Acceptor supplies new connections. If nil, only already connected
	// sessions are served.
	Acceptor ports.Acceptor

	// IdleDelay is how long Run sleeps after an iteration that did no work.
	IdleDelay time.Duration

	// Logger is used for loop-level events.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	snapshot atomic.Pointer[domain.Snapshot]
	steps    atomic.Uint64
}

// NewRunner creates a Runner for srv.
func NewRunner(srv *tiptoe.Server, opts ...Option) *Runner {
	r := &Runner{
		Server:    srv,
		IdleDelay: domain.DefaultIdleDelay,
		Logger:    logging.NewNop(),
		Clock:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Step runs one iteration at now: accept at most one pending connection,
// then pump the server once. It reports whether any work happened.
func (r *Runner) Step(now time.Time) bool {
	worked := r.accept()
	if r.Server.Pump(now) {
		worked = true
	}
	r.steps.Add(1)

	if worked || r.snapshot.Load() == nil {
		r.snapshot.Store(r.Server.Snapshot())
	}
	return worked
}

func (r *Runner) accept() bool {
	if r.Acceptor == nil {
		return false
	}

	name, link, ok, err := r.Acceptor.Accept()
	switch {
	case errors.Is(err, ports.ErrAcceptorClosed):
		r.logger().Info("acceptor closed, serving existing sessions only")
		r.Acceptor = nil
		return false
	case err != nil:
		r.logger().Warn("accept failed", "err", err)
		return false
	case !ok:
		return false
	}

	r.logger().Debug("accepted connection", "peer", name)
	r.Server.Connect(name, link)
	return true
}

// Run loops until ctx is cancelled. Per-connection failures never stop it.
func (r *Runner) Run(ctx context.Context) error {
	if r.Server == nil {
		return errors.New("runner: server is required")
	}
	clock := r.Clock
	if clock == nil {
		clock = time.Now
	}

	r.logger().Info("runner started", "idle_delay", r.IdleDelay)
	defer r.logger().Info("runner stopped", "steps", r.steps.Load())

	for {
		if ctx.Err() != nil {
			return nil
		}
		if r.Step(clock()) {
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.IdleDelay):
		}
	}
}

// Snapshot returns the state published by the latest working step, or nil
// before the first step. Safe for concurrent use.
func (r *Runner) Snapshot() *domain.Snapshot {
	return r.snapshot.Load()
}

// Steps returns the number of iterations run so far.
func (r *Runner) Steps() uint64 {
	return r.steps.Load()
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.NewNop()
	}
	return r.Logger
}
