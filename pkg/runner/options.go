package runner

import (
	"log/slog"
	"time"

	"github.com/aretw0/tiptoe/pkg/ports"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithAcceptor configures where new connections come from.
func WithAcceptor(a ports.Acceptor) Option {
	return func(r *Runner) {
		r.Acceptor = a
	}
}

// WithIdleDelay sets the back-off after an idle iteration.
func WithIdleDelay(d time.Duration) Option {
	return func(r *Runner) {
		r.IdleDelay = d
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithClock overrides the time source, mostly for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Runner) {
		r.Clock = clock
	}
}
