package observability

import (
	"context"
	"errors"

	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch outcomes used as the "outcome" label.
const (
	OutcomeSent    = "sent"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

// Metrics exposes engine activity as Prometheus collectors.
type Metrics struct {
	Commands   *prometheus.CounterVec
	Dispatches *prometheus.CounterVec
	Decays     prometheus.Counter
	Released   prometheus.Counter
	LivePeers  prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiptoe_commands_total",
				Help: "Total number of commands processed by the engine",
			},
			[]string{"kind"},
		),
		Dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tiptoe_dispatches_total",
				Help: "Total number of goto instructions, by outcome",
			},
			[]string{"outcome"},
		),
		Decays: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tiptoe_decays_total",
			Help: "Total number of times cycling collapsed back to rest",
		}),
		Released: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tiptoe_sessions_released_total",
			Help: "Total number of closed sessions released by pruning",
		}),
		LivePeers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tiptoe_live_sessions",
			Help: "Number of sessions after the latest pruning pass",
		}),
	}

	for _, c := range []prometheus.Collector{m.Commands, m.Dispatches, m.Decays, m.Released, m.LivePeers} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) {
			m.Commands.WithLabelValues(string(e.Kind)).Inc()
		},
		OnDispatch: func(_ context.Context, e *domain.DispatchEvent) {
			m.Dispatches.WithLabelValues(outcome(e)).Inc()
		},
		OnDecay: func(context.Context, *domain.DecayEvent) {
			m.Decays.Inc()
		},
		OnPrune: func(_ context.Context, e *domain.PruneEvent) {
			m.Released.Add(float64(e.Released))
			m.LivePeers.Set(float64(e.Live))
		},
	}
}

func outcome(e *domain.DispatchEvent) string {
	switch {
	case e.Dropped:
		return OutcomeDropped
	case e.Err != nil:
		return OutcomeFailed
	}
	return OutcomeSent
}
