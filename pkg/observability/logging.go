package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tiptoe/pkg/domain"
)

// LogHooks returns lifecycle hooks that write navigation events to logger.
// Commands are logged at debug level since the engine already traces them.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDispatch: func(ctx context.Context, e *domain.DispatchEvent) {
			switch outcome(e) {
			case OutcomeDropped:
				logger.DebugContext(ctx, "goto dropped", "step", e.Step.String())
			case OutcomeFailed:
				logger.WarnContext(ctx, "goto failed", "step", e.Step.String(), "err", e.Err)
			default:
				logger.InfoContext(ctx, "goto", "tag", e.Step.Tag, "ref", e.Step.Ref)
			}
		},
		OnDecay: func(ctx context.Context, e *domain.DecayEvent) {
			logger.DebugContext(ctx, "cycling decayed", "idle", e.Idle)
		},
		OnPrune: func(ctx context.Context, e *domain.PruneEvent) {
			if e.Released > 0 {
				logger.InfoContext(ctx, "sessions released", "released", e.Released, "live", e.Live)
			}
		},
	}
}
