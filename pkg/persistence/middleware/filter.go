package middleware

import (
	"context"

	"github.com/aretw0/tiptoe/pkg/domain"
	"github.com/aretw0/tiptoe/pkg/ports"
)

// OnlyKinds creates a middleware that forwards only events of the given
// command kinds. With no kinds every event passes.
func OnlyKinds(kinds ...domain.CommandKind) Middleware {
	allowed := make(map[domain.CommandKind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	return func(next ports.Recorder) ports.Recorder {
		if len(allowed) == 0 {
			return next
		}
		return recorderFunc(func(ctx context.Context, event *domain.CommandEvent) error {
			if _, ok := allowed[event.Kind]; !ok {
				return nil
			}
			return next.Record(ctx, event)
		})
	}
}

type recorderFunc func(context.Context, *domain.CommandEvent) error

func (f recorderFunc) Record(ctx context.Context, event *domain.CommandEvent) error {
	return f(ctx, event)
}
