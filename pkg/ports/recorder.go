package ports

import (
	"context"

	"github.com/aretw0/tiptoe/pkg/domain"
)

// Recorder defines the sink the engine writes each processed command to.
// Failures are reported back but never stop command processing.
type Recorder interface {
	Record(ctx context.Context, event *domain.CommandEvent) error
}

// SnapshotSource exposes the latest published view of the engine.
type SnapshotSource interface {
	// Snapshot returns the latest snapshot, or nil before the first one.
	Snapshot() *domain.Snapshot
}
