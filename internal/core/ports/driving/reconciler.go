package driving

import (
	"context"

	"github.com/custodia-labs/metasync/internal/core/domain"
)

// Reconciler applies change rows of one container to the index.
type Reconciler interface {
	// Handle reconciles a batch of rows. Operations that succeed stay
	// applied even when the batch fails; a failed batch returns an error
	// matching domain.ErrBatchFailed.
	Handle(ctx context.Context, rows []domain.ChangeRow) error

	// Progress returns the last processed row offset of a container.
	Progress(ctx context.Context, containerID string) (int64, error)

	// SetProgress records the last processed row offset of a container.
	SetProgress(ctx context.Context, containerID string, offset int64) error
}

// ReconcilerProvider creates the Reconciler of a container.
type ReconcilerProvider interface {
	// ForContainer returns the reconciler for account/container.
	ForContainer(account, container string) (Reconciler, error)
}
