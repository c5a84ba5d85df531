package driven

import "context"

// CursorStore persists reconciliation progress for one container.
// The index identity is fixed when the store is created; cursors written
// for another index read back as zero.
type CursorStore interface {
	// Get returns the last processed row offset, or 0 when none is recorded.
	Get(ctx context.Context, containerID string) (int64, error)

	// Save records the last processed row offset.
	Save(ctx context.Context, containerID string, offset int64) error
}

// CursorStoreProvider opens the cursor store of a container.
type CursorStoreProvider interface {
	// CursorStore returns the store for account/container.
	CursorStore(account, container string) (CursorStore, error)
}
