package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

// Ensure the cursor stores implement the interfaces.
var (
	_ driven.CursorStoreProvider = (*CursorStores)(nil)
	_ driven.CursorStore         = (*CursorStore)(nil)
)

type cursorKey struct {
	account     string
	container   string
	containerID string
}

// CursorStores is an in-memory implementation of driven.CursorStoreProvider.
// Cursors live for the lifetime of the process.
type CursorStores struct {
	mu      sync.RWMutex
	index   string
	cursors map[cursorKey]domain.ProgressCursor
}

// NewCursorStores creates cursor stores bound to index.
func NewCursorStores(index string) *CursorStores {
	return &CursorStores{
		index:   index,
		cursors: make(map[cursorKey]domain.ProgressCursor),
	}
}

// CursorStore returns the store of account/container.
func (s *CursorStores) CursorStore(account, container string) (driven.CursorStore, error) {
	return &CursorStore{parent: s, account: account, container: container}, nil
}

// Put records a cursor for any index, e.g. to simulate an index switch.
func (s *CursorStores) Put(account, container, containerID string, cursor domain.ProgressCursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[cursorKey{account, container, containerID}] = cursor
}

// CursorStore is the in-memory cursor store of one container.
type CursorStore struct {
	parent    *CursorStores
	account   string
	container string
}

// Get returns the last processed row offset.
func (c *CursorStore) Get(_ context.Context, containerID string) (int64, error) {
	c.parent.mu.RLock()
	defer c.parent.mu.RUnlock()
	cursor, ok := c.parent.cursors[c.key(containerID)]
	if !ok {
		return 0, nil
	}
	return cursor.OffsetFor(c.parent.index), nil
}

// Save records the last processed row offset.
func (c *CursorStore) Save(_ context.Context, containerID string, offset int64) error {
	c.parent.mu.Lock()
	defer c.parent.mu.Unlock()
	c.parent.cursors[c.key(containerID)] = domain.ProgressCursor{LastRow: offset, Index: c.parent.index}
	return nil
}

func (c *CursorStore) key(containerID string) cursorKey {
	return cursorKey{account: c.account, container: c.container, containerID: containerID}
}
