package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

// Ensure the cursor stores implement the interfaces.
var (
	_ driven.CursorStoreProvider = (*CursorStores)(nil)
	_ driven.CursorStore         = (*CursorStore)(nil)
)

// status is the content of one status file.
type status map[string]domain.ProgressCursor

// CursorStores opens status files under a status directory.
type CursorStores struct {
	dir   string
	index string
}

// NewCursorStores creates cursor stores rooted at dir for index.
func NewCursorStores(dir, index string) (*CursorStores, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: status directory is required", domain.ErrInvalidInput)
	}
	if index == "" {
		return nil, fmt.Errorf("%w: index name is required", domain.ErrInvalidInput)
	}
	return &CursorStores{dir: dir, index: index}, nil
}

// CursorStore returns the store of account/container.
func (s *CursorStores) CursorStore(account, container string) (driven.CursorStore, error) {
	if err := checkPathElement("account", account); err != nil {
		return nil, err
	}
	if err := checkPathElement("container", container); err != nil {
		return nil, err
	}
	return &CursorStore{
		path:  filepath.Join(s.dir, account, container),
		index: s.index,
	}, nil
}

func checkPathElement(kind, name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %s %q cannot name a status file", domain.ErrInvalidInput, kind, name)
	}
	return nil
}

// CursorStore is the status file of one container.
type CursorStore struct {
	path  string
	index string
}

// Path returns the status file path.
func (c *CursorStore) Path() string {
	return c.path
}

func (c *CursorStore) lockPath() string {
	return filepath.Join(filepath.Dir(c.path), "."+filepath.Base(c.path)+".lock")
}

// Get returns the last processed row offset.
func (c *CursorStore) Get(_ context.Context, containerID string) (int64, error) {
	if _, err := os.Stat(filepath.Dir(c.path)); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	unlock, err := lockFile(c.lockPath(), false)
	if err != nil {
		return 0, fmt.Errorf("locking status file: %w", err)
	}
	defer unlock()

	st, err := c.load()
	if err != nil {
		return 0, err
	}
	cursor, ok := st[containerID]
	if !ok {
		return 0, nil
	}
	return cursor.OffsetFor(c.index), nil
}

// Save records the last processed row offset, keeping other entries.
func (c *CursorStore) Save(_ context.Context, containerID string, offset int64) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating status directory: %w", err)
	}

	unlock, err := lockFile(c.lockPath(), true)
	if err != nil {
		return fmt.Errorf("locking status file: %w", err)
	}
	defer unlock()

	st, err := c.load()
	if err != nil {
		return err
	}
	st[containerID] = domain.ProgressCursor{LastRow: offset, Index: c.index}

	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	return writeAtomic(c.path, data)
}

// load reads the status file. Missing or malformed files are empty.
func (c *CursorStore) load() (status, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(status), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading status file: %w", err)
	}

	var st status
	if err := json.Unmarshal(data, &st); err != nil || st == nil {
		return make(status), nil
	}
	return st, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp status file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp status file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp status file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting status file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing status file: %w", err)
	}
	return nil
}
