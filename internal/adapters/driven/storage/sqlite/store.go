package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/metasync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CursorStoreProvider = (*Store)(nil)

// Store is a SQLite database of progress cursors for one index.
type Store struct {
	db    *sql.DB
	path  string
	index string
}

// NewStore opens or creates the database in statusDir. Cursors are read
// and written for index.
func NewStore(statusDir, index string) (*Store, error) {
	if statusDir == "" {
		return nil, fmt.Errorf("%w: status directory is required", domain.ErrInvalidInput)
	}
	if index == "" {
		return nil, fmt.Errorf("%w: index name is required", domain.ErrInvalidInput)
	}

	// Ensure directory exists
	if err := os.MkdirAll(statusDir, 0700); err != nil {
		return nil, fmt.Errorf("creating status directory: %w", err)
	}

	dbPath := filepath.Join(statusDir, "progress.db")

	// Open database with WAL mode for concurrent crawlers
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:    db,
		path:  dbPath,
		index: index,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CursorStore returns the cursor store of account/container.
func (s *Store) CursorStore(account, container string) (driven.CursorStore, error) {
	if account == "" || container == "" {
		return nil, fmt.Errorf("%w: account and container are required", domain.ErrInvalidInput)
	}
	return &cursorStore{store: s, account: account, container: container}, nil
}

// migrate runs all pending migrations and records them.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_progress_cursors.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("starting migration %s: %w", name, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Cursor Store ====================

// cursorStore implements driven.CursorStore.
type cursorStore struct {
	store     *Store
	account   string
	container string
}

var _ driven.CursorStore = (*cursorStore)(nil)

// Get returns the last processed row offset.
func (c *cursorStore) Get(ctx context.Context, containerID string) (int64, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT last_row, index_name
		FROM progress_cursors
		WHERE account = ? AND container = ? AND container_id = ?
	`, c.account, c.container, containerID)

	var cursor domain.ProgressCursor
	if err := row.Scan(&cursor.LastRow, &cursor.Index); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("scanning progress cursor: %w", err)
	}
	return cursor.OffsetFor(c.store.index), nil
}

// Save records the last processed row offset.
func (c *cursorStore) Save(ctx context.Context, containerID string, offset int64) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO progress_cursors (account, container, container_id, last_row, index_name)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account, container, container_id) DO UPDATE SET
			last_row = excluded.last_row,
			index_name = excluded.index_name,
			updated_at = CURRENT_TIMESTAMP
	`, c.account, c.container, containerID, offset, c.store.index)
	if err != nil {
		return fmt.Errorf("saving progress cursor: %w", err)
	}
	return nil
}
