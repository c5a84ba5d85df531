package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driving"
	"github.com/custodia-labs/metasync/internal/logger"
)

const maxFeedLine = 1 << 20

// feedRow is one JSON line of the change feed.
type feedRow struct {
	domain.ChangeRow

	// ContainerID keys the progress cursor. Defaults to account/container.
	ContainerID string `json:"container_id,omitempty"`
}

type containerKey struct {
	account     string
	container   string
	containerID string
}

func (k containerKey) String() string {
	return k.account + "/" + k.container + " (" + k.containerID + ")"
}

func (r feedRow) key() containerKey {
	id := r.ContainerID
	if id == "" {
		id = r.Account + "/" + r.Container
	}
	return containerKey{account: r.Account, container: r.Container, containerID: id}
}

// feedStats summarises one pass over a feed.
type feedStats struct {
	Rows    int
	Skipped int
	Batches int
	Failed  int
}

type containerState struct {
	reconciler driving.Reconciler
	offset     int64
	failed     bool
}

// feedRunner groups consecutive rows of a container into batches, drops
// rows at or below the container's cursor and advances the cursor after
// each batch that fully succeeds. A container whose batch fails is skipped
// for the rest of the pass so its cursor never moves past unapplied rows.
type feedRunner struct {
	reconcilers driving.ReconcilerProvider
	batchSize   int
	log         logger.Logger

	containers map[containerKey]*containerState
	stats      feedStats
}

func newFeedRunner(reconcilers driving.ReconcilerProvider, batchSize int, log logger.Logger) *feedRunner {
	if batchSize < 1 {
		batchSize = 1
	}
	return &feedRunner{reconcilers: reconcilers, batchSize: batchSize, log: log}
}

// run performs one pass over the feed.
func (f *feedRunner) run(ctx context.Context, r io.Reader) (feedStats, error) {
	f.containers = make(map[containerKey]*containerState)
	f.stats = feedStats{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxFeedLine)

	var (
		pending    []domain.ChangeRow
		pendingKey containerKey
		line       int
	)
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var row feedRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return f.stats, fmt.Errorf("%w: feed line %d: %v", domain.ErrInvalidInput, line, err)
		}
		f.stats.Rows++

		key := row.key()
		if len(pending) > 0 && (key != pendingKey || len(pending) >= f.batchSize) {
			if err := f.flush(ctx, pendingKey, pending); err != nil {
				return f.stats, err
			}
			pending = pending[:0]
		}
		pendingKey = key
		pending = append(pending, row.ChangeRow)
	}
	if err := scanner.Err(); err != nil {
		return f.stats, fmt.Errorf("read feed: %w", err)
	}
	if len(pending) > 0 {
		if err := f.flush(ctx, pendingKey, pending); err != nil {
			return f.stats, err
		}
	}

	if f.stats.Failed > 0 {
		return f.stats, fmt.Errorf("%w: %d batch(es) failed", domain.ErrBatchFailed, f.stats.Failed)
	}
	return f.stats, nil
}

// flush applies one batch. Only cancellation is returned; other failures
// mark the container and are counted.
func (f *feedRunner) flush(ctx context.Context, key containerKey, rows []domain.ChangeRow) error {
	state, err := f.container(ctx, key)
	if err != nil {
		return f.fail(ctx, key, state, err)
	}
	if state.failed {
		f.stats.Skipped += len(rows)
		return nil
	}

	batch := make([]domain.ChangeRow, 0, len(rows))
	last := state.offset
	for _, row := range rows {
		if row.RowID <= state.offset {
			f.stats.Skipped++
			continue
		}
		batch = append(batch, row)
		last = max(last, row.RowID)
	}
	if len(batch) == 0 {
		return nil
	}

	f.log.Debug("Reconciling %d row(s) of %s", len(batch), key)
	if err := state.reconciler.Handle(ctx, batch); err != nil {
		return f.fail(ctx, key, state, err)
	}
	if err := state.reconciler.SetProgress(ctx, key.containerID, last); err != nil {
		return f.fail(ctx, key, state, fmt.Errorf("save progress: %w", err))
	}
	state.offset = last
	f.stats.Batches++
	return nil
}

func (f *feedRunner) container(ctx context.Context, key containerKey) (*containerState, error) {
	if state, ok := f.containers[key]; ok {
		return state, nil
	}

	state := &containerState{}
	f.containers[key] = state

	rec, err := f.reconcilers.ForContainer(key.account, key.container)
	if err != nil {
		return state, err
	}
	offset, err := rec.Progress(ctx, key.containerID)
	if err != nil {
		return state, fmt.Errorf("read progress: %w", err)
	}
	state.reconciler = rec
	state.offset = offset
	return state, nil
}

func (f *feedRunner) fail(ctx context.Context, key containerKey, state *containerState, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	f.log.Error("Container %s: %v", key, err)
	state.failed = true
	f.stats.Failed++
	return nil
}
