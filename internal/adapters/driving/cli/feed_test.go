package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/logger"
)

func feedLine(rowID int64, account, container, name string, deleted bool) string {
	return fmt.Sprintf(`{"row_id": %d, "account": %q, "container": %q, "name": %q, "deleted": %t, "created_at": "1500000000.00000"}`,
		rowID, account, container, name, deleted)
}

func feedOf(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestFeedRunner_BatchesPerContainer(t *testing.T) {
	provider := newMockReconcilerProvider()
	runner := newFeedRunner(provider, 2, logger.Nop())

	stats, err := runner.run(context.Background(), feedOf(
		feedLine(1, "AUTH_a", "c1", "o1", false),
		feedLine(2, "AUTH_a", "c1", "o2", true),
		feedLine(3, "AUTH_a", "c1", "o3", false),
		"",
		feedLine(1, "AUTH_a", "c2", "o1", false),
	))
	require.NoError(t, err)

	assert.Equal(t, feedStats{Rows: 4, Batches: 3}, stats)
	require.Len(t, provider.batches, 3)
	assert.Len(t, provider.batches[0], 2)
	assert.Equal(t, "o3", provider.batches[1][0].Name)
	assert.Equal(t, "c2", provider.batches[2][0].Container)
	assert.True(t, provider.batches[0][1].Deleted)

	assert.Equal(t, int64(3), provider.progress["AUTH_a/c1"])
	assert.Equal(t, int64(1), provider.progress["AUTH_a/c2"])
	assert.Equal(t, []int64{2, 3, 1}, provider.saves)
}

func TestFeedRunner_SkipsAppliedRows(t *testing.T) {
	provider := newMockReconcilerProvider()
	provider.progress["AUTH_a/c"] = 2
	runner := newFeedRunner(provider, 100, logger.Nop())

	stats, err := runner.run(context.Background(), feedOf(
		feedLine(1, "AUTH_a", "c", "o1", false),
		feedLine(2, "AUTH_a", "c", "o2", false),
		feedLine(3, "AUTH_a", "c", "o3", false),
	))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Skipped)
	require.Len(t, provider.batches, 1)
	require.Len(t, provider.batches[0], 1)
	assert.Equal(t, int64(3), provider.batches[0][0].RowID)
}

func TestFeedRunner_ReplayIsNoop(t *testing.T) {
	provider := newMockReconcilerProvider()
	runner := newFeedRunner(provider, 100, logger.Nop())
	feed := []string{
		feedLine(1, "AUTH_a", "c", "o1", false),
		feedLine(2, "AUTH_a", "c", "o2", false),
	}

	_, err := runner.run(context.Background(), feedOf(feed...))
	require.NoError(t, err)
	stats, err := runner.run(context.Background(), feedOf(feed...))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Skipped)
	assert.Zero(t, stats.Batches)
	assert.Len(t, provider.batches, 1)
}

func TestFeedRunner_FailureStopsContainerOnly(t *testing.T) {
	provider := newMockReconcilerProvider()
	provider.handleErr["AUTH_a/bad"] = errBatch
	var logs bytes.Buffer
	runner := newFeedRunner(provider, 1, logger.New(&logs, logger.LevelInfo))

	stats, err := runner.run(context.Background(), feedOf(
		feedLine(1, "AUTH_a", "bad", "o1", false),
		feedLine(2, "AUTH_a", "bad", "o2", false),
		feedLine(1, "AUTH_a", "good", "o1", false),
	))
	require.ErrorIs(t, err, domain.ErrBatchFailed)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Batches)
	assert.Len(t, provider.batches, 2)
	assert.NotContains(t, provider.progress, "AUTH_a/bad")
	assert.Equal(t, int64(1), provider.progress["AUTH_a/good"])
	assert.Contains(t, logs.String(), "[ERROR] Container AUTH_a/bad (AUTH_a/bad): failed to process some entries")
}

func TestFeedRunner_ContainerID(t *testing.T) {
	provider := newMockReconcilerProvider()
	runner := newFeedRunner(provider, 100, logger.Nop())

	_, err := runner.run(context.Background(), feedOf(
		`{"row_id": 7, "account": "AUTH_a", "container": "c", "name": "o", "created_at": "1500000000.00000", "container_id": "sync-1"}`,
	))
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"sync-1": 7}, provider.progress)
}

func TestFeedRunner_ProviderError(t *testing.T) {
	provider := newMockReconcilerProvider()
	provider.forErr = domain.ErrInvalidInput
	runner := newFeedRunner(provider, 100, logger.Nop())

	stats, err := runner.run(context.Background(), feedOf(feedLine(1, "AUTH_a", "c", "o", false)))
	require.ErrorIs(t, err, domain.ErrBatchFailed)
	assert.Equal(t, 1, stats.Failed)
	assert.Empty(t, provider.batches)
}

func TestFeedRunner_MalformedLine(t *testing.T) {
	provider := newMockReconcilerProvider()
	runner := newFeedRunner(provider, 100, logger.Nop())

	_, err := runner.run(context.Background(), feedOf(
		feedLine(1, "AUTH_a", "c", "o", false),
		`{"row_id": "x"`,
	))
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "feed line 2")
	assert.Empty(t, provider.batches)
}

func TestFeedRunner_Cancelled(t *testing.T) {
	provider := newMockReconcilerProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	provider.handleErr["AUTH_a/c"] = ctx.Err()
	runner := newFeedRunner(provider, 100, logger.Nop())

	_, err := runner.run(ctx, feedOf(feedLine(1, "AUTH_a", "c", "o", false)))
	assert.ErrorIs(t, err, context.Canceled)
}
