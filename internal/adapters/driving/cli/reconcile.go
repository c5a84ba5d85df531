package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/metasync/internal/logger"
)

const defaultBatchSize = 100

var reconcileFlags struct {
	batchSize int
	once      bool
	follow    bool
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile [feed]",
	Short: "Apply a change feed to the index",
	Long: `Reads change rows, one JSON object per line, and reconciles them with
the index. Each row carries row_id, account, container, name, deleted and
created_at, and optionally container_id.

Rows at or below a container's stored progress are skipped. Progress moves
only after a batch fully succeeds. The feed defaults to standard input; use
"-" explicitly or give a file path. With --follow the file is watched and
re-applied whenever it changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReconcile,
}

func init() {
	flags := reconcileCmd.Flags()
	flags.IntVar(&reconcileFlags.batchSize, "batch-size", defaultBatchSize, "maximum rows per batch")
	flags.BoolVar(&reconcileFlags.once, "once", true, "apply the feed once and exit")
	flags.BoolVar(&reconcileFlags.follow, "follow", false, "keep watching the feed file for changes")
	reconcileCmd.MarkFlagsMutuallyExclusive("once", "follow")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if reconcileFlags.batchSize < 1 {
		return fmt.Errorf("batch size must be positive, got %d", reconcileFlags.batchSize)
	}
	feed := "-"
	if len(args) > 0 {
		feed = args[0]
	}
	if reconcileFlags.follow && feed == "-" {
		return errors.New("--follow needs a feed file")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := loadServices(ctx)
	if err != nil {
		return err
	}

	if s.Schema != nil {
		if err := s.Schema.Verify(ctx); err != nil {
			return fmt.Errorf("verify schema: %w", err)
		}
	}

	runner := newFeedRunner(s.Reconcilers, reconcileFlags.batchSize, s.Logger)
	pass := func() error {
		stats, err := applyFeed(ctx, cmd, runner, feed)
		cmd.Printf("Processed %d rows in %d batches (%d skipped, %d failed)\n",
			stats.Rows, stats.Batches, stats.Skipped, stats.Failed)
		return err
	}

	if !reconcileFlags.follow {
		return pass()
	}
	if err := pass(); err != nil {
		s.Logger.Error("Feed pass failed: %v", err)
	}
	return followFeed(ctx, feed, pass, s.Logger)
}

func applyFeed(ctx context.Context, cmd *cobra.Command, runner *feedRunner, feed string) (feedStats, error) {
	var r io.Reader
	if feed == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(feed)
		if err != nil {
			return feedStats{}, fmt.Errorf("open feed: %w", err)
		}
		defer f.Close()
		r = f
	}
	return runner.run(ctx, r)
}

// followFeed calls pass whenever the feed file is written or replaced,
// until ctx is cancelled. The parent directory is watched so that files
// replaced by rename are still seen.
func followFeed(ctx context.Context, feed string, pass func() error, log logger.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(feed)
	if err != nil {
		return fmt.Errorf("resolve feed path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	log.Info("Watching %s for changes", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := pass(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Error("Feed pass failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("Watcher error: %v", err)
		}
	}
}
