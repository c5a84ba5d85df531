package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
	"github.com/custodia-labs/metasync/internal/core/ports/driving"
	"github.com/custodia-labs/metasync/internal/logger"
)

// Ensure Reconciler implements the interface.
var _ driving.Reconciler = (*Reconciler)(nil)

// Reconciler applies change rows of one container to the index.
type Reconciler struct {
	account   string
	container string
	cursors   driven.CursorStore
	resolver  *StalenessResolver
	executor  *MutationExecutor
	log       logger.Logger
}

// NewReconciler creates the reconciler of account/container.
func NewReconciler(
	account, container string,
	index driven.SearchIndex,
	source driven.ObjectSource,
	cursors driven.CursorStore,
	log logger.Logger,
) *Reconciler {
	if log == nil {
		log = logger.Nop()
	}
	return &Reconciler{
		account:   account,
		container: container,
		cursors:   cursors,
		resolver:  NewStalenessResolver(index, log),
		executor:  NewMutationExecutor(index, source, log),
		log:       log,
	}
}

// Handle reconciles a batch of rows.
// Deletes are submitted first, then stale objects are re-indexed. All
// failures of the batch are logged and returned as one *domain.BatchError.
func (r *Reconciler) Handle(ctx context.Context, rows []domain.ChangeRow) error {
	if len(rows) == 0 {
		return nil
	}
	batch := uuid.NewString()
	r.log.Debug("Batch %s: handling %d rows of %s/%s", batch, len(rows), r.account, r.container)

	var errs []error
	valid := make([]domain.ChangeRow, 0, len(rows))
	for _, row := range rows {
		if err := r.accept(row); err != nil {
			errs = append(errs, err)
			continue
		}
		valid = append(valid, row)
	}

	deletions, candidates := ClassifyRows(valid)
	errs = append(errs, r.executor.Delete(ctx, deletions)...)

	stale, queryErrs := r.resolver.Resolve(ctx, candidates)
	errs = append(errs, queryErrs...)
	errs = append(errs, r.executor.Upsert(ctx, stale)...)

	if len(errs) == 0 {
		r.log.Debug("Batch %s: %d deleted, %d indexed", batch, len(deletions), len(stale))
		return nil
	}
	for _, err := range errs {
		r.log.Error("Batch %s: %v", batch, err)
	}
	return &domain.BatchError{Errors: errs}
}

func (r *Reconciler) accept(row domain.ChangeRow) error {
	if err := row.Validate(); err != nil {
		return err
	}
	if row.Account != r.account || row.Container != r.container {
		return fmt.Errorf("%w: row %d belongs to %s/%s, not %s/%s",
			domain.ErrInvalidInput, row.RowID, row.Account, row.Container, r.account, r.container)
	}
	return nil
}

// Progress returns the last processed row offset.
func (r *Reconciler) Progress(ctx context.Context, containerID string) (int64, error) {
	offset, err := r.cursors.Get(ctx, containerID)
	if err != nil {
		return 0, fmt.Errorf("get progress of %s: %w", containerID, err)
	}
	return offset, nil
}

// SetProgress records the last processed row offset.
func (r *Reconciler) SetProgress(ctx context.Context, containerID string, offset int64) error {
	if offset < 0 {
		return fmt.Errorf("%w: negative offset %d", domain.ErrInvalidInput, offset)
	}
	if err := r.cursors.Save(ctx, containerID, offset); err != nil {
		return fmt.Errorf("save progress of %s: %w", containerID, err)
	}
	return nil
}

// Ensure Engine implements the interface.
var _ driving.ReconcilerProvider = (*Engine)(nil)

// Engine hands out per-container reconcilers sharing one index and source.
type Engine struct {
	index   driven.SearchIndex
	source  driven.ObjectSource
	cursors driven.CursorStoreProvider
	log     logger.Logger
}

// NewEngine creates an engine.
func NewEngine(
	index driven.SearchIndex,
	source driven.ObjectSource,
	cursors driven.CursorStoreProvider,
	log logger.Logger,
) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{index: index, source: source, cursors: cursors, log: log}
}

// ForContainer returns the reconciler of account/container.
func (e *Engine) ForContainer(account, container string) (driving.Reconciler, error) {
	if account == "" || container == "" {
		return nil, fmt.Errorf("%w: account and container are required", domain.ErrInvalidInput)
	}
	cursors, err := e.cursors.CursorStore(account, container)
	if err != nil {
		return nil, fmt.Errorf("open cursor store of %s/%s: %w", account, container, err)
	}
	return NewReconciler(account, container, e.index, e.source, cursors, e.log), nil
}
