package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
	"github.com/custodia-labs/metasync/internal/logger"
)

// MutationExecutor submits bulk deletes and upserts and normalises the
// per-item failures.
type MutationExecutor struct {
	index  driven.SearchIndex
	source driven.ObjectSource
	log    logger.Logger
}

// NewMutationExecutor creates an executor writing to index and reading
// fresh metadata from source.
func NewMutationExecutor(index driven.SearchIndex, source driven.ObjectSource, log logger.Logger) *MutationExecutor {
	if log == nil {
		log = logger.Nop()
	}
	return &MutationExecutor{index: index, source: source, log: log}
}

// Delete removes documents. Deleting a document that is already absent
// is not an error.
func (e *MutationExecutor) Delete(ctx context.Context, ids []domain.DocumentID) []error {
	if len(ids) == 0 {
		return nil
	}
	ops := make([]domain.Mutation, len(ids))
	for i, id := range ids {
		ops[i] = domain.Mutation{Op: domain.OpDelete, ID: id}
	}
	e.log.Debug("Deleting %d documents", len(ops))
	return e.submit(ctx, domain.OpDelete, ops)
}

// Upsert fetches the newest metadata of each object and indexes it.
// Objects whose metadata cannot be fetched or converted are reported and
// skipped; the rest are still written.
func (e *MutationExecutor) Upsert(ctx context.Context, ids []domain.DocumentID) []error {
	if len(ids) == 0 {
		return nil
	}

	var (
		errs []error
		ops  = make([]domain.Mutation, 0, len(ids))
	)
	for _, id := range ids {
		doc, err := e.fetch(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ops = append(ops, domain.Mutation{Op: domain.OpUpsert, ID: id, Document: doc})
	}

	if len(ops) == 0 {
		return errs
	}
	e.log.Debug("Indexing %d documents", len(ops))
	return append(errs, e.submit(ctx, domain.OpUpsert, ops)...)
}

func (e *MutationExecutor) fetch(ctx context.Context, id domain.DocumentID) (*domain.IndexDocument, error) {
	account, container, name, err := id.Split()
	if err != nil {
		return nil, err
	}
	meta, err := e.source.ObjectMetadata(ctx, account, container, name, true)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata of %s: %w", id, err)
	}
	doc, err := BuildDocument(meta, account, container, name)
	if err != nil {
		return nil, fmt.Errorf("build document: %w", err)
	}
	return doc, nil
}

func (e *MutationExecutor) submit(ctx context.Context, op domain.MutationOp, ops []domain.Mutation) []error {
	results, err := e.index.BulkWrite(ctx, ops)
	if err != nil {
		return []error{fmt.Errorf("bulk %s of %d documents: %w", op, len(ops), err)}
	}

	var errs []error
	for _, res := range results {
		switch {
		case res.AlreadyAbsent():
			e.log.Debug("Already absent: %s", res.ID)
		case res.Failed():
			errs = append(errs, res.Err)
		case res.Status >= http.StatusMultipleChoices:
			errs = append(errs, &domain.MutationError{Identity: res.ID, StatusCode: res.Status})
		}
	}
	return errs
}
