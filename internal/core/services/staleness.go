package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
	"github.com/custodia-labs/metasync/internal/logger"
)

// StalenessResolver decides which candidate objects the index holds an
// older version of.
type StalenessResolver struct {
	index driven.SearchIndex
	log   logger.Logger
}

// NewStalenessResolver creates a resolver backed by index.
func NewStalenessResolver(index driven.SearchIndex, log logger.Logger) *StalenessResolver {
	if log == nil {
		log = logger.Nop()
	}
	return &StalenessResolver{index: index, log: log}
}

// Resolve looks up all candidates in one call and returns the identities
// that are missing from the index or older than the row, in candidate order.
// Candidates that could not be checked are reported as errors and left out.
func (r *StalenessResolver) Resolve(ctx context.Context, candidates []domain.ChangeRow) ([]domain.DocumentID, []error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]domain.DocumentID, len(candidates))
	for i, row := range candidates {
		ids[i] = row.Identity()
	}
	r.log.Debug("Looking up %d documents", len(ids))

	results, err := r.index.BulkLookup(ctx, ids, []string{domain.FieldTimestamp})
	if err != nil {
		return nil, []error{fmt.Errorf("failed to query %d documents: %w", len(ids), err)}
	}

	byID := make(map[domain.DocumentID]driven.LookupResult, len(results))
	for i, res := range results {
		if res.ID == "" && i < len(ids) {
			res.ID = ids[i]
		}
		if _, seen := byID[res.ID]; !seen {
			byID[res.ID] = res
		}
	}

	var (
		stale  []domain.DocumentID
		errs   []error
		queued = make(map[domain.DocumentID]bool)
	)
	for i, row := range candidates {
		id := ids[i]
		res, ok := byID[id]
		if !ok {
			errs = append(errs, fmt.Errorf("failed to query %s: no result returned", id))
			continue
		}
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("failed to query %s: %w", id, res.Err))
			continue
		}

		ts, err := row.LatestTimestamp()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to query %s: %w", id, err))
			continue
		}
		objectMillis := ts.Milliseconds()

		if res.Found && objectMillis <= storedMillis(res.Fields[domain.FieldTimestamp]) {
			continue
		}
		if queued[id] {
			continue
		}
		queued[id] = true
		stale = append(stale, id)
	}

	r.log.Debug("Stale documents: %v", stale)
	return stale, errs
}

// storedMillis reads a stored x-timestamp. Absent or unreadable values are 0.
func storedMillis(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}
