package driven

import (
	"context"

	"github.com/custodia-labs/metasync/internal/core/domain"
)

// SearchIndex is the document index being kept in sync.
// Implementations must be safe for concurrent use.
type SearchIndex interface {
	// Name returns the index identity recorded in progress cursors.
	Name() string

	// BulkLookup fetches the named fields of many documents in one call.
	// Results are returned in the order of ids, one per id. A transport
	// failure of the whole call is returned as the error.
	BulkLookup(ctx context.Context, ids []domain.DocumentID, fields []string) ([]LookupResult, error)

	// BulkWrite applies mutations in one call and reports a result per
	// operation. Items that fail do not affect the others.
	BulkWrite(ctx context.Context, ops []domain.Mutation) ([]domain.BulkItemResult, error)

	// Schema returns the current field mapping. An index with no mapping
	// returns an empty SchemaMapping.
	Schema(ctx context.Context) (domain.SchemaMapping, error)

	// PutSchema adds fields to the mapping. Existing fields are untouched.
	PutSchema(ctx context.Context, fields domain.SchemaMapping) error

	// Close releases resources.
	Close() error
}

// LookupResult is the outcome of looking up one document.
type LookupResult struct {
	// ID is the requested document.
	ID domain.DocumentID

	// Found reports whether the document exists.
	Found bool

	// Fields holds the requested stored fields of a found document.
	Fields map[string]any

	// Err is set when this document could not be looked up.
	Err error
}
