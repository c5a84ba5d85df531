// Package bleve implements the search index port on an embedded Bleve index.
//
// The fixed document fields are mapped when the index is created. Numbers
// and dates are stored as numeric fields holding epoch milliseconds; user
// metadata falls through to the dynamic default mapping. The mapping of an
// existing index cannot be extended.
package bleve

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

// Index wraps a Bleve index.
type Index struct {
	name  string
	index blevesearch.Index
}

// Open opens the index at path, creating it with the fixed mapping if it
// does not exist.
func Open(path, name string) (*Index, error) {
	idx, err := blevesearch.Open(path)
	if errors.Is(err, blevesearch.ErrorIndexPathDoesNotExist) {
		idx, err = blevesearch.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	return &Index{name: name, index: idx}, nil
}

// NewMemory creates an index held in memory only.
func NewMemory(name string) (*Index, error) {
	idx, err := blevesearch.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{name: name, index: idx}, nil
}

// buildIndexMapping maps every fixed field and keeps dynamic mapping on
// for user metadata.
func buildIndexMapping() mapping.IndexMapping {
	docMapping := blevesearch.NewDocumentMapping()
	for name, t := range domain.DefaultSchema() {
		docMapping.AddFieldMappingsAt(name, fieldMapping(t))
	}

	indexMapping := blevesearch.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func fieldMapping(t domain.FieldType) *mapping.FieldMapping {
	switch t {
	case domain.FieldTypeInteger, domain.FieldTypeDate:
		return blevesearch.NewNumericFieldMapping()
	case domain.FieldTypeBoolean:
		return blevesearch.NewBooleanFieldMapping()
	case domain.FieldTypeKeyword:
		return blevesearch.NewKeywordFieldMapping()
	default:
		return blevesearch.NewTextFieldMapping()
	}
}

// Name returns the configured index identity.
func (i *Index) Name() string {
	return i.name
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// BulkLookup fetches stored fields of the given documents.
func (i *Index) BulkLookup(ctx context.Context, ids []domain.DocumentID, fields []string) ([]driven.LookupResult, error) {
	found, err := i.fetch(ctx, ids, fields)
	if err != nil {
		return nil, err
	}

	results := make([]driven.LookupResult, len(ids))
	for n, id := range ids {
		results[n] = driven.LookupResult{ID: id}
		if stored, ok := found[id]; ok {
			results[n].Found = true
			results[n].Fields = stored
		}
	}
	return results, nil
}

func (i *Index) fetch(ctx context.Context, ids []domain.DocumentID, fields []string) (map[domain.DocumentID]map[string]any, error) {
	found := make(map[domain.DocumentID]map[string]any, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query := blevesearch.NewDocIDQuery(domain.DocumentIDStrings(ids))
	req := blevesearch.NewSearchRequestOptions(query, len(ids), 0, false)
	req.Fields = fields

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	for _, hit := range res.Hits {
		stored := hit.Fields
		if stored == nil {
			stored = map[string]any{}
		}
		found[domain.DocumentID(hit.ID)] = stored
	}
	return found, nil
}

// BulkWrite applies the mutations in one batch.
func (i *Index) BulkWrite(ctx context.Context, ops []domain.Mutation) ([]domain.BulkItemResult, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	ids := make([]domain.DocumentID, len(ops))
	for n, op := range ops {
		ids[n] = op.ID
	}
	existing, err := i.fetch(ctx, ids, nil)
	if err != nil {
		return nil, err
	}

	batch := i.index.NewBatch()
	results := make([]domain.BulkItemResult, len(ops))
	for n, op := range ops {
		_, exists := existing[op.ID]
		res := domain.BulkItemResult{ID: op.ID, Op: op.Op, Found: exists}

		switch op.Op {
		case domain.OpDelete:
			batch.Delete(string(op.ID))
			res.Status = http.StatusOK
			if !exists {
				res.Status = http.StatusNotFound
			}
		case domain.OpUpsert:
			if op.Document == nil {
				res.Status = http.StatusBadRequest
				res.Err = &domain.MutationError{Identity: op.ID, StatusCode: res.Status, RootCause: "missing document"}
				break
			}
			if err := batch.Index(string(op.ID), op.Document.Fields()); err != nil {
				res.Status = http.StatusBadRequest
				res.Err = &domain.MutationError{Identity: op.ID, StatusCode: res.Status, RootCause: err.Error()}
				break
			}
			res.Status = http.StatusOK
			if !exists {
				res.Status = http.StatusCreated
			}
		default:
			res.Status = http.StatusBadRequest
			res.Err = &domain.MutationError{Identity: op.ID, StatusCode: res.Status,
				RootCause: fmt.Sprintf("unknown operation %q", op.Op)}
		}
		results[n] = res
	}

	if err := i.index.Batch(batch); err != nil {
		return nil, fmt.Errorf("batch: %w", err)
	}
	return results, nil
}

// Schema returns the mapped fixed fields.
func (i *Index) Schema(_ context.Context) (domain.SchemaMapping, error) {
	schema := make(domain.SchemaMapping)

	impl, ok := i.index.Mapping().(*mapping.IndexMappingImpl)
	if !ok || impl.DefaultMapping == nil {
		return schema, nil
	}
	for name, doc := range impl.DefaultMapping.Properties {
		if doc == nil || len(doc.Fields) == 0 {
			continue
		}
		schema[name] = fieldType(name, doc.Fields[0])
	}
	return schema, nil
}

func fieldType(name string, fm *mapping.FieldMapping) domain.FieldType {
	switch fm.Type {
	case "number":
		if domain.DefaultSchema()[name] == domain.FieldTypeDate {
			return domain.FieldTypeDate
		}
		return domain.FieldTypeInteger
	case "datetime":
		return domain.FieldTypeDate
	case "boolean":
		return domain.FieldTypeBoolean
	case "text":
		if fm.Analyzer == "keyword" {
			return domain.FieldTypeKeyword
		}
		return domain.FieldTypeString
	default:
		return domain.FieldType(fm.Type)
	}
}

// PutSchema fails for any non-empty change.
func (i *Index) PutSchema(_ context.Context, fields domain.SchemaMapping) error {
	if len(fields) == 0 {
		return nil
	}
	return fmt.Errorf("%w: bleve index %s is missing %v", domain.ErrSchemaImmutable, i.name, fields.Names())
}

func (i *Index) docCount() (uint64, error) {
	return i.index.DocCount()
}
