package services

import (
	"context"
	"net/http"
	"sync"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockIndex implements driven.SearchIndex over a map of stored documents.
type mockIndex struct {
	mu   sync.Mutex
	name string
	docs map[domain.DocumentID]map[string]any

	lookupCalls  [][]domain.DocumentID
	lookupFields [][]string
	lookupErr    error
	lookupFunc   func(ids []domain.DocumentID) []driven.LookupResult

	writeCalls [][]domain.Mutation
	writeErr   error
	writeFunc  func(ops []domain.Mutation) []domain.BulkItemResult

	schema    domain.SchemaMapping
	schemaErr error
	putCalls  []domain.SchemaMapping
	putErr    error
}

func newMockIndex() *mockIndex {
	return &mockIndex{name: "test_index", docs: make(map[domain.DocumentID]map[string]any)}
}

func (m *mockIndex) Name() string { return m.name }
func (m *mockIndex) Close() error { return nil }

func (m *mockIndex) BulkLookup(_ context.Context, ids []domain.DocumentID, fields []string) ([]driven.LookupResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupCalls = append(m.lookupCalls, append([]domain.DocumentID(nil), ids...))
	m.lookupFields = append(m.lookupFields, fields)
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	if m.lookupFunc != nil {
		return m.lookupFunc(ids), nil
	}

	results := make([]driven.LookupResult, len(ids))
	for i, id := range ids {
		results[i] = driven.LookupResult{ID: id}
		doc, ok := m.docs[id]
		if !ok {
			continue
		}
		results[i].Found = true
		results[i].Fields = make(map[string]any)
		for _, f := range fields {
			if v, ok := doc[f]; ok {
				results[i].Fields[f] = v
			}
		}
	}
	return results, nil
}

func (m *mockIndex) BulkWrite(_ context.Context, ops []domain.Mutation) ([]domain.BulkItemResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls = append(m.writeCalls, ops)
	if m.writeErr != nil {
		return nil, m.writeErr
	}
	if m.writeFunc != nil {
		return m.writeFunc(ops), nil
	}

	results := make([]domain.BulkItemResult, len(ops))
	for i, op := range ops {
		res := domain.BulkItemResult{ID: op.ID, Op: op.Op}
		_, exists := m.docs[op.ID]
		switch op.Op {
		case domain.OpDelete:
			res.Found = exists
			res.Status = http.StatusOK
			if !exists {
				res.Status = http.StatusNotFound
			}
			delete(m.docs, op.ID)
		case domain.OpUpsert:
			res.Found = exists
			res.Status = http.StatusCreated
			m.docs[op.ID] = op.Document.Fields()
		}
		results[i] = res
	}
	return results, nil
}

func (m *mockIndex) Schema(_ context.Context) (domain.SchemaMapping, error) {
	if m.schemaErr != nil {
		return nil, m.schemaErr
	}
	return m.schema, nil
}

func (m *mockIndex) PutSchema(_ context.Context, fields domain.SchemaMapping) error {
	m.putCalls = append(m.putCalls, fields)
	return m.putErr
}

func (m *mockIndex) writes(op domain.MutationOp) []domain.Mutation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Mutation
	for _, call := range m.writeCalls {
		for _, mut := range call {
			if mut.Op == op {
				out = append(out, mut)
			}
		}
	}
	return out
}

type fetchCall struct {
	id           domain.DocumentID
	preferNewest bool
}

// mockSource implements driven.ObjectSource.
type mockSource struct {
	mu       sync.Mutex
	meta     map[domain.DocumentID]domain.ObjectMetadata
	errs     map[domain.DocumentID]error
	metaFunc func(account, container, name string) domain.ObjectMetadata
	calls    []fetchCall
}

func newMockSource() *mockSource {
	return &mockSource{
		meta: make(map[domain.DocumentID]domain.ObjectMetadata),
		errs: make(map[domain.DocumentID]error),
	}
}

func (m *mockSource) ObjectMetadata(_ context.Context, account, container, name string, preferNewest bool) (domain.ObjectMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := domain.NewDocumentID(account, container, name)
	m.calls = append(m.calls, fetchCall{id: id, preferNewest: preferNewest})
	if err, ok := m.errs[id]; ok {
		return nil, err
	}
	if m.metaFunc != nil {
		return m.metaFunc(account, container, name), nil
	}
	meta, ok := m.meta[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return meta, nil
}

// mockCursorStore implements driven.CursorStore.
type mockCursorStore struct {
	offsets map[string]int64
	getErr  error
	saveErr error
}

func (m *mockCursorStore) Get(_ context.Context, containerID string) (int64, error) {
	if m.getErr != nil {
		return 0, m.getErr
	}
	return m.offsets[containerID], nil
}

func (m *mockCursorStore) Save(_ context.Context, containerID string, offset int64) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.offsets == nil {
		m.offsets = make(map[string]int64)
	}
	m.offsets[containerID] = offset
	return nil
}
