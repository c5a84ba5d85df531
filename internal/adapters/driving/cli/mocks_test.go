package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driving"
)

// mockReconciler implements driving.Reconciler for testing.
type mockReconciler struct {
	provider  *mockReconcilerProvider
	account   string
	container string
}

func (m *mockReconciler) Handle(_ context.Context, rows []domain.ChangeRow) error {
	p := m.provider
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, append([]domain.ChangeRow(nil), rows...))
	if err, ok := p.handleErr[m.account+"/"+m.container]; ok {
		return err
	}
	return nil
}

func (m *mockReconciler) Progress(_ context.Context, containerID string) (int64, error) {
	p := m.provider
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress[containerID], nil
}

func (m *mockReconciler) SetProgress(_ context.Context, containerID string, offset int64) error {
	p := m.provider
	p.mu.Lock()
	defer p.mu.Unlock()
	if offset < 0 {
		return domain.ErrInvalidInput
	}
	p.progress[containerID] = offset
	p.saves = append(p.saves, offset)
	return nil
}

// mockReconcilerProvider implements driving.ReconcilerProvider for testing.
type mockReconcilerProvider struct {
	mu        sync.Mutex
	progress  map[string]int64
	batches   [][]domain.ChangeRow
	saves     []int64
	handleErr map[string]error
	forErr    error
}

func newMockReconcilerProvider() *mockReconcilerProvider {
	return &mockReconcilerProvider{
		progress:  make(map[string]int64),
		handleErr: make(map[string]error),
	}
}

func (p *mockReconcilerProvider) ForContainer(account, container string) (driving.Reconciler, error) {
	if p.forErr != nil {
		return nil, p.forErr
	}
	return &mockReconciler{provider: p, account: account, container: container}, nil
}

func (p *mockReconcilerProvider) batchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

// mockSchemaVerifier implements driving.SchemaVerifier for testing.
type mockSchemaVerifier struct {
	calls int
	err   error
}

func (m *mockSchemaVerifier) Verify(_ context.Context) error {
	m.calls++
	return m.err
}

var errBatch = &domain.BatchError{Errors: []error{errors.New("a/c/o: 500")}}
