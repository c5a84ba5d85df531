package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrMissingField", ErrMissingField},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrSchemaImmutable", ErrSchemaImmutable},
		{"ErrBatchFailed", ErrBatchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestBatchError(t *testing.T) {
	first := fmt.Errorf("fetch: %w", ErrNotFound)
	second := &MutationError{Identity: "a/c/o", StatusCode: 500}
	err := error(&BatchError{Errors: []error{first, second}})

	assert.Equal(t, "failed to process some entries: 2 error(s)", err.Error())
	assert.True(t, errors.Is(err, ErrBatchFailed))
	assert.True(t, errors.Is(err, ErrNotFound))

	var mutErr *MutationError
	assert.True(t, errors.As(err, &mutErr))
	assert.Equal(t, DocumentID("a/c/o"), mutErr.Identity)
}

func TestBatchError_WrappedStillMatches(t *testing.T) {
	err := fmt.Errorf("batch 3: %w", &BatchError{Errors: []error{errors.New("x")}})
	assert.ErrorIs(t, err, ErrBatchFailed)
	assert.False(t, errors.Is(err, ErrNotFound))
}
