package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent reconciliation failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingField indicates object metadata lacks a mandatory field.
	ErrMissingField = errors.New("missing field")

	// ErrUnsupportedType indicates an unknown backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrRateLimited indicates the object store throttled a request.
	ErrRateLimited = errors.New("rate limited")

	// ErrSchemaImmutable indicates the index cannot add fields to its schema.
	ErrSchemaImmutable = errors.New("schema cannot be extended")

	// ErrBatchFailed indicates one or more operations of a batch failed.
	// Operations that succeeded have still been applied.
	ErrBatchFailed = errors.New("failed to process some entries")
)

// BatchError is the aggregate failure of one batch.
// It matches ErrBatchFailed and unwraps to the individual errors.
type BatchError struct {
	Errors []error
}

// Error implements error.
func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %d error(s)", ErrBatchFailed, len(e.Errors))
}

// Is matches ErrBatchFailed.
func (e *BatchError) Is(target error) bool {
	return target == ErrBatchFailed
}

// Unwrap returns the individual errors.
func (e *BatchError) Unwrap() []error {
	return e.Errors
}
