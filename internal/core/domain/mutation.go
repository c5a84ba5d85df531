package domain

import (
	"net/http"
	"strconv"
)

// MutationOp is the kind of bulk operation.
type MutationOp string

const (
	// OpDelete removes a document.
	OpDelete MutationOp = "delete"

	// OpUpsert creates or replaces a document.
	OpUpsert MutationOp = "index"
)

// Mutation is one operation of a bulk write.
type Mutation struct {
	// Op is the operation kind.
	Op MutationOp

	// ID addresses the document.
	ID DocumentID

	// Document is the new content. Nil for deletes.
	Document *IndexDocument
}

// BulkItemResult is the outcome of one bulk operation.
type BulkItemResult struct {
	// ID addresses the document.
	ID DocumentID

	// Op is the operation kind.
	Op MutationOp

	// Status is the HTTP-equivalent status code of the item.
	Status int

	// Found reports whether the document existed before the operation.
	Found bool

	// Err describes the failure. Nil when the item succeeded.
	Err *MutationError
}

// Failed reports whether the item did not succeed.
func (r BulkItemResult) Failed() bool {
	return r.Err != nil
}

// AlreadyAbsent reports a delete of a document that did not exist.
func (r BulkItemResult) AlreadyAbsent() bool {
	return r.Op == OpDelete && r.Status == http.StatusNotFound && !r.Found
}

// MutationError is a rejected bulk item, independent of the wire format.
type MutationError struct {
	// Identity addresses the document.
	Identity DocumentID

	// StatusCode is the item status.
	StatusCode int

	// RootCause is the primary failure reason, if reported.
	RootCause string

	// CauseDetail is the reason of a deeper nested cause, if reported.
	CauseDetail string
}

// Error implements error.
func (e *MutationError) Error() string {
	return FormatMutationError(*e)
}

// FormatMutationError renders "<id>: <root cause>[: <detail>]", falling back
// to "<id>: <status>" when no structured reason was reported.
func FormatMutationError(e MutationError) string {
	prefix := string(e.Identity) + ": "
	if e.RootCause == "" {
		return prefix + strconv.Itoa(e.StatusCode)
	}
	if e.CauseDetail != "" {
		return prefix + e.RootCause + ": " + e.CauseDetail
	}
	return prefix + e.RootCause
}
