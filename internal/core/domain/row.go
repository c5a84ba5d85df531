package domain

import (
	"fmt"
	"unicode/utf8"
)

// ChangeRow is one change event from a container listing.
// Rows are immutable and may be delivered more than once.
type ChangeRow struct {
	// RowID is the crawler's offset for this row within its container.
	RowID int64 `json:"row_id"`

	// Account owns the container.
	Account string `json:"account"`

	// Container holds the object.
	Container string `json:"container"`

	// Name is the object name.
	Name string `json:"name"`

	// Deleted marks the object as removed.
	Deleted bool `json:"deleted"`

	// CreatedAt is the combined encoding of the content, content-type and
	// metadata timestamps.
	CreatedAt string `json:"created_at"`
}

// Identity returns the index document key of the row's object.
func (r ChangeRow) Identity() DocumentID {
	return NewDocumentID(r.Account, r.Container, r.Name)
}

// LatestTimestamp returns the most recent modification time of the object.
// The metadata timestamp is always the latest of the three, as it moves
// forward whenever the content type changes as well.
func (r ChangeRow) LatestTimestamp() (Timestamp, error) {
	_, _, meta, err := DecodeTimestamps(r.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("decode timestamps of %s: %w", r.Identity(), err)
	}
	return meta, nil
}

// Validate reports whether the row can be reconciled.
func (r ChangeRow) Validate() error {
	switch {
	case r.Account == "":
		return fmt.Errorf("%w: row %d has no account", ErrInvalidInput, r.RowID)
	case r.Container == "":
		return fmt.Errorf("%w: row %d has no container", ErrInvalidInput, r.RowID)
	case r.Name == "":
		return fmt.Errorf("%w: row %d has no object name", ErrInvalidInput, r.RowID)
	case !utf8.ValidString(r.Name):
		return fmt.Errorf("%w: row %d object name is not valid UTF-8", ErrInvalidInput, r.RowID)
	}
	return nil
}
