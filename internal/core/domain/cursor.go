package domain

// ProgressCursor records how far a container has been reconciled.
type ProgressCursor struct {
	// LastRow is the last successfully processed row offset.
	LastRow int64 `json:"last_row"`

	// Index is the index the offset was computed against.
	Index string `json:"index"`
}

// OffsetFor returns the offset to resume from when reconciling into index.
// A cursor written for another index is not honored.
func (c ProgressCursor) OffsetFor(index string) int64 {
	if c.Index != index {
		return 0
	}
	return c.LastRow
}
