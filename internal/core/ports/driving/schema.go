package driving

import "context"

// SchemaVerifier ensures the index defines every fixed document field.
type SchemaVerifier interface {
	// Verify adds missing fields. Start-up must not continue on error.
	Verify(ctx context.Context) error
}
