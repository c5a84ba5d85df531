package driven

import (
	"context"

	"github.com/custodia-labs/metasync/internal/core/domain"
)

// ObjectSource reads object metadata from the object store.
type ObjectSource interface {
	// ObjectMetadata returns the current metadata of an object, with
	// lower-cased keys. preferNewest asks the store to consult every replica
	// and return the most recent copy. Returns domain.ErrNotFound if the
	// object does not exist.
	ObjectMetadata(ctx context.Context, account, container, name string, preferNewest bool) (domain.ObjectMetadata, error)
}
