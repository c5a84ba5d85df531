// Package domain defines the core entities for metasync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - ChangeRow: A change event for one object, produced by the crawler
//   - ObjectMetadata: Header-like metadata fetched from the object store
//   - IndexDocument: The search index representation of an object
//   - DocumentID: The deterministic key of an index document
//   - ProgressCursor: The resume point of a container
//   - SchemaMapping: The fixed fields an index must expose
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
