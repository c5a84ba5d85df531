// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - SearchIndex: Document index (Elasticsearch or Bleve)
//   - ObjectSource: Object metadata (Swift or S3)
//   - CursorStore: Per-container progress persistence
//   - CursorStoreProvider: Opens the CursorStore of a container
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
