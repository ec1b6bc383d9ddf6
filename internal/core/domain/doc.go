// Package domain defines the core business entities for Querra.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested document before chunking
//   - Chunk: A retrievable unit within a document
//   - RetrievalCandidate: A chunk scored during a query
//   - Response: The structured answer returned to the caller
//   - PipelineConfig: Validated pipeline configuration
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
