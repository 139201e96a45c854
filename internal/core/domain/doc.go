// Package domain defines the core business entities for the retrieval engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentChunk: A bounded slice of an uploaded document with its embedding
//   - ChunkMetadata: Ownership and provenance attached to every chunk
//   - SearchResult: A scored hit produced by a similarity query
//   - Params: Tunable retrieval parameters with safe defaults
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
