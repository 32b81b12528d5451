// Package domain defines the core business entities for docintel.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested file with its lifecycle status and extracted text
//   - Chunk: An embedded slice of a document's text
//   - ProcessingLogEntry: An append-only record of a processing step
//   - DocumentSnapshot: The exportable JSON form of a processed document
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
