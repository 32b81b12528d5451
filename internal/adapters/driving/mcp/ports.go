package mcp

import (
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
// Tools backed by a nil optional port are not registered.
type Ports struct {
	// Search provides document-level text, vector and hybrid search.
	Search driving.SearchService

	// VectorSearch provides chunk similarity search and duplicate detection.
	VectorSearch driving.VectorSearchService

	// Document provides read access to documents.
	Document driving.DocumentService

	// Ingest accepts new uploads.
	Ingest driving.IngestService

	// Processing re-runs the state machine synchronously.
	Processing driving.ProcessingService

	// Dispatcher schedules pending documents in the background.
	Dispatcher driving.ProcessingDispatcher

	// Embeddings refreshes chunk embeddings.
	Embeddings driving.EmbeddingIndexer
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
