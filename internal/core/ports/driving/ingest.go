package driving

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// SubmitOptions carries optional upload attributes.
type SubmitOptions struct {
	// ContentType is the declared media type. Guessed from the extension when empty.
	ContentType string

	// Metadata is stored on the document and merged with processing metadata.
	Metadata map[string]any
}

// IngestService is the entry point for new documents.
// It is the only way documents enter the system, so every path is dedup-checked.
type IngestService interface {
	// Submit stores the file, creates an uploaded document and schedules processing.
	// Returns *domain.DuplicateError if the bytes were already ingested.
	Submit(ctx context.Context, data []byte, filename string, opts SubmitOptions) (*domain.Document, error)
}
