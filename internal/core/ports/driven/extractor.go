package driven

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// Extractor converts a stored file into text and tables.
type Extractor interface {
	// Extensions returns the lowercase file extensions handled, without dots.
	Extensions() []string

	// Extract reads the file at path.
	// Returns an error wrapping domain.ErrExtraction on corrupt input.
	Extract(ctx context.Context, path string) (*domain.Extraction, error)
}

// ExtractorRegistry selects an extractor by file extension.
type ExtractorRegistry interface {
	// Extract dispatches to the extractor registered for the file's extension.
	// Returns an error wrapping domain.ErrUnsupportedType if none is registered.
	Extract(ctx context.Context, path string) (*domain.Extraction, error)

	// Supports reports whether an extension (with or without dot) has an extractor.
	Supports(ext string) bool

	// ContentType returns the declared media type for an extension.
	ContentType(ext string) string
}
