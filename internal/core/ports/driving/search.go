package driving

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// SearchService provides document-level search to external actors.
type SearchService interface {
	// Search runs a text, vector or hybrid query depending on opts.Mode.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}

// VectorSearchService provides chunk-level similarity search.
type VectorSearchService interface {
	// Search returns at most limit chunk matches with similarity >= threshold,
	// best first. No matches is an empty result, not an error.
	Search(ctx context.Context, query string, limit int, threshold float64) ([]domain.VectorMatch, error)

	// FindDuplicates returns other documents whose chunks closely match the
	// opening chunks of documentID. The document itself is never included.
	FindDuplicates(ctx context.Context, documentID int64, threshold float64) ([]domain.DuplicateMatch, error)
}

// IndexService exposes the full-text index.
type IndexService interface {
	// Search queries the full-text index directly.
	Search(ctx context.Context, query string, limit int) ([]domain.TextHit, error)

	// Sync brings one document's index row in line with its stored status.
	Sync(ctx context.Context, documentID int64) error

	// Rebuild re-synchronises every document and returns how many are indexed.
	Rebuild(ctx context.Context) (int, error)

	// IsIndexed reports whether a document currently has an index row.
	IsIndexed(ctx context.Context, documentID int64) (bool, error)

	// Stats summarises the index.
	Stats(ctx context.Context) (*domain.IndexStats, error)
}
