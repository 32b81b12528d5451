package driven

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// FullTextIndex is the derived lexical index over completed documents.
// Only the index synchronizer writes to it.
type FullTextIndex interface {
	// Upsert inserts or replaces the row for a document.
	Upsert(ctx context.Context, entry domain.IndexEntry) error

	// Delete removes the row for a document. Missing rows are not an error.
	Delete(ctx context.Context, documentID int64) error

	// Search runs a query supporting terms, "exact phrases", AND/OR/NOT and
	// prefix* matching. Results are ordered best first.
	Search(ctx context.Context, query string, limit int) ([]domain.TextHit, error)

	// Contains reports whether a document has an index row.
	Contains(ctx context.Context, documentID int64) (bool, error)

	// Stats summarises the index.
	Stats(ctx context.Context) (*domain.IndexStats, error)
}
