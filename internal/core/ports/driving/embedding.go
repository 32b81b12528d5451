package driving

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// RefreshReport summarises an embedding refresh sweep.
type RefreshReport struct {
	// Documents is the number of documents embedded successfully.
	Documents int

	// Chunks is the total number of chunks stored.
	Chunks int

	// Failed is the number of documents whose embedding failed.
	Failed int
}

// EmbeddingIndexer generates and stores chunk embeddings.
type EmbeddingIndexer interface {
	// GenerateEmbeddings chunks text, embeds every chunk and replaces the
	// document's stored chunks atomically. Empty text yields a zero-count result.
	GenerateEmbeddings(ctx context.Context, documentID int64, text string, metadata map[string]any) (*domain.EmbeddingResult, error)

	// Refresh regenerates embeddings for one completed document.
	Refresh(ctx context.Context, documentID int64) (*domain.EmbeddingResult, error)

	// RefreshPending embeds every completed document that has content but no chunks.
	// Each document is independent: failures are counted and logged, never fatal.
	RefreshPending(ctx context.Context) (*RefreshReport, error)
}
