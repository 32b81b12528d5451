package driven

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// VectorStore persists chunk vectors keyed by (document, chunk index).
type VectorStore interface {
	// ReplaceChunks deletes every chunk of the document and inserts the given
	// ones in a single transaction, storing the snapshot alongside.
	// Concurrent readers never observe a partial chunk set.
	ReplaceChunks(ctx context.Context, documentID int64, chunks []domain.Chunk, snapshot *domain.DocumentSnapshot) error

	// GetChunks returns a document's chunks ordered by index.
	GetChunks(ctx context.Context, documentID int64) ([]domain.Chunk, error)

	// ScanCompleted calls fn for every chunk vector owned by a completed
	// document, in storage order. Vectors that cannot be decoded are skipped.
	// Returning an error from fn stops the scan and returns that error.
	ScanCompleted(ctx context.Context, fn func(domain.StoredVector) error) error

	// GetSnapshot returns the stored export for a document.
	// Returns domain.ErrNotFound if none has been generated.
	GetSnapshot(ctx context.Context, documentID int64) (*domain.DocumentSnapshot, error)

	// ListUnembedded returns completed documents with content but no chunks.
	ListUnembedded(ctx context.Context) ([]domain.Document, error)
}
