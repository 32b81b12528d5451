package driving

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// DocumentService provides read access and operator actions on documents.
type DocumentService interface {
	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID int64) (*domain.Document, error)

	// List returns documents matching the filter.
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)

	// GetDetails returns a document with chunk and log counts for display.
	GetDetails(ctx context.Context, documentID int64) (*DocumentDetails, error)

	// GetTables returns the tables extracted from a document.
	GetTables(ctx context.Context, documentID int64) ([]domain.Table, error)

	// GetLogs returns a document's processing log, oldest first.
	GetLogs(ctx context.Context, documentID int64) ([]domain.ProcessingLogEntry, error)

	// GetSnapshot returns the exported JSON snapshot of a processed document.
	GetSnapshot(ctx context.Context, documentID int64) (*domain.DocumentSnapshot, error)

	// FindByHash returns the document holding a content hash.
	FindByHash(ctx context.Context, contentHash string) (*domain.Document, error)

	// Stats summarises the collection.
	Stats(ctx context.Context) (*domain.DocumentStats, error)

	// Update applies operator changes and re-synchronises the full-text index.
	// Returns domain.ErrProcessingInProgress while the document is processing.
	Update(ctx context.Context, documentID int64, update domain.DocumentUpdate) (*domain.Document, error)

	// Delete removes a document, its stored file, chunks, log entries and index row.
	Delete(ctx context.Context, documentID int64) error
}

// DocumentDetails is a document with derived counts for display.
type DocumentDetails struct {
	// Document is the stored record.
	Document domain.Document

	// ChunkCount is the number of embedded chunks.
	ChunkCount int

	// EmbeddingModel is the model of the stored chunks, empty if none.
	EmbeddingModel string

	// LogCount is the number of processing log entries.
	LogCount int

	// Indexed reports whether the document has a full-text index row.
	Indexed bool
}
