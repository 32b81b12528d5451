package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// DocumentStore persists documents and their processing logs.
type DocumentStore interface {
	// CreateDocument inserts a new document and sets its ID.
	// Returns *domain.DuplicateError if another document holds the same content hash.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)

	// FindByContentHash returns the document holding a byte hash.
	// Returns domain.ErrNotFound if none does.
	FindByContentHash(ctx context.Context, hash string) (*domain.Document, error)

	// ListDocuments returns documents matching the filter, newest first.
	ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)

	// SaveDocument persists the mutable fields of an existing document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// ClaimForProcessing moves a document to processing unless it is already there.
	// Returns domain.ErrNotFound for an unknown id and
	// domain.ErrProcessingInProgress if another caller holds the claim.
	ClaimForProcessing(ctx context.Context, id int64) error

	// FailInterrupted moves every processing document last updated before
	// staleBefore to failed and returns their IDs.
	FailInterrupted(ctx context.Context, staleBefore time.Time) ([]int64, error)

	// DeleteDocument removes a document, cascading to chunks and log entries.
	DeleteDocument(ctx context.Context, id int64) error

	// Stats summarises the collection.
	Stats(ctx context.Context) (*domain.DocumentStats, error)

	// AppendLog records a processing log entry and sets its ID.
	AppendLog(ctx context.Context, entry *domain.ProcessingLogEntry) error

	// ListLogs returns a document's log entries, oldest first.
	ListLogs(ctx context.Context, documentID int64) ([]domain.ProcessingLogEntry, error)
}
