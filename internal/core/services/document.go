package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService provides read access and operator actions on documents.
type DocumentService struct {
	docStore  driven.DocumentStore
	vectors   driven.VectorStore
	fileStore driven.FileStore
	index     driving.IndexService
	now       func() time.Time
}

// NewDocumentService creates a new document service.
func NewDocumentService(
	docStore driven.DocumentStore,
	vectors driven.VectorStore,
	fileStore driven.FileStore,
	index driving.IndexService,
) *DocumentService {
	return &DocumentService{
		docStore:  docStore,
		vectors:   vectors,
		fileStore: fileStore,
		index:     index,
		now:       time.Now,
	}
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID int64) (*domain.Document, error) {
	return s.docStore.GetDocument(ctx, documentID)
}

// List returns documents matching the filter, newest first.
func (s *DocumentService) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	if filter.Offset < 0 || filter.Limit < 0 {
		return nil, fmt.Errorf("%w: offset and limit must not be negative", domain.ErrInvalidInput)
	}
	return s.docStore.ListDocuments(ctx, filter)
}

// GetDetails returns a document with derived counts for display.
func (s *DocumentService) GetDetails(ctx context.Context, documentID int64) (*driving.DocumentDetails, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	details := &driving.DocumentDetails{Document: *doc}

	chunks, err := s.vectors.GetChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	details.ChunkCount = len(chunks)
	if len(chunks) > 0 {
		details.EmbeddingModel = chunks[0].Model
	}

	logs, err := s.docStore.ListLogs(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load logs: %w", err)
	}
	details.LogCount = len(logs)

	if s.index != nil {
		indexed, err := s.index.IsIndexed(ctx, documentID)
		if err != nil {
			logger.Warn("Could not check index row for document %d: %v", documentID, err)
		}
		details.Indexed = indexed
	}

	return details, nil
}

// GetTables returns the tables extracted from a document.
func (s *DocumentService) GetTables(ctx context.Context, documentID int64) ([]domain.Table, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Tables == nil {
		return []domain.Table{}, nil
	}
	return doc.Tables, nil
}

// GetLogs returns a document's processing log, oldest first.
func (s *DocumentService) GetLogs(ctx context.Context, documentID int64) ([]domain.ProcessingLogEntry, error) {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.docStore.ListLogs(ctx, documentID)
}

// GetSnapshot returns the exported snapshot of a processed document.
func (s *DocumentService) GetSnapshot(ctx context.Context, documentID int64) (*domain.DocumentSnapshot, error) {
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.vectors.GetSnapshot(ctx, documentID)
}

// FindByHash returns the document holding a content hash.
func (s *DocumentService) FindByHash(ctx context.Context, contentHash string) (*domain.Document, error) {
	contentHash = strings.ToLower(strings.TrimSpace(contentHash))
	if contentHash == "" {
		return nil, fmt.Errorf("%w: content hash is empty", domain.ErrInvalidInput)
	}
	return s.docStore.FindByContentHash(ctx, contentHash)
}

// Stats summarises the collection.
func (s *DocumentService) Stats(ctx context.Context) (*domain.DocumentStats, error) {
	return s.docStore.Stats(ctx)
}

// Update applies operator changes. Only completed documents can be
// archived and only archived ones restored. The index row follows the
// new state.
func (s *DocumentService) Update(
	ctx context.Context, documentID int64, update domain.DocumentUpdate,
) (*domain.Document, error) {
	if update.Summary == nil && update.Category == nil && update.Metadata == nil && update.Status == nil {
		return nil, fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	// The running pipeline rewrites the whole row when it finishes.
	if doc.Status == domain.StatusProcessing {
		return nil, domain.ErrProcessingInProgress
	}

	if update.Status != nil && *update.Status != doc.Status {
		if err := checkOperatorTransition(doc.Status, *update.Status); err != nil {
			return nil, err
		}
		doc.Status = *update.Status
	}
	if update.Summary != nil {
		doc.Summary = strings.TrimSpace(*update.Summary)
	}
	if update.Category != nil {
		category := strings.TrimSpace(*update.Category)
		if category == "" {
			return nil, fmt.Errorf("%w: category is empty", domain.ErrInvalidInput)
		}
		doc.Category = category
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		doc.Metadata["category"] = category
	}
	if update.Metadata != nil {
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		maps.Copy(doc.Metadata, update.Metadata)
	}
	doc.UpdatedAt = s.now()

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	s.syncIndex(ctx, documentID)

	return doc, nil
}

func checkOperatorTransition(from, to domain.DocumentStatus) error {
	switch {
	case from == domain.StatusCompleted && to == domain.StatusArchived:
		return nil
	case from == domain.StatusArchived && to == domain.StatusCompleted:
		return nil
	default:
		return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, from, to)
	}
}

// Delete removes the document row (cascading to chunks and logs), its
// stored file and its index row.
func (s *DocumentService) Delete(ctx context.Context, documentID int64) error {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if s.fileStore != nil && doc.FilePath != "" {
		if err := s.fileStore.Remove(doc.FilePath); err != nil {
			logger.Warn("Deleted document %d but could not remove %s: %v", documentID, doc.FilePath, err)
		}
	}
	s.syncIndex(ctx, documentID)

	logger.Info("Deleted document %d (%s)", documentID, doc.OriginalFilename)
	return nil
}

// syncIndex is best effort: the synchronizer logs and counts its own failures.
func (s *DocumentService) syncIndex(ctx context.Context, documentID int64) {
	if s.index == nil {
		return
	}
	if err := s.index.Sync(ctx, documentID); err != nil && !errors.Is(err, domain.ErrIndexSync) {
		logger.Warn("Index sync for document %d: %v", documentID, err)
	}
}
