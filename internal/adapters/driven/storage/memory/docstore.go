package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure DocumentStore implements both store interfaces.
var (
	_ driven.DocumentStore = (*DocumentStore)(nil)
	_ driven.VectorStore   = (*DocumentStore)(nil)
)

// DocumentStore is an in-memory implementation of driven.DocumentStore and
// driven.VectorStore. Chunk scans see document status, so both live together.
type DocumentStore struct {
	mu        sync.RWMutex
	nextID    int64
	nextChunk int64
	nextLog   int64
	documents map[int64]domain.Document
	hashes    map[string]int64
	chunks    map[int64][]domain.Chunk
	snapshots map[int64]domain.DocumentSnapshot
	logs      map[int64][]domain.ProcessingLogEntry
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[int64]domain.Document),
		hashes:    make(map[string]int64),
		chunks:    make(map[int64][]domain.Chunk),
		snapshots: make(map[int64]domain.DocumentSnapshot),
		logs:      make(map[int64][]domain.ProcessingLogEntry),
	}
}

// CreateDocument stores a new document and assigns its ID.
func (s *DocumentStore) CreateDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ContentHash != "" {
		if existingID, ok := s.hashes[doc.ContentHash]; ok {
			existing := s.documents[existingID]
			return &domain.DuplicateError{
				ExistingID:   existing.ID,
				ExistingUUID: existing.UUID,
				ContentHash:  doc.ContentHash,
			}
		}
	}

	s.nextID++
	doc.ID = s.nextID
	s.documents[doc.ID] = cloneDocument(*doc)
	if doc.ContentHash != "" {
		s.hashes[doc.ContentHash] = doc.ID
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id int64) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneDocument(doc)
	return &out, nil
}

// FindByContentHash returns the document holding a byte hash.
func (s *DocumentStore) FindByContentHash(ctx context.Context, hash string) (*domain.Document, error) {
	s.mu.RLock()
	id, ok := s.hashes[hash]
	s.mu.RUnlock()
	if !ok || hash == "" {
		return nil, domain.ErrNotFound
	}
	return s.GetDocument(ctx, id)
}

// ListDocuments returns documents matching the filter, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(s.documents))
	slices.Reverse(ids)

	var result []domain.Document
	for _, id := range ids {
		doc := s.documents[id]
		if filter.Status != "" && doc.Status != filter.Status {
			continue
		}
		if filter.ContentType != "" && doc.ContentType != filter.ContentType {
			continue
		}
		result = append(result, cloneDocument(doc))
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// SaveDocument updates an existing document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.documents[doc.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if doc.Status == domain.StatusCompleted && doc.Content == "" {
		return fmt.Errorf("%w: completed document without content", domain.ErrInvalidInput)
	}
	if doc.ContentHash != old.ContentHash {
		if other, taken := s.hashes[doc.ContentHash]; taken && other != doc.ID {
			return &domain.DuplicateError{ExistingID: other, ContentHash: doc.ContentHash}
		}
		delete(s.hashes, old.ContentHash)
		if doc.ContentHash != "" {
			s.hashes[doc.ContentHash] = doc.ID
		}
	}
	s.documents[doc.ID] = cloneDocument(*doc)
	return nil
}

// ClaimForProcessing moves a document into processing if no one else holds it.
func (s *DocumentStore) ClaimForProcessing(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	switch doc.Status {
	case domain.StatusProcessing:
		return domain.ErrProcessingInProgress
	case domain.StatusArchived:
		return fmt.Errorf("%w: cannot process %s document", domain.ErrInvalidTransition, doc.Status)
	}
	doc.Status = domain.StatusProcessing
	doc.UpdatedAt = time.Now()
	s.documents[id] = doc
	return nil
}

// FailInterrupted releases processing claims older than staleBefore.
func (s *DocumentStore) FailInterrupted(_ context.Context, staleBefore time.Time) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for id, doc := range s.documents {
		if doc.Status != domain.StatusProcessing || !doc.UpdatedAt.Before(staleBefore) {
			continue
		}
		doc.Status = domain.StatusFailed
		doc.UpdatedAt = time.Now()
		s.documents[id] = doc
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// DeleteDocument removes a document with its chunks and logs.
func (s *DocumentStore) DeleteDocument(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	delete(s.hashes, doc.ContentHash)
	delete(s.chunks, id)
	delete(s.snapshots, id)
	delete(s.logs, id)
	return nil
}

// Stats summarises the collection.
func (s *DocumentStore) Stats(_ context.Context) (*domain.DocumentStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.DocumentStats{
		ByStatus:      make(map[domain.DocumentStatus]int),
		ByContentType: make(map[string]int),
	}
	since := time.Now().Add(-7 * 24 * time.Hour)
	var confidenceSum float64
	var completed int
	for _, doc := range s.documents {
		stats.Total++
		stats.ByStatus[doc.Status]++
		stats.ByContentType[doc.ContentType]++
		stats.TotalSize += doc.FileSize
		if doc.Status == domain.StatusCompleted {
			confidenceSum += doc.ConfidenceScore
			completed++
		}
		if !doc.UploadedAt.Before(since) {
			stats.RecentUploads++
		}
	}
	if completed > 0 {
		stats.AvgConfidence = confidenceSum / float64(completed)
	}
	for _, chunks := range s.chunks {
		stats.ChunkCount += len(chunks)
		if len(chunks) > 0 {
			stats.EmbeddedDocuments++
		}
	}
	return stats, nil
}

// AppendLog records a processing log entry.
func (s *DocumentStore) AppendLog(_ context.Context, entry *domain.ProcessingLogEntry) error {
	if entry == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[entry.DocumentID]; !ok {
		return domain.ErrNotFound
	}
	s.nextLog++
	entry.ID = s.nextLog
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	s.logs[entry.DocumentID] = append(s.logs[entry.DocumentID], *entry)
	return nil
}

// ListLogs returns a document's log entries, oldest first.
func (s *DocumentStore) ListLogs(_ context.Context, documentID int64) ([]domain.ProcessingLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.logs[documentID]), nil
}

// ReplaceChunks swaps a document's chunk set and snapshot.
func (s *DocumentStore) ReplaceChunks(
	_ context.Context,
	documentID int64,
	chunks []domain.Chunk,
	snapshot *domain.DocumentSnapshot,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[documentID]
	if !ok {
		return domain.ErrNotFound
	}

	stored := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.DocumentID != documentID {
			return fmt.Errorf("%w: chunk %d belongs to document %d", domain.ErrInvalidInput, chunk.Index, chunk.DocumentID)
		}
		if chunk.Content == "" || len(chunk.Embedding) == 0 {
			return fmt.Errorf("%w: chunk %d is empty", domain.ErrInvalidInput, chunk.Index)
		}
		s.nextChunk++
		chunk.ID = s.nextChunk
		chunk.Embedding = slices.Clone(chunk.Embedding)
		stored = append(stored, chunk)
	}
	s.chunks[documentID] = stored

	if snapshot != nil {
		s.snapshots[documentID] = *snapshot
		doc.TextHash = snapshot.TextHash
		s.documents[documentID] = doc
	}
	return nil
}

// GetChunks returns a document's chunks ordered by index.
func (s *DocumentStore) GetChunks(_ context.Context, documentID int64) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := slices.Clone(s.chunks[documentID])
	slices.SortFunc(chunks, func(a, b domain.Chunk) int { return a.Index - b.Index })
	return chunks, nil
}

// ScanCompleted visits the vectors of completed documents in chunk ID order.
func (s *DocumentStore) ScanCompleted(_ context.Context, fn func(domain.StoredVector) error) error {
	s.mu.RLock()
	var vectors []domain.StoredVector
	for docID, chunks := range s.chunks {
		doc := s.documents[docID]
		if doc.Status != domain.StatusCompleted {
			continue
		}
		for _, c := range chunks {
			vectors = append(vectors, domain.StoredVector{
				ChunkID:    c.ID,
				DocumentID: docID,
				ChunkIndex: c.Index,
				Content:    c.Content,
				Embedding:  c.Embedding,
				Filename:   doc.OriginalFilename,
				UploadedAt: doc.UploadedAt,
			})
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(vectors, func(a, b domain.StoredVector) int {
		switch {
		case a.ChunkID < b.ChunkID:
			return -1
		case a.ChunkID > b.ChunkID:
			return 1
		default:
			return 0
		}
	})
	for _, v := range vectors {
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

// GetSnapshot returns the stored export for a document.
func (s *DocumentStore) GetSnapshot(_ context.Context, documentID int64) (*domain.DocumentSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &snapshot, nil
}

// ListUnembedded returns completed documents with content but no chunks.
func (s *DocumentStore) ListUnembedded(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Document
	for _, id := range slices.Sorted(maps.Keys(s.documents)) {
		doc := s.documents[id]
		if doc.Status == domain.StatusCompleted && doc.Content != "" && len(s.chunks[id]) == 0 {
			result = append(result, cloneDocument(doc))
		}
	}
	return result, nil
}

// cloneDocument copies a document so callers cannot mutate stored state.
func cloneDocument(doc domain.Document) domain.Document {
	doc.Metadata = maps.Clone(doc.Metadata)
	doc.Tables = slices.Clone(doc.Tables)
	if doc.ProcessedAt != nil {
		t := *doc.ProcessedAt
		doc.ProcessedAt = &t
	}
	return doc
}
