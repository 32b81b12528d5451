package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
	"github.com/custodia-labs/docintel/internal/metrics"
)

// Ensure IndexSynchronizer implements the interface.
var _ driving.IndexService = (*IndexSynchronizer)(nil)

// DefaultTextLimit applies when a full-text query passes no limit.
const DefaultTextLimit = 10

// IndexSynchronizer is the only writer of the full-text index. A document
// has an index row exactly when it is completed; every write for a
// document is serialised with the others for that document.
type IndexSynchronizer struct {
	docStore driven.DocumentStore
	index    driven.FullTextIndex
	locks    keyedMutex
}

// NewIndexSynchronizer creates a new index synchronizer.
func NewIndexSynchronizer(docStore driven.DocumentStore, index driven.FullTextIndex) *IndexSynchronizer {
	return &IndexSynchronizer{
		docStore: docStore,
		index:    index,
		locks:    keyedMutex{locks: make(map[int64]*refMutex)},
	}
}

// Sync reads the document's current state and upserts or removes its row.
// A deleted document loses its row.
func (s *IndexSynchronizer) Sync(ctx context.Context, documentID int64) error {
	unlock := s.locks.lock(documentID)
	defer unlock()

	_, err := s.sync(ctx, documentID)
	return err
}

func (s *IndexSynchronizer) sync(ctx context.Context, documentID int64) (bool, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return false, s.fail(documentID, s.index.Delete(ctx, documentID))
	case err != nil:
		return false, s.fail(documentID, err)
	}

	if !doc.Status.Searchable() || doc.Content == "" {
		return false, s.fail(documentID, s.index.Delete(ctx, documentID))
	}

	err = s.index.Upsert(ctx, domain.IndexEntry{
		DocumentID: doc.ID,
		Filename:   doc.OriginalFilename,
		Content:    doc.Content,
		Metadata:   doc.Metadata,
	})
	if err != nil {
		return false, s.fail(documentID, err)
	}
	return true, nil
}

func (s *IndexSynchronizer) fail(documentID int64, err error) error {
	if err == nil {
		return nil
	}
	metrics.IndexSyncFailures.Inc()
	logger.Warn("Full-text index sync failed for document %d: %v", documentID, err)
	return fmt.Errorf("%w: document %d: %w", domain.ErrIndexSync, documentID, err)
}

// Rebuild re-synchronises every stored document. Failures are collected
// and do not stop the sweep.
func (s *IndexSynchronizer) Rebuild(ctx context.Context) (int, error) {
	docs, err := s.docStore.ListDocuments(ctx, domain.DocumentFilter{})
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}

	indexed := 0
	var errs []error
	for i := range docs {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		unlock := s.locks.lock(docs[i].ID)
		ok, err := s.sync(ctx, docs[i].ID)
		unlock()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			indexed++
		}
	}

	logger.Info("Rebuilt full-text index: %d of %d documents indexed", indexed, len(docs))
	return indexed, errors.Join(errs...)
}

// Search queries the full-text index.
func (s *IndexSynchronizer) Search(ctx context.Context, query string, limit int) ([]domain.TextHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultTextLimit
	}
	return s.index.Search(ctx, query, limit)
}

// IsIndexed reports whether a document has an index row.
func (s *IndexSynchronizer) IsIndexed(ctx context.Context, documentID int64) (bool, error) {
	return s.index.Contains(ctx, documentID)
}

// Stats summarises the index.
func (s *IndexSynchronizer) Stats(ctx context.Context) (*domain.IndexStats, error) {
	return s.index.Stats(ctx)
}

// keyedMutex hands out one mutex per document id and frees it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) lock(id int64) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
