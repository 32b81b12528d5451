package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docintel/internal/contenthash"
	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
	"github.com/custodia-labs/docintel/internal/metrics"
)

// Ensure EmbeddingIndexer implements the interface.
var _ driving.EmbeddingIndexer = (*EmbeddingIndexer)(nil)

// refreshConcurrency bounds parallel documents in a refresh sweep.
const refreshConcurrency = 2

// EmbeddingIndexer chunks text, embeds the chunks and stores them with a
// document snapshot.
type EmbeddingIndexer struct {
	docStore driven.DocumentStore
	vectors  driven.VectorStore
	pipeline driven.PostProcessorPipeline
	embedder driven.EmbeddingService
	now      func() time.Time
}

// NewEmbeddingIndexer creates a new embedding indexer.
// The embedder may be nil, in which case every call fails with
// domain.ErrEmbeddingUnavailable.
func NewEmbeddingIndexer(
	docStore driven.DocumentStore,
	vectors driven.VectorStore,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
) *EmbeddingIndexer {
	return &EmbeddingIndexer{
		docStore: docStore,
		vectors:  vectors,
		pipeline: pipeline,
		embedder: embedder,
		now:      time.Now,
	}
}

// GenerateEmbeddings replaces a document's chunks with freshly embedded ones.
func (s *EmbeddingIndexer) GenerateEmbeddings(
	ctx context.Context, documentID int64, text string, metadata map[string]any,
) (*domain.EmbeddingResult, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return &domain.EmbeddingResult{}, nil
	}

	textHash := contenthash.Text(text)

	chunks, err := s.pipeline.Process(ctx, &domain.Document{
		ID:       documentID,
		Content:  text,
		Metadata: metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: chunking: %w", domain.ErrEmbedding, err)
	}
	if len(chunks) == 0 {
		return &domain.EmbeddingResult{TextHash: textHash}, nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(chunks))
	}

	dims := len(vectors[0])
	model := s.embedder.ModelName()
	now := s.now()
	snapshot := &domain.DocumentSnapshot{
		DocumentID:          documentID,
		TextHash:            textHash,
		Content:             text,
		ContentLength:       utf8.RuneCountInString(text),
		ChunksCount:         len(chunks),
		EmbeddingModel:      model,
		EmbeddingDimensions: dims,
		Metadata:            metadata,
		Chunks:              make([]domain.ChunkSnapshot, 0, len(chunks)),
		CreatedAt:           now,
	}

	for i := range chunks {
		vec := vectors[i]
		if len(vec) == 0 || len(vec) != dims {
			return nil, fmt.Errorf("%w: chunk %d has %d dimensions, want %d",
				domain.ErrEmbedding, i, len(vec), dims)
		}

		c := &chunks[i]
		c.DocumentID = documentID
		c.Index = i
		c.Hash = contenthash.Chunk(documentID, i, c.Content)
		c.Embedding = vec
		c.Model = model
		c.CreatedAt = now

		snapshot.Chunks = append(snapshot.Chunks, domain.ChunkSnapshot{
			Index:     i,
			Hash:      c.Hash,
			Text:      c.Content,
			Length:    utf8.RuneCountInString(c.Content),
			Embedding: vec,
		})
	}

	if err := s.vectors.ReplaceChunks(ctx, documentID, chunks, snapshot); err != nil {
		return nil, fmt.Errorf("%w: store chunks: %w", domain.ErrEmbedding, err)
	}

	metrics.EmbeddedChunks.Add(float64(len(chunks)))
	logger.Debug("Stored %d chunks (%d dims, %s) for document %d", len(chunks), dims, model, documentID)

	return &domain.EmbeddingResult{
		Count:    len(chunks),
		TextHash: textHash,
		Snapshot: snapshot,
	}, nil
}

// Refresh regenerates embeddings for a completed document.
func (s *EmbeddingIndexer) Refresh(ctx context.Context, documentID int64) (*domain.EmbeddingResult, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.StatusCompleted {
		return nil, fmt.Errorf("%w: document %d is %s, only completed documents are embedded",
			domain.ErrInvalidInput, documentID, doc.Status)
	}

	start := s.now()
	result, err := s.GenerateEmbeddings(ctx, doc.ID, doc.Content, doc.Metadata)

	entry := &domain.ProcessingLogEntry{
		DocumentID: doc.ID,
		Operation:  OpEmbedding,
		Duration:   s.now().Sub(start),
	}
	if err != nil {
		metrics.EmbeddingFailures.Inc()
		entry.Outcome = domain.OutcomeWarning
		entry.Message = err.Error()
	} else {
		entry.Outcome = domain.OutcomeSuccess
		entry.Message = fmt.Sprintf("Refreshed %d chunks", result.Count)
		entry.Details = map[string]any{"chunks": result.Count, "document_hash": result.TextHash}
	}
	if logErr := s.docStore.AppendLog(ctx, entry); logErr != nil {
		logger.Warn("Failed to record embedding log for document %d: %v", doc.ID, logErr)
	}

	return result, err
}

// RefreshPending embeds every completed document that has no chunks.
func (s *EmbeddingIndexer) RefreshPending(ctx context.Context) (*driving.RefreshReport, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	docs, err := s.vectors.ListUnembedded(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unembedded documents: %w", err)
	}

	var (
		mu     sync.Mutex
		report driving.RefreshReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshConcurrency)

	for i := range docs {
		id := docs[i].ID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := s.Refresh(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				logger.Warn("Embedding refresh failed for document %d: %v", id, err)
				return nil
			}
			report.Documents++
			report.Chunks += result.Count
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return &report, err
	}
	if len(docs) > 0 {
		logger.Info("Embedding refresh: %d documents, %d chunks, %d failed", report.Documents, report.Chunks, report.Failed)
	}
	return &report, nil
}
