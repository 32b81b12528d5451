package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/docintel/internal/contenthash"
	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
	"github.com/custodia-labs/docintel/internal/metrics"
)

// Ensure ProcessingService implements the interface.
var _ driving.ProcessingService = (*ProcessingService)(nil)

// Log operation names.
const (
	OpExtraction     = "extraction"
	OpEmbedding      = "embedding"
	OpIndexSync      = "index_sync"
	OpProcessing     = "processing"
	OpFullProcessing = "full_processing"
)

// processorName is recorded in success log details.
const processorName = "docintel-pipeline"

// InterruptedLease is how long a processing claim may sit untouched before
// RecoverInterrupted treats it as abandoned.
const InterruptedLease = 10 * time.Minute

// ProcessingService drives one document through
// uploaded -> processing -> completed|failed.
type ProcessingService struct {
	docStore   driven.DocumentStore
	extractors driven.ExtractorRegistry
	indexer    driving.EmbeddingIndexer
	index      driving.IndexService
	now        func() time.Time
}

// NewProcessingService creates a new processing service.
// The indexer is optional; without it documents complete with no vector coverage.
func NewProcessingService(
	docStore driven.DocumentStore,
	extractors driven.ExtractorRegistry,
	indexer driving.EmbeddingIndexer,
	index driving.IndexService,
) *ProcessingService {
	return &ProcessingService{
		docStore:   docStore,
		extractors: extractors,
		indexer:    indexer,
		index:      index,
		now:        time.Now,
	}
}

// Process runs the pipeline for a document. Extraction failure is the only
// fatal step; embedding and index failures are logged and processing continues.
func (s *ProcessingService) Process(ctx context.Context, documentID int64) (completed bool, err error) {
	if err := s.docStore.ClaimForProcessing(ctx, documentID); err != nil {
		return false, err
	}

	start := s.now()
	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return false, fmt.Errorf("load claimed document %d: %w", documentID, err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing document %d panicked: %v", documentID, r)
			s.fail(ctx, doc, OpProcessing, err, start)
			completed = false
		}
	}()

	// A reprocessed document leaves the index until it completes again.
	s.syncIndex(ctx, documentID)

	return s.run(ctx, doc, start)
}

func (s *ProcessingService) run(ctx context.Context, doc *domain.Document, start time.Time) (bool, error) {
	logger.Section(fmt.Sprintf("Processing document %d", doc.ID))

	extraction, err := s.extractors.Extract(ctx, doc.FilePath)
	if err == nil && strings.TrimSpace(extraction.Text) == "" {
		err = fmt.Errorf("%w: no text found in %s", domain.ErrExtraction, doc.OriginalFilename)
	}
	if err != nil {
		if !errors.Is(err, domain.ErrExtraction) {
			err = fmt.Errorf("%w: %w", domain.ErrExtraction, err)
		}
		s.fail(ctx, doc, OpExtraction, err, start)
		return false, err
	}
	text := extraction.Text
	logger.Debug("Extracted %d characters and %d tables", utf8.RuneCountInString(text), len(extraction.Tables))

	category := Categorize(text, doc.OriginalFilename)

	if doc.ContentHash == "" {
		hash, err := contenthash.File(doc.FilePath)
		if err != nil {
			s.fail(ctx, doc, OpProcessing, err, start)
			return false, err
		}
		doc.ContentHash = hash
	}
	doc.TextHash = contenthash.Text(text)

	entities := ExtractEntities(text)
	confidence := Confidence(text, entities.Count())

	metadata := maps.Clone(doc.Metadata)
	if metadata == nil {
		metadata = make(map[string]any)
	}
	maps.Copy(metadata, extraction.Metadata)
	metadata["category"] = category
	metadata["original_filename"] = doc.OriginalFilename
	metadata["content_type"] = doc.ContentType
	metadata["file_size"] = doc.FileSize
	metadata["entities"] = entities.Map()

	chunkCount := s.embed(ctx, doc, text, metadata)

	elapsed := s.now().Sub(start)
	metadata["processing_time"] = elapsed.Seconds()

	now := s.now()
	doc.Content = text
	doc.Tables = extraction.Tables
	doc.Category = category
	if doc.Summary == "" {
		doc.Summary = Summarize(text)
	}
	doc.ConfidenceScore = confidence
	doc.Metadata = metadata
	doc.Status = domain.StatusCompleted
	doc.ProcessedAt = &now
	doc.UpdatedAt = now

	if err := s.docStore.SaveDocument(context.WithoutCancel(ctx), doc); err != nil {
		err = fmt.Errorf("save completed document: %w", err)
		s.fail(ctx, doc, OpProcessing, err, start)
		return false, err
	}

	s.syncIndex(ctx, doc.ID)

	s.appendLog(ctx, &domain.ProcessingLogEntry{
		DocumentID: doc.ID,
		Operation:  OpFullProcessing,
		Outcome:    domain.OutcomeSuccess,
		Message:    fmt.Sprintf("Processed %s as %s", doc.OriginalFilename, category),
		Details: map[string]any{
			"content_length":   utf8.RuneCountInString(text),
			"entities_found":   entities.Count(),
			"confidence_score": confidence,
			"chunks":           chunkCount,
			"processor":        processorName,
		},
		Duration: elapsed,
	})

	metrics.ProcessingTotal.WithLabelValues(metrics.ProcessingCompleted).Inc()
	metrics.ProcessingDuration.Observe(elapsed.Seconds())
	logger.Info("Document %d completed (%s, %d chunks)", doc.ID, category, chunkCount)
	return true, nil
}

// embed generates chunk embeddings. Failure is recorded as a warning and
// never stops processing.
func (s *ProcessingService) embed(ctx context.Context, doc *domain.Document, text string, metadata map[string]any) int {
	if s.indexer == nil {
		s.appendLog(ctx, &domain.ProcessingLogEntry{
			DocumentID: doc.ID,
			Operation:  OpEmbedding,
			Outcome:    domain.OutcomeWarning,
			Message:    domain.ErrEmbeddingUnavailable.Error(),
		})
		return 0
	}

	embedStart := s.now()
	result, err := s.indexer.GenerateEmbeddings(ctx, doc.ID, text, metadata)
	if err != nil {
		metrics.EmbeddingFailures.Inc()
		logger.Warn("Embedding failed for document %d: %v", doc.ID, err)
		s.appendLog(ctx, &domain.ProcessingLogEntry{
			DocumentID: doc.ID,
			Operation:  OpEmbedding,
			Outcome:    domain.OutcomeWarning,
			Message:    err.Error(),
			Duration:   s.now().Sub(embedStart),
		})
		return 0
	}

	s.appendLog(ctx, &domain.ProcessingLogEntry{
		DocumentID: doc.ID,
		Operation:  OpEmbedding,
		Outcome:    domain.OutcomeSuccess,
		Message:    fmt.Sprintf("Stored %d chunks", result.Count),
		Details: map[string]any{
			"chunks":        result.Count,
			"document_hash": result.TextHash,
		},
		Duration: s.now().Sub(embedStart),
	})
	return result.Count
}

// fail moves the document to failed and records why. The writes outlive a
// cancelled ctx so an interrupted run never leaves the claim behind.
func (s *ProcessingService) fail(ctx context.Context, doc *domain.Document, op string, cause error, start time.Time) {
	ctx = context.WithoutCancel(ctx)
	now := s.now()
	doc.Status = domain.StatusFailed
	doc.UpdatedAt = now

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		logger.Error("Failed to mark document %d failed: %v", doc.ID, err)
	}
	s.syncIndex(ctx, doc.ID)

	s.appendLog(ctx, &domain.ProcessingLogEntry{
		DocumentID: doc.ID,
		Operation:  op,
		Outcome:    domain.OutcomeError,
		Message:    cause.Error(),
		Duration:   now.Sub(start),
	})

	metrics.ProcessingTotal.WithLabelValues(metrics.ProcessingFailed).Inc()
	logger.Warn("Document %d failed during %s: %v", doc.ID, op, cause)
}

// RecoverInterrupted fails documents whose processing claim is older than
// InterruptedLease, typically left by a process that was killed mid-run.
// They become re-triggerable like any other failure.
func (s *ProcessingService) RecoverInterrupted(ctx context.Context) (int, error) {
	ids, err := s.docStore.FailInterrupted(ctx, s.now().Add(-InterruptedLease))
	if err != nil {
		return 0, fmt.Errorf("recover interrupted documents: %w", err)
	}
	for _, id := range ids {
		s.appendLog(ctx, &domain.ProcessingLogEntry{
			DocumentID: id,
			Operation:  OpProcessing,
			Outcome:    domain.OutcomeError,
			Message:    "processing was interrupted before completion",
		})
	}
	if len(ids) > 0 {
		logger.Warn("Marked %d interrupted documents failed", len(ids))
	}
	return len(ids), nil
}

func (s *ProcessingService) syncIndex(ctx context.Context, documentID int64) {
	if s.index == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.index.Sync(ctx, documentID); err != nil {
		s.appendLog(ctx, &domain.ProcessingLogEntry{
			DocumentID: documentID,
			Operation:  OpIndexSync,
			Outcome:    domain.OutcomeWarning,
			Message:    err.Error(),
		})
	}
}

func (s *ProcessingService) appendLog(ctx context.Context, entry *domain.ProcessingLogEntry) {
	if err := s.docStore.AppendLog(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("Failed to record %s log for document %d: %v", entry.Operation, entry.DocumentID, err)
	}
}
