package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docintel/internal/contenthash"
	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
	"github.com/custodia-labs/docintel/internal/metrics"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService is the dedup gate every new document passes through.
type IngestService struct {
	docStore   driven.DocumentStore
	fileStore  driven.FileStore
	extractors driven.ExtractorRegistry
	dispatcher driving.ProcessingDispatcher
	settings   domain.IngestSettings
	now        func() time.Time
}

// NewIngestService creates a new ingest service.
// The dispatcher is optional; without it documents stay uploaded until
// processed explicitly.
func NewIngestService(
	docStore driven.DocumentStore,
	fileStore driven.FileStore,
	extractors driven.ExtractorRegistry,
	dispatcher driving.ProcessingDispatcher,
	settings domain.IngestSettings,
) *IngestService {
	return &IngestService{
		docStore:   docStore,
		fileStore:  fileStore,
		extractors: extractors,
		dispatcher: dispatcher,
		settings:   settings,
		now:        time.Now,
	}
}

// Submit validates and stores an upload, then schedules processing.
// The byte hash is checked before anything is written, so a duplicate has
// no side effects.
func (s *IngestService) Submit(
	ctx context.Context, data []byte, filename string, opts driving.SubmitOptions,
) (*domain.Document, error) {
	doc, err := s.submit(ctx, data, filename, opts)
	switch {
	case err == nil:
		metrics.IngestTotal.WithLabelValues(metrics.IngestAccepted).Inc()
	case errors.Is(err, domain.ErrDuplicate):
		metrics.IngestTotal.WithLabelValues(metrics.IngestDuplicate).Inc()
	default:
		metrics.IngestTotal.WithLabelValues(metrics.IngestRejected).Inc()
	}
	return doc, err
}

func (s *IngestService) submit(
	ctx context.Context, data []byte, filename string, opts driving.SubmitOptions,
) (*domain.Document, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, filename)
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !s.settings.IsAllowed(ext) || (s.extractors != nil && !s.extractors.Supports(ext)) {
		return nil, fmt.Errorf("%w: .%s (allowed: %s)",
			domain.ErrUnsupportedType, ext, strings.Join(s.settings.AllowedExtensions, ", "))
	}
	if s.settings.MaxFileSize > 0 && int64(len(data)) > s.settings.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d",
			domain.ErrFileTooLarge, len(data), s.settings.MaxFileSize)
	}

	hash := contenthash.Bytes(data)
	existing, err := s.docStore.FindByContentHash(ctx, hash)
	if err == nil {
		logger.Debug("Rejected duplicate upload %s (matches document %d)", filename, existing.ID)
		return nil, &domain.DuplicateError{
			ExistingID:   existing.ID,
			ExistingUUID: existing.UUID,
			ContentHash:  hash,
		}
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check content hash: %w", err)
	}

	storedName, path, err := s.fileStore.Save(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	contentType := opts.ContentType
	if contentType == "" && s.extractors != nil {
		contentType = s.extractors.ContentType(ext)
	}

	now := s.now()
	doc := &domain.Document{
		UUID:             uuid.New().String(),
		Filename:         storedName,
		OriginalFilename: filename,
		FilePath:         path,
		FileSize:         int64(len(data)),
		ContentType:      contentType,
		ContentHash:      hash,
		Status:           domain.StatusUploaded,
		Metadata:         maps.Clone(opts.Metadata),
		UploadedAt:       now,
		UpdatedAt:        now,
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}

	if err := s.docStore.CreateDocument(ctx, doc); err != nil {
		// The row was never committed; the stored file must not outlive it.
		if rmErr := s.fileStore.Remove(path); rmErr != nil {
			logger.Warn("Failed to remove orphaned upload %s: %v", path, rmErr)
		}
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("create document: %w", err)
	}

	logger.Info("Accepted %s as document %d", filename, doc.ID)

	if s.dispatcher != nil {
		s.dispatcher.Enqueue(doc.ID)
	}
	return doc, nil
}
