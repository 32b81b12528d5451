package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
	"github.com/custodia-labs/docintel/internal/metrics"
)

// Ensure VectorSearchService implements the interface.
var _ driving.VectorSearchService = (*VectorSearchService)(nil)

const (
	// DefaultVectorLimit applies when a search passes no limit.
	DefaultVectorLimit = 10

	// DefaultDuplicateThreshold is the similarity a chunk needs to count as duplicated.
	DefaultDuplicateThreshold = 0.9

	// duplicateProbeChunks is how many opening chunks form the duplicate probe.
	duplicateProbeChunks = 3

	// duplicateScanLimit bounds the chunk matches aggregated per probe.
	duplicateScanLimit = 20
)

// VectorSearchService scans stored chunk vectors for similarity to a query.
type VectorSearchService struct {
	docStore driven.DocumentStore
	vectors  driven.VectorStore
	embedder driven.EmbeddingService
}

// NewVectorSearchService creates a new vector search service.
// Without an embedder every call fails with domain.ErrEmbeddingUnavailable.
func NewVectorSearchService(
	docStore driven.DocumentStore,
	vectors driven.VectorStore,
	embedder driven.EmbeddingService,
) *VectorSearchService {
	return &VectorSearchService{
		docStore: docStore,
		vectors:  vectors,
		embedder: embedder,
	}
}

// Search embeds the query and returns chunk matches at or above threshold,
// best first. Ties keep scan order.
func (s *VectorSearchService) Search(
	ctx context.Context, query string, limit int, threshold float64,
) ([]domain.VectorMatch, error) {
	start := time.Now()
	defer func() {
		metrics.SearchTotal.WithLabelValues("chunk").Inc()
		metrics.SearchDuration.WithLabelValues("chunk").Observe(time.Since(start).Seconds())
	}()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if limit <= 0 {
		limit = DefaultVectorLimit
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrEmbedding, err)
	}

	matches, err := s.scan(ctx, queryVec, threshold, 0)
	if err != nil {
		return nil, err
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	logger.Debug("Vector search %q: %d matches (threshold %.2f)", query, len(matches), threshold)
	return matches, nil
}

// FindDuplicates probes with the document's opening chunks and aggregates
// matching chunks of every other document.
func (s *VectorSearchService) FindDuplicates(
	ctx context.Context, documentID int64, threshold float64,
) ([]domain.DuplicateMatch, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	if _, err := s.docStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	chunks, err := s.vectors.GetChunks(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return []domain.DuplicateMatch{}, nil
	}

	probe := make([]string, 0, duplicateProbeChunks)
	for i := 0; i < len(chunks) && i < duplicateProbeChunks; i++ {
		probe = append(probe, chunks[i].Content)
	}

	probeVec, err := s.embedder.Embed(ctx, strings.Join(probe, " "))
	if err != nil {
		return nil, fmt.Errorf("%w: embed probe: %w", domain.ErrEmbedding, err)
	}

	matches, err := s.scan(ctx, probeVec, threshold, documentID)
	if err != nil {
		return nil, err
	}
	if len(matches) > duplicateScanLimit {
		matches = matches[:duplicateScanLimit]
	}

	byDoc := make(map[int64]*domain.DuplicateMatch)
	var order []int64
	for _, m := range matches {
		d, ok := byDoc[m.DocumentID]
		if !ok {
			d = &domain.DuplicateMatch{DocumentID: m.DocumentID, Filename: m.Filename}
			byDoc[m.DocumentID] = d
			order = append(order, m.DocumentID)
		}
		d.MatchingChunks++
		if m.Similarity > d.MaxSimilarity {
			d.MaxSimilarity = m.Similarity
		}
	}

	out := make([]domain.DuplicateMatch, 0, len(order))
	for _, id := range order {
		out = append(out, *byDoc[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MaxSimilarity > out[j].MaxSimilarity
	})
	return out, nil
}

// scan compares vec against every completed chunk, skipping chunks of
// exclude (when non-zero), and returns matches sorted best first.
func (s *VectorSearchService) scan(
	ctx context.Context, vec []float32, threshold float64, exclude int64,
) ([]domain.VectorMatch, error) {
	matches := []domain.VectorMatch{}
	mismatched := 0

	err := s.vectors.ScanCompleted(ctx, func(v domain.StoredVector) error {
		if exclude != 0 && v.DocumentID == exclude {
			return nil
		}
		if len(v.Embedding) != len(vec) {
			mismatched++
			return nil
		}
		sim := CosineSimilarity(vec, v.Embedding)
		if sim < threshold {
			return nil
		}
		matches = append(matches, domain.VectorMatch{
			ChunkID:    v.ChunkID,
			DocumentID: v.DocumentID,
			ChunkIndex: v.ChunkIndex,
			Content:    v.Content,
			Filename:   v.Filename,
			UploadedAt: v.UploadedAt,
			Similarity: sim,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan vectors: %w", err)
	}
	if mismatched > 0 {
		logger.Warn("Skipped %d chunks embedded with a different dimensionality; refresh embeddings to include them", mismatched)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches, nil
}

func validateThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: threshold %.3f outside [0,1]", domain.ErrInvalidInput, threshold)
	}
	return nil
}
