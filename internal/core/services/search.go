package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
	"github.com/custodia-labs/docintel/internal/metrics"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// rrfK is the reciprocal rank fusion constant.
const rrfK = 60

// scoredDoc holds intermediate search results before hydration.
type scoredDoc struct {
	documentID int64
	score      float64
	similarity float64
	chunk      *domain.Chunk
	snippet    string
}

// SearchService provides document-level text, vector and hybrid search.
type SearchService struct {
	docStore driven.DocumentStore
	index    driving.IndexService
	vectors  driving.VectorSearchService
	defaults domain.SearchSettings
}

// NewSearchService creates a new search service.
// The vectors parameter is optional; without it every mode degrades to text.
func NewSearchService(
	docStore driven.DocumentStore,
	index driving.IndexService,
	vectors driving.VectorSearchService,
	defaults domain.SearchSettings,
) *SearchService {
	return &SearchService{
		docStore: docStore,
		index:    index,
		vectors:  vectors,
		defaults: defaults,
	}
}

// Search runs the query in the requested mode and returns one result per document.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}

	opts = s.withDefaults(opts)
	if !opts.Mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown search mode %q", domain.ErrInvalidInput, opts.Mode)
	}
	if err := validateThreshold(opts.Threshold); err != nil {
		return nil, err
	}

	mode := s.effectiveMode(opts.Mode)
	logger.Info("Effective search mode: %s", mode.Description())

	start := time.Now()
	defer func() {
		metrics.SearchTotal.WithLabelValues(mode.String()).Inc()
		metrics.SearchDuration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
	}()

	// Request more results internally so fusion and filtering have room.
	internalLimit := (opts.Offset + opts.Limit) * 2

	var (
		docs []scoredDoc
		err  error
	)
	switch mode {
	case domain.SearchModeText:
		docs, err = s.textSearch(ctx, query, internalLimit)
	case domain.SearchModeVector:
		docs, err = s.vectorSearch(ctx, query, internalLimit, opts.Threshold)
	default:
		docs, err = s.hybridSearch(ctx, query, internalLimit, opts.Threshold)
	}
	if err != nil {
		logger.Warn("Search failed: %v", err)
		return nil, fmt.Errorf("search: %w", err)
	}

	results, err := s.hydrateResults(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	results = applyPagination(results, opts.Offset, opts.Limit)
	logger.Info("Final results: %d", len(results))
	return results, nil
}

func (s *SearchService) withDefaults(opts domain.SearchOptions) domain.SearchOptions {
	if opts.Mode == "" {
		opts.Mode = s.defaults.Mode
	}
	if opts.Mode == "" {
		opts.Mode = domain.SearchModeHybrid
	}
	if opts.Limit <= 0 {
		opts.Limit = s.defaults.Limit
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultVectorLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	if opts.Threshold == 0 {
		opts.Threshold = s.defaults.Threshold
	}
	return opts
}

// effectiveMode degrades to text when vector search is unavailable.
func (s *SearchService) effectiveMode(mode domain.SearchMode) domain.SearchMode {
	if mode.RequiresEmbedding() && s.vectors == nil {
		logger.Debug("Vector search unavailable, degrading %s to text", mode)
		return domain.SearchModeText
	}
	return mode
}

func (s *SearchService) textSearch(ctx context.Context, query string, limit int) ([]scoredDoc, error) {
	hits, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("text search: %w", err)
	}
	logger.Debug("Text search: %d hits", len(hits))

	docs := make([]scoredDoc, len(hits))
	for i, hit := range hits {
		docs[i] = scoredDoc{
			documentID: hit.DocumentID,
			score:      hit.Score,
			snippet:    hit.Snippet,
		}
	}
	return docs, nil
}

// vectorSearch keeps the best chunk per document. Chunk matches arrive best
// first, so the first match seen for a document is its best.
func (s *SearchService) vectorSearch(
	ctx context.Context, query string, limit int, threshold float64,
) ([]scoredDoc, error) {
	// Several chunks may belong to one document; over-fetch before grouping.
	matches, err := s.vectors.Search(ctx, query, limit*3, threshold)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Vector search: %d chunk matches", len(matches))

	seen := make(map[int64]bool)
	var docs []scoredDoc
	for _, m := range matches {
		if seen[m.DocumentID] {
			continue
		}
		seen[m.DocumentID] = true
		docs = append(docs, scoredDoc{
			documentID: m.DocumentID,
			score:      m.Similarity,
			similarity: m.Similarity,
			chunk: &domain.Chunk{
				ID:         m.ChunkID,
				DocumentID: m.DocumentID,
				Index:      m.ChunkIndex,
				Content:    m.Content,
			},
		})
		if len(docs) == limit {
			break
		}
	}
	return docs, nil
}

// hybridSearch runs text and vector search in parallel and fuses the
// rankings. If one side fails the other is used alone.
func (s *SearchService) hybridSearch(
	ctx context.Context, query string, limit int, threshold float64,
) ([]scoredDoc, error) {
	var (
		textDocs, vectorDocs []scoredDoc
		textErr, vectorErr   error
	)

	var g errgroup.Group
	g.Go(func() error {
		textDocs, textErr = s.textSearch(ctx, query, limit)
		return nil
	})
	g.Go(func() error {
		vectorDocs, vectorErr = s.vectorSearch(ctx, query, limit, threshold)
		return nil
	})
	_ = g.Wait()

	switch {
	case textErr != nil && vectorErr != nil:
		return nil, errors.Join(textErr, vectorErr)
	case textErr != nil:
		logger.Warn("Hybrid search: text search failed, using vector results only: %v", textErr)
		return vectorDocs, nil
	case vectorErr != nil:
		logger.Warn("Hybrid search: vector search failed, using text results only: %v", vectorErr)
		return textDocs, nil
	}

	logger.Debug("Hybrid search: merging %d text + %d vector results with RRF", len(textDocs), len(vectorDocs))
	return reciprocalRankFusion(textDocs, vectorDocs, rrfK), nil
}

// reciprocalRankFusion scores each document by the sum of 1/(k+rank) over
// the lists it appears in. Ties keep first-appearance order.
func reciprocalRankFusion(textDocs, vectorDocs []scoredDoc, k int) []scoredDoc {
	merged := make(map[int64]*scoredDoc)
	var order []int64

	add := func(list []scoredDoc) {
		for rank, d := range list {
			m, ok := merged[d.documentID]
			if !ok {
				m = &scoredDoc{documentID: d.documentID}
				merged[d.documentID] = m
				order = append(order, d.documentID)
			}
			m.score += 1.0 / float64(k+rank+1)
			if d.snippet != "" {
				m.snippet = d.snippet
			}
			if d.chunk != nil {
				m.chunk = d.chunk
				m.similarity = d.similarity
			}
		}
	}
	add(textDocs)
	add(vectorDocs)

	results := make([]scoredDoc, 0, len(order))
	for _, id := range order {
		results = append(results, *merged[id])
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	return results
}

// hydrateResults loads each document. Documents that vanished or left the
// completed state since indexing are dropped.
func (s *SearchService) hydrateResults(ctx context.Context, docs []scoredDoc) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(docs))
	for _, d := range docs {
		doc, err := s.docStore.GetDocument(ctx, d.documentID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !doc.Status.Searchable() {
			continue
		}

		result := domain.SearchResult{
			Document:   *doc,
			Chunk:      d.chunk,
			Score:      d.score,
			Similarity: d.similarity,
		}
		if d.snippet != "" {
			result.Highlights = []string{d.snippet}
		}
		results = append(results, result)
	}
	return results, nil
}

func applyPagination(results []domain.SearchResult, offset, limit int) []domain.SearchResult {
	if offset >= len(results) {
		return []domain.SearchResult{}
	}

	end := offset + limit
	if end > len(results) {
		end = len(results)
	}

	return results[offset:end]
}
