package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure TextIndex implements the interface.
var _ driven.FullTextIndex = (*TextIndex)(nil)

// TextIndex is an in-memory driven.FullTextIndex. A document matches when
// every whitespace-separated query term occurs in its filename or content,
// ignoring case. Score is the total number of term occurrences.
type TextIndex struct {
	mu      sync.RWMutex
	entries map[int64]domain.IndexEntry
}

// NewTextIndex creates an empty in-memory index.
func NewTextIndex() *TextIndex {
	return &TextIndex{entries: make(map[int64]domain.IndexEntry)}
}

// Upsert inserts or replaces the entry for a document.
func (s *TextIndex) Upsert(_ context.Context, entry domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.DocumentID] = entry
	return nil
}

// Delete removes the entry for a document.
func (s *TextIndex) Delete(_ context.Context, documentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, documentID)
	return nil
}

// Search returns matching documents, best first.
func (s *TextIndex) Search(_ context.Context, query string, limit int) ([]domain.TextHit, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []domain.TextHit
	for _, id := range slices.Sorted(maps.Keys(s.entries)) {
		entry := s.entries[id]
		haystack := strings.ToLower(entry.Filename + " " + entry.Content)
		score := 0
		for _, term := range terms {
			n := strings.Count(haystack, term)
			if n == 0 {
				score = 0
				break
			}
			score += n
		}
		if score == 0 {
			continue
		}
		hits = append(hits, domain.TextHit{
			DocumentID: id,
			Filename:   entry.Filename,
			Snippet:    entry.Content,
			Score:      float64(score),
		})
	}

	slices.SortStableFunc(hits, func(a, b domain.TextHit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Contains reports whether a document has an entry.
func (s *TextIndex) Contains(_ context.Context, documentID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[documentID]
	return ok, nil
}

// Stats summarises the index.
func (s *TextIndex) Stats(_ context.Context) (*domain.IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.IndexStats{IndexedDocuments: len(s.entries)}
	for _, entry := range s.entries {
		stats.TotalContentLength += int64(len(entry.Content))
	}
	if stats.IndexedDocuments > 0 {
		stats.AvgContentLength = float64(stats.TotalContentLength) / float64(stats.IndexedDocuments)
	}
	return stats, nil
}
