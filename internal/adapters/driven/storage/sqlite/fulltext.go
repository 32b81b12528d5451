package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// ==================== Full-Text Index ====================

// fullTextIndex implements driven.FullTextIndex over the document_search FTS5
// table. The FTS rowid is the document id.
type fullTextIndex struct {
	store *Store
}

var _ driven.FullTextIndex = (*fullTextIndex)(nil)

// Upsert inserts or replaces the row for a document.
func (s *fullTextIndex) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM document_search WHERE rowid = ?", entry.DocumentID); err != nil {
		return fmt.Errorf("removing index row: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO document_search (rowid, filename, content, doc_metadata)
		VALUES (?, ?, ?, ?)
	`, entry.DocumentID, entry.Filename, entry.Content, flattenMetadata(entry.Metadata)); err != nil {
		return fmt.Errorf("inserting index row: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Delete removes the row for a document.
func (s *fullTextIndex) Delete(ctx context.Context, documentID int64) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM document_search WHERE rowid = ?", documentID); err != nil {
		return fmt.Errorf("removing index row: %w", err)
	}
	return nil
}

// Search runs an FTS5 MATCH query. bm25 ranks lower-is-better, so the score
// is negated to make higher mean more relevant.
func (s *fullTextIndex) Search(ctx context.Context, query string, limit int) ([]domain.TextHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_search.rowid, d.original_filename,
			snippet(document_search, -1, '<mark>', '</mark>', '...', 20),
			bm25(document_search)
		FROM document_search
		JOIN documents d ON d.id = document_search.rowid
		WHERE document_search MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, wrapQueryError(err)
	}
	defer rows.Close()

	var hits []domain.TextHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit domain.TextHit
		var rank float64
		if err := rows.Scan(&hit.DocumentID, &hit.Filename, &hit.Snippet, &rank); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		hit.Score = -rank
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapQueryError(err)
	}
	return hits, nil
}

// Contains reports whether a document has an index row.
func (s *fullTextIndex) Contains(ctx context.Context, documentID int64) (bool, error) {
	var one int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM document_search WHERE rowid = ?", documentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking index row: %w", err)
	}
	return true, nil
}

// Stats summarises the index.
func (s *fullTextIndex) Stats(ctx context.Context) (*domain.IndexStats, error) {
	var stats domain.IndexStats
	if err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(length(content)), 0) FROM document_search
	`).Scan(&stats.IndexedDocuments, &stats.TotalContentLength); err != nil {
		return nil, fmt.Errorf("querying index stats: %w", err)
	}
	if stats.IndexedDocuments > 0 {
		stats.AvgContentLength = float64(stats.TotalContentLength) / float64(stats.IndexedDocuments)
	}
	return &stats, nil
}

// flattenMetadata renders metadata as sorted "key: value" lines so both keys
// and values are searchable.
func flattenMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return ""
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, metadata[k])
	}
	return b.String()
}

// wrapQueryError marks FTS5 syntax errors as invalid input.
func wrapQueryError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "fts5") || strings.Contains(msg, "syntax error") {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
	}
	return fmt.Errorf("querying index: %w", err)
}
