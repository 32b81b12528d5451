package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// documentColumns is the column list read by scanDocument.
const documentColumns = `id, uuid, filename, original_filename, file_path, file_size, content_type,
	content_hash, text_hash, category, status, content, tables_json, summary,
	confidence_score, metadata, uploaded_at, processed_at, updated_at`

// recentWindow bounds the "recent uploads" statistic.
const recentWindow = 7 * 24 * time.Hour

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// CreateDocument inserts a new document and sets its ID.
func (s *documentStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}

	metadataJSON, tablesJSON, err := marshalDocumentJSON(doc)
	if err != nil {
		return err
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (uuid, filename, original_filename, file_path, file_size, content_type,
			content_hash, text_hash, category, status, content, tables_json, summary,
			confidence_score, metadata, uploaded_at, processed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.UUID, doc.Filename, doc.OriginalFilename, doc.FilePath, doc.FileSize, doc.ContentType,
		nullString(doc.ContentHash), doc.TextHash, doc.Category, string(doc.Status),
		nullString(doc.Content), tablesJSON, doc.Summary, doc.ConfidenceScore, metadataJSON,
		formatTime(doc.UploadedAt), formatProcessedAt(doc.ProcessedAt), formatTime(doc.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err, "documents.content_hash") {
			return s.duplicateOf(ctx, doc.ContentHash)
		}
		return fmt.Errorf("creating document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading document id: %w", err)
	}
	doc.ID = id
	return nil
}

// duplicateOf builds the DuplicateError for a hash that lost the insert race.
func (s *documentStore) duplicateOf(ctx context.Context, hash string) error {
	existing, err := s.FindByContentHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("resolving duplicate: %w", err)
	}
	return &domain.DuplicateError{
		ExistingID:   existing.ID,
		ExistingUUID: existing.UUID,
		ContentHash:  hash,
	}
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	return scanDocument(row)
}

// FindByContentHash returns the document holding a byte hash.
func (s *documentStore) FindByContentHash(ctx context.Context, hash string) (*domain.Document, error) {
	if hash == "" {
		return nil, domain.ErrNotFound
	}
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE content_hash = ?", hash)
	return scanDocument(row)
}

// ListDocuments returns documents matching the filter, newest first.
func (s *documentStore) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.ContentType != "" {
		where = append(where, "content_type = ?")
		args = append(args, filter.ContentType)
	}

	query := "SELECT " + documentColumns + " FROM documents"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"

	// SQLite requires a LIMIT before OFFSET; -1 means unbounded.
	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, max(filter.Offset, 0))

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// SaveDocument persists the mutable fields of an existing document.
// The exported snapshot is owned by the vector store and left untouched.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return domain.ErrInvalidInput
	}

	metadataJSON, tablesJSON, err := marshalDocumentJSON(doc)
	if err != nil {
		return err
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET
			filename = ?,
			original_filename = ?,
			file_path = ?,
			file_size = ?,
			content_type = ?,
			content_hash = ?,
			text_hash = ?,
			category = ?,
			status = ?,
			content = ?,
			tables_json = ?,
			summary = ?,
			confidence_score = ?,
			metadata = ?,
			processed_at = ?,
			updated_at = ?
		WHERE id = ?
	`, doc.Filename, doc.OriginalFilename, doc.FilePath, doc.FileSize, doc.ContentType,
		nullString(doc.ContentHash), doc.TextHash, doc.Category, string(doc.Status),
		nullString(doc.Content), tablesJSON, doc.Summary, doc.ConfidenceScore, metadataJSON,
		formatProcessedAt(doc.ProcessedAt), formatTime(doc.UpdatedAt), doc.ID)
	if err != nil {
		if isUniqueViolation(err, "documents.content_hash") {
			return s.duplicateOf(ctx, doc.ContentHash)
		}
		return fmt.Errorf("saving document: %w", err)
	}

	return requireAffected(res, "document")
}

// ClaimForProcessing moves a document into processing with a compare-and-swap,
// so exactly one concurrent caller wins.
func (s *documentStore) ClaimForProcessing(ctx context.Context, id int64) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET status = 'processing', updated_at = ?
		WHERE id = ? AND status IN ('uploaded', 'completed', 'failed')
	`, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("claiming document: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claiming document: %w", err)
	}
	if n == 1 {
		return nil
	}

	// Lost the swap: report why.
	var status string
	err = s.store.db.QueryRowContext(ctx, "SELECT status FROM documents WHERE id = ?", id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading document status: %w", err)
	}
	if domain.DocumentStatus(status) == domain.StatusProcessing {
		return domain.ErrProcessingInProgress
	}
	return fmt.Errorf("%w: cannot process %s document", domain.ErrInvalidTransition, status)
}

// FailInterrupted releases processing claims older than staleBefore.
func (s *documentStore) FailInterrupted(ctx context.Context, staleBefore time.Time) ([]int64, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		UPDATE documents SET status = 'failed', updated_at = ?
		WHERE status = 'processing' AND updated_at < ?
		RETURNING id
	`, formatTime(time.Now()), formatTime(staleBefore))
	if err != nil {
		return nil, fmt.Errorf("failing interrupted documents: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning interrupted document: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failing interrupted documents: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}

// DeleteDocument removes a document. Chunks and log entries cascade.
func (s *documentStore) DeleteDocument(ctx context.Context, id int64) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireAffected(res, "document")
}

// Stats summarises the collection.
func (s *documentStore) Stats(ctx context.Context) (*domain.DocumentStats, error) {
	stats := &domain.DocumentStats{
		ByStatus:      make(map[domain.DocumentStatus]int),
		ByContentType: make(map[string]int),
	}

	err := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(file_size), 0),
			COALESCE(AVG(CASE WHEN status = 'completed' THEN confidence_score END), 0)
		FROM documents
	`).Scan(&stats.Total, &stats.TotalSize, &stats.AvgConfidence)
	if err != nil {
		return nil, fmt.Errorf("querying document totals: %w", err)
	}

	if err := s.countGrouped(ctx, "status", func(key string, n int) {
		stats.ByStatus[domain.DocumentStatus(key)] = n
	}); err != nil {
		return nil, err
	}
	if err := s.countGrouped(ctx, "content_type", func(key string, n int) {
		stats.ByContentType[key] = n
	}); err != nil {
		return nil, err
	}

	since := formatTime(time.Now().Add(-recentWindow))
	if err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE uploaded_at >= ?", since,
	).Scan(&stats.RecentUploads); err != nil {
		return nil, fmt.Errorf("counting recent uploads: %w", err)
	}

	if err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT document_id) FROM chunks",
	).Scan(&stats.ChunkCount, &stats.EmbeddedDocuments); err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}

	return stats, nil
}

// countGrouped runs a GROUP BY count over a documents column.
func (s *documentStore) countGrouped(ctx context.Context, column string, fn func(string, int)) error {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+column+", COUNT(*) FROM documents GROUP BY "+column)
	if err != nil {
		return fmt.Errorf("grouping documents by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return fmt.Errorf("scanning %s count: %w", column, err)
		}
		fn(key, n)
	}
	return rows.Err()
}

// AppendLog records a processing log entry and sets its ID.
func (s *documentStore) AppendLog(ctx context.Context, entry *domain.ProcessingLogEntry) error {
	if entry == nil {
		return domain.ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	var details any
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshalling log details: %w", err)
		}
		details = string(b)
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO processing_logs (document_id, operation, outcome, message, details, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.DocumentID, entry.Operation, string(entry.Outcome), entry.Message, details,
		entry.Duration.Milliseconds(), formatTime(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("appending processing log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading log id: %w", err)
	}
	entry.ID = id
	return nil
}

// ListLogs returns a document's log entries, oldest first.
func (s *documentStore) ListLogs(ctx context.Context, documentID int64) ([]domain.ProcessingLogEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, operation, outcome, message, details, duration_ms, created_at
		FROM processing_logs WHERE document_id = ?
		ORDER BY id
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying processing logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.ProcessingLogEntry //nolint:prealloc // size unknown from query
	for rows.Next() {
		var entry domain.ProcessingLogEntry
		var outcome, createdAt string
		var details sql.NullString
		var durationMS int64

		if err := rows.Scan(&entry.ID, &entry.DocumentID, &entry.Operation, &outcome,
			&entry.Message, &details, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning processing log: %w", err)
		}

		entry.Outcome = domain.LogOutcome(outcome)
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		entry.CreatedAt = parseTime(createdAt)
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshalling log details: %w", err)
			}
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating processing logs: %w", err)
	}
	return entries, nil
}

// ==================== Helper Functions ====================

// scanDocument scans one document row. sql.ErrNoRows maps to domain.ErrNotFound.
func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var contentHash, content, processedAt sql.NullString
	var status, tablesJSON, metadataJSON, uploadedAt, updatedAt string

	if err := row.Scan(&doc.ID, &doc.UUID, &doc.Filename, &doc.OriginalFilename, &doc.FilePath,
		&doc.FileSize, &doc.ContentType, &contentHash, &doc.TextHash, &doc.Category, &status,
		&content, &tablesJSON, &doc.Summary, &doc.ConfidenceScore, &metadataJSON,
		&uploadedAt, &processedAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.ContentHash = contentHash.String
	doc.Content = content.String
	doc.Status = domain.DocumentStatus(status)
	doc.UploadedAt = parseTime(uploadedAt)
	doc.UpdatedAt = parseTime(updatedAt)
	if t := parseNullableTime(processedAt); !t.IsZero() {
		doc.ProcessedAt = &t
	}

	if tablesJSON != "" {
		if err := json.Unmarshal([]byte(tablesJSON), &doc.Tables); err != nil {
			return nil, fmt.Errorf("unmarshalling tables: %w", err)
		}
	}
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}

	return &doc, nil
}

// collectDocuments drains rows of documentColumns.
func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// marshalDocumentJSON encodes the JSON columns of a document.
func marshalDocumentJSON(doc *domain.Document) (metadata, tables string, err error) {
	m := doc.Metadata
	if m == nil {
		m = map[string]any{}
	}
	metadataJSON, err := json.Marshal(m)
	if err != nil {
		return "", "", fmt.Errorf("marshalling metadata: %w", err)
	}

	t := doc.Tables
	if t == nil {
		t = []domain.Table{}
	}
	tablesJSON, err := json.Marshal(t)
	if err != nil {
		return "", "", fmt.Errorf("marshalling tables: %w", err)
	}

	return string(metadataJSON), string(tablesJSON), nil
}

// formatProcessedAt stores a nil processed time as NULL.
func formatProcessedAt(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatNullableTime(*t)
}

// requireAffected maps a zero-row update or delete to domain.ErrNotFound.
func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking %s rows: %w", what, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
