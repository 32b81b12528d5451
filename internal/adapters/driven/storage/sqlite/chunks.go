package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/logger"
)

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore over the chunks table.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// ReplaceChunks deletes the document's chunks and inserts the new set in one
// transaction, together with the snapshot and text hash.
func (s *vectorStore) ReplaceChunks(
	ctx context.Context,
	documentID int64,
	chunks []domain.Chunk,
	snapshot *domain.DocumentSnapshot,
) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, chunk_index, chunk_hash, content, embedding,
			embedding_model, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := formatTime(time.Now())
	for _, chunk := range chunks {
		if chunk.DocumentID != documentID {
			return fmt.Errorf("%w: chunk %d belongs to document %d", domain.ErrInvalidInput, chunk.Index, chunk.DocumentID)
		}

		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, documentID, chunk.Index, chunk.Hash, chunk.Content,
			float32SliceToBytes(chunk.Embedding), chunk.Model, string(metadataJSON), now); err != nil {
			return fmt.Errorf("saving chunk %d: %w", chunk.Index, err)
		}
	}

	if snapshot != nil {
		snapshotJSON, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("marshalling snapshot: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE documents SET snapshot = ?, text_hash = ?, updated_at = ? WHERE id = ?",
			string(snapshotJSON), snapshot.TextHash, now, documentID)
		if err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
		if err := requireAffected(res, "document"); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks returns a document's chunks ordered by index.
func (s *vectorStore) GetChunks(ctx context.Context, documentID int64) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, chunk_hash, content, embedding,
			embedding_model, metadata, created_at
		FROM chunks WHERE document_id = ?
		ORDER BY chunk_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// ScanCompleted streams the vectors of completed documents in storage order.
func (s *vectorStore) ScanCompleted(ctx context.Context, fn func(domain.StoredVector) error) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.embedding,
			d.original_filename, d.uploaded_at
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.status = 'completed'
		ORDER BY c.id
	`)
	if err != nil {
		return fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.StoredVector
		var blob []byte
		var uploadedAt string

		if err := rows.Scan(&v.ChunkID, &v.DocumentID, &v.ChunkIndex, &v.Content, &blob,
			&v.Filename, &uploadedAt); err != nil {
			return fmt.Errorf("scanning vector: %w", err)
		}

		v.Embedding, err = bytesToFloat32Slice(blob)
		if err != nil {
			logger.Warn("skipping chunk %d of document %d: %v", v.ChunkID, v.DocumentID, err)
			continue
		}
		v.UploadedAt = parseTime(uploadedAt)

		if err := fn(v); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating vectors: %w", err)
	}
	return nil
}

// GetSnapshot returns the stored export for a document.
func (s *vectorStore) GetSnapshot(ctx context.Context, documentID int64) (*domain.DocumentSnapshot, error) {
	var raw sql.NullString
	err := s.store.db.QueryRowContext(ctx,
		"SELECT snapshot FROM documents WHERE id = ?", documentID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !raw.Valid) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}

	var snapshot domain.DocumentSnapshot
	if err := json.Unmarshal([]byte(raw.String), &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshalling snapshot: %w", err)
	}
	return &snapshot, nil
}

// ListUnembedded returns completed documents with content but no chunks.
func (s *vectorStore) ListUnembedded(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+` FROM documents d
		WHERE d.status = 'completed'
			AND d.content IS NOT NULL AND d.content != ''
			AND NOT EXISTS (SELECT 1 FROM chunks c WHERE c.document_id = d.id)
		ORDER BY d.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying unembedded documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// scanChunk scans a chunk row.
func scanChunk(row rowScanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var blob []byte
	var metadataJSON, createdAt string

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Hash, &chunk.Content,
		&blob, &chunk.Model, &metadataJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	// A malformed vector leaves Embedding nil rather than hiding the chunk.
	if embedding, err := bytesToFloat32Slice(blob); err == nil {
		chunk.Embedding = embedding
	}
	chunk.CreatedAt = parseTime(createdAt)

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
	}

	return &chunk, nil
}
