package domain

import "time"

// DocumentSnapshot is the canonical exportable form of a processed document.
// Consumers read it instead of re-deriving embeddings.
type DocumentSnapshot struct {
	DocumentID          int64           `json:"document_id"`
	TextHash            string          `json:"document_hash"`
	Content             string          `json:"full_text"`
	ContentLength       int             `json:"content_length"`
	ChunksCount         int             `json:"chunks_count"`
	EmbeddingModel      string          `json:"embedding_model"`
	EmbeddingDimensions int             `json:"embedding_dimensions"`
	Metadata            map[string]any  `json:"metadata"`
	Chunks              []ChunkSnapshot `json:"chunks"`
	CreatedAt           time.Time       `json:"created_at"`
}

// ChunkSnapshot is one chunk record inside a DocumentSnapshot.
type ChunkSnapshot struct {
	Index     int       `json:"index"`
	Hash      string    `json:"hash"`
	Text      string    `json:"text"`
	Length    int       `json:"length"`
	Embedding []float32 `json:"embedding"`
}

// EmbeddingResult reports what an embedding generation pass produced.
type EmbeddingResult struct {
	// Count is the number of chunks stored.
	Count int

	// TextHash is the digest of the whole extracted text.
	TextHash string

	// Snapshot is the persisted export. Nil when Count is zero.
	Snapshot *DocumentSnapshot
}
