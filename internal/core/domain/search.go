package domain

import "time"

// SearchMode selects the retrieval method for a query.
type SearchMode string

// Available search modes.
const (
	// SearchModeText uses only the full-text index.
	SearchModeText SearchMode = "text"

	// SearchModeVector uses only embedding similarity.
	SearchModeVector SearchMode = "vector"

	// SearchModeHybrid fuses text and vector results.
	SearchModeHybrid SearchMode = "hybrid"
)

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeText, SearchModeVector, SearchModeHybrid:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if this mode needs an embedding service.
func (m SearchMode) RequiresEmbedding() bool {
	return m == SearchModeVector || m == SearchModeHybrid
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeText:
		return "Text (full-text index)"
	case SearchModeVector:
		return "Vector (embedding similarity)"
	case SearchModeHybrid:
		return "Hybrid (text + vector, rank fusion)"
	default:
		return unknownDescription
	}
}

// AllSearchModes returns all available search modes.
func AllSearchModes() []SearchMode {
	return []SearchMode{SearchModeText, SearchModeVector, SearchModeHybrid}
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Mode selects the retrieval method.
	Mode SearchMode

	// Limit is the maximum number of results.
	Limit int

	// Offset is the number of results to skip.
	Offset int

	// Threshold is the minimum vector similarity in [0,1].
	Threshold float64
}

// SearchResult is a single document-level hit from SearchService.
type SearchResult struct {
	// Document is the matched document.
	Document Document

	// Chunk is the best matching chunk for vector hits. Nil for text-only hits.
	Chunk *Chunk

	// Score is the relevance score. For hybrid mode this is the fused rank score.
	Score float64

	// Similarity is the best vector similarity, zero for text-only hits.
	Similarity float64

	// Highlights contains snippets with matched terms.
	Highlights []string
}

// StoredVector is a chunk vector read back from the vector store together
// with the fields needed to report a match.
type StoredVector struct {
	ChunkID    int64
	DocumentID int64
	ChunkIndex int
	Content    string
	Embedding  []float32
	Filename   string
	UploadedAt time.Time
}

// VectorMatch is a chunk whose similarity to a query met the threshold.
type VectorMatch struct {
	ChunkID    int64     `json:"chunk_id"`
	DocumentID int64     `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`

	// Similarity is the cosine similarity rescaled into [0,1].
	Similarity float64 `json:"similarity"`
}

// DuplicateMatch aggregates the chunk matches of one other document.
type DuplicateMatch struct {
	DocumentID     int64   `json:"document_id"`
	Filename       string  `json:"filename"`
	MaxSimilarity  float64 `json:"max_similarity"`
	MatchingChunks int     `json:"matching_chunks"`
}

// IndexEntry is the projection of a completed document mirrored into the full-text index.
type IndexEntry struct {
	DocumentID int64
	Filename   string
	Content    string
	Metadata   map[string]any
}

// TextHit is a full-text index match.
type TextHit struct {
	DocumentID int64
	Filename   string

	// Snippet is a fragment around the best match with terms wrapped in <mark> tags.
	Snippet string

	// Score is higher for better matches.
	Score float64
}

// IndexStats summarises the full-text index.
type IndexStats struct {
	IndexedDocuments   int
	TotalContentLength int64
	AvgContentLength   float64
}
