package domain

import "time"

// DocumentStatus is the lifecycle state of a document.
type DocumentStatus string

// Document lifecycle states.
const (
	// StatusUploaded is the initial state after the gate accepts a file.
	StatusUploaded DocumentStatus = "uploaded"

	// StatusProcessing marks a document currently owned by the state machine.
	StatusProcessing DocumentStatus = "processing"

	// StatusCompleted marks a document with extracted text available for search.
	StatusCompleted DocumentStatus = "completed"

	// StatusFailed marks a document whose extraction failed.
	// Failed documents are only reprocessed by an explicit re-trigger.
	StatusFailed DocumentStatus = "failed"

	// StatusArchived marks a completed document withdrawn from search by an operator.
	StatusArchived DocumentStatus = "archived"
)

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusCompleted, StatusFailed, StatusArchived:
		return true
	default:
		return false
	}
}

// IsTerminal returns true once processing has finished, successfully or not.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusArchived
}

// Searchable returns true if documents in this state belong in the search indexes.
func (s DocumentStatus) Searchable() bool {
	return s == StatusCompleted
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// AllStatuses returns every lifecycle state in transition order.
func AllStatuses() []DocumentStatus {
	return []DocumentStatus{
		StatusUploaded,
		StatusProcessing,
		StatusCompleted,
		StatusFailed,
		StatusArchived,
	}
}

// Document represents an ingested file and everything derived from it.
type Document struct {
	// ID is the surrogate key assigned by the store.
	ID int64

	// UUID is the stable external identifier.
	UUID string

	// Filename is the collision-resistant name the file is stored under.
	Filename string

	// OriginalFilename is the name supplied by the uploader.
	OriginalFilename string

	// FilePath is the location of the stored file.
	FilePath string

	// FileSize is the stored file size in bytes.
	FileSize int64

	// ContentType is the declared media type.
	ContentType string

	// ContentHash is the hex digest of the raw bytes. Unique across documents.
	ContentHash string

	// TextHash is the hex digest of the extracted text.
	// Two files that extract to the same text share a TextHash.
	TextHash string

	// Category is inferred from keyword scoring during processing.
	Category string

	// Status is the lifecycle state.
	Status DocumentStatus

	// Content is the extracted text. Always set once Status is completed.
	Content string

	// Tables holds structured tables found during extraction.
	Tables []Table

	// Summary is generated from the opening sentences during processing.
	// Operators may replace it.
	Summary string

	// ConfidenceScore is in [0,1] and only meaningful once Status is terminal.
	ConfidenceScore float64

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// UploadedAt is when the gate accepted the file.
	UploadedAt time.Time

	// ProcessedAt is when processing completed. Nil until then.
	ProcessedAt *time.Time

	// UpdatedAt is when the record last changed.
	UpdatedAt time.Time
}

// Table is an ordered grid of cell strings found in a document.
type Table struct {
	// Index is the zero-based position of the table within the document.
	Index int `json:"index"`

	// Caption is an optional title, such as a sheet name.
	Caption string `json:"caption,omitempty"`

	// Headers is the optional header row.
	Headers []string `json:"headers,omitempty"`

	// Rows holds the body cells.
	Rows [][]string `json:"rows"`

	// HTML is an optional HTML rendering.
	HTML string `json:"html,omitempty"`

	// CSV is an optional CSV rendering.
	CSV string `json:"csv,omitempty"`
}

// Chunk is the unit of embedding: a bounded, overlapping slice of a document's text.
type Chunk struct {
	// ID is the surrogate key assigned by the store.
	ID int64

	// DocumentID links to the owning Document.
	DocumentID int64

	// Index is the zero-based ordinal, unique per document.
	Index int

	// Hash is derived from the document id, index and text. Globally unique.
	Hash string

	// Content is the chunk text. Never empty.
	Content string

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// Model identifies the embedding model that produced Embedding.
	Model string

	// Metadata holds chunk_length, position and total_chunks.
	Metadata map[string]any

	// CreatedAt is when the chunk was stored.
	CreatedAt time.Time
}

// LogOutcome is the result recorded in a processing log entry.
type LogOutcome string

// Processing log outcomes.
const (
	OutcomeSuccess LogOutcome = "success"
	OutcomeError   LogOutcome = "error"
	OutcomeWarning LogOutcome = "warning"
)

// ProcessingLogEntry is an append-only record of one processing step.
type ProcessingLogEntry struct {
	ID         int64
	DocumentID int64
	Operation  string
	Outcome    LogOutcome
	Message    string
	Details    map[string]any
	Duration   time.Duration
	CreatedAt  time.Time
}

// Extraction is the output of the extraction capability.
type Extraction struct {
	// Text is plain or lightly structured (markdown) text.
	Text string

	// Tables holds zero or more tables.
	Tables []Table

	// Metadata holds extractor-specific facts such as page or sheet counts.
	Metadata map[string]any
}

// DocumentFilter narrows a document listing.
type DocumentFilter struct {
	// Status filters by lifecycle state. Empty matches all.
	Status DocumentStatus

	// ContentType filters by declared media type. Empty matches all.
	ContentType string

	// Offset is the number of documents to skip.
	Offset int

	// Limit is the maximum number of documents. Zero means no limit.
	Limit int
}

// DocumentUpdate holds operator changes to a document. Nil fields are left untouched.
type DocumentUpdate struct {
	Summary  *string
	Category *string

	// Metadata keys are merged into the existing metadata.
	Metadata map[string]any

	// Status may only move a completed document to archived or back.
	Status *DocumentStatus
}

// DocumentStats summarises the document collection.
type DocumentStats struct {
	Total         int
	ByStatus      map[DocumentStatus]int
	ByContentType map[string]int
	TotalSize     int64
	AvgConfidence float64

	// RecentUploads counts documents uploaded in the last 7 days.
	RecentUploads int

	// ChunkCount is the number of stored chunks.
	ChunkCount int

	// EmbeddedDocuments counts documents with at least one chunk.
	EmbeddedDocuments int
}
