package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no extractor can handle.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrFileTooLarge indicates an upload above the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrDuplicate indicates byte-identical content was already ingested.
	// Use errors.As with *DuplicateError to recover the existing document.
	ErrDuplicate = errors.New("duplicate document")

	// ErrExtraction indicates no text could be extracted from a file.
	// Fatal for the processing attempt: the document ends in failed.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates embedding generation failed.
	// Non-fatal for processing: the document still completes without vector coverage.
	ErrEmbedding = errors.New("embedding failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Vector search and duplicate detection are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexSync indicates the full-text index could not be updated.
	// Best-effort: never fails processing.
	ErrIndexSync = errors.New("index sync failed")

	// ErrProcessingInProgress indicates another caller is already processing the document.
	ErrProcessingInProgress = errors.New("processing already in progress")

	// ErrInvalidTransition indicates a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// DuplicateError rejects an upload whose bytes match an existing document.
type DuplicateError struct {
	// ExistingID is the surrogate id of the document that already holds the content.
	ExistingID int64

	// ExistingUUID is the external identifier of that document.
	ExistingUUID string

	// ContentHash is the shared byte hash.
	ContentHash string
}

// Error implements error.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate document: content already ingested as document %d", e.ExistingID)
}

// Is reports whether target is ErrDuplicate.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}
