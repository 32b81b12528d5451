// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// One instance is built at startup and shared by every component that embeds.
// When nil, vector search, duplicate detection and embedding generation are disabled.
//
// Note: This is separate from VectorStore which stores and scans vectors.
// EmbeddingService generates vectors; VectorStore persists them.
//
// Implementations may include:
//   - Local hashing embedder (deterministic, no network)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Output is deterministic for identical input and model.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// Results must equal calling Embed once per text.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536, 3072).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	// This is used at startup so processing refuses to start without a working model.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
