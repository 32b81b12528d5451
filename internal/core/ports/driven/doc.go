// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentStore: Document and processing log persistence
//   - VectorStore: Chunk vector persistence and scanning
//   - FullTextIndex: Lexical index over completed documents (SQLite FTS5)
//   - FileStore: Durable upload storage
//   - ExtractorRegistry: Text and table extraction by file type
//   - PostProcessorPipeline: Chunking
//   - ConfigStore: Application configuration
//   - SchedulerStore: Background task state
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it documents still
//     complete, but vector search and duplicate detection are disabled.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or post-processor package
package driven
