// Package services holds the document pipeline: ingestion, the processing
// state machine, embedding, search and settings.
//
// Services depend only on the driven ports. Storage, embedding providers and
// extractors are injected by cmd/docintel.
package services
