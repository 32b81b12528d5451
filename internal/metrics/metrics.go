// Package metrics holds the Prometheus collectors exported by docintel.
// Collectors register with the default registry on package init and are
// served by Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingest outcomes.
const (
	IngestAccepted  = "accepted"
	IngestDuplicate = "duplicate"
	IngestRejected  = "rejected"
)

// Processing outcomes.
const (
	ProcessingCompleted = "completed"
	ProcessingFailed    = "failed"
)

var (
	// IngestTotal counts upload attempts by outcome.
	IngestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docintel_ingest_total",
			Help: "Upload attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// ProcessingTotal counts finished processing runs by outcome.
	ProcessingTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docintel_processing_total",
			Help: "Finished document processing runs by outcome.",
		},
		[]string{"outcome"},
	)

	// ProcessingDuration observes end-to-end processing time.
	ProcessingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docintel_processing_duration_seconds",
		Help:    "Document processing duration in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// EmbeddedChunks counts chunks written to the vector store.
	EmbeddedChunks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docintel_embedded_chunks_total",
		Help: "Chunks embedded and stored.",
	})

	// EmbeddingFailures counts embedding passes that did not complete.
	EmbeddingFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docintel_embedding_failures_total",
		Help: "Embedding generation passes that failed.",
	})

	// SearchTotal counts queries by mode.
	SearchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docintel_search_total",
			Help: "Search queries by mode.",
		},
		[]string{"mode"},
	)

	// SearchDuration observes query latency by mode.
	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docintel_search_duration_seconds",
			Help:    "Search latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	// EmbeddingCacheHits counts query embeddings served from cache.
	EmbeddingCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docintel_embedding_cache_hits_total",
		Help: "Query embeddings served from the in-memory cache.",
	})

	// EmbeddingCacheMisses counts query embeddings computed by the provider.
	EmbeddingCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docintel_embedding_cache_misses_total",
		Help: "Query embeddings that missed the in-memory cache.",
	})

	// IndexSyncFailures counts full-text index updates that failed.
	IndexSyncFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docintel_index_sync_failures_total",
		Help: "Full-text index synchronisations that failed.",
	})
)

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
