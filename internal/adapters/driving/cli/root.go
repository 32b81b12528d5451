// Package cli provides the cobra command tree for docintel.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services holds the driving ports the commands call into.
// Nil ports disable the commands that need them.
type Services struct {
	Ingest       driving.IngestService
	Processing   driving.ProcessingService
	Dispatcher   driving.ProcessingDispatcher
	Embeddings   driving.EmbeddingIndexer
	Search       driving.SearchService
	VectorSearch driving.VectorSearchService
	Documents    driving.DocumentService
	Index        driving.IndexService
	Settings     driving.SettingsService
	Scheduler    driving.Scheduler

	// Metrics is mounted at /metrics when serving over HTTP.
	Metrics http.Handler
}

var (
	ingestService       driving.IngestService
	processingService   driving.ProcessingService
	dispatcher          driving.ProcessingDispatcher
	embeddingIndexer    driving.EmbeddingIndexer
	searchService       driving.SearchService
	vectorSearchService driving.VectorSearchService
	documentService     driving.DocumentService
	indexService        driving.IndexService
	settingsService     driving.SettingsService
	scheduler           driving.Scheduler
	metricsHandler      http.Handler
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docintel",
	Short: "Document intelligence pipeline",
	Long: `docintel ingests documents, extracts their text and tables, embeds them
for semantic search and keeps a full-text index in step with every change.

Uploads are deduplicated by content hash. Processing runs in the background
and moves each document from uploaded through processing to completed or failed.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show debug output")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetServices injects the driving ports used by the commands.
func SetServices(s Services) {
	ingestService = s.Ingest
	processingService = s.Processing
	dispatcher = s.Dispatcher
	embeddingIndexer = s.Embeddings
	searchService = s.Search
	vectorSearchService = s.VectorSearch
	documentService = s.Documents
	indexService = s.Index
	settingsService = s.Settings
	scheduler = s.Scheduler
	metricsHandler = s.Metrics
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
