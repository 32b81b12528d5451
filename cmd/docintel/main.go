// Command docintel ingests business documents, extracts and categorises
// their text, and serves full-text, vector and hybrid search over them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docintel/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docintel/internal/adapters/driven/embedding"
	"github.com/custodia-labs/docintel/internal/adapters/driven/filestore"
	"github.com/custodia-labs/docintel/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docintel/internal/adapters/driving/cli"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/core/services"
	"github.com/custodia-labs/docintel/internal/extractors"
	"github.com/custodia-labs/docintel/internal/logger"
	"github.com/custodia-labs/docintel/internal/metrics"
	"github.com/custodia-labs/docintel/internal/postprocessors"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal; the environment may already be set.
	_ = godotenv.Load()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configDir, err := configDirectory()
	if err != nil {
		return err
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, embedding.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	files, err := filestore.NewLocal(settings.Storage.UploadDir)
	if err != nil {
		return fmt.Errorf("opening upload directory: %w", err)
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := postprocessors.BuildPipeline(registry, settings.Pipeline)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	// A configured provider that cannot be reached refuses startup.
	embedder, err := embedding.CreateAndValidateEmbeddingService(&settings.Embedding)
	if err != nil {
		return err
	}
	if embedder != nil {
		defer embedder.Close()
	} else {
		logger.Debug("Embeddings disabled: vector search and duplicate detection unavailable")
	}

	docStore := store.DocumentStore()
	vectorStore := store.VectorStore()
	extractorRegistry := extractors.NewDefaultRegistry()

	indexService := services.NewIndexSynchronizer(docStore, store.FullTextIndex())
	indexer := services.NewEmbeddingIndexer(docStore, vectorStore, pipeline, embedder)

	var vectorSearch driving.VectorSearchService
	var embeddings driving.EmbeddingIndexer
	if embedder != nil {
		vectorSearch = services.NewVectorSearchService(docStore, vectorStore, embedder)
		embeddings = indexer
	}

	processor := services.NewProcessingService(docStore, extractorRegistry, embeddings, indexService)
	if _, err := processor.RecoverInterrupted(ctx); err != nil {
		logger.Warn("%v", err)
	}
	dispatcher := services.NewDispatcher(ctx, processor, docStore, settings.Workers.Concurrency)
	ingest := services.NewIngestService(docStore, files, extractorRegistry, dispatcher, settings.Ingest)
	scheduler := services.NewScheduler(settings.Scheduler, store.SchedulerStore(), dispatcher, embeddings)

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Ingest:       ingest,
		Processing:   processor,
		Dispatcher:   dispatcher,
		Embeddings:   embeddings,
		Search:       services.NewSearchService(docStore, indexService, vectorSearch, settings.Search),
		VectorSearch: vectorSearch,
		Documents:    services.NewDocumentService(docStore, vectorStore, files, indexService),
		Index:        indexService,
		Settings:     settingsService,
		Scheduler:    scheduler,
		Metrics:      metrics.Handler(),
	})

	err = cli.Execute(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// configDirectory returns DOCINTEL_HOME or ~/.docintel.
func configDirectory() (string, error) {
	if dir := os.Getenv(services.EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".docintel"), nil
}
