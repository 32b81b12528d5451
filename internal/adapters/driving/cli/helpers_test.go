package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/adapters/driven/embedding"
	"github.com/custodia-labs/docintel/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/docintel/internal/adapters/driven/filestore"
	"github.com/custodia-labs/docintel/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/services"
	"github.com/custodia-labs/docintel/internal/extractors"
	"github.com/custodia-labs/docintel/internal/postprocessors"
)

const invoiceText = "Invoice INV-001 Copper 1000 MT $8500"

// testEnv holds the in-memory stores behind the services injected for a test.
type testEnv struct {
	store *memory.DocumentStore
	dir   string
}

// setupTestServices wires every command to real services over in-memory
// stores and the local embedder. Services are cleared when the test ends.
func setupTestServices(t *testing.T) *testEnv {
	t.Helper()

	files, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := postprocessors.BuildPipeline(registry, domain.DefaultPipelineConfig())
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	store := memory.NewDocumentStore()
	embedder := local.NewEmbeddingService(local.DefaultDimensions)
	extractorRegistry := extractors.NewDefaultRegistry()

	index := services.NewIndexSynchronizer(store, memory.NewTextIndex())
	indexer := services.NewEmbeddingIndexer(store, store, pipeline, embedder)
	vectors := services.NewVectorSearchService(store, store, embedder)
	processor := services.NewProcessingService(store, extractorRegistry, indexer, index)
	dispatch := services.NewDispatcher(context.Background(), processor, store, 2)
	ingest := services.NewIngestService(store, files, extractorRegistry, dispatch, defaults.Ingest)

	SetServices(Services{
		Ingest:       ingest,
		Processing:   processor,
		Dispatcher:   dispatch,
		Embeddings:   indexer,
		Search:       services.NewSearchService(store, index, vectors, defaults.Search),
		VectorSearch: vectors,
		Documents:    services.NewDocumentService(store, store, files, index),
		Index:        index,
		Settings:     services.NewSettingsService(memory.NewConfigStore(), embedding.NewConfigValidator()),
		Scheduler:    services.NewScheduler(defaults.Scheduler, memory.NewSchedulerStore(), dispatch, indexer),
	})
	t.Cleanup(func() {
		dispatch.Wait()
		SetServices(Services{})
	})

	return &testEnv{store: store, dir: t.TempDir()}
}

// writeFile creates a file in the environment's scratch directory.
func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// upload uploads a file through the CLI and waits for processing.
func (e *testEnv) upload(t *testing.T, name, content string) {
	t.Helper()
	_, err := executeCommand(t, "upload", e.writeFile(t, name, content))
	require.NoError(t, err)
}

// executeCommand runs the root command with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeCommandWithInput(t, "", args...)
}

// executeCommandWithInput runs the root command with stdin set to input.
func executeCommandWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	return executeCommandContext(t, context.Background(), input, args...)
}

// executeCommandContext runs the root command under ctx.
func executeCommandContext(t *testing.T, ctx context.Context, input string, args ...string) (string, error) {
	t.Helper()

	resetFlags(rootCmd)
	setContext(rootCmd, ctx)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(io.Discard)
	}()

	err := rootCmd.ExecuteContext(ctx)
	return buf.String(), err
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between tests.
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setContext replaces the context cobra keeps on every command after a run.
func setContext(c *cobra.Command, ctx context.Context) {
	c.SetContext(ctx)
	for _, sub := range c.Commands() {
		setContext(sub, ctx)
	}
}
