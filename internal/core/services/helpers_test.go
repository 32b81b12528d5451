package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/docintel/internal/adapters/driven/filestore"
	"github.com/custodia-labs/docintel/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/extractors"
	"github.com/custodia-labs/docintel/internal/postprocessors"
)

// testEnv wires every service against in-memory stores, the built-in
// extractors, the default chunker pipeline and the local embedder.
type testEnv struct {
	store     *memory.DocumentStore
	textIndex *memory.TextIndex
	files     *filestore.Local
	embedder  driven.EmbeddingService

	indexer   *EmbeddingIndexer
	index     *IndexSynchronizer
	vectors   *VectorSearchService
	processor *ProcessingService
	ingest    *IngestService
	search    *SearchService
	documents *DocumentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, local.NewEmbeddingService(local.DefaultDimensions))
}

// newTestEnvWith builds the environment around embedder, which may be nil.
func newTestEnvWith(t *testing.T, embedder driven.EmbeddingService) *testEnv {
	t.Helper()

	files, err := filestore.NewLocal(t.TempDir())
	require.NoError(t, err)

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := postprocessors.BuildPipeline(registry, domain.DefaultPipelineConfig())
	require.NoError(t, err)

	env := &testEnv{
		store:     memory.NewDocumentStore(),
		textIndex: memory.NewTextIndex(),
		files:     files,
		embedder:  embedder,
	}

	env.index = NewIndexSynchronizer(env.store, env.textIndex)
	env.indexer = NewEmbeddingIndexer(env.store, env.store, pipeline, embedder)
	env.vectors = NewVectorSearchService(env.store, env.store, embedder)
	env.processor = NewProcessingService(env.store, extractors.NewDefaultRegistry(), env.indexer, env.index)
	env.ingest = NewIngestService(env.store, files, extractors.NewDefaultRegistry(), nil,
		domain.DefaultAppSettings().Ingest)

	var vectors driving.VectorSearchService
	if embedder != nil {
		vectors = env.vectors
	}
	env.search = NewSearchService(env.store, env.index, vectors, domain.DefaultAppSettings().Search)
	env.documents = NewDocumentService(env.store, env.store, files, env.index)
	return env
}

// upload submits a text file and processes it synchronously.
func (e *testEnv) upload(t *testing.T, filename, text string) *domain.Document {
	t.Helper()
	ctx := context.Background()

	doc, err := e.ingest.Submit(ctx, []byte(text), filename, driving.SubmitOptions{})
	require.NoError(t, err)

	completed, err := e.processor.Process(ctx, doc.ID)
	require.NoError(t, err)
	require.True(t, completed)

	processed, err := e.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	return processed
}

// --- Mock implementations ---

// mockDispatcher records enqueued document IDs.
type mockDispatcher struct {
	mu         sync.Mutex
	enqueued   []int64
	pending    int
	pendingErr error
}

func (m *mockDispatcher) Enqueue(documentID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, documentID)
}

func (m *mockDispatcher) ProcessPending(_ context.Context) (int, error) {
	return m.pending, m.pendingErr
}

func (m *mockDispatcher) Wait() {}

func (m *mockDispatcher) ids() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.enqueued...)
}

// mockExtractors returns a fixed extraction or error for every file.
type mockExtractors struct {
	extraction *domain.Extraction
	err        error
	panicWith  any
}

func (m *mockExtractors) Extract(_ context.Context, _ string) (*domain.Extraction, error) {
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	return m.extraction, m.err
}

func (m *mockExtractors) Supports(_ string) bool { return true }

func (m *mockExtractors) ContentType(_ string) string { return "text/plain" }

// failingEmbedder fails every embedding call.
type failingEmbedder struct{}

var errEmbedderDown = errors.New("embedder down")

func (failingEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errEmbedderDown
}

func (failingEmbedder) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, errEmbedderDown
}

func (failingEmbedder) Dimensions() int { return 3 }

func (failingEmbedder) ModelName() string { return "failing" }

func (failingEmbedder) Ping(_ context.Context) error { return errEmbedderDown }

func (failingEmbedder) Close() error { return nil }

// fixedEmbedder returns vectors from a lookup table, or a default.
type fixedEmbedder struct {
	vectors map[string][]float32
	dims    int
}

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	v := make([]float32, f.dims)
	v[0] = 1
	return v, nil
}

func (f *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int { return f.dims }

func (f *fixedEmbedder) ModelName() string { return "fixed" }

func (f *fixedEmbedder) Ping(_ context.Context) error { return nil }

func (f *fixedEmbedder) Close() error { return nil }

// failingTextIndex wraps a text index and fails writes on demand.
type failingTextIndex struct {
	*memory.TextIndex
	upsertErr error
}

func (f *failingTextIndex) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.TextIndex.Upsert(ctx, entry)
}

// Ensure mocks implement interfaces
var (
	_ driving.ProcessingDispatcher = (*mockDispatcher)(nil)
	_ driven.ExtractorRegistry     = (*mockExtractors)(nil)
	_ driven.EmbeddingService      = failingEmbedder{}
	_ driven.EmbeddingService      = (*fixedEmbedder)(nil)
	_ driven.FullTextIndex         = (*failingTextIndex)(nil)
)
