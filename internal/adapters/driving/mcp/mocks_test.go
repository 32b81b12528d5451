package mcp

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	err      error
	lastOpts domain.SearchOptions
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

// mockVectorSearchService is a mock implementation of driving.VectorSearchService.
type mockVectorSearchService struct {
	matches       []domain.VectorMatch
	duplicates    []domain.DuplicateMatch
	err           error
	lastLimit     int
	lastThreshold float64
}

func (m *mockVectorSearchService) Search(
	_ context.Context, _ string, limit int, threshold float64,
) ([]domain.VectorMatch, error) {
	m.lastLimit = limit
	m.lastThreshold = threshold
	return m.matches, m.err
}

func (m *mockVectorSearchService) FindDuplicates(
	_ context.Context, _ int64, threshold float64,
) ([]domain.DuplicateMatch, error) {
	m.lastThreshold = threshold
	return m.duplicates, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	document  *domain.Document
	details   *driving.DocumentDetails
	tables    []domain.Table
	snapshot  *domain.DocumentSnapshot
	stats     *domain.DocumentStats
	err       error
}

func (m *mockDocumentService) Get(_ context.Context, _ int64) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) List(_ context.Context, _ domain.DocumentFilter) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ int64) (*driving.DocumentDetails, error) {
	return m.details, m.err
}

func (m *mockDocumentService) GetTables(_ context.Context, _ int64) ([]domain.Table, error) {
	return m.tables, m.err
}

func (m *mockDocumentService) GetLogs(_ context.Context, _ int64) ([]domain.ProcessingLogEntry, error) {
	return nil, m.err
}

func (m *mockDocumentService) GetSnapshot(_ context.Context, _ int64) (*domain.DocumentSnapshot, error) {
	return m.snapshot, m.err
}

func (m *mockDocumentService) FindByHash(_ context.Context, _ string) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Stats(_ context.Context) (*domain.DocumentStats, error) {
	return m.stats, m.err
}

func (m *mockDocumentService) Update(
	_ context.Context, _ int64, _ domain.DocumentUpdate,
) (*domain.Document, error) {
	return m.document, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ int64) error {
	return m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	document *domain.Document
	err      error
	lastData []byte
	lastName string
}

func (m *mockIngestService) Submit(
	_ context.Context, data []byte, filename string, _ driving.SubmitOptions,
) (*domain.Document, error) {
	m.lastData = data
	m.lastName = filename
	return m.document, m.err
}

// mockProcessingService is a mock implementation of driving.ProcessingService.
type mockProcessingService struct {
	completed bool
	err       error
}

func (m *mockProcessingService) Process(_ context.Context, _ int64) (bool, error) {
	return m.completed, m.err
}

// mockDispatcher is a mock implementation of driving.ProcessingDispatcher.
type mockDispatcher struct {
	pending int
	err     error
}

func (m *mockDispatcher) Enqueue(_ int64) {}

func (m *mockDispatcher) ProcessPending(_ context.Context) (int, error) {
	return m.pending, m.err
}

func (m *mockDispatcher) Wait() {}

// mockEmbeddingIndexer is a mock implementation of driving.EmbeddingIndexer.
type mockEmbeddingIndexer struct {
	result        *domain.EmbeddingResult
	report        *driving.RefreshReport
	err           error
	refreshedID   int64
	pendingCalled bool
}

func (m *mockEmbeddingIndexer) GenerateEmbeddings(
	_ context.Context, _ int64, _ string, _ map[string]any,
) (*domain.EmbeddingResult, error) {
	return m.result, m.err
}

func (m *mockEmbeddingIndexer) Refresh(_ context.Context, documentID int64) (*domain.EmbeddingResult, error) {
	m.refreshedID = documentID
	return m.result, m.err
}

func (m *mockEmbeddingIndexer) RefreshPending(_ context.Context) (*driving.RefreshReport, error) {
	m.pendingCalled = true
	return m.report, m.err
}
