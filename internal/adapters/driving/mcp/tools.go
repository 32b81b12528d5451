package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

const (
	defaultLimit              = 10
	defaultThreshold          = 0.5
	defaultDuplicateThreshold = 0.9
)

// SearchInput is the input schema for the search tools.
type SearchInput struct {
	Query     string   `json:"query" jsonschema:"the search query to find documents"`
	Limit     int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum similarity between 0 and 1 for vector matches (default 0.5)"`
}

// SearchOutput is the output schema for document-level search tools.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID int64    `json:"document_id"`
	Filename   string   `json:"filename"`
	Category   string   `json:"category,omitempty"`
	Score      float64  `json:"score"`
	Similarity float64  `json:"similarity,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
	Content    string   `json:"content,omitempty"`
}

// VectorSearchOutput is the output schema for the vector_search tool.
type VectorSearchOutput struct {
	Matches []VectorMatchOutput `json:"matches"`
	Count   int                 `json:"count"`
}

// VectorMatchOutput is one chunk match.
type VectorMatchOutput struct {
	DocumentID int64   `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
	UploadedAt string  `json:"uploaded_at"`
}

// DocumentIDInput identifies a document.
type DocumentIDInput struct {
	DocumentID int64 `json:"document_id" jsonschema:"the numeric document id"`
}

// DuplicatesInput is the input schema for the find_duplicates tool.
type DuplicatesInput struct {
	DocumentID int64    `json:"document_id" jsonschema:"the document to compare against the collection"`
	Threshold  *float64 `json:"threshold,omitempty" jsonschema:"minimum chunk similarity between 0 and 1 (default 0.9)"`
}

// DuplicatesOutput is the output schema for the find_duplicates tool.
type DuplicatesOutput struct {
	DocumentID int64                   `json:"document_id"`
	Duplicates []domain.DuplicateMatch `json:"duplicates"`
	Count      int                     `json:"count"`
}

// UpdateEmbeddingsInput is the input schema for the update_embeddings tool.
type UpdateEmbeddingsInput struct {
	DocumentID int64 `json:"document_id,omitempty" jsonschema:"document to re-embed; omit to embed every completed document without chunks"`
}

// UpdateEmbeddingsOutput reports an embedding refresh.
type UpdateEmbeddingsOutput struct {
	Documents int    `json:"documents"`
	Chunks    int    `json:"chunks"`
	Failed    int    `json:"failed"`
	TextHash  string `json:"text_hash,omitempty"`
}

// DocumentOutput is the serialisable form of a document.
type DocumentOutput struct {
	ID               int64          `json:"id"`
	UUID             string         `json:"uuid"`
	OriginalFilename string         `json:"original_filename"`
	ContentType      string         `json:"content_type"`
	FileSize         int64          `json:"file_size"`
	ContentHash      string         `json:"content_hash"`
	TextHash         string         `json:"text_hash,omitempty"`
	Status           string         `json:"status"`
	Category         string         `json:"category,omitempty"`
	Summary          string         `json:"summary,omitempty"`
	ConfidenceScore  float64        `json:"confidence_score"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	UploadedAt       string         `json:"uploaded_at"`
	ProcessedAt      string         `json:"processed_at,omitempty"`
}

// DocumentDetailsOutput is the output schema for get_document_details.
type DocumentDetailsOutput struct {
	Document       DocumentOutput `json:"document"`
	ChunkCount     int            `json:"chunk_count"`
	EmbeddingModel string         `json:"embedding_model,omitempty"`
	LogCount       int            `json:"log_count"`
	Indexed        bool           `json:"indexed"`
	TableCount     int            `json:"table_count"`
}

// SnapshotOutput is the output schema for get_document_json.
type SnapshotOutput struct {
	DocumentID          int64                  `json:"document_id"`
	DocumentHash        string                 `json:"document_hash"`
	FullText            string                 `json:"full_text"`
	ContentLength       int                    `json:"content_length"`
	ChunksCount         int                    `json:"chunks_count"`
	EmbeddingModel      string                 `json:"embedding_model"`
	EmbeddingDimensions int                    `json:"embedding_dimensions"`
	Metadata            map[string]any         `json:"metadata"`
	Chunks              []domain.ChunkSnapshot `json:"chunks"`
	CreatedAt           string                 `json:"created_at"`
}

// TablesOutput is the output schema for get_document_tables.
type TablesOutput struct {
	DocumentID int64          `json:"document_id"`
	Tables     []domain.Table `json:"tables"`
	Count      int            `json:"count"`
}

// StatisticsOutput is the output schema for get_document_statistics.
type StatisticsOutput struct {
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"by_status"`
	ByContentType     map[string]int `json:"by_content_type"`
	TotalSize         int64          `json:"total_size"`
	AvgConfidence     float64        `json:"avg_confidence"`
	RecentUploads     int            `json:"recent_uploads"`
	ChunkCount        int            `json:"chunk_count"`
	EmbeddedDocuments int            `json:"embedded_documents"`
}

// HashInput is the input schema for check_duplicate_by_hash.
type HashInput struct {
	ContentHash string `json:"content_hash" jsonschema:"hex SHA-256 of the raw file bytes"`
}

// HashOutput reports whether a content hash is already ingested.
type HashOutput struct {
	Exists     bool   `json:"exists"`
	DocumentID int64  `json:"document_id,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Status     string `json:"status,omitempty"`
}

// ProcessOutput is the output schema for process_document.
type ProcessOutput struct {
	DocumentID int64  `json:"document_id"`
	Completed  bool   `json:"completed"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// ProcessPendingOutput is the output schema for process_pending_documents.
type ProcessPendingOutput struct {
	Enqueued int `json:"enqueued"`
}

// UploadInput is the input schema for upload_document.
type UploadInput struct {
	Filename      string `json:"filename" jsonschema:"original file name including its extension"`
	Content       string `json:"content,omitempty" jsonschema:"plain text content for text and markdown files"`
	ContentBase64 string `json:"content_base64,omitempty" jsonschema:"base64 encoded bytes for binary files such as pdf or docx"`
	ContentType   string `json:"content_type,omitempty" jsonschema:"declared media type, guessed from the extension when omitted"`
}

// UploadOutput is the output schema for upload_document.
type UploadOutput struct {
	DocumentID  int64  `json:"document_id,omitempty"`
	UUID        string `json:"uuid,omitempty"`
	Status      string `json:"status,omitempty"`
	Duplicate   bool   `json:"duplicate"`
	ExistingID  int64  `json:"existing_id,omitempty"`
	ContentHash string `json:"content_hash"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_documents",
		Description: "Full-text search over completed documents. Supports terms, \"phrases\", AND/OR/NOT and prefix* queries",
	}, s.handleSearchDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "hybrid_search",
		Description: "Search documents by combining full-text and semantic similarity rankings",
	}, s.handleHybridSearch)

	if s.ports.VectorSearch != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "vector_search",
			Description: "Semantic search returning the document chunks most similar to the query",
		}, s.handleVectorSearch)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "find_duplicates",
			Description: "Find other documents whose content closely matches a document",
		}, s.handleFindDuplicates)
	}

	if s.ports.Embeddings != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "update_embeddings",
			Description: "Regenerate embeddings for one document, or for every completed document missing them",
		}, s.handleUpdateEmbeddings)
	}

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_document_details",
			Description: "Get a document's metadata, status, chunk count and index state",
		}, s.handleGetDocumentDetails)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_document_json",
			Description: "Get the exported snapshot of a processed document including chunk embeddings",
		}, s.handleGetDocumentJSON)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_document_tables",
			Description: "Get the tables extracted from a document",
		}, s.handleGetDocumentTables)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "get_document_statistics",
			Description: "Summarise the document collection by status and type",
		}, s.handleGetDocumentStatistics)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "check_duplicate_by_hash",
			Description: "Check whether a file with the given content hash was already uploaded",
		}, s.handleCheckDuplicateByHash)
	}

	if s.ports.Processing != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "process_document",
			Description: "Process a document now, blocking until it completes or fails",
		}, s.handleProcessDocument)
	}

	if s.ports.Dispatcher != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "process_pending_documents",
			Description: "Schedule background processing for every uploaded document",
		}, s.handleProcessPending)
	}

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "upload_document",
			Description: "Upload a new document. Byte-identical content is rejected as a duplicate",
		}, s.handleUploadDocument)
	}
}

// handleSearchDocuments handles the search_documents tool invocation.
func (s *Server) handleSearchDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return s.search(ctx, input, domain.SearchModeText)
}

// handleHybridSearch handles the hybrid_search tool invocation.
func (s *Server) handleHybridSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return s.search(ctx, input, domain.SearchModeHybrid)
}

func (s *Server) search(
	ctx context.Context,
	input SearchInput,
	mode domain.SearchMode,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Mode:      mode,
		Limit:     limitOrDefault(input.Limit),
		Threshold: thresholdOrDefault(input.Threshold, defaultThreshold),
	}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}

	for i := range results {
		r := &results[i]
		out := SearchResultOutput{
			DocumentID: r.Document.ID,
			Filename:   r.Document.OriginalFilename,
			Category:   r.Document.Category,
			Score:      r.Score,
			Similarity: r.Similarity,
			Highlights: r.Highlights,
		}
		if r.Chunk != nil {
			out.Content = r.Chunk.Content
		}
		output.Results[i] = out
	}

	return nil, output, nil
}

// handleVectorSearch handles the vector_search tool invocation.
func (s *Server) handleVectorSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, VectorSearchOutput, error) {
	threshold := thresholdOrDefault(input.Threshold, defaultThreshold)
	matches, err := s.ports.VectorSearch.Search(ctx, input.Query, limitOrDefault(input.Limit), threshold)
	if err != nil {
		return nil, VectorSearchOutput{}, err
	}

	output := VectorSearchOutput{
		Matches: make([]VectorMatchOutput, len(matches)),
		Count:   len(matches),
	}
	for i, m := range matches {
		output.Matches[i] = VectorMatchOutput{
			DocumentID: m.DocumentID,
			Filename:   m.Filename,
			ChunkIndex: m.ChunkIndex,
			Content:    m.Content,
			Similarity: m.Similarity,
			UploadedAt: formatTime(m.UploadedAt),
		}
	}
	return nil, output, nil
}

// handleFindDuplicates handles the find_duplicates tool invocation.
func (s *Server) handleFindDuplicates(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DuplicatesInput,
) (*mcp.CallToolResult, DuplicatesOutput, error) {
	threshold := thresholdOrDefault(input.Threshold, defaultDuplicateThreshold)
	dups, err := s.ports.VectorSearch.FindDuplicates(ctx, input.DocumentID, threshold)
	if err != nil {
		return nil, DuplicatesOutput{}, err
	}
	if dups == nil {
		dups = []domain.DuplicateMatch{}
	}
	return nil, DuplicatesOutput{
		DocumentID: input.DocumentID,
		Duplicates: dups,
		Count:      len(dups),
	}, nil
}

// handleUpdateEmbeddings handles the update_embeddings tool invocation.
func (s *Server) handleUpdateEmbeddings(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UpdateEmbeddingsInput,
) (*mcp.CallToolResult, UpdateEmbeddingsOutput, error) {
	if input.DocumentID > 0 {
		result, err := s.ports.Embeddings.Refresh(ctx, input.DocumentID)
		if err != nil {
			return nil, UpdateEmbeddingsOutput{}, err
		}
		return nil, UpdateEmbeddingsOutput{
			Documents: 1,
			Chunks:    result.Count,
			TextHash:  result.TextHash,
		}, nil
	}

	report, err := s.ports.Embeddings.RefreshPending(ctx)
	if err != nil {
		return nil, UpdateEmbeddingsOutput{}, err
	}
	return nil, UpdateEmbeddingsOutput{
		Documents: report.Documents,
		Chunks:    report.Chunks,
		Failed:    report.Failed,
	}, nil
}

// handleGetDocumentDetails handles the get_document_details tool invocation.
func (s *Server) handleGetDocumentDetails(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, DocumentDetailsOutput, error) {
	details, err := s.ports.Document.GetDetails(ctx, input.DocumentID)
	if err != nil {
		return nil, DocumentDetailsOutput{}, err
	}
	return nil, DocumentDetailsOutput{
		Document:       toDocumentOutput(&details.Document),
		ChunkCount:     details.ChunkCount,
		EmbeddingModel: details.EmbeddingModel,
		LogCount:       details.LogCount,
		Indexed:        details.Indexed,
		TableCount:     len(details.Document.Tables),
	}, nil
}

// handleGetDocumentJSON handles the get_document_json tool invocation.
func (s *Server) handleGetDocumentJSON(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, SnapshotOutput, error) {
	snap, err := s.ports.Document.GetSnapshot(ctx, input.DocumentID)
	if err != nil {
		return nil, SnapshotOutput{}, err
	}
	return nil, SnapshotOutput{
		DocumentID:          snap.DocumentID,
		DocumentHash:        snap.TextHash,
		FullText:            snap.Content,
		ContentLength:       snap.ContentLength,
		ChunksCount:         snap.ChunksCount,
		EmbeddingModel:      snap.EmbeddingModel,
		EmbeddingDimensions: snap.EmbeddingDimensions,
		Metadata:            snap.Metadata,
		Chunks:              snap.Chunks,
		CreatedAt:           formatTime(snap.CreatedAt),
	}, nil
}

// handleGetDocumentTables handles the get_document_tables tool invocation.
func (s *Server) handleGetDocumentTables(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, TablesOutput, error) {
	tables, err := s.ports.Document.GetTables(ctx, input.DocumentID)
	if err != nil {
		return nil, TablesOutput{}, err
	}
	return nil, TablesOutput{
		DocumentID: input.DocumentID,
		Tables:     tables,
		Count:      len(tables),
	}, nil
}

// handleGetDocumentStatistics handles the get_document_statistics tool invocation.
func (s *Server) handleGetDocumentStatistics(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, StatisticsOutput, error) {
	stats, err := s.ports.Document.Stats(ctx)
	if err != nil {
		return nil, StatisticsOutput{}, err
	}
	return nil, toStatisticsOutput(stats), nil
}

// handleCheckDuplicateByHash handles the check_duplicate_by_hash tool invocation.
func (s *Server) handleCheckDuplicateByHash(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HashInput,
) (*mcp.CallToolResult, HashOutput, error) {
	doc, err := s.ports.Document.FindByHash(ctx, input.ContentHash)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, HashOutput{Exists: false}, nil
	}
	if err != nil {
		return nil, HashOutput{}, err
	}
	return nil, HashOutput{
		Exists:     true,
		DocumentID: doc.ID,
		Filename:   doc.OriginalFilename,
		Status:     doc.Status.String(),
	}, nil
}

// handleProcessDocument handles the process_document tool invocation.
func (s *Server) handleProcessDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentIDInput,
) (*mcp.CallToolResult, ProcessOutput, error) {
	completed, err := s.ports.Processing.Process(ctx, input.DocumentID)
	if errors.Is(err, domain.ErrExtraction) {
		// The document reached failed; report it as a result, not a tool error.
		return nil, ProcessOutput{
			DocumentID: input.DocumentID,
			Status:     domain.StatusFailed.String(),
			Error:      err.Error(),
		}, nil
	}
	if err != nil {
		return nil, ProcessOutput{}, err
	}
	status := domain.StatusFailed
	if completed {
		status = domain.StatusCompleted
	}
	return nil, ProcessOutput{
		DocumentID: input.DocumentID,
		Completed:  completed,
		Status:     status.String(),
	}, nil
}

// handleProcessPending handles the process_pending_documents tool invocation.
func (s *Server) handleProcessPending(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ struct{},
) (*mcp.CallToolResult, ProcessPendingOutput, error) {
	n, err := s.ports.Dispatcher.ProcessPending(ctx)
	if err != nil {
		return nil, ProcessPendingOutput{}, err
	}
	return nil, ProcessPendingOutput{Enqueued: n}, nil
}

// handleUploadDocument handles the upload_document tool invocation.
// A duplicate upload is reported in the output rather than as a tool error.
func (s *Server) handleUploadDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UploadInput,
) (*mcp.CallToolResult, UploadOutput, error) {
	data, err := decodeUpload(input)
	if err != nil {
		return nil, UploadOutput{}, err
	}

	doc, err := s.ports.Ingest.Submit(ctx, data, input.Filename, driving.SubmitOptions{
		ContentType: input.ContentType,
	})
	var dupErr *domain.DuplicateError
	if errors.As(err, &dupErr) {
		return nil, UploadOutput{
			Duplicate:   true,
			ExistingID:  dupErr.ExistingID,
			ContentHash: dupErr.ContentHash,
		}, nil
	}
	if err != nil {
		return nil, UploadOutput{}, err
	}

	return nil, UploadOutput{
		DocumentID:  doc.ID,
		UUID:        doc.UUID,
		Status:      doc.Status.String(),
		ContentHash: doc.ContentHash,
	}, nil
}

// decodeUpload returns the upload bytes from exactly one of the content fields.
func decodeUpload(input UploadInput) ([]byte, error) {
	hasText := input.Content != ""
	hasBinary := input.ContentBase64 != ""
	switch {
	case hasText && hasBinary:
		return nil, fmt.Errorf("%w: provide content or content_base64, not both", domain.ErrInvalidInput)
	case hasBinary:
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(input.ContentBase64))
		if err != nil {
			return nil, fmt.Errorf("%w: decoding content_base64: %v", domain.ErrInvalidInput, err)
		}
		return data, nil
	case hasText:
		return []byte(input.Content), nil
	default:
		return nil, fmt.Errorf("%w: content is required", domain.ErrInvalidInput)
	}
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

func thresholdOrDefault(threshold *float64, def float64) float64 {
	if threshold == nil {
		return def
	}
	return *threshold
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toDocumentOutput(doc *domain.Document) DocumentOutput {
	out := DocumentOutput{
		ID:               doc.ID,
		UUID:             doc.UUID,
		OriginalFilename: doc.OriginalFilename,
		ContentType:      doc.ContentType,
		FileSize:         doc.FileSize,
		ContentHash:      doc.ContentHash,
		TextHash:         doc.TextHash,
		Status:           doc.Status.String(),
		Category:         doc.Category,
		Summary:          doc.Summary,
		ConfidenceScore:  doc.ConfidenceScore,
		Metadata:         doc.Metadata,
		UploadedAt:       formatTime(doc.UploadedAt),
	}
	if doc.ProcessedAt != nil {
		out.ProcessedAt = formatTime(*doc.ProcessedAt)
	}
	return out
}

func toStatisticsOutput(stats *domain.DocumentStats) StatisticsOutput {
	byStatus := make(map[string]int, len(stats.ByStatus))
	for status, n := range stats.ByStatus {
		byStatus[status.String()] = n
	}
	byType := stats.ByContentType
	if byType == nil {
		byType = map[string]int{}
	}
	return StatisticsOutput{
		Total:             stats.Total,
		ByStatus:          byStatus,
		ByContentType:     byType,
		TotalSize:         stats.TotalSize,
		AvgConfidence:     stats.AvgConfidence,
		RecentUploads:     stats.RecentUploads,
		ChunkCount:        stats.ChunkCount,
		EmbeddedDocuments: stats.EmbeddedDocuments,
	}
}
