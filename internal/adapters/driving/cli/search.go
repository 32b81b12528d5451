package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

var (
	searchLimit     int
	searchOffset    int
	searchMode      string
	searchThreshold float64
	searchJSON      bool
	searchChunks    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search processed documents",
	Long: `Searches completed documents.

Modes:
  text    - full-text index. Supports terms, "phrases", AND/OR/NOT and prefix*
  vector  - semantic similarity against embedded chunks
  hybrid  - both rankings fused with reciprocal rank fusion

Without --mode the configured default is used. Hybrid search falls back to
text when no embedding provider is configured.

Use --chunks for raw chunk-level similarity matches instead of documents.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "number of results to skip")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "search mode: text, vector or hybrid")
	searchCmd.Flags().Float64VarP(&searchThreshold, "threshold", "t", 0, "minimum vector similarity in [0,1] (0 uses the configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	searchCmd.Flags().BoolVar(&searchChunks, "chunks", false, "return chunk-level vector matches")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if searchChunks {
		return runChunkSearch(cmd, query)
	}

	if searchService == nil {
		return errors.New("search service not configured")
	}

	mode := domain.SearchMode(strings.ToLower(searchMode))
	if mode != "" && !mode.IsValid() {
		return fmt.Errorf("unknown search mode %q (want text, vector or hybrid)", searchMode)
	}

	opts := domain.SearchOptions{
		Mode:      mode,
		Limit:     searchLimit,
		Offset:    searchOffset,
		Threshold: searchThreshold,
	}

	results, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd.OutOrStdout(), searchResultsJSON(results))
	}

	return outputSearchTable(cmd, results)
}

func runChunkSearch(cmd *cobra.Command, query string) error {
	if vectorSearchService == nil {
		return fmt.Errorf("vector search: %w", domain.ErrEmbeddingUnavailable)
	}

	threshold := searchThreshold
	if threshold == 0 {
		threshold = 0.5
	}
	matches, err := vectorSearchService.Search(cmd.Context(), query, searchLimit, threshold)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return printJSON(cmd.OutOrStdout(), matches)
	}

	if len(matches) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, m := range matches {
		cmd.Printf("  [%d] %s #%d (%.3f)\n", i+1, m.Filename, m.ChunkIndex, m.Similarity)
		cmd.Printf("      %s\n", truncate(m.Content, 160))
		cmd.Println()
	}
	return nil
}

type searchResultJSON struct {
	DocumentID int64    `json:"document_id"`
	Filename   string   `json:"filename"`
	Category   string   `json:"category,omitempty"`
	Score      float64  `json:"score"`
	Similarity float64  `json:"similarity,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
	Chunk      string   `json:"chunk,omitempty"`
}

func searchResultsJSON(results []domain.SearchResult) []searchResultJSON {
	out := make([]searchResultJSON, len(results))
	for i := range results {
		r := &results[i]
		out[i] = searchResultJSON{
			DocumentID: r.Document.ID,
			Filename:   r.Document.OriginalFilename,
			Category:   r.Document.Category,
			Score:      r.Score,
			Similarity: r.Similarity,
			Highlights: r.Highlights,
		}
		if r.Chunk != nil {
			out[i].Chunk = r.Chunk.Content
		}
	}
	return out
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		doc := &results[i].Document

		snippet := ""
		switch {
		case len(results[i].Highlights) > 0:
			snippet = results[i].Highlights[0]
		case results[i].Chunk != nil:
			snippet = truncate(results[i].Chunk.Content, 160)
		}

		cmd.Printf("  [%d] %s (%.3f)\n", i+1, doc.OriginalFilename, results[i].Score)
		cmd.Printf("      Document: %d", doc.ID)
		if doc.Category != "" {
			cmd.Printf("  Category: %s", doc.Category)
		}
		cmd.Println()
		if snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}

	return nil
}
