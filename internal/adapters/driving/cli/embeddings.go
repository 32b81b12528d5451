package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

var embeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Manage chunk embeddings",
}

var embeddingsRefreshCmd = &cobra.Command{
	Use:   "refresh [doc-id]",
	Short: "Regenerate embeddings",
	Long: `Regenerates the chunk embeddings of one completed document.

Without a document id, embeds every completed document that has no chunks,
such as documents whose embedding step failed during processing. A failure on
one document is reported and the sweep continues.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEmbeddingsRefresh,
}

func init() {
	embeddingsCmd.AddCommand(embeddingsRefreshCmd)
	rootCmd.AddCommand(embeddingsCmd)
}

func runEmbeddingsRefresh(cmd *cobra.Command, args []string) error {
	if embeddingIndexer == nil {
		return fmt.Errorf("embedding refresh: %w", domain.ErrEmbeddingUnavailable)
	}

	if len(args) == 1 {
		id, err := parseDocumentID(args[0])
		if err != nil {
			return err
		}
		result, err := embeddingIndexer.Refresh(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("refreshing document %d: %w", id, err)
		}
		cmd.Printf("Document %d: %d chunks embedded.\n", id, result.Count)
		return nil
	}

	report, err := embeddingIndexer.RefreshPending(cmd.Context())
	if err != nil {
		return fmt.Errorf("refreshing embeddings: %w", err)
	}

	cmd.Printf("Embedded %d documents (%d chunks).\n", report.Documents, report.Chunks)
	if report.Failed > 0 {
		cmd.Printf("%d documents failed. Run with --verbose for details.\n", report.Failed)
	}
	return nil
}
