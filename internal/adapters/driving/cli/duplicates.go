package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

var (
	duplicatesThreshold float64
	duplicatesJSON      bool
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates [doc-id]",
	Short: "Find near-duplicate documents",
	Long: `Compares the opening chunks of a document against every other embedded
document and lists those with chunks at or above the similarity threshold.

This catches files whose bytes differ but whose text is the same, which the
upload dedup check cannot see.`,
	Args: cobra.ExactArgs(1),
	RunE: runDuplicates,
}

func init() {
	duplicatesCmd.Flags().Float64VarP(&duplicatesThreshold, "threshold", "t", 0.9, "minimum chunk similarity in [0,1]")
	duplicatesCmd.Flags().BoolVar(&duplicatesJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(duplicatesCmd)
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	if vectorSearchService == nil {
		return fmt.Errorf("duplicate detection: %w", domain.ErrEmbeddingUnavailable)
	}

	id, err := parseDocumentID(args[0])
	if err != nil {
		return err
	}

	dups, err := vectorSearchService.FindDuplicates(cmd.Context(), id, duplicatesThreshold)
	if err != nil {
		return fmt.Errorf("finding duplicates: %w", err)
	}

	if duplicatesJSON {
		if dups == nil {
			dups = []domain.DuplicateMatch{}
		}
		return printJSON(cmd.OutOrStdout(), dups)
	}

	if len(dups) == 0 {
		cmd.Printf("No duplicates found for document %d.\n", id)
		return nil
	}

	cmd.Printf("Possible duplicates of document %d:\n\n", id)
	for _, d := range dups {
		cmd.Printf("  [%d] %s  similarity %.3f  matching chunks %d\n",
			d.DocumentID, d.Filename, d.MaxSimilarity, d.MatchingChunks)
	}
	return nil
}
