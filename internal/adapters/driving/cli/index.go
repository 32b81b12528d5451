package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and rebuild the full-text index",
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show full-text index statistics",
	Args:  cobra.NoArgs,
	RunE:  runIndexStats,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Re-synchronise the index with every document",
	Long: `Brings every document's index row in line with its status: completed
documents are indexed and all others removed.`,
	Args: cobra.NoArgs,
	RunE: runIndexRebuild,
}

func init() {
	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexRebuildCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	stats, err := indexService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("getting index stats: %w", err)
	}

	cmd.Println("Full-text Index")
	cmd.Println("===============")
	cmd.Printf("  Indexed documents: %d\n", stats.IndexedDocuments)
	cmd.Printf("  Total content: %d characters\n", stats.TotalContentLength)
	cmd.Printf("  Average content: %.0f characters\n", stats.AvgContentLength)
	return nil
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	n, err := indexService.Rebuild(cmd.Context())
	if err != nil {
		cmd.Printf("Rebuild finished with errors; %d documents indexed.\n", n)
		return fmt.Errorf("rebuilding index: %w", err)
	}

	cmd.Printf("Index rebuilt: %d documents indexed.\n", n)
	return nil
}
