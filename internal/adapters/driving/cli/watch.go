package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/adapters/driving/inbox"
	"github.com/custodia-labs/docintel/internal/core/domain"
)

var (
	watchExisting bool
	watchSettle   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Upload files dropped into a directory",
	Long: `Watches a directory and uploads every file created or written in it once
the file stops changing. Files go through the same dedup check as 'upload',
so rewriting a file with identical bytes is reported as a duplicate.

Processing runs in the background while watching. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "upload files already in the directory first")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", inbox.DefaultSettle, "quiet period before a changed file is uploaded")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	w := inbox.New(args[0], ingestService)
	w.SetSettle(watchSettle)
	defer w.Close()

	if watchExisting {
		results, err := w.IngestExisting(ctx)
		if err != nil {
			return err
		}
		for _, r := range results {
			printInboxResult(cmd, r)
		}
	}

	results, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s for new documents...\n", args[0])
	for r := range results {
		printInboxResult(cmd, r)
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
	return nil
}

func printInboxResult(cmd *cobra.Command, r inbox.Result) {
	var dupErr *domain.DuplicateError
	switch {
	case errors.As(r.Err, &dupErr):
		cmd.Printf("  %s: duplicate of document %d\n", r.Path, dupErr.ExistingID)
	case r.Err != nil:
		cmd.Printf("  %s: %v\n", r.Path, r.Err)
	default:
		cmd.Printf("  %s: accepted as document %d\n", r.Path, r.Document.ID)
	}
}
