package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

var (
	uploadContentType string
	uploadNoWait      bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload documents",
	Long: `Uploads one or more files. Each file is stored, deduplicated by content hash
and queued for processing. Byte-identical files are rejected as duplicates.

By default the command waits for processing to finish and reports the final
status of each document. Use --no-wait to return as soon as files are queued.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVar(&uploadContentType, "content-type", "", "declared media type (guessed from the extension when empty)")
	uploadCmd.Flags().BoolVar(&uploadNoWait, "no-wait", false, "return without waiting for processing")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	var accepted []*domain.Document
	failed := 0

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			cmd.Printf("  %s: %v\n", path, err)
			failed++
			continue
		}

		doc, err := ingestService.Submit(ctx, data, filepath.Base(path), driving.SubmitOptions{
			ContentType: uploadContentType,
		})
		var dupErr *domain.DuplicateError
		switch {
		case errors.As(err, &dupErr):
			cmd.Printf("  %s: duplicate of document %d\n", path, dupErr.ExistingID)
			failed++
		case err != nil:
			cmd.Printf("  %s: %v\n", path, err)
			failed++
		default:
			cmd.Printf("  %s: accepted as document %d\n", path, doc.ID)
			accepted = append(accepted, doc)
		}
	}

	if !uploadNoWait && dispatcher != nil && len(accepted) > 0 {
		cmd.Println()
		cmd.Println("Processing...")
		dispatcher.Wait()
		reportStatuses(cmd, accepted)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads rejected", failed, len(args))
	}
	return nil
}

func reportStatuses(cmd *cobra.Command, docs []*domain.Document) {
	if documentService == nil {
		return
	}
	for _, d := range docs {
		doc, err := documentService.Get(cmd.Context(), d.ID)
		if err != nil {
			cmd.Printf("  [%d] %s: %v\n", d.ID, d.OriginalFilename, err)
			continue
		}
		line := fmt.Sprintf("  [%d] %s: %s", doc.ID, doc.OriginalFilename, doc.Status)
		if doc.Category != "" {
			line += fmt.Sprintf(" (%s, confidence %.2f)", doc.Category, doc.ConfidenceScore)
		}
		cmd.Println(line)
	}
}
