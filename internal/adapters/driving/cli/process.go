package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

var processPending bool

var processCmd = &cobra.Command{
	Use:   "process [doc-id]",
	Short: "Process a document now",
	Long: `Runs extraction, categorisation, embedding and indexing for a document and
waits for it to finish. Use this to retry a failed document.

With --pending, every document still waiting in uploaded status is processed
instead. Failed documents are only retried when named explicitly.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if processPending {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processPending, "pending", false, "process every uploaded document")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	if processPending {
		return runProcessPending(cmd)
	}

	if processingService == nil {
		return errors.New("processing service not configured")
	}

	id, err := parseDocumentID(args[0])
	if err != nil {
		return err
	}

	completed, err := processingService.Process(cmd.Context(), id)
	if err != nil || !completed {
		cmd.Printf("Document %d failed. Run 'docintel document logs %d' for details.\n", id, id)
		if err == nil {
			err = domain.ErrExtraction
		}
		return fmt.Errorf("processing document %d: %w", id, err)
	}
	cmd.Printf("Document %d completed.\n", id)
	return nil
}

func runProcessPending(cmd *cobra.Command) error {
	if dispatcher == nil {
		return errors.New("dispatcher not configured")
	}

	n, err := dispatcher.ProcessPending(cmd.Context())
	if err != nil {
		return fmt.Errorf("scheduling pending documents: %w", err)
	}
	if n == 0 {
		cmd.Println("No pending documents.")
		return nil
	}

	cmd.Printf("Processing %d pending documents...\n", n)
	dispatcher.Wait()
	cmd.Println("Done.")
	return nil
}
