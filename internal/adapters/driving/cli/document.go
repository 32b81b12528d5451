package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docintel/internal/contenthash"
	"github.com/custodia-labs/docintel/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage documents",
	Long:    `List, inspect, export, update and delete documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentContentCmd = &cobra.Command{
	Use:   "content [doc-id]",
	Short: "Print extracted text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentContent,
}

var documentTablesCmd = &cobra.Command{
	Use:   "tables [doc-id]",
	Short: "Print extracted tables",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentTables,
}

var documentLogsCmd = &cobra.Command{
	Use:   "logs [doc-id]",
	Short: "Show the processing log",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentLogs,
}

var documentExportCmd = &cobra.Command{
	Use:   "export [doc-id]",
	Short: "Export the JSON snapshot",
	Long: `Writes the processed snapshot of a document: full text, text hash,
metadata and every chunk with its embedding.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentExport,
}

var documentUpdateCmd = &cobra.Command{
	Use:   "update [doc-id]",
	Short: "Update summary, category, metadata or archive state",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentUpdate,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long:  `Removes the document, its stored file, chunks, processing log and index row.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the collection",
	Args:  cobra.NoArgs,
	RunE:  runDocumentStats,
}

var documentCheckCmd = &cobra.Command{
	Use:   "check [file-or-hash]",
	Short: "Check whether content was already uploaded",
	Long: `Looks up a content hash. If the argument is an existing file its SHA-256
is computed first.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentCheck,
}

var (
	listStatus      string
	listContentType string
	listLimit       int
	listOffset      int

	tablesFormat string

	exportOutput string

	updateSummary   string
	updateCategory  string
	updateMetadata  []string
	updateArchive   bool
	updateUnarchive bool

	documentJSON bool
)

func init() {
	documentListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "filter by status")
	documentListCmd.Flags().StringVar(&listContentType, "type", "", "filter by content type")
	documentListCmd.Flags().IntVarP(&listLimit, "limit", "n", 50, "maximum number of documents")
	documentListCmd.Flags().IntVar(&listOffset, "offset", 0, "number of documents to skip")

	documentTablesCmd.Flags().StringVarP(&tablesFormat, "format", "f", "grid", "output format: grid, csv, html or json")

	documentExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")

	documentUpdateCmd.Flags().StringVar(&updateSummary, "summary", "", "replace the summary")
	documentUpdateCmd.Flags().StringVar(&updateCategory, "category", "", "replace the category")
	documentUpdateCmd.Flags().StringArrayVar(&updateMetadata, "meta", nil, "set a metadata key (key=value, repeatable)")
	documentUpdateCmd.Flags().BoolVar(&updateArchive, "archive", false, "archive the document")
	documentUpdateCmd.Flags().BoolVar(&updateUnarchive, "unarchive", false, "restore an archived document")
	documentUpdateCmd.MarkFlagsMutuallyExclusive("archive", "unarchive")

	for _, c := range []*cobra.Command{documentListCmd, documentGetCmd, documentLogsCmd, documentStatsCmd} {
		c.Flags().BoolVar(&documentJSON, "json", false, "output as JSON")
	}

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentContentCmd)
	documentCmd.AddCommand(documentTablesCmd)
	documentCmd.AddCommand(documentLogsCmd)
	documentCmd.AddCommand(documentExportCmd)
	documentCmd.AddCommand(documentUpdateCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentStatsCmd)
	documentCmd.AddCommand(documentCheckCmd)
	rootCmd.AddCommand(documentCmd)
}

var errDocumentServiceMissing = errors.New("document service not configured")

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	docs, err := documentService.List(cmd.Context(), domain.DocumentFilter{
		Status:      domain.DocumentStatus(strings.ToLower(listStatus)),
		ContentType: listContentType,
		Limit:       listLimit,
		Offset:      listOffset,
	})
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentJSON {
		return printJSON(cmd.OutOrStdout(), docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	cmd.Printf("%-6s %-10s %-14s %-17s %s\n", "ID", "STATUS", "CATEGORY", "UPLOADED", "FILENAME")
	for i := range docs {
		category := docs[i].Category
		if category == "" {
			category = "-"
		}
		cmd.Printf("%-6d %-10s %-14s %-17s %s\n",
			docs[i].ID, docs[i].Status, category, formatTime(docs[i].UploadedAt), docs[i].OriginalFilename)
	}
	cmd.Printf("\nTotal: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	id, err := parseDocumentID(args[0])
	if err != nil {
		return err
	}

	details, err := documentService.GetDetails(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if documentJSON {
		return printJSON(cmd.OutOrStdout(), details)
	}

	doc := &details.Document
	cmd.Printf("Document %d\n", doc.ID)
	cmd.Printf("  UUID: %s\n", doc.UUID)
	cmd.Printf("  Filename: %s\n", doc.OriginalFilename)
	cmd.Printf("  Content type: %s\n", doc.ContentType)
	cmd.Printf("  Size: %s\n", formatBytes(doc.FileSize))
	cmd.Printf("  Status: %s\n", doc.Status)
	if doc.Category != "" {
		cmd.Printf("  Category: %s\n", doc.Category)
		cmd.Printf("  Confidence: %.2f\n", doc.ConfidenceScore)
	}
	cmd.Printf("  Content hash: %s\n", doc.ContentHash)
	if doc.TextHash != "" {
		cmd.Printf("  Text hash: %s\n", doc.TextHash)
	}
	cmd.Printf("  Uploaded: %s\n", formatTime(doc.UploadedAt))
	if doc.ProcessedAt != nil {
		cmd.Printf("  Processed: %s\n", formatTime(*doc.ProcessedAt))
	}
	cmd.Printf("  Chunks: %d", details.ChunkCount)
	if details.EmbeddingModel != "" {
		cmd.Printf(" (%s)", details.EmbeddingModel)
	}
	cmd.Println()
	cmd.Printf("  Tables: %d\n", len(doc.Tables))
	cmd.Printf("  Indexed: %t\n", details.Indexed)
	cmd.Printf("  Log entries: %d\n", details.LogCount)
	if doc.Summary != "" {
		cmd.Printf("  Summary: %s\n", doc.Summary)
	}
	return nil
}

func runDocumentContent(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	id, err := parseDocumentID(args[0])
	if err != nil {
		return err
	}

	doc, err := documentService.Get(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if doc.Content == "" {
		cmd.Printf("Document %d has no extracted text (status %s).\n", id, doc.Status)
		return nil
	}

	cmd.Println(doc.Content)
	return nil
}

func runDocumentTables(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	id, err := parseDocumentID(args[0])
	if err != nil {
		return err
	}

	tables, err := documentService.GetTables(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get tables: %w", err)
	}

	if tablesFormat == "json" {
		return printJSON(cmd.OutOrStdout(), tables)
	}
	if len(tables) == 0 {
		cmd.Printf("Document %d has no tables.\n", id)
		return nil
	}

	for i := range tables {
		t := &tables[i]
		title := fmt.Sprintf("Table %d", t.Index+1)
		if t.Caption != "" {
			title += ": " + t.Caption
		}
		cmd.Println(title)

		switch tablesFormat {
		case "csv":
			cmd.Print(t.CSV)
		case "html":
			cmd.Println(t.HTML)
		case "grid":
			printGrid(cmd, t)
		default:
			return fmt.Errorf("unknown table format %q", tablesFormat)
		}
		cmd.Println()
	}
	return nil
}

func printGrid(cmd *cobra.Command, t *domain.Table) {
	rows := t.Rows
	if len(t.Headers) > 0 {
		rows = append([][]string{t.Headers}, t.Rows...)
	}

	widths := make([]int, 0)
	for _, row := range rows {
		for j, cell := range row {
			if j >= len(widths) {
				widths = append(widths, 0)
			}
			widths[j] = max(widths[j], len([]rune(cell)))
		}
	}

	for i, row := range rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cell + strings.Repeat(" ", widths[j]-len([]rune(cell)))
		}
		cmd.Printf("  %s\n", strings.Join(cells, " | "))
		if i == 0 && len(t.Headers) > 0 {
			seps := make([]string, len(row))
			for j := range row {
				seps[j] = strings.Repeat("-", widths[j])
			}
			cmd.Printf("  %s\n", strings.Join(seps, "-+-"))
		}
	}
}

func runDocumentLogs(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	id, err := parseDocumentID(args[0])
	if err != nil {
		return err
	}

	entries, err := documentService.GetLogs(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to get logs: %w", err)
	}

	if documentJSON {
		return printJSON(cmd.OutOrStdout(), entries)
	}
	if len(entries) == 0 {
		cmd.Printf("No log entries for document %d.\n", id)
		return nil
	}

	for _, e := range entries {
		cmd.Printf("  %s  %-16s %-8s %s", formatTime(e.CreatedAt), e.Operation, e.Outcome, e.Message)
		if e.Duration > 0 {
			cmd.Printf(" (%s)", e.Duration.Round(1e6))
		}
		cmd.Println()
	}
	return nil
}

func runDocumentExport(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	id, err := parseDocumentID(args[0])
	if err != nil {
		return err
	}

	snap, err := documentService.GetSnapshot(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to export document: %w", err)
	}

	if exportOutput == "" {
		return printJSON(cmd.OutOrStdout(), snap)
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("creating %s: %w", exportOutput, err)
	}
	defer f.Close()

	if err := printJSON(f, snap); err != nil {
		return err
	}
	cmd.Printf("Exported document %d to %s\n", id, exportOutput)
	return nil
}

func runDocumentUpdate(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	id, err := parseDocumentID(args[0])
	if err != nil {
		return err
	}

	var update domain.DocumentUpdate
	flags := cmd.Flags()
	if flags.Changed("summary") {
		update.Summary = &updateSummary
	}
	if flags.Changed("category") {
		update.Category = &updateCategory
	}
	if len(updateMetadata) > 0 {
		update.Metadata = make(map[string]any, len(updateMetadata))
		for _, kv := range updateMetadata {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || strings.TrimSpace(key) == "" {
				return fmt.Errorf("%w: metadata must be key=value, got %q", domain.ErrInvalidInput, kv)
			}
			update.Metadata[strings.TrimSpace(key)] = value
		}
	}
	switch {
	case updateArchive:
		status := domain.StatusArchived
		update.Status = &status
	case updateUnarchive:
		status := domain.StatusCompleted
		update.Status = &status
	}

	doc, err := documentService.Update(cmd.Context(), id, update)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	cmd.Printf("Updated document %d (status %s).\n", doc.ID, doc.Status)
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	id, err := parseDocumentID(args[0])
	if err != nil {
		return err
	}

	if err := documentService.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %d.\n", id)
	return nil
}

func runDocumentStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	stats, err := documentService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	if documentJSON {
		return printJSON(cmd.OutOrStdout(), stats)
	}

	cmd.Println("Document Statistics")
	cmd.Println("===================")
	cmd.Printf("  Total: %d\n", stats.Total)
	for _, status := range domain.AllStatuses() {
		if n := stats.ByStatus[status]; n > 0 {
			cmd.Printf("  %s: %d\n", status, n)
		}
	}
	cmd.Printf("  Total size: %s\n", formatBytes(stats.TotalSize))
	cmd.Printf("  Average confidence: %.2f\n", stats.AvgConfidence)
	cmd.Printf("  Uploaded in the last 7 days: %d\n", stats.RecentUploads)
	cmd.Printf("  Embedded documents: %d (%d chunks)\n", stats.EmbeddedDocuments, stats.ChunkCount)
	if len(stats.ByContentType) > 0 {
		cmd.Println("  By type:")
		for ct, n := range stats.ByContentType {
			cmd.Printf("    %s: %d\n", ct, n)
		}
	}
	return nil
}

func runDocumentCheck(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errDocumentServiceMissing
	}

	hash := args[0]
	if info, err := os.Stat(args[0]); err == nil && !info.IsDir() {
		hash, err = contenthash.File(args[0])
		if err != nil {
			return fmt.Errorf("hashing %s: %w", args[0], err)
		}
	}

	doc, err := documentService.FindByHash(cmd.Context(), hash)
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Printf("Not uploaded (hash %s).\n", hash)
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking hash: %w", err)
	}

	cmd.Printf("Already uploaded as document %d (%s, %s).\n", doc.ID, doc.OriginalFilename, doc.Status)
	return nil
}
