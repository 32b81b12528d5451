// Package xlsx extracts every worksheet of an Excel workbook as a table.
package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/extractors/table"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles XLSX workbooks.
type Extractor struct{}

// New creates a new XLSX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{"xlsx"}
}

// Extract reads each non-empty sheet. The text is one markdown section per
// sheet, headed by the sheet name.
func (e *Extractor) Extract(ctx context.Context, path string) (*domain.Extraction, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening workbook: %v", domain.ErrExtraction, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var (
		text   strings.Builder
		tables []domain.Table
	)
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: reading sheet %q: %v", domain.ErrExtraction, sheet, err)
		}

		tbl := table.New(len(tables), sheet, rows)
		if tbl == nil {
			continue
		}
		tables = append(tables, *tbl)

		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString("## " + sheet + "\n\n")
		text.WriteString(table.Markdown(tbl))
	}

	return &domain.Extraction{
		Text:   strings.TrimSpace(text.String()),
		Tables: tables,
		Metadata: map[string]any{
			"format": "xlsx",
			"sheets": sheets,
		},
	}, nil
}
