// Package csv turns comma-separated files into a table plus a markdown
// rendering of it as the document text.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/extractors/table"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles CSV files. The first record is the header.
type Extractor struct{}

// New creates a new CSV extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{"csv"}
}

// Extract parses every record and returns one table.
func (e *Extractor) Extract(ctx context.Context, path string) (*domain.Extraction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var grid [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parsing csv: %v", domain.ErrExtraction, err)
		}
		grid = append(grid, record)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t := table.New(0, name, grid)
	if t == nil {
		return &domain.Extraction{Metadata: map[string]any{"format": "csv", "rows": 0}}, nil
	}

	return &domain.Extraction{
		Text:   table.Markdown(t),
		Tables: []domain.Table{*t},
		Metadata: map[string]any{
			"format":  "csv",
			"rows":    len(t.Rows),
			"columns": len(t.Headers),
		},
	}, nil
}
