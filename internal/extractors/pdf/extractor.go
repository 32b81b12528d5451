// Package pdf extracts the plain text layer of PDF files.
package pdf

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF documents. Scanned pages without a text layer
// yield no text.
type Extractor struct{}

// New creates a new PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{"pdf"}
}

// Extract reads the text of every page in order.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.Extraction, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening pdf: %v", domain.ErrExtraction, err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("%w: reading pdf text: %v", domain.ErrExtraction, err)
	}

	data, err := io.ReadAll(plain)
	if err != nil {
		return nil, fmt.Errorf("%w: reading pdf text: %v", domain.ErrExtraction, err)
	}

	return &domain.Extraction{
		Text: strings.TrimSpace(string(data)),
		Metadata: map[string]any{
			"format": "pdf",
			"pages":  r.NumPage(),
		},
	}, nil
}
