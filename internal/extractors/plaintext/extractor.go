// Package plaintext reads text and markdown files directly.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text and markdown. Markdown is kept as written.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{"txt", "md"}
}

// Extract reads the file as UTF-8. Invalid sequences are replaced and a
// leading byte order mark is dropped.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	text := string(data)
	valid := utf8.ValidString(text)
	if !valid {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	text = strings.TrimPrefix(text, "\uFEFF")

	format := "text"
	if strings.HasSuffix(strings.ToLower(path), ".md") {
		format = "markdown"
	}

	return &domain.Extraction{
		Text: text,
		Metadata: map[string]any{
			"format":     format,
			"valid_utf8": valid,
		},
	}, nil
}
