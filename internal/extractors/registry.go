// Package extractors turns stored files into text and tables. Each format
// lives in its own subpackage; Registry dispatches on file extension.
package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/extractors/csv"
	"github.com/custodia-labs/docintel/internal/extractors/docx"
	"github.com/custodia-labs/docintel/internal/extractors/pdf"
	"github.com/custodia-labs/docintel/internal/extractors/plaintext"
	"github.com/custodia-labs/docintel/internal/extractors/xlsx"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// contentTypes maps extensions to declared media types.
var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":  "text/plain",
	"md":   "text/markdown",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"csv":  "text/csv",
}

// ContentType returns the media type for an extension, with or without the
// leading dot. Unknown extensions map to application/octet-stream.
func ContentType(ext string) string {
	if ct, ok := contentTypes[normaliseExt(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Registry selects an extractor by file extension.
type Registry struct {
	byExt map[string]driven.Extractor
}

// NewRegistry creates a registry holding the given extractors. Later
// extractors win when two claim the same extension.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// NewDefaultRegistry creates a registry with every built-in extractor.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		plaintext.New(),
		csv.New(),
		docx.New(),
		pdf.New(),
		xlsx.New(),
	)
}

// Register adds an extractor for each of its extensions.
func (r *Registry) Register(e driven.Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[normaliseExt(ext)] = e
	}
}

// Supports reports whether an extractor is registered for ext.
func (r *Registry) Supports(ext string) bool {
	_, ok := r.byExt[normaliseExt(ext)]
	return ok
}

// ContentType returns the media type for an extension.
func (r *Registry) ContentType(ext string) string {
	return ContentType(ext)
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract runs the extractor registered for path's extension. A panic in
// the extractor is recovered and reported as domain.ErrExtraction.
func (r *Registry) Extract(ctx context.Context, path string) (ext *domain.Extraction, err error) {
	extension := normaliseExt(filepath.Ext(path))
	extractor, ok := r.byExt[extension]
	if !ok {
		return nil, fmt.Errorf("%w: no extractor for %q", domain.ErrUnsupportedType, extension)
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Debug("extractor panic on %s: %v\n%s", path, p, debug.Stack())
			ext = nil
			err = fmt.Errorf("%w: extractor panicked: %v", domain.ErrExtraction, p)
		}
	}()

	logger.Debug("extracting %s with %T", path, extractor)
	return extractor.Extract(ctx, path)
}

func normaliseExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
