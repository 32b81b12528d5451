// Package chunker provides a boundary-aware text chunking processor.
package chunker

import (
	"context"
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 512

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 50

// delimiters are tried in order; the first one found in the back half of
// a window decides the cut.
var delimiters = [][]rune{
	[]rune(". "),
	[]rune("! "),
	[]rune("? "),
	[]rune("\n\n"),
	[]rune("\n"),
}

// Segment is one chunk with its character range in the source text.
// Text is trimmed; Start and End bound the untrimmed window.
type Segment struct {
	Start int
	End   int
	Text  string
}

// Processor splits document content into overlapping chunks that prefer
// to end on sentence or line boundaries.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	segments := p.Split(doc.Content)
	if len(segments) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(segments))
	for i, seg := range segments {
		chunks = append(chunks, domain.Chunk{
			DocumentID: doc.ID,
			Index:      i,
			Content:    seg.Text,
			Metadata: map[string]any{
				"chunk_length": len([]rune(seg.Text)),
				"position":     seg.Start,
				"total_chunks": len(segments),
			},
		})
	}

	return chunks, nil
}

// Split chunks text. Offsets are in characters (runes), not bytes.
// Empty input yields no segments.
func (p *Processor) Split(text string) []Segment {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var segments []Segment
	start := 0
	for start < n {
		end := start + p.chunkSize
		if end > n {
			end = n
		}

		if end < n {
			if cut, ok := lastDelimiter(runes, start, end, start+p.chunkSize/2); ok {
				end = cut
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			segments = append(segments, Segment{Start: start, End: end, Text: chunk})
		}

		// The final window already reaches the end of the text; stepping on
		// would only emit suffixes of it.
		if end >= n {
			break
		}

		next := end - p.overlap
		if next < start+1 {
			next = start + 1
		}
		start = next
	}

	return segments
}

// lastDelimiter finds the last occurrence of the highest-priority delimiter
// lying wholly inside runes[start:end] and starting at or after minPos.
// It returns the position just past the delimiter.
func lastDelimiter(runes []rune, start, end, minPos int) (int, bool) {
	for _, delim := range delimiters {
		for pos := end - len(delim); pos >= start && pos >= minPos; pos-- {
			if hasPrefixAt(runes, pos, delim) {
				return pos + len(delim), true
			}
		}
	}
	return 0, false
}

func hasPrefixAt(runes []rune, pos int, prefix []rune) bool {
	if pos+len(prefix) > len(runes) {
		return false
	}
	for i, r := range prefix {
		if runes[pos+i] != r {
			return false
		}
	}
	return true
}
