// Package docx extracts paragraphs and tables from Word documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/extractors/table"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles DOCX documents.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{"docx"}
}

// Extract reads word/document.xml. Tables are returned separately and also
// rendered as markdown at their position in the text.
func (e *Extractor) Extract(_ context.Context, path string) (*domain.Extraction, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening docx: %v", domain.ErrExtraction, err)
	}
	defer reader.Close()

	body, err := readPart(&reader.Reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	defer body.Close()

	result, err := parseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing document.xml: %v", domain.ErrExtraction, err)
	}

	metadata := map[string]any{
		"format":     "docx",
		"paragraphs": result.paragraphs,
		"tables":     len(result.tables),
	}
	if title := extractTitle(&reader.Reader); title != "" {
		metadata["title"] = title
	}

	return &domain.Extraction{
		Text:     result.text,
		Tables:   result.tables,
		Metadata: metadata,
	}, nil
}

// readPart opens a named entry of the archive.
func readPart(reader *zip.Reader, name string) (io.ReadCloser, error) {
	for _, file := range reader.File {
		if file.Name == name {
			return file.Open()
		}
	}
	return nil, fmt.Errorf("missing %s", name)
}

type parsed struct {
	text       string
	tables     []domain.Table
	paragraphs int
}

// parseDocument walks the WordprocessingML body. Text inside nested tables
// is folded into the enclosing cell.
func parseDocument(r io.Reader) (*parsed, error) {
	dec := xml.NewDecoder(r)

	var (
		out        parsed
		lines      []string
		para       strings.Builder
		cell       strings.Builder
		row        []string
		grid       [][]string
		tableDepth int
		inText     bool
	)

	write := func(s string) {
		if tableDepth > 0 {
			cell.WriteString(s)
			return
		}
		para.WriteString(s)
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					grid = nil
				}
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell.Reset()
				}
			case "t":
				inText = true
			case "tab":
				write("\t")
			case "br", "cr":
				if tableDepth > 0 {
					write(" ")
				} else {
					write("\n")
				}
			}

		case xml.CharData:
			if inText {
				write(string(t))
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if tableDepth > 0 {
					cell.WriteString(" ")
					continue
				}
				line := strings.TrimRight(para.String(), " \t")
				para.Reset()
				if strings.TrimSpace(line) != "" {
					out.paragraphs++
				}
				lines = append(lines, line)
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.Join(strings.Fields(cell.String()), " "))
				}
			case "tr":
				if tableDepth == 1 {
					grid = append(grid, row)
				}
			case "tbl":
				if tableDepth == 1 {
					if tbl := table.New(len(out.tables), "", grid); tbl != nil {
						out.tables = append(out.tables, *tbl)
						lines = append(lines, "", strings.TrimRight(table.Markdown(tbl), "\n"), "")
					}
				}
				tableDepth--
			}
		}
	}

	out.text = strings.TrimSpace(strings.Join(lines, "\n"))
	return &out, nil
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title string `xml:"title"`
}

// extractTitle reads the title from docProps/core.xml, if present.
func extractTitle(reader *zip.Reader) string {
	rc, err := readPart(reader, "docProps/core.xml")
	if err != nil {
		return ""
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return ""
	}

	var core coreXML
	if err := xml.Unmarshal(content, &core); err != nil {
		return ""
	}
	return strings.TrimSpace(core.Title)
}
