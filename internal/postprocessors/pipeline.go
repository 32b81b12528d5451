// Package postprocessors turns extracted document text into the chunks that
// get embedded. Processors are named, built from config and run in order.
package postprocessors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs processors in sequence. The first one sees nil chunks and
// creates them from the document text; later ones rewrite that slice.
type Pipeline struct {
	stages []driven.PostProcessor
}

// NewPipeline returns a pipeline over stages.
func NewPipeline(stages ...driven.PostProcessor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Process chunks doc. Blank chunks left by any stage are removed and the
// remainder renumbered from zero, so callers always get dense indices.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, errors.New("postprocessors: nil document")
	}

	var chunks []domain.Chunk
	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := stage.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("postprocessor %q: %w", stage.Name(), err)
		}
		chunks = out
	}
	return compact(doc.ID, chunks), nil
}

func compact(documentID int64, chunks []domain.Chunk) []domain.Chunk {
	if len(chunks) == 0 {
		return nil
	}
	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		c.DocumentID = documentID
		c.Index = len(out)
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Add appends a stage.
func (p *Pipeline) Add(stage driven.PostProcessor) {
	p.stages = append(p.stages, stage)
}

// Len reports the number of stages.
func (p *Pipeline) Len() int {
	return len(p.stages)
}

// Names lists stage names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, stage := range p.stages {
		names[i] = stage.Name()
	}
	return names
}

// BuildPipeline assembles the configured stages from r. An unknown name or
// an empty list fails so a typo in config.toml stops startup.
func BuildPipeline(r *Registry, cfg domain.PipelineConfig) (*Pipeline, error) {
	if len(cfg.Processors) == 0 {
		return nil, errors.New("build pipeline: no processors configured")
	}
	p := NewPipeline()
	for _, name := range cfg.Processors {
		stage, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, fmt.Errorf("build pipeline: %w", err)
		}
		p.Add(stage)
	}
	return p, nil
}
