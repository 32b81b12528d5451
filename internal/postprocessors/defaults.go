package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/docintel/internal/adapters/driven/config/values"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/postprocessors/chunker"
)

// RegisterDefaults adds the built-in processors to r.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// buildChunker reads chunk_size and overlap, both in characters. Missing
// keys keep the chunker defaults; negative values are rejected.
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	v := values.Values(cfg)
	var opts []chunker.Option

	if _, ok := v["chunk_size"]; ok {
		size := v.Int("chunk_size")
		if size <= 0 {
			return nil, fmt.Errorf("chunk_size must be positive, got %v", v["chunk_size"])
		}
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if _, ok := v["overlap"]; ok {
		overlap := v.Int("overlap")
		if overlap < 0 {
			return nil, fmt.Errorf("overlap must not be negative, got %v", v["overlap"])
		}
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}
