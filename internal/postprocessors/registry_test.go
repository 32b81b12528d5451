package postprocessors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/postprocessors/chunker"
)

func TestRegistry_RegisterAndBuild(t *testing.T) {
	r := NewRegistry()
	var got map[string]any
	r.Register("upper", func(cfg map[string]any) (driven.PostProcessor, error) {
		got = cfg
		return &stubStage{name: "upper"}, nil
	})

	assert.True(t, r.Has("upper"))
	assert.False(t, r.Has("lower"))

	stage, err := r.Build("upper", map[string]any{"locale": "en"})
	require.NoError(t, err)
	assert.Equal(t, "upper", stage.Name())
	assert.Equal(t, map[string]any{"locale": "en"}, got)
}

func TestRegistry_BuilderError(t *testing.T) {
	r := NewRegistry()
	bad := errors.New("bad config")
	r.Register("broken", func(map[string]any) (driven.PostProcessor, error) { return nil, bad })

	_, err := r.Build("broken", nil)
	assert.ErrorIs(t, err, bad)
}

func TestRegistry_NamesSorted(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"stem", "chunker", "expand"} {
		r.Register(name, func(map[string]any) (driven.PostProcessor, error) { return nil, nil })
	}
	assert.Equal(t, []string{"chunker", "expand", "stem"}, r.Names())
}

func TestBuildChunker(t *testing.T) {
	long := strings.Repeat("x", 1000)

	tests := []struct {
		name    string
		cfg     map[string]any
		maxLen  int
		wantErr bool
	}{
		{name: "nil config uses defaults", cfg: nil, maxLen: chunker.DefaultChunkSize},
		{name: "int from code", cfg: map[string]any{"chunk_size": 200, "overlap": 20}, maxLen: 200},
		{name: "int64 from toml", cfg: map[string]any{"chunk_size": int64(300)}, maxLen: 300},
		{name: "whole float from json", cfg: map[string]any{"chunk_size": 250.0}, maxLen: 250},
		{name: "zero size", cfg: map[string]any{"chunk_size": 0}, wantErr: true},
		{name: "negative overlap", cfg: map[string]any{"overlap": -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage, err := buildChunker(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			proc, ok := stage.(*chunker.Processor)
			require.True(t, ok)
			segments := proc.Split(long)
			require.NotEmpty(t, segments)
			assert.Len(t, []rune(segments[0].Text), tt.maxLen)
		})
	}
}

func TestBuildChunker_MissingOverlapKeepsDefault(t *testing.T) {
	stage, err := buildChunker(map[string]any{"chunk_size": 100})
	require.NoError(t, err)

	segments := stage.(*chunker.Processor).Split(strings.Repeat("y", 300))
	require.GreaterOrEqual(t, len(segments), 2)
	assert.Equal(t, 100-chunker.DefaultChunkOverlap, segments[1].Start)
}
