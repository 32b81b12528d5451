package postprocessors

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// stubStage returns fixed chunks, or passes its input through when chunks is nil.
type stubStage struct {
	name   string
	chunks []domain.Chunk
	err    error
	seen   []domain.Chunk
}

func (s *stubStage) Name() string { return s.name }

func (s *stubStage) Process(_ context.Context, _ *domain.Document, in []domain.Chunk) ([]domain.Chunk, error) {
	s.seen = in
	if s.err != nil {
		return nil, s.err
	}
	if s.chunks != nil {
		return s.chunks, nil
	}
	return in, nil
}

func contents(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}

func TestPipeline_NilDocument(t *testing.T) {
	_, err := NewPipeline().Process(context.Background(), nil)
	assert.Error(t, err)
}

func TestPipeline_NoStagesYieldsNoChunks(t *testing.T) {
	chunks, err := NewPipeline().Process(context.Background(), &domain.Document{ID: 1, Content: "text"})
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPipeline_StagesRunInOrder(t *testing.T) {
	first := &stubStage{name: "split", chunks: []domain.Chunk{{Content: "a"}, {Content: "b"}}}
	second := &stubStage{name: "pass"}
	p := NewPipeline(first, second)

	chunks, err := p.Process(context.Background(), &domain.Document{ID: 9, Content: "ab"})
	require.NoError(t, err)

	assert.Nil(t, first.seen)
	assert.Equal(t, []string{"a", "b"}, contents(second.seen))
	assert.Equal(t, []string{"a", "b"}, contents(chunks))
	assert.Equal(t, []string{"split", "pass"}, p.Names())
}

func TestPipeline_DropsBlankChunksAndRenumbers(t *testing.T) {
	stage := &stubStage{name: "split", chunks: []domain.Chunk{
		{Index: 4, Content: "copper"},
		{Index: 5, Content: "  \n"},
		{Index: 6, Content: "zinc"},
	}}

	chunks, err := NewPipeline(stage).Process(context.Background(), &domain.Document{ID: 3})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, int64(3), c.DocumentID)
	}
	assert.Equal(t, []string{"copper", "zinc"}, contents(chunks))
}

func TestPipeline_AllBlankIsNil(t *testing.T) {
	stage := &stubStage{name: "split", chunks: []domain.Chunk{{Content: " "}}}

	chunks, err := NewPipeline(stage).Process(context.Background(), &domain.Document{ID: 1})
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestPipeline_StageErrorNamesStage(t *testing.T) {
	boom := errors.New("boom")
	p := NewPipeline(&stubStage{name: "split", chunks: []domain.Chunk{{Content: "x"}}}, &stubStage{name: "broken", err: boom})

	_, err := p.Process(context.Background(), &domain.Document{ID: 1})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), `"broken"`)
}

func TestPipeline_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stage := &stubStage{name: "split"}

	_, err := NewPipeline(stage).Process(ctx, &domain.Document{ID: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildPipeline_Defaults(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	p, err := BuildPipeline(r, domain.DefaultPipelineConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"chunker"}, p.Names())

	text := strings.Repeat("Copper cathodes shipped to Rotterdam. ", 40)
	chunks, err := p.Process(context.Background(), &domain.Document{ID: 2, Content: text})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, len([]rune(c.Content)), 512)
	}
}

func TestBuildPipeline_UnknownProcessor(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	_, err := BuildPipeline(r, domain.PipelineConfig{Processors: []string{"chunker", "stemmer"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"stemmer"`)
	assert.Contains(t, err.Error(), "chunker")
}

func TestBuildPipeline_Empty(t *testing.T) {
	_, err := BuildPipeline(NewRegistry(), domain.PipelineConfig{})
	assert.Error(t, err)
}
