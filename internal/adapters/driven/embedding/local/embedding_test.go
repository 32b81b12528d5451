package local

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(0)

	assert.Equal(t, DefaultDimensions, svc.Dimensions())
	assert.Equal(t, "hashing-bow", svc.ModelName())
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}

func TestEmbed_DeterministicAndNormalised(t *testing.T) {
	svc := NewEmbeddingService(64)
	ctx := context.Background()

	a, err := svc.Embed(ctx, "Invoice INV-001 Copper 1000 MT $8500")
	require.NoError(t, err)
	b, err := NewEmbeddingService(64).Embed(ctx, "Invoice INV-001 Copper 1000 MT $8500")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.InDelta(t, 1.0, math.Sqrt(dot(a, a)), 1e-5)
}

func TestEmbed_SharedVocabularyScoresHigher(t *testing.T) {
	svc := NewEmbeddingService(DefaultDimensions)
	ctx := context.Background()

	doc, err := svc.Embed(ctx, "Invoice INV-001 Copper 1000 MT $8500")
	require.NoError(t, err)
	related, err := svc.Embed(ctx, "copper shipment")
	require.NoError(t, err)
	unrelated, err := svc.Embed(ctx, "quarterly marketing offsite agenda")
	require.NoError(t, err)

	assert.Greater(t, dot(doc, related), dot(doc, unrelated))
	assert.Greater(t, dot(doc, related), 0.0)
}

func TestEmbed_NeverZero(t *testing.T) {
	svc := NewEmbeddingService(16)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "the and of", "!!!"} {
		vec, err := svc.Embed(ctx, text)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, math.Sqrt(dot(vec, vec)), 1e-5, "text %q", text)
	}
}

func TestEmbedBatch_MatchesSingleCalls(t *testing.T) {
	svc := NewEmbeddingService(32)
	ctx := context.Background()
	texts := []string{"alpha beta", "gamma", "alpha beta"}

	batch, err := svc.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, 3)

	for i, text := range texts {
		single, err := svc.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestEmbed_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEmbeddingService(8).Embed(ctx, "text")
	assert.ErrorIs(t, err, context.Canceled)
}
