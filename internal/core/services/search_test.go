package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

func TestSearchService_TextMode(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.upload(t, "invoice.txt", invoiceText)
	env.upload(t, "picnic.txt", picnicText)

	results, err := env.search.Search(context.Background(), "copper", domain.SearchOptions{
		Mode: domain.SearchModeText,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, invoice.ID, results[0].Document.ID)
	assert.Nil(t, results[0].Chunk)
	assert.Zero(t, results[0].Similarity)
	assert.NotEmpty(t, results[0].Highlights)
}

func TestSearchService_VectorMode(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.upload(t, "invoice.txt", invoiceText)
	env.upload(t, "picnic.txt", picnicText)

	results, err := env.search.Search(context.Background(), "copper shipment", domain.SearchOptions{
		Mode:      domain.SearchModeVector,
		Threshold: 0.5,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	assert.Equal(t, invoice.ID, results[0].Document.ID)
	require.NotNil(t, results[0].Chunk)
	assert.Greater(t, results[0].Similarity, 0.5)

	seen := make(map[int64]bool)
	for _, r := range results {
		assert.False(t, seen[r.Document.ID], "document %d returned twice", r.Document.ID)
		seen[r.Document.ID] = true
	}
}

func TestSearchService_HybridMode(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.upload(t, "invoice.txt", invoiceText)
	env.upload(t, "picnic.txt", picnicText)

	results, err := env.search.Search(context.Background(), "copper", domain.SearchOptions{
		Mode: domain.SearchModeHybrid,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, invoice.ID, top.Document.ID)
	// Only the invoice matches the text side, so it outranks anything found by vectors alone.
	assert.Greater(t, top.Score, 1.0/float64(rrfK+1))
	assert.NotNil(t, top.Chunk)
	assert.NotEmpty(t, top.Highlights)
}

func TestSearchService_DegradesWithoutVectors(t *testing.T) {
	env := newTestEnvWith(t, nil)
	invoice := env.upload(t, "invoice.txt", invoiceText)

	for _, mode := range []domain.SearchMode{domain.SearchModeVector, domain.SearchModeHybrid} {
		results, err := env.search.Search(context.Background(), "copper", domain.SearchOptions{Mode: mode})
		require.NoError(t, err, mode)
		require.Len(t, results, 1, mode)
		assert.Equal(t, invoice.ID, results[0].Document.ID)
	}
}

func TestSearchService_EmptyQuery(t *testing.T) {
	env := newTestEnv(t)

	results, err := env.search.Search(context.Background(), "   ", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchService_InvalidOptions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.search.Search(ctx, "copper", domain.SearchOptions{Mode: "fuzzy"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.search.Search(ctx, "copper", domain.SearchOptions{Threshold: 1.5})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchService_Pagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		env.upload(t, name, "Copper report for "+name)
	}

	all, err := env.search.Search(ctx, "copper", domain.SearchOptions{Mode: domain.SearchModeText})
	require.NoError(t, err)
	require.Len(t, all, 3)

	page, err := env.search.Search(ctx, "copper", domain.SearchOptions{
		Mode: domain.SearchModeText, Limit: 1, Offset: 1,
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, all[1].Document.ID, page[0].Document.ID)

	beyond, err := env.search.Search(ctx, "copper", domain.SearchOptions{
		Mode: domain.SearchModeText, Offset: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestSearchService_SkipsArchived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload(t, "invoice.txt", invoiceText)

	archived := domain.StatusArchived
	_, err := env.documents.Update(ctx, doc.ID, domain.DocumentUpdate{Status: &archived})
	require.NoError(t, err)

	for _, mode := range domain.AllSearchModes() {
		results, err := env.search.Search(ctx, "copper", domain.SearchOptions{Mode: mode})
		require.NoError(t, err, mode)
		assert.Empty(t, results, mode)
	}
}

func TestReciprocalRankFusion(t *testing.T) {
	text := []scoredDoc{{documentID: 1, snippet: "one"}, {documentID: 2}, {documentID: 3}}
	vector := []scoredDoc{
		{documentID: 3, similarity: 0.9, chunk: &domain.Chunk{Index: 0}},
		{documentID: 4, similarity: 0.8, chunk: &domain.Chunk{Index: 2}},
	}

	fused := reciprocalRankFusion(text, vector, rrfK)
	require.Len(t, fused, 4)

	// Document 3 appears in both lists and wins.
	assert.Equal(t, int64(3), fused[0].documentID)
	assert.InDelta(t, 1.0/63+1.0/61, fused[0].score, 1e-12)
	assert.InDelta(t, 0.9, fused[0].similarity, 1e-12)
	require.NotNil(t, fused[0].chunk)

	assert.Equal(t, int64(1), fused[1].documentID)
	assert.Equal(t, "one", fused[1].snippet)

	// Equal scores keep first-appearance order.
	assert.Equal(t, int64(2), fused[2].documentID)
	assert.Equal(t, int64(4), fused[3].documentID)
	assert.InDelta(t, fused[2].score, fused[3].score, 1e-12)
}

func TestApplyPagination(t *testing.T) {
	results := make([]domain.SearchResult, 5)
	for i := range results {
		results[i].Score = float64(i)
	}

	assert.Len(t, applyPagination(results, 0, 2), 2)
	assert.Len(t, applyPagination(results, 4, 2), 1)
	assert.Empty(t, applyPagination(results, 5, 2))
}
