package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// indexTestDocument creates a completed document and indexes it.
func indexTestDocument(t *testing.T, store *Store, hash, content string) *domain.Document {
	t.Helper()
	doc := createTestDocument(t, store, hash)
	completeTestDocument(t, store, doc, content)
	require.NoError(t, store.FullTextIndex().Upsert(context.Background(), domain.IndexEntry{
		DocumentID: doc.ID,
		Filename:   doc.OriginalFilename,
		Content:    content,
		Metadata:   map[string]any{"category": "test"},
	}))
	return doc
}

// ==================== Full-Text Index Tests ====================

func TestFullTextIndex_SearchTerm(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	invoice := indexTestDocument(t, store, "inv", "Invoice for copper wire delivery, total due in thirty days.")
	indexTestDocument(t, store, "memo", "Team memo about the quarterly offsite.")

	hits, err := store.FullTextIndex().Search(ctx, "copper", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, invoice.ID, hits[0].DocumentID)
	assert.Equal(t, "inv.txt", hits[0].Filename)
	assert.Contains(t, hits[0].Snippet, "<mark>copper</mark>")
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestFullTextIndex_QuerySyntax(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	invoice := indexTestDocument(t, store, "inv", "Invoice for copper wire delivery.")
	memo := indexTestDocument(t, store, "memo", "Memo about copper pricing and invoices.")

	tests := []struct {
		name  string
		query string
		want  []int64
	}{
		{name: "phrase", query: `"copper wire"`, want: []int64{invoice.ID}},
		{name: "prefix", query: "invoic*", want: []int64{invoice.ID, memo.ID}},
		{name: "boolean not", query: "copper NOT memo", want: []int64{invoice.ID}},
		{name: "column filter", query: "filename:memo", want: []int64{memo.ID}},
		{name: "metadata", query: "doc_metadata:test", want: []int64{invoice.ID, memo.ID}},
		{name: "diacritics folded", query: "mémo", want: []int64{memo.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := store.FullTextIndex().Search(ctx, tt.query, 10)
			require.NoError(t, err)
			ids := make([]int64, 0, len(hits))
			for _, h := range hits {
				ids = append(ids, h.DocumentID)
			}
			assert.ElementsMatch(t, tt.want, ids)
		})
	}
}

func TestFullTextIndex_InvalidQuery(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	indexTestDocument(t, store, "doc", "some text")

	_, err := store.FullTextIndex().Search(ctx, "AND", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = store.FullTextIndex().Search(ctx, "   ", 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFullTextIndex_UpsertReplaces(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	doc := indexTestDocument(t, store, "doc", "original wording")

	require.NoError(t, store.FullTextIndex().Upsert(ctx, domain.IndexEntry{
		DocumentID: doc.ID,
		Filename:   doc.OriginalFilename,
		Content:    "revised wording",
	}))

	hits, err := store.FullTextIndex().Search(ctx, "original", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.FullTextIndex().Search(ctx, "revised", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	stats, err := store.FullTextIndex().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.IndexedDocuments)
}

func TestFullTextIndex_DeleteAndContains(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	doc := indexTestDocument(t, store, "doc", "content here")

	ok, err := store.FullTextIndex().Contains(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.FullTextIndex().Delete(ctx, doc.ID))

	ok, err = store.FullTextIndex().Contains(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent row is not an error.
	assert.NoError(t, store.FullTextIndex().Delete(ctx, doc.ID))
}

func TestFullTextIndex_Stats(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	stats, err := store.FullTextIndex().Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.IndexedDocuments)
	assert.Zero(t, stats.AvgContentLength)

	indexTestDocument(t, store, "a", "1234")
	indexTestDocument(t, store, "b", "12345678")

	stats, err = store.FullTextIndex().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.IndexedDocuments)
	assert.Equal(t, int64(12), stats.TotalContentLength)
	assert.InDelta(t, 6.0, stats.AvgContentLength, 1e-9)
}

func TestFlattenMetadata(t *testing.T) {
	assert.Empty(t, flattenMetadata(nil))
	assert.Equal(t, "a: 1\nb: two\n", flattenMetadata(map[string]any{"b": "two", "a": 1}))
}
