package services

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

func TestDocumentService_GetDetails(t *testing.T) {
	env := newTestEnv(t)
	doc := env.upload(t, "invoice.txt", invoiceText)

	details, err := env.documents.GetDetails(context.Background(), doc.ID)
	require.NoError(t, err)

	assert.Equal(t, doc.ID, details.Document.ID)
	assert.Equal(t, 1, details.ChunkCount)
	assert.Equal(t, "hashing-bow", details.EmbeddingModel)
	assert.Equal(t, 2, details.LogCount)
	assert.True(t, details.Indexed)
}

func TestDocumentService_GetDetails_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.documents.GetDetails(context.Background(), 42)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_List(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	done := env.upload(t, "done.txt", "Processed")
	_, err := env.ingest.Submit(ctx, []byte("waiting"), "pending.txt", driving.SubmitOptions{})
	require.NoError(t, err)

	all, err := env.documents.List(ctx, domain.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := env.documents.List(ctx, domain.DocumentFilter{Status: domain.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, done.ID, completed[0].ID)

	_, err = env.documents.List(ctx, domain.DocumentFilter{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.documents.List(ctx, domain.DocumentFilter{Limit: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentService_GetLogsAndSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload(t, "invoice.txt", invoiceText)

	logs, err := env.documents.GetLogs(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, OpEmbedding, logs[0].Operation)
	assert.Equal(t, OpFullProcessing, logs[1].Operation)

	snap, err := env.documents.GetSnapshot(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.TextHash, snap.TextHash)
	assert.Equal(t, 1, snap.ChunksCount)

	_, err = env.documents.GetLogs(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_GetTables(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload(t, "prices.csv", "metal,price\ncopper,9100\nzinc,2600\n")

	tables, err := env.documents.GetTables(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"metal", "price"}, tables[0].Headers)

	plain := env.upload(t, "notes.txt", "No tables here")
	tables, err = env.documents.GetTables(ctx, plain.ID)
	require.NoError(t, err)
	assert.NotNil(t, tables)
	assert.Empty(t, tables)
}

func TestDocumentService_FindByHash(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload(t, "invoice.txt", invoiceText)

	found, err := env.documents.FindByHash(ctx, "  "+strings.ToUpper(doc.ContentHash)+" ")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, found.ID)

	_, err = env.documents.FindByHash(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = env.documents.FindByHash(ctx, strings.Repeat("0", 64))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Stats(t *testing.T) {
	env := newTestEnv(t)
	env.upload(t, "invoice.txt", invoiceText)

	stats, err := env.documents.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[domain.StatusCompleted])
}

func TestDocumentService_Update(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload(t, "invoice.txt", invoiceText)

	summary := "  Copper invoice  "
	category := "financial"
	updated, err := env.documents.Update(ctx, doc.ID, domain.DocumentUpdate{
		Summary:  &summary,
		Category: &category,
		Metadata: map[string]any{"reviewed": true},
	})
	require.NoError(t, err)

	assert.Equal(t, "Copper invoice", updated.Summary)
	assert.Equal(t, "financial", updated.Category)
	assert.Equal(t, "financial", updated.Metadata["category"])
	assert.Equal(t, true, updated.Metadata["reviewed"])
	assert.Equal(t, "invoice.txt", updated.Metadata["original_filename"])

	stored, err := env.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Copper invoice", stored.Summary)
}

func TestDocumentService_Update_ArchiveAndRestore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload(t, "invoice.txt", invoiceText)

	archived := domain.StatusArchived
	_, err := env.documents.Update(ctx, doc.ID, domain.DocumentUpdate{Status: &archived})
	require.NoError(t, err)

	indexed, err := env.index.IsIndexed(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, indexed)

	completed := domain.StatusCompleted
	_, err = env.documents.Update(ctx, doc.ID, domain.DocumentUpdate{Status: &completed})
	require.NoError(t, err)

	indexed, err = env.index.IsIndexed(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, indexed)
}

func TestDocumentService_Update_WhileProcessing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload(t, "invoice.txt", invoiceText)
	require.NoError(t, env.store.ClaimForProcessing(ctx, doc.ID))

	summary := "Edited mid-run"
	_, err := env.documents.Update(ctx, doc.ID, domain.DocumentUpdate{Summary: &summary})
	assert.ErrorIs(t, err, domain.ErrProcessingInProgress)

	stored, err := env.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, stored.Status)
	assert.NotEqual(t, summary, stored.Summary)
}

func TestDocumentService_Update_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload(t, "invoice.txt", invoiceText)

	_, err := env.documents.Update(ctx, doc.ID, domain.DocumentUpdate{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	blank := " "
	_, err = env.documents.Update(ctx, doc.ID, domain.DocumentUpdate{Category: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	for _, status := range []domain.DocumentStatus{domain.StatusUploaded, domain.StatusProcessing, domain.StatusFailed} {
		s := status
		_, err = env.documents.Update(ctx, doc.ID, domain.DocumentUpdate{Status: &s})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, status)
	}

	pending, err := env.ingest.Submit(ctx, []byte("waiting"), "pending.txt", driving.SubmitOptions{})
	require.NoError(t, err)
	archived := domain.StatusArchived
	_, err = env.documents.Update(ctx, pending.ID, domain.DocumentUpdate{Status: &archived})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	summary := "x"
	_, err = env.documents.Update(ctx, 999, domain.DocumentUpdate{Summary: &summary})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_Delete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	doc := env.upload(t, "invoice.txt", invoiceText)

	require.NoError(t, env.documents.Delete(ctx, doc.ID))

	_, err := env.documents.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = os.Stat(doc.FilePath)
	assert.True(t, os.IsNotExist(err))

	chunks, err := env.store.GetChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	indexed, err := env.index.IsIndexed(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, indexed)

	// The same bytes can be uploaded again once the original is gone.
	_, err = env.ingest.Submit(ctx, []byte(invoiceText), "invoice.txt", driving.SubmitOptions{})
	assert.NoError(t, err)

	assert.ErrorIs(t, env.documents.Delete(ctx, doc.ID), domain.ErrNotFound)
}
