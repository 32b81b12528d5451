package plaintext

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{"txt", "md"}, New().Extensions())
}

func TestExtract_Text(t *testing.T) {
	path := writeFile(t, "invoice.txt", []byte("Invoice INV-001 Copper 1000 MT $8500"))

	ext, err := New().Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "Invoice INV-001 Copper 1000 MT $8500", ext.Text)
	assert.Empty(t, ext.Tables)
	assert.Equal(t, "text", ext.Metadata["format"])
	assert.Equal(t, true, ext.Metadata["valid_utf8"])
}

func TestExtract_MarkdownKeptVerbatim(t *testing.T) {
	path := writeFile(t, "notes.md", []byte("# Title\n\n**bold**"))

	ext, err := New().Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "# Title\n\n**bold**", ext.Text)
	assert.Equal(t, "markdown", ext.Metadata["format"])
}

func TestExtract_InvalidUTF8AndBOM(t *testing.T) {
	path := writeFile(t, "bad.txt", []byte("\xEF\xBB\xBFok \xff done"))

	ext, err := New().Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "ok \uFFFD done", ext.Text)
	assert.Equal(t, false, ext.Metadata["valid_utf8"])
}

func TestExtract_Missing(t *testing.T) {
	_, err := New().Extract(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
