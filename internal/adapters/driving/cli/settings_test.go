package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

func TestMaskAPIKey(t *testing.T) {
	for key, want := range map[string]string{
		"":                             "****",
		"sk-123":                       "****",
		"sk-12345":                     "****",
		"sk-proj-abcdefgh12345678":     "sk-p...5678",
		"sk-live-0000111122223333wxyz": "sk-l...wxyz",
	} {
		assert.Equal(t, want, maskAPIKey(key), "key %q", key)
	}
}

func TestParseChoice(t *testing.T) {
	// Three providers on offer, default is the first.
	tests := []struct {
		input string
		want  int
	}{
		{"", 1},
		{"   ", 1},
		{"2", 2},
		{"3", 3},
		{"4", 1},
		{"0", 1},
		{"-2", 1},
		{"ollama", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseChoice(strings.TrimSpace(tt.input), 3, 1), "input %q", tt.input)
	}

	// A zero default lets callers detect a bad selection.
	assert.Zero(t, parseChoice("9", 3, 0))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KiB", formatBytes(1024))
	assert.Equal(t, "50.0 MiB", formatBytes(50<<20))
	assert.Equal(t, "1.5 GiB", formatBytes(3<<29))
}

func TestSettingsShow(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[Search]")
	assert.Contains(t, out, "[Embedding]")
	assert.Contains(t, out, "Allowed extensions: pdf, docx, txt, xlsx, csv, md")
}

func TestSettingsMode_WithArg(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommand(t, "settings", "mode", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Search mode set to: Text (full-text index)")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.SearchModeText, settings.Search.Mode)
}

func TestSettingsMode_Interactive(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommandWithInput(t, "2\n", "settings", "mode")
	require.NoError(t, err)
	assert.Contains(t, out, "Search mode set to: Vector (embedding similarity)")
}

func TestSettingsMode_InvalidChoice(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommandWithInput(t, "9\n", "settings", "mode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid selection")
}

func TestSettingsMode_UnknownMode(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "settings", "mode", "fuzzy")
	assert.Error(t, err)
}

func TestSettingsEmbedding_Disable(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommandWithInput(t, "4\n", "settings", "embedding")
	require.NoError(t, err)
	assert.Contains(t, out, "Embeddings disabled.")

	settings, err := settingsService.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.EmbeddingProviderNone, settings.Embedding.Provider)
}

func TestSettingsEmbedding_Local(t *testing.T) {
	setupTestServices(t)

	out, err := executeCommandWithInput(t, "1\n\n", "settings", "embedding")
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "Embedding provider configured: Local")
}
