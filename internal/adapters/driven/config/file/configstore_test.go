package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "home")

	s, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), s.Path())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(s.Path())
	assert.True(t, os.IsNotExist(err), "no file until something is set")
}

func TestConfigStore_SetPersistsAsTables(t *testing.T) {
	dir := t.TempDir()
	s, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Set("embedding.provider", "openai"))
	require.NoError(t, s.Set("embedding.api_key", "sk-secret"))
	require.NoError(t, s.Set("search.limit", 20))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[embedding]")
	assert.Contains(t, string(data), "[search]")

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "openai", reopened.GetString("embedding.provider"))
	assert.Equal(t, "sk-secret", reopened.GetString("embedding.api_key"))
	assert.Equal(t, 20, reopened.GetInt("search.limit"))
}

func TestConfigStore_LoadsHandWrittenFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[ingest]
max_file_size = 1048576
allowed_extensions = ["pdf", "txt"]

[search]
threshold = 0.7

[scheduler]
enabled = false

[scheduler.process_pending]
interval = "5m"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600))

	s, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 1048576, s.GetInt("ingest.max_file_size"))
	assert.Equal(t, []string{"pdf", "txt"}, s.GetStringSlice("ingest.allowed_extensions"))
	assert.InDelta(t, 0.7, s.GetFloat("search.threshold"), 1e-9)
	assert.False(t, s.GetBool("scheduler.enabled"))
	_, exists := s.Get("scheduler.enabled")
	assert.True(t, exists)

	interval, ok := s.GetDuration("scheduler.process_pending.interval")
	assert.True(t, ok)
	assert.Equal(t, 5*time.Minute, interval)
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("[search\nlimit = "), 0o600))

	_, err := NewConfigStore(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestConfigStore_LoadPicksUpExternalEdits(t *testing.T) {
	dir := t.TempDir()
	s, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("search.mode", "text"))

	require.NoError(t, os.WriteFile(s.Path(), []byte("[search]\nmode = \"vector\"\n"), 0o600))
	require.NoError(t, s.Load())

	assert.Equal(t, "vector", s.GetString("search.mode"))
}

func TestConfigStore_SetFailureKeepsPreviousValue(t *testing.T) {
	dir := t.TempDir()
	s, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("search.mode", "text"))

	// A directory in place of the file makes the rename fail.
	require.NoError(t, os.Remove(s.Path()))
	require.NoError(t, os.Mkdir(s.Path(), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(s.Path(), "keep"), nil, 0o600))

	err = s.Set("search.mode", "vector")
	require.Error(t, err)
	assert.Equal(t, "text", s.GetString("search.mode"))
}

func TestConfigStore_SaveWithoutChanges(t *testing.T) {
	s, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save())
	_, err = os.Stat(s.Path())
	assert.NoError(t, err)
}
