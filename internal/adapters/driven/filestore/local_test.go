package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func TestNewLocal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")

	store, err := NewLocal(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
	assert.DirExists(t, dir)
}

func TestNewLocal_EmptyDir(t *testing.T) {
	_, err := NewLocal("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLocal_Save(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	store.now = fixedClock

	name, path, err := store.Save(context.Background(), "report.pdf", []byte("%PDF"))

	require.NoError(t, err)
	assert.Equal(t, "20260314_092653_report.pdf", name)
	assert.Equal(t, filepath.Join(store.Dir(), name), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
}

func TestLocal_SaveCollisionAddsSuffix(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	store.now = fixedClock

	ctx := context.Background()
	first, _, err := store.Save(ctx, "notes.txt", []byte("one"))
	require.NoError(t, err)
	second, path, err := store.Save(ctx, "notes.txt", []byte("two"))
	require.NoError(t, err)

	assert.Equal(t, "20260314_092653_notes.txt", first)
	assert.Equal(t, "20260314_092653_notes_1.txt", second)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestLocal_SaveStripsDirectories(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	store.now = fixedClock

	name, path, err := store.Save(context.Background(), "../../etc/passwd.txt", []byte("x"))

	require.NoError(t, err)
	assert.Equal(t, "20260314_092653_passwd.txt", name)
	assert.Equal(t, store.Dir(), filepath.Dir(path))
}

func TestLocal_SaveInvalidName(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Save(context.Background(), "", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLocal_Remove(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, path, err := store.Save(context.Background(), "gone.txt", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Remove(path))
	assert.NoFileExists(t, path)

	// Removing twice is fine.
	assert.NoError(t, store.Remove(path))
	assert.NoError(t, store.Remove(""))
}
