// Package filestore persists uploaded bytes on the local filesystem.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure Local implements the interface.
var _ driven.FileStore = (*Local)(nil)

// maxCollisionSuffix bounds the _N suffixes tried when a name is taken.
const maxCollisionSuffix = 1000

// Local stores files under a single upload directory.
// Stored names are "<YYYYMMDD_HHMMSS>_<original name>".
type Local struct {
	dir string
	now func() time.Time
}

// NewLocal creates a file store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: upload directory is required", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Local{dir: dir, now: time.Now}, nil
}

// Dir returns the upload directory.
func (l *Local) Dir() string {
	return l.dir
}

// Save writes data under a timestamped name and syncs it to disk.
// A name that already exists gets a numeric suffix before its extension.
func (l *Local) Save(ctx context.Context, name string, data []byte) (string, string, error) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "", "", fmt.Errorf("%w: invalid file name %q", domain.ErrInvalidInput, name)
	}

	stamped := l.now().Format("20060102_150405") + "_" + base
	ext := filepath.Ext(stamped)
	stem := strings.TrimSuffix(stamped, ext)

	for i := 0; i < maxCollisionSuffix; i++ {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}

		candidate := stamped
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		path := filepath.Join(l.dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("creating %s: %w", candidate, err)
		}

		if err := writeAndSync(f, data); err != nil {
			_ = os.Remove(path)
			return "", "", fmt.Errorf("writing %s: %w", candidate, err)
		}
		return candidate, path, nil
	}

	return "", "", fmt.Errorf("no free name for %s after %d attempts", stamped, maxCollisionSuffix)
}

// Remove deletes a stored file. Missing files are not an error.
func (l *Local) Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
