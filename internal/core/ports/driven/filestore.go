package driven

import "context"

// FileStore holds uploaded files durably.
type FileStore interface {
	// Save writes data under a name derived from name, never overwriting an
	// existing file, and returns the stored name and path.
	// The data is flushed to stable storage before Save returns.
	Save(ctx context.Context, name string, data []byte) (storedName, path string, err error)

	// Remove deletes a stored file. Missing files are not an error.
	Remove(path string) error
}
