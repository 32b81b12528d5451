package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
)

// DefaultSettle is how long a path must be quiet before it is submitted.
const DefaultSettle = 500 * time.Millisecond

// ErrClosed is returned when watching a closed Watcher.
var ErrClosed = errors.New("inbox: watcher closed")

// Result reports the outcome of one submission.
type Result struct {
	// Path is the file that was submitted.
	Path string

	// Document is the accepted document. Nil when Err is set.
	Document *domain.Document

	// Err is the rejection, such as *domain.DuplicateError or domain.ErrUnsupportedType.
	Err error
}

// Duplicate reports whether the file was rejected as already ingested.
func (r Result) Duplicate() bool {
	return errors.Is(r.Err, domain.ErrDuplicate)
}

// Watcher submits new and modified files in a directory.
type Watcher struct {
	root   string
	ingest driving.IngestService
	settle time.Duration

	mu      sync.Mutex
	closed  bool
	watcher *fsnotify.Watcher
}

// New creates a Watcher for the directory root.
func New(root string, ingest driving.IngestService) *Watcher {
	return &Watcher{
		root:   root,
		ingest: ingest,
		settle: DefaultSettle,
	}
}

// SetSettle overrides the debounce delay.
func (w *Watcher) SetSettle(d time.Duration) {
	if d > 0 {
		w.settle = d
	}
}

// IngestExisting submits every regular file already in the directory.
func (w *Watcher) IngestExisting(ctx context.Context) ([]Result, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	var results []Result
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if entry.IsDir() || skipName(entry.Name()) {
			continue
		}
		results = append(results, w.submit(ctx, filepath.Join(w.root, entry.Name())))
	}
	return results, nil
}

// Watch starts watching the directory. One Result is sent per submission.
// The channel is closed when ctx is cancelled or the Watcher is closed.
func (w *Watcher) Watch(ctx context.Context) (<-chan Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}

	info, err := os.Stat(w.root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(w.root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", w.root, err)
	}
	w.watcher = fsw

	results := make(chan Result)
	go w.loop(ctx, fsw, results)

	logger.Debug("Watching %s for new documents", w.root)
	return results, nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, results chan<- Result) {
	defer close(results)

	timers := make(map[string]*time.Timer)
	ready := make(chan string)
	done := make(chan struct{})
	defer close(done)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			path, ok := w.handleFsEvent(event)
			if !ok {
				continue
			}
			if t, exists := timers[path]; exists {
				t.Reset(w.settle)
				continue
			}
			timers[path] = time.AfterFunc(w.settle, func() {
				select {
				case ready <- path:
				case <-done:
				}
			})

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Inbox watcher error: %v", err)

		case path := <-ready:
			delete(timers, path)
			result := w.submit(ctx, path)
			select {
			case results <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handleFsEvent returns the path to submit for an event, if any.
// Removals, renames and permission changes are ignored: a document outlives
// the file it was uploaded from.
func (w *Watcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if skipName(filepath.Base(event.Name)) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

func (w *Watcher) submit(ctx context.Context, path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Path: path, Err: fmt.Errorf("reading %s: %w", path, err)}
	}
	doc, err := w.ingest.Submit(ctx, data, filepath.Base(path), driving.SubmitOptions{
		Metadata: map[string]any{"source_path": path},
	})
	if err != nil {
		return Result{Path: path, Err: err}
	}
	return Result{Path: path, Document: doc}
}

// Close stops the underlying watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

// skipName reports whether a file name is hidden or a partial download.
func skipName(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tmp", ".part", ".crdownload", ".swp":
		return true
	}
	return false
}
