package driving

import "context"

// Scheduler periodically sweeps pending documents and, when enabled,
// refreshes missing embeddings.
type Scheduler interface {
	// Start runs due tasks until ctx is cancelled.
	Start(ctx context.Context) error

	// Stop waits for in-flight runs to finish.
	Stop() error
}
