package driving

import "context"

// ProcessingService drives a document through the processing state machine.
type ProcessingService interface {
	// Process runs extraction, categorisation, embedding and indexing for a
	// document, blocking until it completes or fails.
	// The boolean reports whether the document reached completed.
	// Returns domain.ErrNotFound or domain.ErrProcessingInProgress without
	// changing any state.
	Process(ctx context.Context, documentID int64) (bool, error)
}

// ProcessingDispatcher runs processing in the background.
type ProcessingDispatcher interface {
	// Enqueue schedules processing and returns immediately.
	Enqueue(documentID int64)

	// ProcessPending enqueues every document still in uploaded status.
	// Failed documents are left alone.
	ProcessPending(ctx context.Context) (int, error)

	// Wait blocks until all enqueued work has finished.
	Wait()
}
