package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure Dispatcher implements the interface.
var _ driving.ProcessingDispatcher = (*Dispatcher)(nil)

// DefaultConcurrency bounds parallel processing when none is configured.
const DefaultConcurrency = 2

// Dispatcher runs processing in background goroutines, at most
// concurrency documents at a time. A slow document only occupies its own slot.
type Dispatcher struct {
	ctx       context.Context
	processor driving.ProcessingService
	docStore  driven.DocumentStore

	group   errgroup.Group
	pending sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Background work runs under ctx, so
// cancelling it abandons queued documents.
func NewDispatcher(
	ctx context.Context,
	processor driving.ProcessingService,
	docStore driven.DocumentStore,
	concurrency int,
) *Dispatcher {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	d := &Dispatcher{
		ctx:       ctx,
		processor: processor,
		docStore:  docStore,
	}
	d.group.SetLimit(concurrency)
	return d
}

// Enqueue schedules processing and returns without waiting for a free slot.
func (d *Dispatcher) Enqueue(documentID int64) {
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		d.group.Go(func() error {
			if err := d.ctx.Err(); err != nil {
				return nil
			}
			d.run(documentID)
			return nil
		})
	}()
}

func (d *Dispatcher) run(documentID int64) {
	ok, err := d.processor.Process(d.ctx, documentID)
	switch {
	case errors.Is(err, domain.ErrProcessingInProgress):
		logger.Debug("Document %d already being processed, skipping", documentID)
	case err != nil:
		logger.Warn("Background processing of document %d failed: %v", documentID, err)
	case !ok:
		logger.Warn("Background processing of document %d did not complete", documentID)
	}
}

// ProcessPending enqueues every uploaded document. Failed documents need an
// explicit re-trigger and are not picked up here.
func (d *Dispatcher) ProcessPending(ctx context.Context) (int, error) {
	docs, err := d.docStore.ListDocuments(ctx, domain.DocumentFilter{Status: domain.StatusUploaded})
	if err != nil {
		return 0, fmt.Errorf("list pending documents: %w", err)
	}
	for i := range docs {
		d.Enqueue(docs[i].ID)
	}
	if len(docs) > 0 {
		logger.Info("Queued %d pending documents", len(docs))
	}
	return len(docs), nil
}

// Wait blocks until every enqueued document has been processed.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
	_ = d.group.Wait()
}
