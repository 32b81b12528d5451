package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
)

// countingProcessor records calls and the peak number running at once.
type countingProcessor struct {
	delay   time.Duration
	running atomic.Int32
	peak    atomic.Int32

	mu  sync.Mutex
	ids []int64
}

func (p *countingProcessor) Process(_ context.Context, documentID int64) (bool, error) {
	n := p.running.Add(1)
	defer p.running.Add(-1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	time.Sleep(p.delay)

	p.mu.Lock()
	p.ids = append(p.ids, documentID)
	p.mu.Unlock()
	return true, nil
}

var _ driving.ProcessingService = (*countingProcessor)(nil)

func TestDispatcher_EnqueueAndWait(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dispatcher := NewDispatcher(ctx, env.processor, env.store, 2)

	var ids []int64
	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		doc, err := env.ingest.Submit(ctx, []byte("Contents of "+name), name, driving.SubmitOptions{})
		require.NoError(t, err)
		ids = append(ids, doc.ID)
		dispatcher.Enqueue(doc.ID)
	}

	dispatcher.Wait()

	for _, id := range ids {
		doc, err := env.store.GetDocument(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, doc.Status, "document %d", id)
	}
}

func TestDispatcher_BoundsConcurrency(t *testing.T) {
	env := newTestEnv(t)
	proc := &countingProcessor{delay: 20 * time.Millisecond}
	dispatcher := NewDispatcher(context.Background(), proc, env.store, 2)

	for i := int64(1); i <= 6; i++ {
		dispatcher.Enqueue(i)
	}
	dispatcher.Wait()

	assert.Len(t, proc.ids, 6)
	assert.LessOrEqual(t, proc.peak.Load(), int32(2))
}

func TestDispatcher_DefaultConcurrency(t *testing.T) {
	env := newTestEnv(t)
	proc := &countingProcessor{delay: 10 * time.Millisecond}
	dispatcher := NewDispatcher(context.Background(), proc, env.store, 0)

	for i := int64(1); i <= 5; i++ {
		dispatcher.Enqueue(i)
	}
	dispatcher.Wait()

	assert.LessOrEqual(t, proc.peak.Load(), int32(DefaultConcurrency))
}

func TestDispatcher_ProcessPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	completed := env.upload(t, "done.txt", "Already processed text")

	failedDoc, err := env.ingest.Submit(ctx, []byte("bad"), "bad.txt", driving.SubmitOptions{})
	require.NoError(t, err)
	failedDoc.Status = domain.StatusFailed
	require.NoError(t, env.store.SaveDocument(ctx, failedDoc))

	pending, err := env.ingest.Submit(ctx, []byte("waiting"), "pending.txt", driving.SubmitOptions{})
	require.NoError(t, err)

	proc := &countingProcessor{}
	dispatcher := NewDispatcher(ctx, proc, env.store, 2)

	n, err := dispatcher.ProcessPending(ctx)
	require.NoError(t, err)
	dispatcher.Wait()

	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{pending.ID}, proc.ids)
	assert.NotContains(t, proc.ids, completed.ID)
	assert.NotContains(t, proc.ids, failedDoc.ID)
}

func TestDispatcher_CancelledContextSkipsWork(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := &countingProcessor{}
	dispatcher := NewDispatcher(ctx, proc, env.store, 1)
	dispatcher.Enqueue(1)
	dispatcher.Wait()

	assert.Empty(t, proc.ids)
}
