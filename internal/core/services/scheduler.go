package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/core/ports/driving"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

const (
	schedulerTick      = 1 * time.Minute
	taskHistoryRetains = 100
)

// Scheduler manages background task execution.
// It is a pure core service with no external control API.
type Scheduler struct {
	config     domain.SchedulerConfig
	store      driven.SchedulerStore
	dispatcher driving.ProcessingDispatcher
	indexer    driving.EmbeddingIndexer
	tick       time.Duration

	mu       sync.Mutex
	running  bool
	inFlight map[string]bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
// Either task target may be nil, in which case its task does nothing.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	dispatcher driving.ProcessingDispatcher,
	indexer driving.EmbeddingIndexer,
) *Scheduler {
	return &Scheduler{
		config:     config,
		store:      store,
		dispatcher: dispatcher,
		indexer:    indexer,
		tick:       schedulerTick,
		inFlight:   make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if !s.config.Enabled {
		logger.Info("Scheduler disabled")
		<-s.stopped(ctx)
		return ctx.Err()
	}

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler, waiting for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()

	return nil
}

func (s *Scheduler) stopped(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
		case <-s.stopCh:
		}
	}()
	return done
}

// initialiseTasks ensures every built-in task exists in the store with
// its configured interval and enabled flag.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	tasks := []struct {
		id   string
		name string
	}{
		{domain.TaskIDProcessPending, "Process Pending Documents"},
		{domain.TaskIDEmbeddingRefresh, "Embedding Refresh"},
	}
	for _, t := range tasks {
		if err := s.ensureTask(ctx, t.id, t.name, s.config.GetTaskConfig(t.id)); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		// First run happens on the first tick after startup.
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := tasks[i]
		if task.Due(now) {
			s.runTask(ctx, &task)
		}
	}
}

// runTask executes a single task in the background. A task still running
// from an earlier tick is not started again.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.inFlight[task.ID] {
		s.mu.Unlock()
		return
	}
	s.inFlight[task.ID] = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
			s.wg.Done()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDProcessPending:
			result.ItemsProcessed, err = s.runProcessPending(ctx)
		case domain.TaskIDEmbeddingRefresh:
			result.ItemsProcessed, err = s.runEmbeddingRefresh(ctx)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Error = err.Error()
			logger.Warn("scheduler: task %s failed: %v", task.ID, err)
		} else {
			result.Success = true
			logger.Debug("scheduler: task %s handled %d items in %s", task.ID, result.ItemsProcessed, result.Duration())
		}
		task.Apply(result)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Warn("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Warn("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(ctx, taskHistoryRetains); pruneErr != nil {
			logger.Warn("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runProcessPending enqueues documents left in uploaded, for example by a
// crash between the gate and the dispatcher.
func (s *Scheduler) runProcessPending(ctx context.Context) (int, error) {
	if s.dispatcher == nil {
		return 0, nil
	}
	return s.dispatcher.ProcessPending(ctx)
}

// runEmbeddingRefresh embeds completed documents that have no chunks.
func (s *Scheduler) runEmbeddingRefresh(ctx context.Context) (int, error) {
	if s.indexer == nil {
		return 0, nil
	}
	report, err := s.indexer.RefreshPending(ctx)
	if err != nil {
		return 0, err
	}
	return report.Documents, nil
}
