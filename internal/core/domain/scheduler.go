package domain

import "time"

// Built-in task IDs.
const (
	TaskIDProcessPending   = "process-pending"
	TaskIDEmbeddingRefresh = "embedding-refresh"
)

// ScheduledTask is the persisted state of a recurring background job.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	// LastRun and NextRun are zero until the task first runs.
	LastRun time.Time
	NextRun time.Time

	// LastError is the message from the most recent failed run, cleared on success.
	LastError   string
	LastSuccess time.Time
}

// Due reports whether the task should run at now.
func (t *ScheduledTask) Due(now time.Time) bool {
	if !t.Enabled || t.Interval <= 0 {
		return false
	}
	return t.NextRun.IsZero() || !t.NextRun.After(now)
}

// Apply folds a finished run into the task and schedules the next one
// an interval after the run ended.
func (t *ScheduledTask) Apply(r *TaskResult) {
	t.LastRun = r.StartedAt
	t.NextRun = r.EndedAt.Add(t.Interval)
	if r.Success {
		t.LastError = ""
		t.LastSuccess = r.EndedAt
		return
	}
	t.LastError = r.Error
}

// TaskResult is one run of a task, kept as history.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// ItemsProcessed counts documents dispatched or embedded.
	ItemsProcessed int
}

// Duration is how long the run took.
func (r *TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// SchedulerConfig is the [scheduler] section of the settings.
type SchedulerConfig struct {
	// Enabled turns every task off when false.
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

// TaskConfig configures one task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the config for taskID, or the zero value.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig sweeps pending documents every 15 minutes.
// Embedding refresh is off, so documents whose embedding failed keep no
// vectors until someone runs it by hand or turns the task on.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		TaskConfigs: map[string]TaskConfig{
			TaskIDProcessPending:   {Enabled: true, Interval: 15 * time.Minute},
			TaskIDEmbeddingRefresh: {Enabled: false, Interval: time.Hour},
		},
	}
}
