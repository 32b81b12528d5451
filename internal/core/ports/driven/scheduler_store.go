package driven

import (
	"context"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

// SchedulerStore keeps task state and run history so schedules survive
// restarts.
type SchedulerStore interface {
	// GetTask returns nil, nil when taskID was never saved.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns every task ordered by id.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask inserts or replaces the task with the same id.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	DeleteTask(ctx context.Context, taskID string) error

	// RecordResult appends one run to the history.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns up to limit runs of taskID, newest first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps only the newest keep runs per task.
	PruneHistory(ctx context.Context, keep int) error
}
