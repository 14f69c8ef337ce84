package tasks

import (
	"context"
	"log/slog"
)

// EagerQueue runs tasks synchronously in the caller's goroutine. It is used
// when no broker is configured and in tests.
type EagerQueue struct {
	runner *Runner
	logger *slog.Logger
}

// NewEagerQueue returns a queue that executes tasks with runner immediately.
func NewEagerQueue(runner *Runner, logger *slog.Logger) *EagerQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &EagerQueue{runner: runner, logger: logger}
}

// Enqueue runs the task and returns its error.
func (q *EagerQueue) Enqueue(ctx context.Context, task *Task) error {
	q.logger.Debug("running task", "task", task.Name, "id", task.ID, "addon_ids", task.AddonIDs)
	return q.runner.Run(ctx, task)
}
