package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task names.
const (
	TaskIndexAddons   = "index_addons"
	TaskUnindexAddons = "unindex_addons"
)

// ErrUnknownTask is returned by a Runner for task names nothing registered.
var ErrUnknownTask = errors.New("unknown task")

// Task is the envelope put on the queue.
type Task struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	AddonIDs   []uint64  `json:"addon_ids"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTask builds a task with a fresh id.
func NewTask(name string, addonIDs []uint64) *Task {
	return &Task{
		ID:         uuid.NewString(),
		Name:       name,
		AddonIDs:   addonIDs,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Queue accepts tasks for asynchronous execution.
type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
}

// IndexAddons queues a reindex of the given add-ons. An empty list is a no-op.
func IndexAddons(ctx context.Context, q Queue, addonIDs []uint64) error {
	if len(addonIDs) == 0 {
		return nil
	}
	return q.Enqueue(ctx, NewTask(TaskIndexAddons, addonIDs))
}

// UnindexAddons queues removal of the given add-ons from the search index.
func UnindexAddons(ctx context.Context, q Queue, addonIDs []uint64) error {
	if len(addonIDs) == 0 {
		return nil
	}
	return q.Enqueue(ctx, NewTask(TaskUnindexAddons, addonIDs))
}

// HandlerFunc executes one task.
type HandlerFunc func(ctx context.Context, task *Task) error

// Runner dispatches tasks to their handlers by name.
type Runner struct {
	handlers map[string]HandlerFunc
}

// NewRunner returns an empty Runner.
func NewRunner() *Runner {
	return &Runner{handlers: make(map[string]HandlerFunc)}
}

// Register installs the handler for name, replacing any previous one.
func (r *Runner) Register(name string, fn HandlerFunc) {
	r.handlers[name] = fn
}

// Run executes task with its registered handler.
func (r *Runner) Run(ctx context.Context, task *Task) error {
	fn, ok := r.handlers[task.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, task.Name)
	}
	return fn(ctx, task)
}
