package store

import (
	"context"

	"github.com/alamesa/catalog-cli/internal/model"
)

// TaskFilter specifies criteria for listing tasks.
type TaskFilter struct {
	Status model.TaskStatus `json:"status,omitempty"`
	Kind   model.TaskKind   `json:"kind,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for task bookkeeping and
// visibility audit records.
//
// AddProgress must be a single atomic read-modify-write: the pipeline
// flushes batched increments from concurrent phases and no update may be
// lost. The pipeline never reads progress back.
type Store interface {
	// Tasks
	CreateTask(ctx context.Context, kind model.TaskKind, account string) (*model.Task, error)
	GetTask(ctx context.Context, taskID string) (*model.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	SetTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) error

	// Progress. SetProgressTotal resets the current counter to zero; each
	// pipeline phase re-arms it before dispatching.
	SetProgressTotal(ctx context.Context, taskID string, total int) error
	AddProgress(ctx context.Context, taskID string, delta int) error

	// Append-only task log.
	AppendTaskLog(ctx context.Context, taskID string, message string) error

	SetResultFile(ctx context.Context, taskID string, path string) error

	// Visibility audit records, one per SKU per run.
	InsertVisibilityCheck(ctx context.Context, check *model.VisibilityCheck) error
	ListVisibilityChecks(ctx context.Context, taskID string) ([]model.VisibilityCheck, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
