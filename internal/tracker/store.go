package tracker

import (
	"context"
	"time"

	"github.com/pdxmph/tasks-tui/internal/remote"
)

// Store persists tasks and categories. Implementations return db.ErrNotFound
// from GetTask when the id is unknown.
type Store interface {
	InsertTask(ctx context.Context, description, category string) (int64, error)
	InsertCategory(ctx context.Context, name string) (int64, error)
	GetTask(ctx context.Context, id int64) (remote.Task, error)

	// MarkCompleted reports false when the task is missing or already completed
	MarkCompleted(ctx context.Context, id int64, at time.Time) (bool, error)

	DeleteTask(ctx context.Context, id int64) (bool, error)
	DeleteCategory(ctx context.Context, id int64) (bool, error)
	ListTasks(ctx context.Context) ([]remote.Task, error)
	ListCategories(ctx context.Context) ([]remote.Category, error)
	CategoryExists(ctx context.Context, name string) (bool, error)
	Ping(ctx context.Context) error
}
