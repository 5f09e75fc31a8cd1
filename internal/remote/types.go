// Package remote defines the operation set of the task service and the
// result envelope every operation returns.
package remote

import (
	"context"
	"time"
)

// Task is a single tracked item as held by the task service
type Task struct {
	ID             int64      `json:"id"`
	Description    string     `json:"description"`
	Completed      bool       `json:"completed"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	Category       string     `json:"category"`
}

// Category groups tasks by name
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Unit is the success payload of operations that return nothing
type Unit struct{}

// Service is the operation set exposed by the task service.
//
// Business failures come back as an Err result. A non-nil error means the call
// itself failed (network, serialization, store) and no result was produced.
type Service interface {
	// AddTask creates a task and returns its id
	AddTask(ctx context.Context, description, category string) (Result[int64], error)

	// AddCategory creates a category and returns its id
	AddCategory(ctx context.Context, name string) (Result[int64], error)

	// CompleteTask marks a task completed and records the completion date
	CompleteTask(ctx context.Context, id int64) (Result[Unit], error)

	// DeleteTask removes a task
	DeleteTask(ctx context.Context, id int64) (Result[Unit], error)

	// DeleteCategory removes a category. Tasks naming it are left alone.
	DeleteCategory(ctx context.Context, id int64) (Result[Unit], error)

	// GetTasks returns every task in service order
	GetTasks(ctx context.Context) (Result[[]Task], error)

	// GetCategories returns every category in service order
	GetCategories(ctx context.Context) (Result[[]Category], error)

	// HealthCheck reports liveness. It carries no envelope.
	HealthCheck(ctx context.Context) (string, error)
}
