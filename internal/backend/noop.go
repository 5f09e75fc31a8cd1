package backend

import (
	"context"

	"github.com/pdxmph/tasks-tui/internal/remote"
)

const noBackendMessage = "no task backend configured"

// NoopBackend is a backend that does nothing, used when no task service is configured
type NoopBackend struct{}

// NewNoopBackend creates a new no-op backend
func NewNoopBackend() Backend {
	return &NoopBackend{}
}

// Name returns the backend identifier
func (n *NoopBackend) Name() string {
	return "noop"
}

// IsEnabled always returns false for the noop backend
func (n *NoopBackend) IsEnabled() bool {
	return false
}

func (n *NoopBackend) Close() error {
	return nil
}

func (n *NoopBackend) AddTask(context.Context, string, string) (remote.Result[int64], error) {
	return remote.Err[int64](noBackendMessage), nil
}

func (n *NoopBackend) AddCategory(context.Context, string) (remote.Result[int64], error) {
	return remote.Err[int64](noBackendMessage), nil
}

func (n *NoopBackend) CompleteTask(context.Context, int64) (remote.Result[remote.Unit], error) {
	return remote.Err[remote.Unit](noBackendMessage), nil
}

func (n *NoopBackend) DeleteTask(context.Context, int64) (remote.Result[remote.Unit], error) {
	return remote.Err[remote.Unit](noBackendMessage), nil
}

func (n *NoopBackend) DeleteCategory(context.Context, int64) (remote.Result[remote.Unit], error) {
	return remote.Err[remote.Unit](noBackendMessage), nil
}

// GetTasks returns empty list
func (n *NoopBackend) GetTasks(context.Context) (remote.Result[[]remote.Task], error) {
	return remote.Ok([]remote.Task{}), nil
}

// GetCategories returns empty list
func (n *NoopBackend) GetCategories(context.Context) (remote.Result[[]remote.Category], error) {
	return remote.Ok([]remote.Category{}), nil
}

func (n *NoopBackend) HealthCheck(context.Context) (string, error) {
	return noBackendMessage, nil
}

func init() {
	Register("noop", func(Settings) Backend { return NewNoopBackend() })
}
