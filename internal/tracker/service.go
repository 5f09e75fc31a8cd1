// Package tracker is the authoritative task service. It validates requests,
// applies them to a Store and answers with result envelopes.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pdxmph/tasks-tui/internal/db"
	"github.com/pdxmph/tasks-tui/internal/remote"
)

// HealthyStatus is the HealthCheck answer when the store responds
const HealthyStatus = "ok"

// Options tunes request validation
type Options struct {
	// StrictCategories rejects tasks whose category name does not exist
	StrictCategories bool

	// Now stamps completion dates; time.Now when nil
	Now func() time.Time
}

// Service implements remote.Service over a Store
type Service struct {
	store  Store
	logger *slog.Logger
	strict bool
	now    func() time.Time
}

var _ remote.Service = (*Service)(nil)

// New creates a service over store
func New(store Store, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:  store,
		logger: logger,
		strict: opts.StrictCategories,
		now:    now,
	}
}

// AddTask validates and stores a new task, returning its id
func (s *Service) AddTask(ctx context.Context, description, category string) (remote.Result[int64], error) {
	return observe(s, remote.OpAddTask, func() (remote.Result[int64], error) {
		description = strings.TrimSpace(description)
		category = strings.TrimSpace(category)

		if description == "" {
			return remote.Err[int64]("task description cannot be empty"), nil
		}
		if category == "" {
			return remote.Err[int64]("task category cannot be empty"), nil
		}

		if s.strict {
			exists, err := s.store.CategoryExists(ctx, category)
			if err != nil {
				return remote.Result[int64]{}, err
			}
			if !exists {
				return remote.Errf[int64]("category not found: %s", category), nil
			}
		}

		taskDescLength.Observe(float64(len(description)))

		id, err := s.store.InsertTask(ctx, description, category)
		if err != nil {
			return remote.Result[int64]{}, err
		}
		return remote.Ok(id), nil
	})
}

// AddCategory stores a new category, returning its id
func (s *Service) AddCategory(ctx context.Context, name string) (remote.Result[int64], error) {
	return observe(s, remote.OpAddCategory, func() (remote.Result[int64], error) {
		name = strings.TrimSpace(name)
		if name == "" {
			return remote.Err[int64]("category name cannot be empty"), nil
		}

		id, err := s.store.InsertCategory(ctx, name)
		if err != nil {
			return remote.Result[int64]{}, err
		}
		return remote.Ok(id), nil
	})
}

// CompleteTask marks a task completed. Completing a task twice keeps the
// first completion date.
func (s *Service) CompleteTask(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	return observe(s, remote.OpCompleteTask, func() (remote.Result[remote.Unit], error) {
		changed, err := s.store.MarkCompleted(ctx, id, s.now())
		if err != nil {
			return remote.Result[remote.Unit]{}, err
		}
		if changed {
			return remote.Ok(remote.Unit{}), nil
		}

		// Either missing or already completed
		if _, err := s.store.GetTask(ctx, id); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return remote.Errf[remote.Unit]("task not found: %d", id), nil
			}
			return remote.Result[remote.Unit]{}, err
		}
		return remote.Ok(remote.Unit{}), nil
	})
}

// DeleteTask removes a task. Deleting a missing task succeeds.
func (s *Service) DeleteTask(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	return observe(s, remote.OpDeleteTask, func() (remote.Result[remote.Unit], error) {
		removed, err := s.store.DeleteTask(ctx, id)
		if err != nil {
			return remote.Result[remote.Unit]{}, err
		}
		if !removed {
			s.logger.Debug("delete of missing task", "id", id)
		}
		return remote.Ok(remote.Unit{}), nil
	})
}

// DeleteCategory removes a category and leaves its tasks in place
func (s *Service) DeleteCategory(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	return observe(s, remote.OpDeleteCategory, func() (remote.Result[remote.Unit], error) {
		removed, err := s.store.DeleteCategory(ctx, id)
		if err != nil {
			return remote.Result[remote.Unit]{}, err
		}
		if !removed {
			s.logger.Debug("delete of missing category", "id", id)
		}
		return remote.Ok(remote.Unit{}), nil
	})
}

// GetTasks returns every task ordered by id
func (s *Service) GetTasks(ctx context.Context) (remote.Result[[]remote.Task], error) {
	return observe(s, remote.OpGetTasks, func() (remote.Result[[]remote.Task], error) {
		tasks, err := s.store.ListTasks(ctx)
		if err != nil {
			return remote.Result[[]remote.Task]{}, err
		}
		return remote.Ok(tasks), nil
	})
}

// GetCategories returns every category ordered by id
func (s *Service) GetCategories(ctx context.Context) (remote.Result[[]remote.Category], error) {
	return observe(s, remote.OpGetCategories, func() (remote.Result[[]remote.Category], error) {
		categories, err := s.store.ListCategories(ctx)
		if err != nil {
			return remote.Result[[]remote.Category]{}, err
		}
		return remote.Ok(categories), nil
	})
}

// HealthCheck pings the store and reports HealthyStatus
func (s *Service) HealthCheck(ctx context.Context) (string, error) {
	start := time.Now()
	err := s.store.Ping(ctx)
	operationDuration.WithLabelValues(remote.OpHealthCheck).Observe(time.Since(start).Seconds())
	if err != nil {
		operationCount.WithLabelValues(remote.OpHealthCheck, statusFault).Inc()
		s.logger.Error("health check failed", "error", err)
		return "", err
	}
	operationCount.WithLabelValues(remote.OpHealthCheck, statusOK).Inc()
	return HealthyStatus, nil
}

// observe runs one operation and records its outcome
func observe[T any](s *Service, op string, fn func() (remote.Result[T], error)) (remote.Result[T], error) {
	start := time.Now()
	res, err := fn()
	operationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		operationCount.WithLabelValues(op, statusFault).Inc()
		s.logger.Error("operation failed", "op", op, "error", err)
	case !res.IsOk():
		operationCount.WithLabelValues(op, statusErr).Inc()
		s.logger.Info("operation rejected", "op", op, "reason", res.Message())
	default:
		operationCount.WithLabelValues(op, statusOK).Inc()
		s.logger.Debug("operation completed", "op", op)
	}

	return res, err
}
