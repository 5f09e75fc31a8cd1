// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pdxmph/tasks-tui/internal/remote"
	"github.com/pdxmph/tasks-tui/internal/tracker"
)

// ErrTransport is a ready-made transport fault for injection.
var ErrTransport = errors.New("connection refused")

// FakeService is an in-memory remote.Service with fault injection and call
// counting. Behind the injection it runs the real tracker over a memory store.
type FakeService struct {
	inner *tracker.Service

	mu      sync.Mutex
	calls   map[string]int
	faults  map[string][]error
	rejects map[string]string
	hook    func(ctx context.Context, op string)
}

// NewFakeService creates an empty FakeService. A nil clock uses time.Now.
func NewFakeService(now func() time.Time) *FakeService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &FakeService{
		inner:   tracker.New(tracker.NewMemoryStore(), logger, tracker.Options{Now: now}),
		calls:   make(map[string]int),
		faults:  make(map[string][]error),
		rejects: make(map[string]string),
	}
}

// FailNext queues transport faults for op, one per upcoming call.
func (f *FakeService) FailNext(op string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[op] = append(f.faults[op], errs...)
}

// Reject makes every call to op answer Err(msg) until cleared with an
// empty message.
func (f *FakeService) Reject(op, msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg == "" {
		delete(f.rejects, op)
		return
	}
	f.rejects[op] = msg
}

// OnCall registers a function run at the start of every call, before any
// injected outcome. It may block to hold a call in flight.
func (f *FakeService) OnCall(hook func(ctx context.Context, op string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = hook
}

// Calls returns how many times op was invoked.
func (f *FakeService) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of invocations across all operations.
func (f *FakeService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// intercept records the call and reports an injected fault or rejection.
func (f *FakeService) intercept(ctx context.Context, op string) (fault error, reject string, rejected bool) {
	f.mu.Lock()
	f.calls[op]++
	hook := f.hook
	if queue := f.faults[op]; len(queue) > 0 {
		fault = queue[0]
		f.faults[op] = queue[1:]
	}
	reject, rejected = f.rejects[op]
	f.mu.Unlock()

	if hook != nil {
		hook(ctx, op)
	}
	return fault, reject, rejected
}

func run[T any](ctx context.Context, f *FakeService, op string, call func() (remote.Result[T], error)) (remote.Result[T], error) {
	fault, reject, rejected := f.intercept(ctx, op)
	if fault != nil {
		return remote.Result[T]{}, fault
	}
	if rejected {
		return remote.Err[T](reject), nil
	}
	return call()
}

// AddTask implements remote.Service.
func (f *FakeService) AddTask(ctx context.Context, description, category string) (remote.Result[int64], error) {
	return run(ctx, f, remote.OpAddTask, func() (remote.Result[int64], error) {
		return f.inner.AddTask(ctx, description, category)
	})
}

// AddCategory implements remote.Service.
func (f *FakeService) AddCategory(ctx context.Context, name string) (remote.Result[int64], error) {
	return run(ctx, f, remote.OpAddCategory, func() (remote.Result[int64], error) {
		return f.inner.AddCategory(ctx, name)
	})
}

// CompleteTask implements remote.Service.
func (f *FakeService) CompleteTask(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	return run(ctx, f, remote.OpCompleteTask, func() (remote.Result[remote.Unit], error) {
		return f.inner.CompleteTask(ctx, id)
	})
}

// DeleteTask implements remote.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	return run(ctx, f, remote.OpDeleteTask, func() (remote.Result[remote.Unit], error) {
		return f.inner.DeleteTask(ctx, id)
	})
}

// DeleteCategory implements remote.Service.
func (f *FakeService) DeleteCategory(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	return run(ctx, f, remote.OpDeleteCategory, func() (remote.Result[remote.Unit], error) {
		return f.inner.DeleteCategory(ctx, id)
	})
}

// GetTasks implements remote.Service.
func (f *FakeService) GetTasks(ctx context.Context) (remote.Result[[]remote.Task], error) {
	return run(ctx, f, remote.OpGetTasks, func() (remote.Result[[]remote.Task], error) {
		return f.inner.GetTasks(ctx)
	})
}

// GetCategories implements remote.Service.
func (f *FakeService) GetCategories(ctx context.Context) (remote.Result[[]remote.Category], error) {
	return run(ctx, f, remote.OpGetCategories, func() (remote.Result[[]remote.Category], error) {
		return f.inner.GetCategories(ctx)
	})
}

// HealthCheck implements remote.Service.
func (f *FakeService) HealthCheck(ctx context.Context) (string, error) {
	fault, reject, rejected := f.intercept(ctx, remote.OpHealthCheck)
	if fault != nil {
		return "", fault
	}
	if rejected {
		return reject, nil
	}
	return f.inner.HealthCheck(ctx)
}
