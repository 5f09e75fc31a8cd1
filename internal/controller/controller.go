// Package controller keeps the client's view of tasks and categories in step
// with the task service.
//
// Every action calls the service through the retry executor and, on success,
// replaces the affected lists with a fresh fetch instead of patching them.
// Failures become a transient notice and leave the current lists untouched.
package controller

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdxmph/tasks-tui/internal/remote"
	"github.com/pdxmph/tasks-tui/internal/retry"
)

// DefaultNoticeTTL is how long a notice stays visible
const DefaultNoticeTTL = 5 * time.Second

// Options tunes a Controller
type Options struct {
	// NoticeTTL defaults to DefaultNoticeTTL when zero
	NoticeTTL time.Duration

	// Now is the clock notices expire against; time.Now when nil
	Now func() time.Time
}

// Snapshot is a copy of the controller state
type Snapshot struct {
	Tasks            []remote.Task
	Categories       []remote.Category
	TaskDraft        string
	CategoryDraft    string
	SelectedCategory string
	Busy             bool

	// Notice is empty once it has expired
	Notice          string
	NoticeExpiresAt time.Time

	// NoticeSeq counts notices raised so far
	NoticeSeq uint64

	Health string
}

// Controller owns the client-side task state
type Controller struct {
	svc    remote.Service
	exec   *retry.Executor
	logger *slog.Logger
	now    func() time.Time
	ttl    time.Duration

	mu            sync.Mutex
	tasks         []remote.Task
	categories    []remote.Category
	taskDraft     string
	categoryDraft string
	selected      string
	busy          int
	notice        string
	noticeExpires time.Time
	noticeSeq     uint64
	health        string
}

// New creates a Controller. A nil executor uses the default retry policy.
func New(svc remote.Service, exec *retry.Executor, logger *slog.Logger, opts Options) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if exec == nil {
		exec = retry.New(retry.DefaultPolicy(), logger)
	}
	ttl := opts.NoticeTTL
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Controller{
		svc:        svc,
		exec:       exec,
		logger:     logger,
		now:        now,
		ttl:        ttl,
		tasks:      []remote.Task{},
		categories: []remote.Category{},
	}
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Tasks:            append([]remote.Task(nil), c.tasks...),
		Categories:       append([]remote.Category(nil), c.categories...),
		TaskDraft:        c.taskDraft,
		CategoryDraft:    c.categoryDraft,
		SelectedCategory: c.selected,
		Busy:             c.busy > 0,
		NoticeSeq:        c.noticeSeq,
		Health:           c.health,
	}
	if c.notice != "" && c.now().Before(c.noticeExpires) {
		snap.Notice = c.notice
		snap.NoticeExpiresAt = c.noticeExpires
	}
	return snap
}

// SetTaskDraft sets the description AddTask will submit
func (c *Controller) SetTaskDraft(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.taskDraft = s
}

// SetCategoryDraft sets the name AddCategory will submit
func (c *Controller) SetCategoryDraft(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categoryDraft = s
}

// SelectCategory sets the category new tasks are filed under
func (c *Controller) SelectCategory(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = name
}

// FetchTasks replaces the task list with the service's
func (c *Controller) FetchTasks(ctx context.Context) {
	defer c.raiseBusy()()

	res, ok := settle(ctx, c, remote.OpGetTasks, "Error fetching tasks", c.svc.GetTasks)
	if !ok {
		return
	}

	tasks := res
	if tasks == nil {
		tasks = []remote.Task{}
	}
	c.mu.Lock()
	c.tasks = tasks
	c.mu.Unlock()
}

// FetchCategories replaces the category list without raising the busy
// indicator. The first category becomes the selection when none is set.
func (c *Controller) FetchCategories(ctx context.Context) {
	res, ok := settle(ctx, c, remote.OpGetCategories, "Error fetching categories", c.svc.GetCategories)
	if !ok {
		return
	}

	categories := res
	if categories == nil {
		categories = []remote.Category{}
	}
	c.mu.Lock()
	c.categories = categories
	if c.selected == "" && len(categories) > 0 {
		c.selected = categories[0].Name
	}
	c.mu.Unlock()
}

// AddTask files the task draft under the selected category. A blank draft
// does nothing.
func (c *Controller) AddTask(ctx context.Context) {
	c.mu.Lock()
	description := strings.TrimSpace(c.taskDraft)
	category := c.selected
	c.mu.Unlock()

	if description == "" {
		return
	}

	defer c.raiseBusy()()

	_, ok := settle(ctx, c, remote.OpAddTask, "Error adding task",
		func(ctx context.Context) (remote.Result[int64], error) {
			return c.svc.AddTask(ctx, description, category)
		})
	if !ok {
		return
	}

	c.mu.Lock()
	c.taskDraft = ""
	c.mu.Unlock()

	c.FetchTasks(ctx)
}

// AddCategory creates a category from the category draft. A blank draft
// does nothing.
func (c *Controller) AddCategory(ctx context.Context) {
	c.mu.Lock()
	name := strings.TrimSpace(c.categoryDraft)
	c.mu.Unlock()

	if name == "" {
		return
	}

	defer c.raiseBusy()()

	_, ok := settle(ctx, c, remote.OpAddCategory, "Error adding category",
		func(ctx context.Context) (remote.Result[int64], error) {
			return c.svc.AddCategory(ctx, name)
		})
	if !ok {
		return
	}

	c.mu.Lock()
	c.categoryDraft = ""
	c.mu.Unlock()

	c.refetchAll(ctx)
}

// CompleteTask marks a task completed. The request is sent even when the
// local copy already shows it completed.
func (c *Controller) CompleteTask(ctx context.Context, id int64) {
	defer c.raiseBusy()()

	_, ok := settle(ctx, c, remote.OpCompleteTask, "Error completing task",
		func(ctx context.Context) (remote.Result[remote.Unit], error) {
			return c.svc.CompleteTask(ctx, id)
		})
	if !ok {
		return
	}

	c.FetchTasks(ctx)
}

// DeleteTask removes a task and re-fetches the list
func (c *Controller) DeleteTask(ctx context.Context, id int64) {
	defer c.raiseBusy()()

	_, ok := settle(ctx, c, remote.OpDeleteTask, "Error deleting task",
		func(ctx context.Context) (remote.Result[remote.Unit], error) {
			return c.svc.DeleteTask(ctx, id)
		})
	if !ok {
		return
	}

	c.FetchTasks(ctx)
}

// DeleteCategory removes a category. Tasks filed under it stay. When the
// selected name no longer exists afterwards, the selection moves to the first
// remaining category.
func (c *Controller) DeleteCategory(ctx context.Context, id int64) {
	defer c.raiseBusy()()

	c.mu.Lock()
	var name string
	for _, cat := range c.categories {
		if cat.ID == id {
			name = cat.Name
			break
		}
	}
	c.mu.Unlock()

	_, ok := settle(ctx, c, remote.OpDeleteCategory, "Error deleting category",
		func(ctx context.Context) (remote.Result[remote.Unit], error) {
			return c.svc.DeleteCategory(ctx, id)
		})
	if !ok {
		return
	}

	c.refetchAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "" || c.selected != name || hasCategory(c.categories, name) {
		return
	}
	c.selected = ""
	if len(c.categories) > 0 {
		c.selected = c.categories[0].Name
	}
}

// hasCategory reports whether any category is called name. Names may repeat.
func hasCategory(categories []remote.Category, name string) bool {
	for _, cat := range categories {
		if cat.Name == name {
			return true
		}
	}
	return false
}

// Bootstrap loads both lists concurrently and checks service health
func (c *Controller) Bootstrap(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		c.CheckHealth(ctx)
		return nil
	})
	g.Go(func() error {
		c.refetchAll(ctx)
		return nil
	})
	_ = g.Wait()
}

// Refresh reloads both lists
func (c *Controller) Refresh(ctx context.Context) {
	c.refetchAll(ctx)
}

// CheckHealth asks the service for its status once, without retries
func (c *Controller) CheckHealth(ctx context.Context) {
	status, err := c.svc.HealthCheck(ctx)
	if err != nil {
		c.logger.Warn("health check failed", "error", err)
		status = "unreachable: " + err.Error()
	}

	c.mu.Lock()
	c.health = status
	c.mu.Unlock()
}

func (c *Controller) refetchAll(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		c.FetchTasks(ctx)
		return nil
	})
	g.Go(func() error {
		c.FetchCategories(ctx)
		return nil
	})
	_ = g.Wait()
}

// raiseBusy raises the busy indicator and returns the function that lowers it
func (c *Controller) raiseBusy() func() {
	c.mu.Lock()
	c.busy++
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		c.busy--
		c.mu.Unlock()
	}
}

// raiseNotice replaces the current notice
func (c *Controller) raiseNotice(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notice = msg
	c.noticeExpires = c.now().Add(c.ttl)
	c.noticeSeq++
}

// settle runs one call through the retry executor and turns any failure into
// a notice prefixed with what. It reports whether the call produced a value.
func settle[T any](ctx context.Context, c *Controller, op, what string, call func(context.Context) (remote.Result[T], error)) (T, bool) {
	var zero T

	res, err := retry.Do(ctx, c.exec, op, call)
	if err != nil {
		c.logger.Error("remote call failed", "op", op, "error", err)
		c.raiseNotice(what + ": " + err.Error())
		return zero, false
	}

	v, ok := res.Unwrap()
	if !ok {
		c.logger.Info("remote call rejected", "op", op, "reason", res.Message())
		c.raiseNotice(what + ": " + res.Message())
		return zero, false
	}
	return v, true
}
