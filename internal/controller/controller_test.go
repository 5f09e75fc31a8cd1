package controller

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/tasks-tui/internal/remote"
	"github.com/pdxmph/tasks-tui/internal/retry"
	"github.com/pdxmph/tasks-tui/internal/testutil"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	ctrl  *Controller
	fake  *testutil.FakeService
	clock *fakeClock

	mu     sync.Mutex
	delays []time.Duration
}

func (h *harness) Delays() []time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]time.Duration(nil), h.delays...)
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{clock: &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}}
	h.fake = testutil.NewFakeService(h.clock.Now)

	exec := retry.New(retry.DefaultPolicy(), quietLogger).WithSleep(func(ctx context.Context, d time.Duration) error {
		h.mu.Lock()
		h.delays = append(h.delays, d)
		h.mu.Unlock()
		return ctx.Err()
	})
	h.ctrl = New(h.fake, exec, quietLogger, Options{Now: h.clock.Now})

	return h
}

// seedTask adds a task through the controller and returns its id
func (h *harness) seedTask(t *testing.T, description, category string) int64 {
	t.Helper()

	h.ctrl.SelectCategory(category)
	h.ctrl.SetTaskDraft(description)
	h.ctrl.AddTask(context.Background())

	tasks := h.ctrl.Snapshot().Tasks
	require.NotEmpty(t, tasks)
	return tasks[len(tasks)-1].ID
}

func TestScenarioCategoryTaskComplete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	created := h.clock.Now()

	h.ctrl.SetCategoryDraft("Work")
	h.ctrl.AddCategory(ctx)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, []remote.Category{{ID: 1, Name: "Work"}}, snap.Categories)
	assert.Equal(t, "Work", snap.SelectedCategory)
	assert.Empty(t, snap.CategoryDraft)

	h.ctrl.SetTaskDraft("Buy milk")
	h.ctrl.AddTask(ctx)

	snap = h.ctrl.Snapshot()
	assert.Equal(t, []remote.Task{{ID: 1, Description: "Buy milk", Completed: false, CompletionDate: nil, Category: "Work"}}, snap.Tasks)
	assert.Empty(t, snap.TaskDraft)

	h.clock.Advance(time.Minute)
	h.ctrl.CompleteTask(ctx, 1)

	snap = h.ctrl.Snapshot()
	require.Len(t, snap.Tasks, 1)
	assert.True(t, snap.Tasks[0].Completed)
	require.NotNil(t, snap.Tasks[0].CompletionDate)
	assert.False(t, snap.Tasks[0].CompletionDate.Before(created))
	assert.Empty(t, snap.Notice)
	assert.False(t, snap.Busy)
}

func TestAddTaskRefetchesTasks(t *testing.T) {
	h := newHarness(t)

	id := h.seedTask(t, "Buy milk", "Home")

	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, id, snap.Tasks[0].ID)
	assert.False(t, snap.Tasks[0].Completed)
	assert.Nil(t, snap.Tasks[0].CompletionDate)
	assert.Equal(t, 1, h.fake.Calls(remote.OpAddTask))
	assert.Equal(t, 1, h.fake.Calls(remote.OpGetTasks))
}

func TestAddTaskTrimsDraft(t *testing.T) {
	h := newHarness(t)

	h.seedTask(t, "  Buy milk  ", "Home")

	assert.Equal(t, "Buy milk", h.ctrl.Snapshot().Tasks[0].Description)
}

func TestRepeatedCompleteKeepsFirstDate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.seedTask(t, "Buy milk", "Home")

	h.ctrl.CompleteTask(ctx, id)
	first := h.ctrl.Snapshot().Tasks[0]
	require.NotNil(t, first.CompletionDate)

	h.clock.Advance(time.Hour)
	h.ctrl.CompleteTask(ctx, id)

	again := h.ctrl.Snapshot().Tasks[0]
	assert.True(t, again.Completed)
	require.NotNil(t, again.CompletionDate)
	assert.True(t, first.CompletionDate.Equal(*again.CompletionDate))
	assert.Equal(t, 2, h.fake.Calls(remote.OpCompleteTask))
	assert.Empty(t, h.ctrl.Snapshot().Notice)
}

func TestDeleteTaskRemovesIt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	keep := h.seedTask(t, "Walk dog", "Home")
	gone := h.seedTask(t, "Buy milk", "Home")

	h.ctrl.DeleteTask(ctx, gone)

	tasks := h.ctrl.Snapshot().Tasks
	require.Len(t, tasks, 1)
	assert.Equal(t, keep, tasks[0].ID)
	for _, task := range tasks {
		assert.NotEqual(t, gone, task.ID)
	}
}

func TestErrEnvelopeRaisesOneNotice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedTask(t, "Walk dog", "Home")
	before := h.ctrl.Snapshot()
	getCalls := h.fake.Calls(remote.OpGetTasks)

	h.fake.Reject(remote.OpAddTask, "description too long")
	h.ctrl.SetTaskDraft("Buy milk")
	h.ctrl.AddTask(ctx)

	snap := h.ctrl.Snapshot()
	assert.Contains(t, snap.Notice, "description too long")
	assert.Equal(t, "Error adding task: description too long", snap.Notice)
	assert.Equal(t, before.NoticeSeq+1, snap.NoticeSeq)
	assert.Equal(t, before.Tasks, snap.Tasks)
	assert.Equal(t, "Buy milk", snap.TaskDraft)
	assert.Equal(t, 1+1, h.fake.Calls(remote.OpAddTask), "an Err envelope is not retried")
	assert.Equal(t, getCalls, h.fake.Calls(remote.OpGetTasks), "no refetch after a rejection")
	assert.Empty(t, h.Delays())
	assert.False(t, snap.Busy)
}

func TestFaultRetriedThenRecovers(t *testing.T) {
	h := newHarness(t)
	h.seedTask(t, "Walk dog", "Home")
	getCalls := h.fake.Calls(remote.OpGetTasks)

	h.fake.FailNext(remote.OpGetTasks, testutil.ErrTransport, testutil.ErrTransport)
	h.ctrl.FetchTasks(context.Background())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, getCalls+3, h.fake.Calls(remote.OpGetTasks))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, h.Delays())
	assert.Empty(t, snap.Notice)
	assert.Len(t, snap.Tasks, 1)
}

func TestFaultExhaustionRaisesNotice(t *testing.T) {
	h := newHarness(t)
	h.seedTask(t, "Walk dog", "Home")
	before := h.ctrl.Snapshot()
	getCalls := h.fake.Calls(remote.OpGetTasks)

	h.fake.FailNext(remote.OpGetTasks, testutil.ErrTransport, testutil.ErrTransport, testutil.ErrTransport)
	h.ctrl.FetchTasks(context.Background())

	snap := h.ctrl.Snapshot()
	assert.Equal(t, getCalls+3, h.fake.Calls(remote.OpGetTasks), "no fourth attempt")
	assert.Contains(t, snap.Notice, "Error fetching tasks")
	assert.Contains(t, snap.Notice, testutil.ErrTransport.Error())
	assert.Equal(t, "Error fetching tasks: retries exhausted after 3 attempts: connection refused", snap.Notice)
	assert.Equal(t, before.NoticeSeq+1, snap.NoticeSeq)
	assert.Equal(t, before.Tasks, snap.Tasks)
}

func TestBlankInputIsNoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.ctrl.SelectCategory("Home")
	h.ctrl.SetTaskDraft("   ")
	h.ctrl.AddTask(ctx)

	h.ctrl.SetCategoryDraft("\t")
	h.ctrl.AddCategory(ctx)

	snap := h.ctrl.Snapshot()
	assert.Zero(t, h.fake.TotalCalls())
	assert.Empty(t, snap.Notice)
	assert.Zero(t, snap.NoticeSeq)
	assert.False(t, snap.Busy)
}

func TestNoticeExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.fake.Reject(remote.OpCompleteTask, "task not found: 9")
	h.ctrl.CompleteTask(ctx, 9)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, "Error completing task: task not found: 9", snap.Notice)
	assert.Equal(t, h.clock.Now().Add(DefaultNoticeTTL), snap.NoticeExpiresAt)

	h.clock.Advance(DefaultNoticeTTL - time.Millisecond)
	assert.NotEmpty(t, h.ctrl.Snapshot().Notice)

	h.clock.Advance(time.Millisecond)
	snap = h.ctrl.Snapshot()
	assert.Empty(t, snap.Notice)
	assert.True(t, snap.NoticeExpiresAt.IsZero())
}

func TestNextNoticeReplacesCurrent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.fake.Reject(remote.OpCompleteTask, "first")
	h.ctrl.CompleteTask(ctx, 1)
	h.clock.Advance(3 * time.Second)

	h.fake.Reject(remote.OpDeleteTask, "second")
	h.ctrl.DeleteTask(ctx, 1)

	h.clock.Advance(3 * time.Second)
	assert.Equal(t, "Error deleting task: second", h.ctrl.Snapshot().Notice)
}

func TestBusyWhileInFlight(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	h.fake.OnCall(func(_ context.Context, op string) {
		if op == remote.OpDeleteTask {
			entered <- struct{}{}
			<-release
		}
	})

	done := make(chan struct{})
	go func() {
		h.ctrl.DeleteTask(ctx, 1)
		close(done)
	}()

	<-entered
	assert.True(t, h.ctrl.Snapshot().Busy)

	close(release)
	<-done
	assert.False(t, h.ctrl.Snapshot().Busy)
}

func TestBusyIsCountedAcrossActions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	h.fake.OnCall(func(_ context.Context, op string) {
		if op == remote.OpDeleteTask {
			entered <- struct{}{}
			<-release
		}
	})

	done := make(chan struct{}, 2)
	for _, id := range []int64{1, 2} {
		go func(id int64) {
			h.ctrl.DeleteTask(ctx, id)
			done <- struct{}{}
		}(id)
	}
	<-entered
	<-entered

	release <- struct{}{}
	<-done
	assert.True(t, h.ctrl.Snapshot().Busy, "the other action is still in flight")

	release <- struct{}{}
	<-done
	assert.False(t, h.ctrl.Snapshot().Busy)
}

func TestCategoryFetchIsSilent(t *testing.T) {
	h := newHarness(t)

	var busyDuringFetch bool
	h.fake.OnCall(func(_ context.Context, op string) {
		if op == remote.OpGetCategories {
			busyDuringFetch = h.ctrl.Snapshot().Busy
		}
	})

	h.ctrl.FetchCategories(context.Background())
	assert.False(t, busyDuringFetch)
}

func TestBootstrapSelectsFirstCategory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, name := range []string{"Work", "Home"} {
		h.ctrl.SetCategoryDraft(name)
		h.ctrl.AddCategory(ctx)
	}
	h.seedTask(t, "Buy milk", "Home")

	fresh := New(h.fake, nil, quietLogger, Options{Now: h.clock.Now})
	fresh.Bootstrap(ctx)

	snap := fresh.Snapshot()
	assert.Len(t, snap.Tasks, 1)
	assert.Len(t, snap.Categories, 2)
	assert.Equal(t, "Work", snap.SelectedCategory)
	assert.Equal(t, "ok", snap.Health)
	assert.False(t, snap.Busy)
}

func TestBootstrapKeepsExistingSelection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.ctrl.SetCategoryDraft("Work")
	h.ctrl.AddCategory(ctx)

	fresh := New(h.fake, nil, quietLogger, Options{})
	fresh.SelectCategory("Errands")
	fresh.Bootstrap(ctx)

	assert.Equal(t, "Errands", fresh.Snapshot().SelectedCategory)
}

func TestDeleteCategoryKeepsTasks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, name := range []string{"Work", "Home"} {
		h.ctrl.SetCategoryDraft(name)
		h.ctrl.AddCategory(ctx)
	}
	h.seedTask(t, "File report", "Work")
	h.ctrl.SelectCategory("Work")

	h.ctrl.DeleteCategory(ctx, 1)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, []remote.Category{{ID: 2, Name: "Home"}}, snap.Categories)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "Work", snap.Tasks[0].Category)
	assert.Equal(t, "Home", snap.SelectedCategory)
}

func TestDeleteDuplicateCategoryKeepsSelection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, name := range []string{"Home", "Work", "Work"} {
		h.ctrl.SetCategoryDraft(name)
		h.ctrl.AddCategory(ctx)
	}
	h.ctrl.SelectCategory("Work")

	h.ctrl.DeleteCategory(ctx, 3)

	snap := h.ctrl.Snapshot()
	assert.Equal(t, []remote.Category{{ID: 1, Name: "Home"}, {ID: 2, Name: "Work"}}, snap.Categories)
	assert.Equal(t, "Work", snap.SelectedCategory)
}

func TestCheckHealthIsNotRetried(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.ctrl.CheckHealth(ctx)
	assert.Equal(t, "ok", h.ctrl.Snapshot().Health)

	h.fake.FailNext(remote.OpHealthCheck, testutil.ErrTransport)
	h.ctrl.CheckHealth(ctx)

	assert.Equal(t, 2, h.fake.Calls(remote.OpHealthCheck))
	assert.Contains(t, h.ctrl.Snapshot().Health, "unreachable")
	assert.Empty(t, h.Delays())
}

func TestCancelledContextStopsRetries(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.fake.FailNext(remote.OpGetTasks, testutil.ErrTransport, testutil.ErrTransport)
	h.ctrl.FetchTasks(ctx)

	assert.Equal(t, 1, h.fake.Calls(remote.OpGetTasks))
	assert.Contains(t, h.ctrl.Snapshot().Notice, "retry cancelled")
}
