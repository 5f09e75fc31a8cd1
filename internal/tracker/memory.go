package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pdxmph/tasks-tui/internal/db"
	"github.com/pdxmph/tasks-tui/internal/remote"
)

// MemoryStore keeps tasks and categories in process memory. Ids start at 1
// and are never reused.
type MemoryStore struct {
	tasks          map[int64]remote.Task
	categories     map[int64]remote.Category
	nextTaskID     int64
	nextCategoryID int64
	mu             sync.Mutex
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:          make(map[int64]remote.Task),
		categories:     make(map[int64]remote.Category),
		nextTaskID:     1,
		nextCategoryID: 1,
	}
}

func (m *MemoryStore) InsertTask(_ context.Context, description, category string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextTaskID
	m.tasks[id] = remote.Task{
		ID:          id,
		Description: description,
		Category:    category,
	}
	m.nextTaskID++

	return id, nil
}

func (m *MemoryStore) InsertCategory(_ context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextCategoryID
	m.categories[id] = remote.Category{ID: id, Name: name}
	m.nextCategoryID++

	return id, nil
}

func (m *MemoryStore) GetTask(_ context.Context, id int64) (remote.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok {
		return remote.Task{}, fmt.Errorf("task %d: %w", id, db.ErrNotFound)
	}
	return copyTask(task), nil
}

// MarkCompleted records the completion once. It reports whether the task was open.
func (m *MemoryStore) MarkCompleted(_ context.Context, id int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	task, ok := m.tasks[id]
	if !ok || task.Completed {
		return false, nil
	}

	when := at.UTC()
	task.Completed = true
	task.CompletionDate = &when
	m.tasks[id] = task

	return true, nil
}

func (m *MemoryStore) DeleteTask(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.tasks[id]
	delete(m.tasks, id)
	return ok, nil
}

func (m *MemoryStore) DeleteCategory(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.categories[id]
	delete(m.categories, id)
	return ok, nil
}

// ListTasks returns copies of all tasks ordered by id
func (m *MemoryStore) ListTasks(_ context.Context) ([]remote.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks := make([]remote.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		tasks = append(tasks, copyTask(task))
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })

	return tasks, nil
}

func (m *MemoryStore) ListCategories(_ context.Context) ([]remote.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	categories := make([]remote.Category, 0, len(m.categories))
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })

	return categories, nil
}

func (m *MemoryStore) CategoryExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.categories {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

// copyTask detaches the completion date so callers cannot mutate stored state
func copyTask(t remote.Task) remote.Task {
	if t.CompletionDate != nil {
		when := *t.CompletionDate
		t.CompletionDate = &when
	}
	return t
}
