package db

import (
	"database/sql"
	"time"

	"github.com/pdxmph/tasks-tui/internal/remote"
)

// Task is a row of the tasks table
type Task struct {
	ID             int64
	Description    string
	Completed      bool
	CompletionDate sql.NullTime
	Category       string
	CreatedAt      time.Time
}

// Category is a row of the categories table
type Category struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Remote converts the row to the service representation
func (t Task) Remote() remote.Task {
	rt := remote.Task{
		ID:          t.ID,
		Description: t.Description,
		Completed:   t.Completed,
		Category:    t.Category,
	}
	if t.CompletionDate.Valid {
		when := t.CompletionDate.Time
		rt.CompletionDate = &when
	}
	return rt
}

// Remote converts the row to the service representation
func (c Category) Remote() remote.Category {
	return remote.Category{ID: c.ID, Name: c.Name}
}
