package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tasks.db")
	require.NoError(t, Initialize(path))

	database, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return database
}

func TestInitializeRefusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")
	require.NoError(t, Initialize(path))

	err := Initialize(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trackerd init")
}

func TestInsertAndListTasks(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	first, err := database.InsertTask(ctx, "buy milk", "Home")
	require.NoError(t, err)
	second, err := database.InsertTask(ctx, "file report", "Work")
	require.NoError(t, err)
	assert.Greater(t, second, first)

	tasks, err := database.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, first, tasks[0].ID)
	assert.Equal(t, "buy milk", tasks[0].Description)
	assert.Equal(t, "Home", tasks[0].Category)
	assert.False(t, tasks[0].Completed)
	assert.Nil(t, tasks[0].CompletionDate)
	assert.Equal(t, "Work", tasks[1].Category)
}

func TestListEmptyTablesReturnsEmptySlices(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	tasks, err := database.ListTasks(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)

	categories, err := database.ListCategories(ctx)
	require.NoError(t, err)
	assert.NotNil(t, categories)
	assert.Empty(t, categories)
}

func TestMarkCompletedKeepsFirstDate(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	id, err := database.InsertTask(ctx, "buy milk", "Home")
	require.NoError(t, err)

	first := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	changed, err := database.MarkCompleted(ctx, id, first)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = database.MarkCompleted(ctx, id, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)

	task, err := database.GetTask(ctx, id)
	require.NoError(t, err)
	assert.True(t, task.Completed)
	require.NotNil(t, task.CompletionDate)
	assert.True(t, first.Equal(*task.CompletionDate))
}

func TestMarkCompletedMissingTask(t *testing.T) {
	database := openTestDB(t)

	changed, err := database.MarkCompleted(context.Background(), 42, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestGetTaskNotFound(t *testing.T) {
	database := openTestDB(t)

	_, err := database.GetTask(context.Background(), 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	id, err := database.InsertTask(ctx, "buy milk", "Home")
	require.NoError(t, err)

	removed, err := database.DeleteTask(ctx, id)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = database.DeleteTask(ctx, id)
	require.NoError(t, err)
	assert.False(t, removed)

	tasks, err := database.ListTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDeleteCategoryLeavesTasks(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	catID, err := database.InsertCategory(ctx, "Home")
	require.NoError(t, err)
	_, err = database.InsertTask(ctx, "buy milk", "Home")
	require.NoError(t, err)

	removed, err := database.DeleteCategory(ctx, catID)
	require.NoError(t, err)
	assert.True(t, removed)

	exists, err := database.CategoryExists(ctx, "Home")
	require.NoError(t, err)
	assert.False(t, exists)

	tasks, err := database.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Home", tasks[0].Category)
}

func TestCategoriesAllowDuplicateNames(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	a, err := database.InsertCategory(ctx, "Home")
	require.NoError(t, err)
	b, err := database.InsertCategory(ctx, "Home")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	categories, err := database.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 2)
}

func TestRunMigrationsAddsCompletionDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = conn.Exec(`
		CREATE TABLE categories (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, created_at DATETIME DEFAULT CURRENT_TIMESTAMP);
		CREATE TABLE tasks (id INTEGER PRIMARY KEY AUTOINCREMENT, description TEXT NOT NULL, completed BOOLEAN NOT NULL DEFAULT 0, category TEXT NOT NULL, created_at DATETIME DEFAULT CURRENT_TIMESTAMP);
		INSERT INTO tasks (description, completed, category) VALUES ('old task', 1, 'Home');
		INSERT INTO tasks (description, completed, category) VALUES ('open task', 0, 'Home');
	`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	database, err := Open(path)
	require.NoError(t, err)
	defer database.Close()

	task, err := database.GetTask(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, task.Completed)
	require.NotNil(t, task.CompletionDate)
	assert.False(t, task.CompletionDate.IsZero())

	pending, err := database.GetTask(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, pending.Completed)
	assert.Nil(t, pending.CompletionDate)

	require.NoError(t, database.RunMigrations())
}

func TestCreateFixturesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.db")
	require.NoError(t, CreateFixturesDatabase(path))

	database, err := Open(path)
	require.NoError(t, err)
	defer database.Close()

	ctx := context.Background()
	categories, err := database.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 3)

	tasks, err := database.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 9)

	var done int
	for _, task := range tasks {
		if task.Completed {
			done++
			assert.NotNil(t, task.CompletionDate)
		}
	}
	assert.Equal(t, 3, done)
}
