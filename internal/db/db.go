// Package db is the sqlite store behind the task service.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdxmph/tasks-tui/internal/remote"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = errors.New("not found")

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// Open creates a new database connection
func Open(dbPath string) (*DB, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found at %s\nRun 'trackerd init' to create it", dbPath)
	}

	// A single connection serializes writers; sqlite would otherwise
	// answer concurrent writes with SQLITE_BUSY.
	conn, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, path: dbPath}

	if err := db.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// Exists reports whether a database file is present at dbPath
func Exists(dbPath string) bool {
	_, err := os.Stat(dbPath)
	return err == nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database answers
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// InsertTask creates an uncompleted task and returns its id
func (db *DB) InsertTask(ctx context.Context, description, category string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO tasks (description, category, completed, created_at) VALUES (?, ?, 0, CURRENT_TIMESTAMP)`,
		description, category,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting insert ID: %w", err)
	}
	return id, nil
}

// InsertCategory creates a category and returns its id
func (db *DB) InsertCategory(ctx context.Context, name string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO categories (name, created_at) VALUES (?, CURRENT_TIMESTAMP)`,
		name,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting insert ID: %w", err)
	}
	return id, nil
}

// GetTask retrieves a single task by ID
func (db *DB) GetTask(ctx context.Context, id int64) (remote.Task, error) {
	query := `
		SELECT id, description, completed, completion_date, category, created_at
		FROM tasks
		WHERE id = ?
	`

	var t Task
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Description, &t.Completed, &t.CompletionDate, &t.Category, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return remote.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return remote.Task{}, fmt.Errorf("querying task: %w", err)
	}

	return t.Remote(), nil
}

// MarkCompleted sets completed and the completion date on an open task.
// It reports false when the task is missing or already completed; the
// existing completion date is never overwritten.
func (db *DB) MarkCompleted(ctx context.Context, id int64, at time.Time) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE tasks SET completed = 1, completion_date = ? WHERE id = ? AND completed = 0`,
		at.UTC(), id,
	)
	if err != nil {
		return false, fmt.Errorf("completing task: %w", err)
	}
	return affected(result)
}

// DeleteTask permanently deletes a task. It reports whether a row was removed.
func (db *DB) DeleteTask(ctx context.Context, id int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting task: %w", err)
	}
	return affected(result)
}

// DeleteCategory permanently deletes a category. Tasks are not touched.
func (db *DB) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting category: %w", err)
	}
	return affected(result)
}

// ListTasks returns all tasks ordered by id
func (db *DB) ListTasks(ctx context.Context) ([]remote.Task, error) {
	query := `
		SELECT id, description, completed, completion_date, category, created_at
		FROM tasks
		ORDER BY id
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	tasks := []remote.Task{}
	for rows.Next() {
		var t Task
		err := rows.Scan(
			&t.ID, &t.Description, &t.Completed, &t.CompletionDate, &t.Category, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t.Remote())
	}

	return tasks, rows.Err()
}

// ListCategories returns all categories ordered by id
func (db *DB) ListCategories(ctx context.Context) ([]remote.Category, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	categories := []remote.Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c.Remote())
	}

	return categories, rows.Err()
}

// CategoryExists reports whether any category has the given name
func (db *DB) CategoryExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE name = ?`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking category: %w", err)
	}
	return count > 0, nil
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return n > 0, nil
}
