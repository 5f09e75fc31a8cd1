package db

import (
	"fmt"
	"log/slog"
)

// RunMigrations applies any pending database migrations
func (db *DB) RunMigrations() error {
	if err := db.runCompletionDateMigration(); err != nil {
		return err
	}

	if err := db.runCategoryIndexMigration(); err != nil {
		return err
	}

	return nil
}

// runCompletionDateMigration adds completion_date to databases created before
// completion times were recorded. Completed rows get their creation time as
// the completion date so completed and completion_date stay in step.
func (db *DB) runCompletionDateMigration() error {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*)
		FROM pragma_table_info('tasks')
		WHERE name = 'completion_date'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking for completion_date column: %w", err)
	}

	if count > 0 {
		return nil
	}

	slog.Info("running migration: adding completion_date column")

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`ALTER TABLE tasks ADD COLUMN completion_date TIMESTAMP`)
	if err != nil && err.Error() != "duplicate column name: completion_date" {
		return fmt.Errorf("adding completion_date column: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE tasks
		SET completion_date = COALESCE(created_at, CURRENT_TIMESTAMP)
		WHERE completed = 1 AND completion_date IS NULL
	`)
	if err != nil {
		return fmt.Errorf("backfilling completion dates: %w", err)
	}
	backfilled, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}

	slog.Info("completion_date migration completed", "backfilled", backfilled)
	return nil
}

func (db *DB) runCategoryIndexMigration() error {
	_, err := db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks (category)`)
	if err != nil {
		return fmt.Errorf("creating category index: %w", err)
	}
	return nil
}
