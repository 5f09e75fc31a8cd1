package backend

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pdxmph/tasks-tui/internal/db"
	"github.com/pdxmph/tasks-tui/internal/remote"
	"github.com/pdxmph/tasks-tui/internal/tracker"
)

// SQLiteBackend runs the tracker in process over a local database. The
// database is opened on first use.
type SQLiteBackend struct {
	path   string
	strict bool
	logger *slog.Logger

	mu     sync.Mutex
	db     *db.DB
	svc    *tracker.Service
	closed bool
}

// NewSQLiteBackend creates a backend over the database at settings.DatabasePath
func NewSQLiteBackend(settings Settings) Backend {
	return &SQLiteBackend{
		path:   settings.DatabasePath,
		strict: settings.StrictCategories,
		logger: settings.logger(),
	}
}

func (s *SQLiteBackend) Name() string {
	return "sqlite"
}

// IsEnabled reports whether the database file exists
func (s *SQLiteBackend) IsEnabled() bool {
	return s.path != "" && db.Exists(s.path)
}

func (s *SQLiteBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.svc = nil
	return err
}

// service opens the database on first successful use. A failed open is
// returned as a fault and tried again on the next call, so a database
// created after start-up is picked up.
func (s *SQLiteBackend) service() (*tracker.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errClosed
	}
	if s.svc != nil {
		return s.svc, nil
	}

	database, err := db.Open(s.path)
	if err != nil {
		return nil, err
	}
	s.db = database
	s.svc = tracker.New(database, s.logger, tracker.Options{StrictCategories: s.strict})
	return s.svc, nil
}

func (s *SQLiteBackend) AddTask(ctx context.Context, description, category string) (remote.Result[int64], error) {
	svc, err := s.service()
	if err != nil {
		return remote.Result[int64]{}, err
	}
	return svc.AddTask(ctx, description, category)
}

func (s *SQLiteBackend) AddCategory(ctx context.Context, name string) (remote.Result[int64], error) {
	svc, err := s.service()
	if err != nil {
		return remote.Result[int64]{}, err
	}
	return svc.AddCategory(ctx, name)
}

func (s *SQLiteBackend) CompleteTask(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	svc, err := s.service()
	if err != nil {
		return remote.Result[remote.Unit]{}, err
	}
	return svc.CompleteTask(ctx, id)
}

func (s *SQLiteBackend) DeleteTask(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	svc, err := s.service()
	if err != nil {
		return remote.Result[remote.Unit]{}, err
	}
	return svc.DeleteTask(ctx, id)
}

func (s *SQLiteBackend) DeleteCategory(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	svc, err := s.service()
	if err != nil {
		return remote.Result[remote.Unit]{}, err
	}
	return svc.DeleteCategory(ctx, id)
}

func (s *SQLiteBackend) GetTasks(ctx context.Context) (remote.Result[[]remote.Task], error) {
	svc, err := s.service()
	if err != nil {
		return remote.Result[[]remote.Task]{}, err
	}
	return svc.GetTasks(ctx)
}

func (s *SQLiteBackend) GetCategories(ctx context.Context) (remote.Result[[]remote.Category], error) {
	svc, err := s.service()
	if err != nil {
		return remote.Result[[]remote.Category]{}, err
	}
	return svc.GetCategories(ctx)
}

func (s *SQLiteBackend) HealthCheck(ctx context.Context) (string, error) {
	svc, err := s.service()
	if err != nil {
		return "", err
	}
	return svc.HealthCheck(ctx)
}

func init() {
	Register("sqlite", NewSQLiteBackend)
}
