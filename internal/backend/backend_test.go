package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/tasks-tui/internal/db"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	factory := func(Settings) Backend { return NewNoopBackend() }

	require.NoError(t, r.Register("noop", factory))
	assert.Error(t, r.Register("noop", factory))

	b, err := r.Create("noop", Settings{})
	require.NoError(t, err)
	assert.Equal(t, "noop", b.Name())

	_, err = r.Create("taskwarrior", Settings{})
	assert.ErrorIs(t, err, ErrNotRegistered)

	require.NoError(t, r.Register("http", factory))
	assert.Equal(t, []string{"http", "noop"}, r.List())
}

func TestBuiltinBackendsRegistered(t *testing.T) {
	assert.Equal(t, []string{"http", "memory", "noop", "sqlite"}, ListBackends())

	b, err := CreateBackend("memory", Settings{Logger: quietLogger})
	require.NoError(t, err)
	defer b.Close()
	assert.True(t, b.IsEnabled())
}

func TestManagerPreference(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	missingPath := filepath.Join(t.TempDir(), "missing.db")
	require.NoError(t, db.Initialize(dbPath))

	tests := []struct {
		name     string
		settings Settings
		want     string
	}{
		{"remote url wins", Settings{RemoteURL: "http://localhost:8080", DatabasePath: dbPath}, "http"},
		{"existing database", Settings{DatabasePath: dbPath}, "sqlite"},
		{"nothing configured", Settings{DatabasePath: missingPath}, "noop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.settings.Logger = quietLogger
			m, err := NewManager("", tt.settings)
			require.NoError(t, err)
			defer m.Close()

			assert.Equal(t, tt.want, m.Name())
		})
	}
}

func TestManagerNamedBackend(t *testing.T) {
	m, err := NewManager("memory", Settings{Logger: quietLogger})
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, "memory", m.Name())
	assert.True(t, m.IsEnabled())

	_, err = NewManager("dstask", Settings{Logger: quietLogger})
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestNoopBackend(t *testing.T) {
	b := NewNoopBackend()
	ctx := context.Background()

	assert.False(t, b.IsEnabled())

	res, err := b.AddTask(ctx, "Buy milk", "Home")
	require.NoError(t, err)
	assert.Equal(t, noBackendMessage, res.Message())

	tasks, err := b.GetTasks(ctx)
	require.NoError(t, err)
	assert.True(t, tasks.IsOk())
	assert.Empty(t, tasks.Value())
}

func TestSQLiteBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	require.NoError(t, db.Initialize(dbPath))

	b := NewSQLiteBackend(Settings{DatabasePath: dbPath, Logger: quietLogger})
	defer b.Close()
	ctx := context.Background()

	require.True(t, b.IsEnabled())

	id, err := b.AddTask(ctx, "Buy milk", "Home")
	require.NoError(t, err)
	require.True(t, id.IsOk())

	done, err := b.CompleteTask(ctx, id.Value())
	require.NoError(t, err)
	assert.True(t, done.IsOk())

	tasks, err := b.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks.Value(), 1)
	assert.True(t, tasks.Value()[0].Completed)

	status, err := b.HealthCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
}

func TestSQLiteBackendMissingDatabaseIsFault(t *testing.T) {
	b := NewSQLiteBackend(Settings{DatabasePath: filepath.Join(t.TempDir(), "missing.db"), Logger: quietLogger})

	assert.False(t, b.IsEnabled())

	_, err := b.GetTasks(context.Background())
	assert.Error(t, err)
}

func TestSQLiteBackendOpensDatabaseCreatedLater(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	b := NewSQLiteBackend(Settings{DatabasePath: dbPath, Logger: quietLogger})
	defer b.Close()
	ctx := context.Background()

	_, err := b.GetTasks(ctx)
	require.ErrorContains(t, err, "trackerd init")

	require.NoError(t, db.Initialize(dbPath))

	tasks, err := b.GetTasks(ctx)
	require.NoError(t, err)
	assert.True(t, tasks.IsOk())

	require.NoError(t, b.Close())
	_, err = b.GetTasks(ctx)
	assert.ErrorIs(t, err, errClosed)
}

func TestStrictCategoriesReachTheService(t *testing.T) {
	b := NewMemoryBackend(Settings{StrictCategories: true, Logger: quietLogger})

	res, err := b.AddTask(context.Background(), "Buy milk", "Home")
	require.NoError(t, err)
	assert.Equal(t, "category not found: Home", res.Message())
}
