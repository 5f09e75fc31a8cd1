// Package backend selects the task service the client talks to: a remote
// tracker over HTTP, a local sqlite database, process memory, or nothing.
package backend

import (
	"log/slog"
	"time"

	"github.com/pdxmph/tasks-tui/internal/remote"
)

// Backend is a task service plus its lifecycle
type Backend interface {
	remote.Service

	// Name returns the backend identifier (e.g., "http", "sqlite")
	Name() string

	// IsEnabled checks if the backend is available and properly configured
	IsEnabled() bool

	// Close releases connections or files held by the backend
	Close() error
}

// Settings carries what a factory needs to build a backend
type Settings struct {
	RemoteURL        string
	Timeout          time.Duration
	DatabasePath     string
	StrictCategories bool
	Logger           *slog.Logger
}

func (s Settings) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// BackendFactory is a function that creates a new instance of a Backend
type BackendFactory func(Settings) Backend
