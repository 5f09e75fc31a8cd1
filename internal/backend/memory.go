package backend

import (
	"github.com/pdxmph/tasks-tui/internal/tracker"
)

// MemoryBackend runs the tracker in process and forgets everything on exit.
// It is never chosen automatically.
type MemoryBackend struct {
	*tracker.Service
}

// NewMemoryBackend creates a backend that keeps tasks in memory for the process lifetime
func NewMemoryBackend(settings Settings) Backend {
	svc := tracker.New(tracker.NewMemoryStore(), settings.logger(), tracker.Options{
		StrictCategories: settings.StrictCategories,
	})
	return &MemoryBackend{Service: svc}
}

func (m *MemoryBackend) Name() string {
	return "memory"
}

func (m *MemoryBackend) IsEnabled() bool {
	return true
}

func (m *MemoryBackend) Close() error {
	return nil
}

func init() {
	Register("memory", NewMemoryBackend)
}
