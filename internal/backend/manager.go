package backend

import (
	"fmt"
)

// preference is the automatic selection order when no backend is named
var preference = []string{"http", "sqlite", "noop"}

// Manager owns the selected backend
type Manager struct {
	backend Backend
}

// NewManager creates a manager for the named backend. If backendName is
// empty, the first enabled backend in preference order is used, falling
// back to noop.
func NewManager(backendName string, settings Settings) (*Manager, error) {
	return newManager(defaultRegistry, backendName, settings)
}

func newManager(registry *Registry, backendName string, settings Settings) (*Manager, error) {
	log := settings.logger()

	if backendName != "" {
		b, err := registry.Create(backendName, settings)
		if err != nil {
			return nil, fmt.Errorf("creating backend %s: %w", backendName, err)
		}
		if !b.IsEnabled() {
			log.Warn("configured backend is not available", "backend", backendName)
		}
		return &Manager{backend: b}, nil
	}

	for _, name := range preference {
		b, err := registry.Create(name, settings)
		if err != nil {
			continue
		}

		if b.IsEnabled() {
			log.Info("selected task backend", "backend", name)
			return &Manager{backend: b}, nil
		}
		b.Close()
	}

	b, err := registry.Create("noop", settings)
	if err != nil {
		return nil, fmt.Errorf("creating fallback backend: %w", err)
	}
	log.Info("no task backend available, using noop")
	return &Manager{backend: b}, nil
}

// Backend returns the current backend
func (m *Manager) Backend() Backend {
	return m.backend
}

// Name returns the name of the current backend
func (m *Manager) Name() string {
	return m.backend.Name()
}

// IsEnabled returns whether the current backend is enabled
func (m *Manager) IsEnabled() bool {
	return m.backend.IsEnabled()
}

// Close releases the current backend
func (m *Manager) Close() error {
	return m.backend.Close()
}
