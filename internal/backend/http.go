package backend

import (
	"github.com/pdxmph/tasks-tui/internal/rpc"
)

// HTTPBackend talks to a trackerd server
type HTTPBackend struct {
	*rpc.Client
	url string
}

// NewHTTPBackend creates a backend for the server at settings.RemoteURL
func NewHTTPBackend(settings Settings) Backend {
	return &HTTPBackend{
		Client: rpc.NewClient(settings.RemoteURL, settings.Timeout, settings.logger()),
		url:    settings.RemoteURL,
	}
}

func (h *HTTPBackend) Name() string {
	return "http"
}

// IsEnabled reports whether a server URL is configured
func (h *HTTPBackend) IsEnabled() bool {
	return h.url != ""
}

func init() {
	Register("http", NewHTTPBackend)
}
