// Package cli holds the tasks-tui command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pdxmph/tasks-tui/internal/backend"
	"github.com/pdxmph/tasks-tui/internal/config"
	"github.com/pdxmph/tasks-tui/internal/controller"
	"github.com/pdxmph/tasks-tui/internal/logging"
	"github.com/pdxmph/tasks-tui/internal/retry"
	"github.com/pdxmph/tasks-tui/internal/tui"
)

type options struct {
	configPath string
	backend    string
	remoteURL  string
}

// NewRootCmd builds the tasks-tui command tree
func NewRootCmd(version string) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "tasks-tui",
		Short: "Terminal client for the task tracker",
		Long: `tasks-tui keeps a list of tasks and categories in a task service.

It talks to a trackerd server when remote.url is set, otherwise it uses a
local sqlite database if one exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.Path(), "Path to the config file")
	rootCmd.Flags().StringVar(&opts.backend, "backend", "", "Task backend: "+fmt.Sprint(backend.ListBackends()))
	rootCmd.Flags().StringVar(&opts.remoteURL, "url", "", "trackerd URL, overrides remote.url")

	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func runTUI(ctx context.Context, opts *options) error {
	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if opts.remoteURL != "" {
		cfg.Remote.URL = opts.remoteURL
	}

	// The terminal belongs to the UI, so logs always go to a file
	logCfg := cfg.Log
	if logCfg.File == "" {
		logCfg.File = config.DefaultLogPath()
	}
	logger, closer, err := logging.Setup(logCfg, io.Discard)
	if err != nil {
		return err
	}
	defer closer.Close()

	manager, err := backend.NewManager(cfg.Backend, backend.Settings{
		RemoteURL:        cfg.Remote.URL,
		Timeout:          cfg.Remote.Timeout.Duration,
		DatabasePath:     cfg.Database.Path,
		StrictCategories: cfg.Database.StrictCategories,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	exec := retry.New(retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay.Duration,
	}, logger)
	ctrl := controller.New(manager.Backend(), exec, logger, controller.Options{
		NoticeTTL: cfg.Sync.NoticeTTL.Duration,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Metrics.Addr != "" {
		stopMetrics := serveMetrics(cfg.Metrics.Addr, logger)
		defer stopMetrics()
	}

	logger.Info("starting tasks-tui", "backend", manager.Name())

	p := tea.NewProgram(tui.New(ctx, ctrl), tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return nil
}

// serveMetrics exposes the client's retry counters and returns a stop function
func serveMetrics(addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("metrics server shutdown failed", "error", err)
		}
	}
}
