package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdxmph/tasks-tui/internal/config"
	"github.com/pdxmph/tasks-tui/internal/db"
	"github.com/pdxmph/tasks-tui/internal/logging"
	"github.com/pdxmph/tasks-tui/internal/rpc"
	"github.com/pdxmph/tasks-tui/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger, closer, err := logging.Setup(cfg.Log, os.Stderr)
			if err != nil {
				return err
			}
			defer closer.Close()

			listener, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.Server.Addr, err)
			}

			return serve(cmd.Context(), listener, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")

	return cmd
}

// serve runs the API on listener until ctx is cancelled, then shuts down
// gracefully
func serve(ctx context.Context, listener net.Listener, cfg *config.Config, logger *slog.Logger) error {
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		listener.Close()
		return err
	}
	defer database.Close()

	svc := tracker.New(database, logger, tracker.Options{
		StrictCategories: cfg.Database.StrictCategories,
	})

	server := &http.Server{
		Handler:           rpc.NewRouter(svc, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", listener.Addr().String(),
			"database", database.Path(),
			"strict_categories", cfg.Database.StrictCategories)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			errCh <- err
			cancelServer()
		}
	}()

	<-serverCtx.Done()
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	default:
	}

	logger.Info("server shutdown completed")
	return nil
}
