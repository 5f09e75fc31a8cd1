package rpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdxmph/tasks-tui/internal/remote"
)

var validate = validator.New()

// NewRouter exposes svc over HTTP
func NewRouter(svc remote.Service, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/rpc", func(r chi.Router) {
		r.Post("/"+remote.OpAddTask, handle(logger, remote.OpAddTask,
			func(ctx context.Context, req addTaskRequest) (remote.Result[int64], error) {
				return svc.AddTask(ctx, req.Description, req.Category)
			}))
		r.Post("/"+remote.OpAddCategory, handle(logger, remote.OpAddCategory,
			func(ctx context.Context, req addCategoryRequest) (remote.Result[int64], error) {
				return svc.AddCategory(ctx, req.Name)
			}))
		r.Post("/"+remote.OpCompleteTask, handle(logger, remote.OpCompleteTask,
			func(ctx context.Context, req idRequest) (remote.Result[remote.Unit], error) {
				return svc.CompleteTask(ctx, *req.ID)
			}))
		r.Post("/"+remote.OpDeleteTask, handle(logger, remote.OpDeleteTask,
			func(ctx context.Context, req idRequest) (remote.Result[remote.Unit], error) {
				return svc.DeleteTask(ctx, *req.ID)
			}))
		r.Post("/"+remote.OpDeleteCategory, handle(logger, remote.OpDeleteCategory,
			func(ctx context.Context, req idRequest) (remote.Result[remote.Unit], error) {
				return svc.DeleteCategory(ctx, *req.ID)
			}))
		r.Post("/"+remote.OpGetTasks, handle(logger, remote.OpGetTasks,
			func(ctx context.Context, _ emptyRequest) (remote.Result[[]remote.Task], error) {
				return svc.GetTasks(ctx)
			}))
		r.Post("/"+remote.OpGetCategories, handle(logger, remote.OpGetCategories,
			func(ctx context.Context, _ emptyRequest) (remote.Result[[]remote.Category], error) {
				return svc.GetCategories(ctx)
			}))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status, err := svc.HealthCheck(r.Context())
		if err != nil {
			logger.Error("health check failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(status)); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// handle decodes the argument object, calls the operation and writes the
// envelope. A fault from the service becomes a 503 so the client retries.
func handle[Req any, T any](logger *slog.Logger, op string, call func(context.Context, Req) (remote.Result[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		reqID := middleware.GetReqID(r.Context())

		var req Req
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Debug("malformed request body", "op", op, "error", err, "request_id", reqID)
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			logger.Debug("invalid request", "op", op, "error", err, "request_id", reqID)
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}

		res, err := call(r.Context(), req)
		if err != nil {
			logger.Error("operation fault", "op", op, "error", err, "request_id", reqID)
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(res); err != nil {
			logger.Error("failed to encode JSON response", "op", op, "error", err, "request_id", reqID)
		}
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
