package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/pdxmph/tasks-tui/internal/remote"
)

// maxErrorBody bounds how much of a non-200 body ends up in a StatusError
const maxErrorBody = 512

// Client calls a remote task service. Every failure to obtain an envelope
// (network, status, decoding) is returned as an error.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

var _ remote.Service = (*Client)(nil)

// NewClient creates a client for the service at baseURL. A zero timeout
// disables the per-request deadline.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// BaseURL returns the service address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// AddTask posts addTask and returns the envelope the server sent
func (c *Client) AddTask(ctx context.Context, description, category string) (remote.Result[int64], error) {
	return call[int64](ctx, c, remote.OpAddTask, addTaskRequest{Description: description, Category: category})
}

func (c *Client) AddCategory(ctx context.Context, name string) (remote.Result[int64], error) {
	return call[int64](ctx, c, remote.OpAddCategory, addCategoryRequest{Name: name})
}

func (c *Client) CompleteTask(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	return call[remote.Unit](ctx, c, remote.OpCompleteTask, idRequest{ID: &id})
}

func (c *Client) DeleteTask(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	return call[remote.Unit](ctx, c, remote.OpDeleteTask, idRequest{ID: &id})
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) (remote.Result[remote.Unit], error) {
	return call[remote.Unit](ctx, c, remote.OpDeleteCategory, idRequest{ID: &id})
}

func (c *Client) GetTasks(ctx context.Context) (remote.Result[[]remote.Task], error) {
	return call[[]remote.Task](ctx, c, remote.OpGetTasks, emptyRequest{})
}

func (c *Client) GetCategories(ctx context.Context) (remote.Result[[]remote.Category], error) {
	return call[[]remote.Category](ctx, c, remote.OpGetCategories, emptyRequest{})
}

// HealthCheck returns the status text of the service
func (c *Client) HealthCheck(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return "", fmt.Errorf("%s: building request: %w", remote.OpHealthCheck, err)
	}
	req.Header.Set(middleware.RequestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", remote.OpHealthCheck, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return "", fmt.Errorf("%s: reading response: %w", remote.OpHealthCheck, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Op: remote.OpHealthCheck, Code: resp.StatusCode, Detail: strings.TrimSpace(string(body))}
	}

	return strings.TrimSpace(string(body)), nil
}

func call[T any](ctx context.Context, c *Client, op string, args any) (remote.Result[T], error) {
	var zero remote.Result[T]

	payload, err := json.Marshal(args)
	if err != nil {
		return zero, fmt.Errorf("%s: encoding arguments: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+op, bytes.NewReader(payload))
	if err != nil {
		return zero, fmt.Errorf("%s: building request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, reqID)

	c.logger.Debug("calling service", "op", op, "request_id", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return zero, &StatusError{Op: op, Code: resp.StatusCode, Detail: strings.TrimSpace(string(detail))}
	}

	var res remote.Result[T]
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return zero, fmt.Errorf("%s: decoding response: %w", op, err)
	}

	return res, nil
}
