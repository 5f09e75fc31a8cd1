// Package retry runs remote operations with bounded retries and exponential
// backoff.
//
// Only faults (a non-nil error) are retried. A value that reports a business
// failure, such as an Err result envelope, is returned to the caller on the
// attempt that produced it.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// DefaultMaxAttempts is the number of tries, including the first one
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the wait after the first failed attempt
	DefaultBaseDelay = time.Second

	// MaxDelay caps a single backoff wait
	MaxDelay = 5 * time.Minute
)

// ErrExhausted wraps the last fault once every attempt has failed
var ErrExhausted = errors.New("retries exhausted")

var (
	attemptCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_retry_attempts_total",
			Help: "Total number of remote call attempts",
		},
		[]string{"op", "status"},
	)

	backoffCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_retry_backoffs_total",
			Help: "Total number of backoff waits before a retry",
		},
		[]string{"op"},
	)

	exhaustedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_retry_exhausted_total",
			Help: "Total number of calls that failed on every attempt",
		},
		[]string{"op"},
	)
)

// Policy bounds the retry loop
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultPolicy returns three attempts with a one second base delay
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Delay returns the wait after the given zero-based failed attempt, capped
// at MaxDelay
func (p Policy) Delay(attempt int) time.Duration {
	if p.BaseDelay >= MaxDelay {
		return MaxDelay
	}
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d <<= 1
		if d >= MaxDelay {
			return MaxDelay
		}
	}
	return d
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Executor applies a Policy to operations
type Executor struct {
	policy Policy
	logger *slog.Logger
	sleep  SleepFunc
}

// New creates an executor. Invalid policy values fall back to the defaults.
func New(policy Policy, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	if policy.MaxAttempts < 1 {
		logger.Warn("invalid max attempts, using default",
			"configured", policy.MaxAttempts,
			"default", DefaultMaxAttempts)
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.BaseDelay <= 0 {
		logger.Warn("invalid base delay, using default",
			"configured", policy.BaseDelay,
			"default", DefaultBaseDelay)
		policy.BaseDelay = DefaultBaseDelay
	}

	return &Executor{
		policy: policy,
		logger: logger,
		sleep:  sleepContext,
	}
}

// WithSleep returns a copy of the executor that waits with fn
func (e *Executor) WithSleep(fn SleepFunc) *Executor {
	cp := *e
	cp.sleep = fn
	return &cp
}

// Policy returns the effective policy
func (e *Executor) Policy() Policy {
	return e.policy
}

// Do calls fn until it returns a nil error or the attempts run out.
//
// After a failed attempt n (counting from zero) it waits BaseDelay * 2^n. The
// final failure is returned wrapped in ErrExhausted. Cancelling ctx stops the
// loop during a wait.
func Do[T any](ctx context.Context, e *Executor, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := e.policy.MaxAttempts

	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			attemptCount.WithLabelValues(op, "success").Inc()
			if attempt > 0 {
				e.logger.InfoContext(ctx, "remote call recovered",
					"op", op,
					"attempt", attempt+1)
			}
			return v, nil
		}
		attemptCount.WithLabelValues(op, "fault").Inc()

		if attempt+1 >= maxAttempts {
			exhaustedCount.WithLabelValues(op).Inc()
			e.logger.WarnContext(ctx, "remote call failed on every attempt",
				"op", op,
				"attempts", maxAttempts,
				"error", err)
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, maxAttempts, err)
		}

		delay := e.policy.Delay(attempt)
		backoffCount.WithLabelValues(op).Inc()
		e.logger.InfoContext(ctx, "remote call failed, retrying after delay",
			"op", op,
			"attempt", attempt+1,
			"max_attempts", maxAttempts,
			"delay", delay,
			"error", err)

		if err := e.sleep(ctx, delay); err != nil {
			e.logger.WarnContext(ctx, "retry cancelled during backoff",
				"op", op,
				"attempt", attempt+1,
				"ctx_err", err)
			return zero, fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
