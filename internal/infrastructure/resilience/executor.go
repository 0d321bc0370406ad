// Package resilience wraps calls to upstream services with bounded retries
// and a per-operation circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// StateListener is notified when an operation's breaker changes state.
type StateListener func(operation string, from, to gobreaker.State)

type Executor struct {
	cfg      Config
	logger   *slog.Logger
	listener StateListener

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

type Option func(*Executor)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithStateListener(listener StateListener) Option {
	return func(e *Executor) {
		e.listener = listener
	}
}

func NewExecutor(cfg Config, opts ...Option) *Executor {
	e := &Executor{
		cfg:      cfg.normalize(),
		logger:   slog.Default(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Do runs fn through the executor and returns its value.
func Do[T any](ctx context.Context, e *Executor, operation string, fn func(context.Context) (T, error), classifier ErrorClassifier) (T, error) {
	var out T
	err := e.Execute(ctx, operation, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, classifier)
	return out, err
}

func (e *Executor) Execute(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classifier ErrorClassifier,
) error {
	if fn == nil {
		return fmt.Errorf("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classifier == nil {
		classifier = defaultClassifier
	}

	if !e.cfg.BreakerEnabled {
		return e.executeWithRetry(ctx, op, fn, classifier)
	}

	breaker := e.circuitBreaker(op, classifier)
	_, err := breaker.Execute(func() (any, error) {
		return nil, e.executeWithRetry(ctx, op, fn, classifier)
	})
	return err
}

func (e *Executor) executeWithRetry(
	ctx context.Context,
	operation string,
	fn func(context.Context) error,
	classifier ErrorClassifier,
) error {
	backoff := e.cfg.RetryInitialBackoff

	var lastErr error
	for attempt := 1; attempt <= e.cfg.RetryMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !classifier(lastErr).Retryable || attempt == e.cfg.RetryMaxAttempts {
			return lastErr
		}

		wait := min(backoff, e.cfg.RetryMaxBackoff)
		e.logger.Warn("upstream_retry",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", e.cfg.RetryMaxAttempts,
			"backoff_ms", wait.Milliseconds(),
			"error", lastErr,
		)
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return lastErr
			case <-timer.C:
			}
		}
		backoff = min(time.Duration(float64(backoff)*e.cfg.RetryMultiplier), e.cfg.RetryMaxBackoff)
	}
	return lastErr
}

func (e *Executor) circuitBreaker(operation string, classifier ErrorClassifier) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.cfg.BreakerHalfOpenMaxCalls,
		Timeout:     e.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= e.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classifier(err).RecordFailure
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			e.logger.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
			if e.listener != nil {
				e.listener(name, from, to)
			}
		},
	}

	breaker := gobreaker.NewCircuitBreaker[any](settings)
	e.breakers[operation] = breaker
	return breaker
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func defaultClassifier(error) ErrorClassification {
	return ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}
