package fetch

import (
	"context"
	"log/slog"
	"time"

	"github.com/c360/loadstate/errors"
	"github.com/c360/loadstate/statestore"
)

// Fetcher is a single side-effect-free read supplied by the caller.
type Fetcher func(ctx context.Context) (any, error)

// SourceSpec describes one fetchable unit within a component's load call.
type SourceSpec struct {
	// ID is unique within a single load call and doubles as the cache key.
	ID string

	// Fetch is the primary producer.
	Fetch Fetcher

	// Cache enables TTL caching of successful results.
	Cache bool

	// CacheTTL is required when Cache is true.
	CacheTTL time.Duration

	// Fallback, if present, is invoked once after the primary's retry
	// budget is exhausted. It is not timed and not retried.
	Fallback Fetcher
}

// Validate checks the spec is executable.
func (s SourceSpec) Validate() error {
	if s.ID == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "SourceSpec", "Validate", "empty source id")
	}
	if s.Fetch == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "SourceSpec", "Validate", "nil fetch func")
	}
	if s.Cache && s.CacheTTL <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "SourceSpec", "Validate",
			"cache enabled without positive ttl")
	}
	return nil
}

// Result is the outcome of executing one source.
type Result struct {
	// Value is the fetched payload; may be a zero value when the fallback
	// legitimately produced nothing.
	Value any

	// UsedFallback reports that the primary exhausted its budget and the
	// fallback supplied the value.
	UsedFallback bool

	// Attempts is the number of primary attempts made.
	Attempts int
}

// Executor runs source fetches. It holds no mutable state; one executor
// serves arbitrarily many concurrent loads.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger.With("component", "fetch")}
}

// Execute runs the source's primary fetch under the component's retry
// policy, falling back once on exhaustion. The returned error is always a
// *errors.FetchError wrapping the last primary attempt's cause.
func (e *Executor) Execute(ctx context.Context, spec SourceSpec, cfg statestore.Config) (Result, error) {
	if err := spec.Validate(); err != nil {
		return Result{}, err
	}

	maxAttempts := cfg.MaxRetries + 1
	var lastErr error
	attempts := 0

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		attempts++
		value, err := e.attempt(ctx, spec.Fetch, cfg.Timeout)
		if err == nil {
			return Result{Value: value, Attempts: attempts}, nil
		}
		lastErr = err

		e.logger.Debug("fetch attempt failed",
			"source", spec.ID,
			"attempt", attempts,
			"max_attempts", maxAttempts,
			"error", err)

		// Invalid input will not get better with retries
		if errors.IsInvalid(err) {
			break
		}

		if attempt == maxAttempts-1 {
			break
		}

		if err := e.backoff(ctx, cfg.RetryDelay, attempt); err != nil {
			lastErr = err
			break
		}
	}

	if spec.Fallback != nil {
		value, err := spec.Fallback(ctx)
		if err == nil {
			// Fallback success always wins, even with a zero value:
			// "no data available" beats "ran out of time".
			e.logger.Warn("primary fetch exhausted, fallback used",
				"source", spec.ID,
				"attempts", attempts)
			return Result{Value: value, UsedFallback: true, Attempts: attempts}, nil
		}
		// The fallback's own error is never surfaced
		e.logger.Warn("fallback failed, surfacing primary error",
			"source", spec.ID,
			"fallback_error", err)
	}

	return Result{Attempts: attempts}, errors.NewFetchError(spec.ID, attempts, lastErr)
}

// attempt runs one fetch bounded by the per-attempt timeout. A fetch that
// outlives its context is abandoned: its goroutine finishes in the
// background but the result channel is buffered so it never leaks blocked.
func (e *Executor) attempt(ctx context.Context, fn Fetcher, timeout time.Duration) (any, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		value, err := fn(attemptCtx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-attemptCtx.Done():
		return nil, errors.WrapTransient(attemptCtx.Err(), "Executor", "attempt", "fetch timeout")
	}
}

// backoff sleeps delay * 2^attempt with context cancellation support.
func (e *Executor) backoff(ctx context.Context, delay time.Duration, attempt int) error {
	if delay <= 0 {
		return nil
	}

	sleep := delay << uint(attempt)
	timer := time.NewTimer(sleep)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return errors.WrapTransient(ctx.Err(), "Executor", "backoff", "retry cancelled")
	case <-timer.C:
		return nil
	}
}
