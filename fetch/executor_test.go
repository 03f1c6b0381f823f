package fetch

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/loadstate/errors"
	"github.com/c360/loadstate/statestore"
)

func execConfig(maxRetries int) statestore.Config {
	return statestore.Config{
		ID:         "test",
		Timeout:    200 * time.Millisecond,
		MaxRetries: maxRetries,
		RetryDelay: 10 * time.Millisecond,
		Priority:   statestore.PriorityHigh,
	}
}

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	executor := NewExecutor(nil)

	result, err := executor.Execute(context.Background(), SourceSpec{
		ID: "usd",
		Fetch: func(context.Context) (any, error) {
			return 42.5, nil
		},
	}, execConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 42.5, result.Value)
	assert.Equal(t, 1, result.Attempts)
	assert.False(t, result.UsedFallback)
}

func TestExecute_RetryBound(t *testing.T) {
	executor := NewExecutor(nil)

	var attempts atomic.Int32
	_, err := executor.Execute(context.Background(), SourceSpec{
		ID: "usd",
		Fetch: func(context.Context) (any, error) {
			attempts.Add(1)
			return nil, stderrors.New("always fails")
		},
	}, execConfig(2))

	require.Error(t, err)
	// One initial attempt + MaxRetries retries
	assert.Equal(t, int32(3), attempts.Load())

	var fe *errors.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "usd", fe.SourceID)
	assert.Equal(t, 3, fe.Attempts)
}

func TestExecute_SuccessAfterRetries(t *testing.T) {
	executor := NewExecutor(nil)

	var attempts atomic.Int32
	result, err := executor.Execute(context.Background(), SourceSpec{
		ID: "usd",
		Fetch: func(context.Context) (any, error) {
			if attempts.Add(1) < 3 {
				return nil, stderrors.New("flaky")
			}
			return "ok", nil
		},
	}, execConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "ok", result.Value)
	assert.Equal(t, 3, result.Attempts)
}

func TestExecute_BackoffTiming(t *testing.T) {
	executor := NewExecutor(nil)

	start := time.Now()
	_, err := executor.Execute(context.Background(), SourceSpec{
		ID: "usd",
		Fetch: func(context.Context) (any, error) {
			return nil, stderrors.New("fails")
		},
	}, statestore.Config{
		ID:         "test",
		Timeout:    time.Second,
		MaxRetries: 2,
		RetryDelay: 20 * time.Millisecond,
		Priority:   statestore.PriorityHigh,
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	// Sleeps: 20ms * 2^0 + 20ms * 2^1 = 60ms minimum
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestExecute_AttemptTimeout(t *testing.T) {
	executor := NewExecutor(nil)

	result, err := executor.Execute(context.Background(), SourceSpec{
		ID: "slow",
		Fetch: func(ctx context.Context) (any, error) {
			select {
			case <-time.After(5 * time.Second):
				return "too late", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}, statestore.Config{
		ID:         "test",
		Timeout:    30 * time.Millisecond,
		MaxRetries: 1,
		RetryDelay: 5 * time.Millisecond,
		Priority:   statestore.PriorityHigh,
	})

	require.Error(t, err)
	assert.Equal(t, 2, result.Attempts, "timed-out attempts count as failed attempts")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecute_FallbackSuccessOverridesPrimaryFailure(t *testing.T) {
	executor := NewExecutor(nil)

	var primaryAttempts, fallbackCalls atomic.Int32
	result, err := executor.Execute(context.Background(), SourceSpec{
		ID: "usd",
		Fetch: func(context.Context) (any, error) {
			primaryAttempts.Add(1)
			return nil, stderrors.New("primary down")
		},
		Fallback: func(context.Context) (any, error) {
			fallbackCalls.Add(1)
			return 0, nil // empty/zero value still counts as success
		},
	}, execConfig(2))

	require.NoError(t, err)
	assert.Equal(t, 0, result.Value)
	assert.True(t, result.UsedFallback)
	assert.Equal(t, int32(3), primaryAttempts.Load())
	assert.Equal(t, int32(1), fallbackCalls.Load(), "fallback invoked exactly once, not retried")
}

func TestExecute_FallbackFailureSurfacesPrimaryError(t *testing.T) {
	executor := NewExecutor(nil)

	primaryErr := stderrors.New("primary cause")
	fallbackErr := stderrors.New("fallback cause")

	_, err := executor.Execute(context.Background(), SourceSpec{
		ID: "usd",
		Fetch: func(context.Context) (any, error) {
			return nil, primaryErr
		},
		Fallback: func(context.Context) (any, error) {
			return nil, fallbackErr
		},
	}, execConfig(1))

	require.Error(t, err)
	assert.ErrorIs(t, err, primaryErr, "original primary error must surface")
	assert.NotErrorIs(t, err, fallbackErr, "fallback error must never surface")
}

func TestExecute_InvalidErrorStopsRetrying(t *testing.T) {
	executor := NewExecutor(nil)

	var attempts atomic.Int32
	_, err := executor.Execute(context.Background(), SourceSpec{
		ID: "usd",
		Fetch: func(context.Context) (any, error) {
			attempts.Add(1)
			return nil, errors.WrapInvalid(stderrors.New("bad request"), "source", "fetch", "validation")
		},
	}, execConfig(5))

	require.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load(), "invalid errors should not be retried")
}

func TestExecute_ContextCancellation(t *testing.T) {
	executor := NewExecutor(nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	var attempts atomic.Int32
	_, err := executor.Execute(ctx, SourceSpec{
		ID: "usd",
		Fetch: func(context.Context) (any, error) {
			attempts.Add(1)
			return nil, stderrors.New("fails")
		},
	}, statestore.Config{
		ID:         "test",
		Timeout:    time.Second,
		MaxRetries: 10,
		RetryDelay: 50 * time.Millisecond,
		Priority:   statestore.PriorityHigh,
	})

	require.Error(t, err)
	assert.Less(t, attempts.Load(), int32(11), "cancellation should cut the retry loop short")
}

func TestSourceSpec_Validate(t *testing.T) {
	fetcher := func(context.Context) (any, error) { return nil, nil }

	tests := []struct {
		name    string
		spec    SourceSpec
		wantErr bool
	}{
		{"valid", SourceSpec{ID: "x", Fetch: fetcher}, false},
		{"valid cached", SourceSpec{ID: "x", Fetch: fetcher, Cache: true, CacheTTL: time.Minute}, false},
		{"empty id", SourceSpec{Fetch: fetcher}, true},
		{"nil fetch", SourceSpec{ID: "x"}, true},
		{"cache without ttl", SourceSpec{ID: "x", Fetch: fetcher, Cache: true}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.spec.Validate()
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
