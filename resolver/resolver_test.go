package resolver

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/loadstate/errors"
	"github.com/c360/loadstate/statestore"
)

func newStore(t *testing.T, ids ...string) *statestore.Store {
	t.Helper()
	store := statestore.NewStore(nil)
	for _, id := range ids {
		require.NoError(t, store.Register(statestore.Config{
			ID:       id,
			Timeout:  time.Second,
			Priority: statestore.PriorityMedium,
		}))
	}
	return store
}

func TestWaitFor_NoDependencies(t *testing.T) {
	r := New(newStore(t), 0, nil)
	assert.NoError(t, r.WaitFor(context.Background(), nil, time.Second))
}

func TestWaitFor_UnknownDependency(t *testing.T) {
	r := New(newStore(t, "a"), 0, nil)

	err := r.WaitFor(context.Background(), []string{"a", "ghost"}, time.Second)
	require.Error(t, err)

	var de *errors.DependencyError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "ghost", de.DependencyID)
	assert.ErrorIs(t, err, errors.ErrUnknownComponent)
}

func TestWaitFor_IdleDependencyIsReady(t *testing.T) {
	// A dependency that has never been started counts as ready. This
	// mirrors the upstream behavior on purpose; see DESIGN.md.
	r := New(newStore(t, "never-run"), 0, nil)

	start := time.Now()
	err := r.WaitFor(context.Background(), []string{"never-run"}, time.Second)

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond, "idle dependency should resolve immediately")
}

func TestWaitFor_SucceededDependency(t *testing.T) {
	store := newStore(t, "dep")
	_, err := store.Update("dep", statestore.SetLoading(false), statestore.SetProgress(100), statestore.SetStage("complete"))
	require.NoError(t, err)

	r := New(store, 0, nil)
	assert.NoError(t, r.WaitFor(context.Background(), []string{"dep"}, time.Second))
}

func TestWaitFor_FailedDependencyPropagatesError(t *testing.T) {
	store := newStore(t, "dep")
	cause := stderrors.New("dep exploded")
	_, err := store.Update("dep", statestore.SetError(cause))
	require.NoError(t, err)

	r := New(store, 0, nil)
	err = r.WaitFor(context.Background(), []string{"dep"}, time.Second)

	require.Error(t, err)
	var de *errors.DependencyError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "dep", de.DependencyID)
	assert.ErrorIs(t, err, cause)
}

func TestWaitFor_WaitsForCompletion(t *testing.T) {
	store := newStore(t, "dep")
	_, err := store.Update("dep", statestore.SetLoading(true), statestore.SetStage("working"))
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = store.Update("dep", statestore.SetLoading(false), statestore.SetProgress(100))
	}()

	r := New(store, 0, nil)
	start := time.Now()
	err = r.WaitFor(context.Background(), []string{"dep"}, time.Second)

	assert.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitFor_ConcurrentDependencies(t *testing.T) {
	store := newStore(t, "a", "b", "c")
	for _, id := range []string{"a", "b", "c"} {
		_, err := store.Update(id, statestore.SetLoading(true))
		require.NoError(t, err)
	}

	// All three complete after the same delay; a sequential wait would
	// take 3x as long.
	for _, id := range []string{"a", "b", "c"} {
		go func(id string) {
			time.Sleep(50 * time.Millisecond)
			_, _ = store.Update(id, statestore.SetLoading(false))
		}(id)
	}

	r := New(store, 0, nil)
	start := time.Now()
	err := r.WaitFor(context.Background(), []string{"a", "b", "c"}, time.Second)

	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 140*time.Millisecond, "dependencies should be awaited concurrently")
}

func TestWaitFor_FailFast(t *testing.T) {
	store := newStore(t, "fast-fail", "slow")
	_, err := store.Update("slow", statestore.SetLoading(true))
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = store.Update("fast-fail", statestore.SetError(stderrors.New("boom")))
	}()

	r := New(store, 0, nil)
	start := time.Now()
	err = r.WaitFor(context.Background(), []string{"fast-fail", "slow"}, 10*time.Second)

	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second, "first failure should cut the wait short")

	var de *errors.DependencyError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "fast-fail", de.DependencyID)
}

func TestWaitFor_ResolverTimeout(t *testing.T) {
	store := newStore(t, "stuck")
	_, err := store.Update("stuck", statestore.SetLoading(true))
	require.NoError(t, err)

	r := New(store, 50*time.Millisecond, nil)
	err = r.WaitFor(context.Background(), []string{"stuck"}, 10*time.Second)

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDependencyTimeout)
}

func TestWaitFor_PerDependencyTimeout(t *testing.T) {
	store := newStore(t, "stuck")
	_, err := store.Update("stuck", statestore.SetLoading(true))
	require.NoError(t, err)

	r := New(store, 10*time.Second, nil)
	err = r.WaitFor(context.Background(), []string{"stuck"}, 50*time.Millisecond)

	require.Error(t, err)
	var de *errors.DependencyError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, errors.ErrDependencyTimeout)
}
