package resolver

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/c360/loadstate/errors"
	"github.com/c360/loadstate/statestore"
)

// DefaultTimeout is the resolver-level bound on one WaitFor call,
// independent of the per-dependency timeout.
const DefaultTimeout = 30 * time.Second

// Resolver awaits dependency readiness against a state store.
type Resolver struct {
	store   *statestore.Store
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a resolver. A non-positive timeout falls back to
// DefaultTimeout.
func New(store *statestore.Store, timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:   store,
		timeout: timeout,
		logger:  logger.With("component", "resolver"),
	}
}

// WaitFor blocks until every listed dependency is terminal. It fails fast
// with a *errors.DependencyError when an ID is unknown or a dependency ends
// in a failed terminal state, and with ErrDependencyTimeout when either the
// per-dependency or the resolver-level timeout elapses first.
func (r *Resolver) WaitFor(ctx context.Context, ids []string, perDependencyTimeout time.Duration) error {
	if len(ids) == 0 {
		return nil
	}

	// Reject unknown IDs before spending any time waiting
	for _, id := range ids {
		if !r.store.Registered(id) {
			return errors.NewDependencyError(id, errors.ErrUnknownComponent)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(waitCtx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return r.waitOne(gctx, id, perDependencyTimeout)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

// waitOne waits for a single dependency to reach a terminal state.
func (r *Resolver) waitOne(ctx context.Context, id string, perDependencyTimeout time.Duration) error {
	states, cancel, err := r.store.Subscribe(id)
	if err != nil {
		return errors.NewDependencyError(id, err)
	}
	defer cancel()

	var deadline <-chan time.Time
	if perDependencyTimeout > 0 {
		timer := time.NewTimer(perDependencyTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return errors.WrapTransient(errors.ErrDependencyTimeout, "Resolver", "waitOne", "dependency "+id)
		case <-deadline:
			return errors.NewDependencyError(id, errors.ErrDependencyTimeout)
		case state, ok := <-states:
			if !ok {
				// Store shut down while waiting
				return errors.NewDependencyError(id, errors.ErrShuttingDown)
			}
			if state.IsLoading {
				continue
			}
			// Terminal. Idle counts as ready: never-run and succeeded
			// are indistinguishable here.
			if state.Err != nil {
				r.logger.Debug("dependency in failed terminal state", "dependency", id, "error", state.Err)
				return errors.NewDependencyError(id, state.Err)
			}
			return nil
		}
	}
}
