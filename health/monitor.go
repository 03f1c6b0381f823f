package health

import (
	"log/slog"
	"sync"
	"time"

	"github.com/c360/loadstate/errors"
	"github.com/c360/loadstate/pkg/cache"
	"github.com/c360/loadstate/statestore"
)

const (
	// DefaultInterval is the tick interval between sweeps.
	DefaultInterval = 30 * time.Second

	// DefaultStaleThreshold is how long a component may sit loading with
	// no state update before it is force-failed.
	DefaultStaleThreshold = 5 * time.Minute

	// StageTimeout is the stage a force-failed component ends in.
	StageTimeout = "timeout"
)

// Monitor periodically sweeps the state store for stale loading entries and
// the cache for expired ones.
type Monitor struct {
	store          *statestore.Store
	cache          *cache.Store[any]
	interval       time.Duration
	staleThreshold time.Duration
	logger         *slog.Logger

	mu       sync.Mutex
	started  bool
	shutdown chan struct{}
	done     chan struct{}
}

// NewMonitor creates a monitor. Non-positive interval or threshold values
// fall back to the defaults.
func NewMonitor(
	store *statestore.Store,
	cacheStore *cache.Store[any],
	interval, staleThreshold time.Duration,
	logger *slog.Logger,
) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if staleThreshold <= 0 {
		staleThreshold = DefaultStaleThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		store:          store,
		cache:          cacheStore,
		interval:       interval,
		staleThreshold: staleThreshold,
		logger:         logger.With("component", "health"),
	}
}

// Start launches the background loop. Calling Start twice is an error.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Monitor", "Start", "lifecycle check")
	}
	m.started = true
	m.shutdown = make(chan struct{})
	m.done = make(chan struct{})

	go m.run(m.shutdown, m.done)
	return nil
}

// Stop shuts the loop down and waits for it to exit. Safe to call more
// than once and before Start.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	shutdown, done := m.shutdown, m.done
	m.mu.Unlock()

	close(shutdown)
	<-done
}

func (m *Monitor) run(shutdown <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-shutdown:
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep performs one round of both sweeps. Exported so callers (and tests)
// can force a pass without waiting for the ticker.
func (m *Monitor) Sweep() {
	stale := m.sweepStale()
	expired := m.cache.SweepExpired()

	if stale > 0 || expired > 0 {
		m.logger.Info("sweep complete", "stale_components", stale, "expired_cache_entries", expired)
	}
}

// sweepStale force-fails components stuck loading past the threshold.
func (m *Monitor) sweepStale() int {
	now := time.Now()
	count := 0

	// Snapshot: scan without holding the store lock
	for id, state := range m.store.Snapshot() {
		if !state.IsLoading || now.Sub(state.LastUpdated) <= m.staleThreshold {
			continue
		}

		m.logger.Warn("component stuck loading, forcing failure",
			"id", id,
			"stage", state.Stage,
			"last_updated", state.LastUpdated)

		_, err := m.store.Update(id,
			statestore.SetLoading(false),
			statestore.SetError(errors.ErrStale),
			statestore.SetStage(StageTimeout),
		)
		if err != nil {
			m.logger.Error("stale sweep update failed", "id", id, "error", err)
			continue
		}
		count++
	}
	return count
}
