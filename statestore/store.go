package statestore

import (
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/c360/loadstate/errors"
)

// subscriber channel buffer; a consumer this far behind starts missing
// intermediate states instead of blocking updaters.
const subscriberBuffer = 16

// Store holds component configs and loading states and fans out state
// changes to subscribers. All methods are safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	configs    map[string]Config
	states     map[string]LoadingState
	subs       map[string]map[int]chan LoadingState
	globalSubs map[int]chan bool
	nextSubID  int
	anyLoading bool
	closed     bool
	logger     *slog.Logger
}

// NewStore creates an empty store.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		configs:    make(map[string]Config),
		states:     make(map[string]LoadingState),
		subs:       make(map[string]map[int]chan LoadingState),
		globalSubs: make(map[int]chan bool),
		logger:     logger.With("component", "statestore"),
	}
}

// Register upserts a component config. Idempotent and safe for concurrent
// registration of the same ID: the last config wins, existing state is
// preserved. A component seen for the first time starts idle.
func (s *Store) Register(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "Store", "Register", "config validation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.WrapInvalid(errors.ErrShuttingDown, "Store", "Register", "store closed")
	}

	_, known := s.configs[cfg.ID]
	s.configs[cfg.ID] = cfg
	if _, ok := s.states[cfg.ID]; !ok {
		s.states[cfg.ID] = idleState()
	}

	if !known {
		s.logger.Debug("component registered",
			"id", cfg.ID,
			"priority", string(cfg.Priority),
			"dependencies", cfg.Dependencies)
	}
	return nil
}

// Registered reports whether the component ID is known.
func (s *Store) Registered(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.configs[id]
	return ok
}

// Update merges the patches into the component's current state, stamps
// LastUpdated, and publishes the resulting state to subscribers. Returns
// the merged state. Unknown IDs are an error.
func (s *Store) Update(id string, patches ...Patch) (LoadingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return LoadingState{}, errors.WrapInvalid(errors.ErrShuttingDown, "Store", "Update", "store closed")
	}

	prev, ok := s.states[id]
	if !ok {
		return LoadingState{}, errors.WrapInvalid(errors.ErrUnknownComponent, "Store", "Update", "component lookup")
	}

	next := prev
	for _, patch := range patches {
		if patch != nil {
			patch(&next)
		}
	}
	// A terminal error always means not loading
	if next.Err != nil {
		next.IsLoading = false
	}
	next.LastUpdated = time.Now()
	s.states[id] = next

	if next.distinctFrom(prev) {
		s.publishLocked(id, next)
	}
	s.recomputeGlobalLocked()

	return next, nil
}

// Get returns a copy of the component's current state.
func (s *Store) Get(id string) (LoadingState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[id]
	return state, ok
}

// GetConfig returns the component's registered config.
func (s *Store) GetConfig(id string) (Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[id]
	return cfg, ok
}

// Snapshot returns a point-in-time copy of every component's state. The
// health monitor scans this instead of holding the store lock while it
// works.
func (s *Store) Snapshot() map[string]LoadingState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]LoadingState, len(s.states))
	maps.Copy(result, s.states)
	return result
}

// Configs returns a copy of all registered configs.
func (s *Store) Configs() map[string]Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]Config, len(s.configs))
	maps.Copy(result, s.configs)
	return result
}

// Subscribe returns a stream of the component's loading states: the current
// state immediately, then every subsequent distinct change. The returned
// cancel function detaches the subscriber and closes the channel; it is safe
// to call more than once.
func (s *Store) Subscribe(id string) (<-chan LoadingState, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, nil, errors.WrapInvalid(errors.ErrShuttingDown, "Store", "Subscribe", "store closed")
	}

	state, ok := s.states[id]
	if !ok {
		return nil, nil, errors.WrapInvalid(errors.ErrUnknownComponent, "Store", "Subscribe", "component lookup")
	}

	ch := make(chan LoadingState, subscriberBuffer)
	subID := s.nextSubID
	s.nextSubID++

	if s.subs[id] == nil {
		s.subs[id] = make(map[int]chan LoadingState)
	}
	s.subs[id][subID] = ch

	// Current state first
	ch <- state

	cancel := s.cancelFunc(func() {
		if channels, ok := s.subs[id]; ok {
			if c, ok := channels[subID]; ok {
				delete(channels, subID)
				close(c)
			}
		}
	})
	return ch, cancel, nil
}

// SubscribeGlobal returns a stream that emits true while at least one
// component is loading and false once none are, starting with the current
// value.
func (s *Store) SubscribeGlobal() (<-chan bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan bool, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	subID := s.nextSubID
	s.nextSubID++
	s.globalSubs[subID] = ch

	ch <- s.anyLoading

	cancel := s.cancelFunc(func() {
		if c, ok := s.globalSubs[subID]; ok {
			delete(s.globalSubs, subID)
			close(c)
		}
	})
	return ch, cancel
}

// AnyLoading reports whether at least one registered component currently
// has IsLoading set.
func (s *Store) AnyLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anyLoading
}

// Close clears all state and closes every subscriber channel exactly once.
// The store rejects further registrations, updates, and subscriptions.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	for _, channels := range s.subs {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range s.globalSubs {
		close(ch)
	}

	s.subs = make(map[string]map[int]chan LoadingState)
	s.globalSubs = make(map[int]chan bool)
	s.configs = make(map[string]Config)
	s.states = make(map[string]LoadingState)
	s.anyLoading = false
}

// cancelFunc wraps unregister logic so each subscriber cancel runs at most
// once and always under the store lock.
func (s *Store) cancelFunc(unregister func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed {
				return // Close already shut the channel
			}
			unregister()
		})
	}
}

// publishLocked fans a state out to the component's subscribers.
// Non-blocking sends: a full subscriber misses this state.
func (s *Store) publishLocked(id string, state LoadingState) {
	for _, ch := range s.subs[id] {
		select {
		case ch <- state:
		default:
			// Subscriber not keeping up; drop rather than stall
		}
	}
}

// recomputeGlobalLocked recalculates the aggregate loading flag and
// notifies global subscribers on transitions.
func (s *Store) recomputeGlobalLocked() {
	loading := false
	for _, state := range s.states {
		if state.IsLoading {
			loading = true
			break
		}
	}

	if loading == s.anyLoading {
		return
	}
	s.anyLoading = loading

	for _, ch := range s.globalSubs {
		select {
		case ch <- loading:
		default:
		}
	}
}
