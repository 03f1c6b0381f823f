package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/c360/loadstate/errors"
	"github.com/c360/loadstate/fetch"
	"github.com/c360/loadstate/health"
	"github.com/c360/loadstate/metric"
	"github.com/c360/loadstate/pkg/cache"
	"github.com/c360/loadstate/resolver"
	"github.com/c360/loadstate/statestore"
)

// Stage labels written during a coordinated load.
const (
	StageResolving = "resolving-dependencies"
	StageComplete  = "complete"
	StageError     = "error"
)

// manualProgressCap bounds UpdateLoading so only completion reaches 100.
const manualProgressCap = 90

// DefaultComponentConfig is the conservative config applied when a load is
// requested for a component that was never registered.
func DefaultComponentConfig(id string) statestore.Config {
	return statestore.Config{
		ID:         id,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
		Priority:   statestore.PriorityHigh,
	}
}

// Dependencies provides the external collaborators an orchestrator needs.
type Dependencies struct {
	// Logger is optional; defaults to slog.Default().
	Logger *slog.Logger

	// MetricsRegistry is optional; nil disables Prometheus export.
	MetricsRegistry *metric.MetricsRegistry
}

// GetLogger returns the configured logger or a default logger if none is provided
func (d *Dependencies) GetLogger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Options tunes orchestrator behavior. Zero values fall back to defaults.
type Options struct {
	// ResolverTimeout bounds one dependency-resolution pass (default 30s).
	ResolverTimeout time.Duration

	// HealthInterval is the health monitor tick (default 30s).
	HealthInterval time.Duration

	// StaleThreshold is how long a component may load with no update
	// before being force-failed (default 5m).
	StaleThreshold time.Duration

	// DefaultConfig overrides the config applied to auto-registered
	// components (default DefaultComponentConfig).
	DefaultConfig func(id string) statestore.Config
}

// Orchestrator coordinates component loading for one process. Construct it
// once at startup and inject it into consumers.
type Orchestrator struct {
	store    *statestore.Store
	cache    *cache.Store[any]
	executor *fetch.Executor
	resolver *resolver.Resolver
	monitor  *health.Monitor
	logger   *slog.Logger
	metrics  *orchestratorMetrics

	defaultConfig func(id string) statestore.Config
	stopGauge     func()
	destroyOnce   sync.Once
}

// New creates an orchestrator and starts its health monitor.
func New(deps Dependencies, opts Options) (*Orchestrator, error) {
	logger := deps.GetLogger().With("component", "orchestrator")

	metrics, err := newOrchestratorMetrics(deps.MetricsRegistry)
	if err != nil {
		// Metrics are observability, not correctness
		logger.Error("failed to initialize orchestrator metrics", "error", err)
		metrics = nil
	}

	store := statestore.NewStore(deps.GetLogger())

	var cacheOpts []cache.Option[any]
	if deps.MetricsRegistry != nil {
		cacheOpts = append(cacheOpts, cache.WithMetrics[any](deps.MetricsRegistry, "orchestrator"))
	}
	cacheStore, err := cache.New[any](cacheOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "Orchestrator", "New", "cache setup")
	}

	defaultConfig := opts.DefaultConfig
	if defaultConfig == nil {
		defaultConfig = DefaultComponentConfig
	}

	o := &Orchestrator{
		store:         store,
		cache:         cacheStore,
		executor:      fetch.NewExecutor(deps.GetLogger()),
		resolver:      resolver.New(store, opts.ResolverTimeout, deps.GetLogger()),
		monitor:       health.NewMonitor(store, cacheStore, opts.HealthInterval, opts.StaleThreshold, deps.GetLogger()),
		logger:        logger,
		metrics:       metrics,
		defaultConfig: defaultConfig,
	}

	if err := o.monitor.Start(); err != nil {
		return nil, errors.Wrap(err, "Orchestrator", "New", "health monitor start")
	}

	o.stopGauge = o.watchLoadingGauge()
	return o, nil
}

// RegisterComponent registers a component's static loading config.
// Idempotent; safe to call concurrently for the same ID.
func (o *Orchestrator) RegisterComponent(cfg statestore.Config) error {
	return o.store.Register(cfg)
}

// GetLoadingState returns the component's state stream: the current state
// immediately, then every distinct change. Fails for unregistered IDs.
func (o *Orchestrator) GetLoadingState(id string) (<-chan statestore.LoadingState, func(), error) {
	return o.store.Subscribe(id)
}

// GetGlobalLoadingState returns a stream that is true while any component
// is loading.
func (o *Orchestrator) GetGlobalLoadingState() (<-chan bool, func()) {
	return o.store.SubscribeGlobal()
}

// AnyLoading reports whether any component is currently loading.
func (o *Orchestrator) AnyLoading() bool {
	return o.store.AnyLoading()
}

// LoadComponentData performs a coordinated load: resolve dependencies, then
// fetch every source in list order with cache and fallback handling. The
// returned map holds one entry per source on success. Any failure aborts
// the remaining sources and is returned as a *errors.AggregateLoadError.
func (o *Orchestrator) LoadComponentData(
	ctx context.Context, componentID string, sources []fetch.SourceSpec,
) (map[string]any, error) {
	start := time.Now()
	success := false
	defer func() {
		o.metrics.recordLoad(componentID, success, time.Since(start).Seconds())
	}()

	cfg, err := o.ensureRegistered(componentID)
	if err != nil {
		return nil, errors.NewAggregateLoadError(componentID, "", err)
	}
	if err := validateSources(sources); err != nil {
		return nil, errors.NewAggregateLoadError(componentID, "", err)
	}

	if _, err := o.store.Update(componentID,
		statestore.SetLoading(true),
		statestore.SetProgress(0),
		statestore.SetStage(StageResolving),
		statestore.SetError(nil),
		statestore.SetRetryCount(0),
	); err != nil {
		return nil, errors.NewAggregateLoadError(componentID, "", err)
	}

	if err := o.resolver.WaitFor(ctx, cfg.Dependencies, cfg.Timeout); err != nil {
		return nil, o.failLoad(componentID, "", err)
	}

	results := make(map[string]any, len(sources))
	total := len(sources)

	for i, source := range sources {
		_, err := o.store.Update(componentID,
			statestore.SetProgress(sourceProgress(i, total)),
			statestore.SetStage("loading-"+source.ID),
		)
		if err != nil {
			return nil, o.failLoad(componentID, source.ID, err)
		}

		if source.Cache {
			if value, ok := o.cache.Get(source.ID); ok {
				results[source.ID] = value
				continue
			}
		}

		result, err := o.executor.Execute(ctx, source, cfg)
		if err != nil {
			// A single failing mandatory source fails the whole call
			return nil, o.failLoad(componentID, source.ID, err)
		}

		if result.Attempts > 1 {
			if _, err := o.store.Update(componentID, statestore.SetRetryCount(result.Attempts-1)); err != nil {
				return nil, o.failLoad(componentID, source.ID, err)
			}
		}
		if result.UsedFallback {
			o.metrics.recordFallback(componentID, source.ID)
			o.logger.Warn("source degraded to fallback",
				"component", componentID,
				"source", source.ID,
				"attempts", result.Attempts)
		}

		results[source.ID] = result.Value

		if source.Cache {
			// Failed fetches never reach this point, so the cache is
			// never poisoned.
			if err := o.cache.Set(source.ID, result.Value, source.CacheTTL); err != nil {
				o.logger.Error("cache populate failed", "source", source.ID, "error", err)
			}
		}
	}

	if _, err := o.store.Update(componentID,
		statestore.SetLoading(false),
		statestore.SetProgress(100),
		statestore.SetStage(StageComplete),
	); err != nil {
		return nil, errors.NewAggregateLoadError(componentID, "", err)
	}

	success = true
	o.logger.Info("component loaded",
		"component", componentID,
		"sources", total,
		"duration", time.Since(start))
	return results, nil
}

// Destroy stops the health monitor, clears all state, and completes all
// subscription streams. Safe to call more than once.
func (o *Orchestrator) Destroy() {
	o.destroyOnce.Do(func() {
		o.monitor.Stop()
		o.stopGauge()
		o.cache.Clear()
		o.store.Close()
		o.logger.Info("orchestrator destroyed")
	})
}

// ensureRegistered auto-registers unknown IDs with the default config via
// the normal registration path.
func (o *Orchestrator) ensureRegistered(id string) (statestore.Config, error) {
	if cfg, ok := o.store.GetConfig(id); ok {
		return cfg, nil
	}

	cfg := o.defaultConfig(id)
	o.logger.Debug("auto-registering component with default config", "component", id)
	if err := o.store.Register(cfg); err != nil {
		return statestore.Config{}, err
	}
	return cfg, nil
}

// failLoad marks the component failed and wraps the cause.
func (o *Orchestrator) failLoad(componentID, sourceID string, cause error) error {
	if _, err := o.store.Update(componentID,
		statestore.SetLoading(false),
		statestore.SetError(cause),
		statestore.SetStage(StageError),
	); err != nil {
		o.logger.Error("failed to record load failure", "component", componentID, "error", err)
	}

	o.logger.Error("component load failed",
		"component", componentID,
		"source", sourceID,
		"error", cause)
	return errors.NewAggregateLoadError(componentID, sourceID, cause)
}

// watchLoadingGauge mirrors the global loading flag into the metrics gauge.
func (o *Orchestrator) watchLoadingGauge() func() {
	updates, cancel := o.store.SubscribeGlobal()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for loading := range updates {
			o.metrics.setLoadingActive(loading)
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// sourceProgress allocates progress proportionally across sources,
// reserving the last 20% for finalization.
func sourceProgress(index, total int) int {
	return int(math.Round(100*float64(index+1)/float64(total)) * 0.8)
}

// validateSources rejects unexecutable specs and duplicate IDs before any
// state is touched.
func validateSources(sources []fetch.SourceSpec) error {
	seen := make(map[string]struct{}, len(sources))
	for _, source := range sources {
		if err := source.Validate(); err != nil {
			return err
		}
		if _, dup := seen[source.ID]; dup {
			return errors.WrapInvalid(
				fmt.Errorf("duplicate source id %q", source.ID),
				"Orchestrator", "LoadComponentData", "source validation")
		}
		seen[source.ID] = struct{}{}
	}
	return nil
}
