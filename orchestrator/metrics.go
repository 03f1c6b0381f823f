package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/loadstate/metric"
)

// orchestratorMetrics holds Prometheus metrics for coordinated loads.
type orchestratorMetrics struct {
	loads        *prometheus.CounterVec   // By component and outcome (success/failure)
	loadDuration *prometheus.HistogramVec // By component
	fallbacks    *prometheus.CounterVec   // By component and source

	// 1 while at least one component is loading, 0 otherwise
	loadingActive prometheus.Gauge
}

// newOrchestratorMetrics creates and registers orchestrator metrics with the
// provided registry.
func newOrchestratorMetrics(registry *metric.MetricsRegistry) (*orchestratorMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &orchestratorMetrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadstate",
			Subsystem: "orchestrator",
			Name:      "loads_total",
			Help:      "Total number of coordinated load operations",
		}, []string{"component", "outcome"}), // outcome: success, failure

		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loadstate",
			Subsystem: "orchestrator",
			Name:      "load_duration_seconds",
			Help:      "Coordinated load operation duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1.0, 5.0, 15.0, 30.0, 60.0},
		}, []string{"component"}),

		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loadstate",
			Subsystem: "orchestrator",
			Name:      "fallback_used_total",
			Help:      "Total number of sources served by their fallback producer",
		}, []string{"component", "source"}),

		loadingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "loadstate",
			Subsystem: "orchestrator",
			Name:      "loading_active",
			Help:      "Whether at least one component is currently loading (0 or 1)",
		}),
	}

	if err := registry.RegisterCounterVec("orchestrator", "loads", m.loads); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec("orchestrator", "load_duration", m.loadDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("orchestrator", "fallbacks", m.fallbacks); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("orchestrator", "loading_active", m.loadingActive); err != nil {
		return nil, err
	}

	return m, nil
}

// recordLoad records a coordinated load operation.
func (m *orchestratorMetrics) recordLoad(component string, success bool, duration float64) {
	if m == nil {
		return
	}

	outcome := "success"
	if !success {
		outcome = "failure"
	}

	m.loads.WithLabelValues(component, outcome).Inc()
	m.loadDuration.WithLabelValues(component).Observe(duration)
}

// recordFallback records a source served by its fallback.
func (m *orchestratorMetrics) recordFallback(component, source string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(component, source).Inc()
}

// setLoadingActive mirrors the global loading flag.
func (m *orchestratorMetrics) setLoadingActive(loading bool) {
	if m == nil {
		return
	}
	if loading {
		m.loadingActive.Set(1)
	} else {
		m.loadingActive.Set(0)
	}
}
