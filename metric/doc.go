// Package metric provides Prometheus-based metrics collection and an HTTP
// server for loadstate observability.
//
// The package offers a centralized metrics registry that components register
// their own collectors into, plus an HTTP server exposing metrics in
// Prometheus format. The orchestrator and cache define their metrics
// themselves; this package only manages registration lifecycle and the
// endpoint.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
//	        log.Error("metrics server failed", "error", err)
//	    }
//	}()
//	defer server.Stop()
//
// Registering a component metric:
//
//	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
//	    Namespace: "loadstate",
//	    Name:      "loads_total",
//	    Help:      "Total coordinated loads by outcome",
//	}, []string{"component", "outcome"})
//	if err := registry.RegisterCounterVec("orchestrator", "loads_total", loads); err != nil {
//	    return err
//	}
//
// The registry rejects duplicate registrations per (service, metric) pair so
// two components cannot silently clobber each other's collectors.
package metric
