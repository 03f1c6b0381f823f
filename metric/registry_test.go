package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCounter() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "loadstate",
		Name:      "test_counter_total",
		Help:      "test counter",
	})
}

func TestRegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	err := registry.RegisterCounter("orchestrator", "test_counter", newTestCounter())
	require.NoError(t, err)
}

func TestRegisterCounter_Duplicate(t *testing.T) {
	registry := NewMetricsRegistry()

	require.NoError(t, registry.RegisterCounter("orchestrator", "test_counter", newTestCounter()))

	err := registry.RegisterCounter("orchestrator", "test_counter", newTestCounter())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate metric registration")
}

func TestRegisterCounter_SameNameDifferentService(t *testing.T) {
	registry := NewMetricsRegistry()

	require.NoError(t, registry.RegisterCounter("orchestrator", "c", newTestCounter()))

	// Same registry key namespace is per service, but Prometheus still rejects
	// two collectors with identical descriptors.
	err := registry.RegisterCounter("cache", "c", newTestCounter())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "prometheus conflict")
}

func TestUnregister(t *testing.T) {
	registry := NewMetricsRegistry()

	require.NoError(t, registry.RegisterCounter("orchestrator", "test_counter", newTestCounter()))

	assert.True(t, registry.Unregister("orchestrator", "test_counter"))
	assert.False(t, registry.Unregister("orchestrator", "test_counter"))

	// Re-registration works after unregister
	assert.NoError(t, registry.RegisterCounter("orchestrator", "test_counter", newTestCounter()))
}

func TestRegisterGaugeVec(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "loadstate",
		Name:      "components_loading",
		Help:      "components currently loading",
	}, []string{"component"})

	require.NoError(t, registry.RegisterGaugeVec("orchestrator", "components_loading", gauge))
}

func TestNewServerDefaults(t *testing.T) {
	server := NewServer(0, "", NewMetricsRegistry())

	assert.Equal(t, "http://localhost:9090/metrics", server.Address())
	assert.NoError(t, server.Stop()) // Stop before Start is a no-op
}
