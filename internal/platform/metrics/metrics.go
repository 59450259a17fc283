package metrics

import (
	"github.com/nulzo/provider-hub/pkg/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for discovery and health probing.
type Metrics struct {
	Discoveries    *prometheus.CounterVec
	DiscoveryTime  *prometheus.HistogramVec
	HealthChecks   *prometheus.CounterVec
	HealthLatency  *prometheus.HistogramVec
	ProviderHealth *prometheus.GaugeVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer for
// the process-wide registry or a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Discoveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_hub_discovery_total",
			Help: "Model discovery calls by provider, catalog source and outcome",
		}, []string{"provider", "source", "outcome"}),

		DiscoveryTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provider_hub_discovery_duration_seconds",
			Help:    "Duration of remote model discovery requests",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),

		HealthChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_hub_health_checks_total",
			Help: "Health probes by provider and resulting state",
		}, []string{"provider", "state"}),

		HealthLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provider_hub_health_check_duration_seconds",
			Help:    "Observed response time of health probes",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"provider"}),

		// 1 operational, 0.5 degraded, 0 down
		ProviderHealth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "provider_hub_provider_health_state",
			Help: "Last observed health state per provider",
		}, []string{"provider"}),
	}
}

// NewNop returns collectors registered on a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveHealth records a finished probe.
func (m *Metrics) ObserveHealth(status api.HealthStatus) {
	if m == nil {
		return
	}
	m.HealthChecks.WithLabelValues(status.Provider, string(status.State)).Inc()
	if status.ResponseTimeMs != nil {
		m.HealthLatency.WithLabelValues(status.Provider).Observe(float64(*status.ResponseTimeMs) / 1000)
	}

	var v float64
	switch status.State {
	case api.HealthOperational:
		v = 1
	case api.HealthDegraded:
		v = 0.5
	}
	m.ProviderHealth.WithLabelValues(status.Provider).Set(v)
}

// ObserveDiscovery records a finished discovery call.
func (m *Metrics) ObserveDiscovery(provider, source, outcome string) {
	if m == nil {
		return
	}
	m.Discoveries.WithLabelValues(provider, source, outcome).Inc()
}
