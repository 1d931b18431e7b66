// Package metrics exposes connectivity state to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every netmgr metric on its own Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	ConnectionState       prometheus.Gauge
	ConnectionsDiscovered *prometheus.GaugeVec
	StateTransitions      *prometheus.CounterVec
	ServiceStartFailures  *prometheus.CounterVec
	Polls                 prometheus.Counter
	ConnectAttempts       *prometheus.CounterVec
}

// NewRegistry creates a registry with all metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.ConnectionState = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netmgr_connection_state",
			Help: "Aggregate connection state (0 unknown, 1 disconnected, 2 connecting, 3 connected, 4 failure)",
		},
	)

	r.ConnectionsDiscovered = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netmgr_connections_discovered",
			Help: "Number of connections in the current list by type",
		},
		[]string{"type"},
	)

	r.StateTransitions = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmgr_state_transitions_total",
			Help: "Aggregate connection state transitions",
		},
		[]string{"from", "to"},
	)

	r.ServiceStartFailures = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmgr_service_start_failures_total",
			Help: "Dependent services that failed to start",
		},
		[]string{"service"},
	)

	r.Polls = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "netmgr_polls_total",
			Help: "Event pump passes that reported a change",
		},
	)

	r.ConnectAttempts = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netmgr_connect_attempts_total",
			Help: "Connection jobs by result",
		},
		[]string{"result"},
	)

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordTransition records a change of the aggregate state.
func (r *Registry) RecordTransition(from, to string, value int) {
	r.StateTransitions.WithLabelValues(from, to).Inc()
	r.ConnectionState.Set(float64(value))
}

// SetDiscovered replaces the per-type connection counts.
func (r *Registry) SetDiscovered(counts map[string]int) {
	r.ConnectionsDiscovered.Reset()
	for typ, n := range counts {
		r.ConnectionsDiscovered.WithLabelValues(typ).Set(float64(n))
	}
}

// RecordServiceFailure counts a failed service start.
func (r *Registry) RecordServiceFailure(service string) {
	r.ServiceStartFailures.WithLabelValues(service).Inc()
}

// RecordConnect counts a connection job outcome.
func (r *Registry) RecordConnect(result string) {
	r.ConnectAttempts.WithLabelValues(result).Inc()
}
