package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initNetworkMetrics() {
	r.NetworkNodes = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contingency_network_nodes",
			Help: "Number of nodes in a loaded network",
		},
		[]string{"network"},
	)

	r.NetworkEdges = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "contingency_network_edges",
			Help: "Number of edges in a loaded network",
		},
		[]string{"network"},
	)
}

func (r *Registry) initEnumerationMetrics() {
	r.ContingenciesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contingency_enumerated_total",
			Help: "Total number of contingencies enumerated, by partition",
		},
		[]string{"order", "partition"},
	)

	r.EnumerationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contingency_enumeration_duration_seconds",
			Help:    "Time to partition all contingencies of an order",
			Buckets: []float64{0.001, 0.01, 0.1, 1, 10, 60, 600},
		},
		[]string{"order"},
	)
}
