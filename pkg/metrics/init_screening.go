package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEvaluationMetrics() {
	r.EvaluationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contingency_evaluations_total",
			Help: "Total number of contingency delta evaluations",
		},
		[]string{"metric", "status"},
	)

	r.EvaluationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contingency_evaluation_duration_seconds",
			Help:    "Duration of a single contingency evaluation in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10, 30},
		},
		[]string{"metric"},
	)

	r.EvaluationsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "contingency_evaluations_in_flight",
			Help: "Number of contingency evaluations currently running",
		},
	)

	r.TaskTimeoutsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contingency_task_timeouts_total",
			Help: "Total number of evaluation tasks that exceeded their deadline",
		},
		[]string{"order"},
	)

	r.ReferenceComputations = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contingency_reference_computations_total",
			Help: "Total number of reference centrality computations on intact graphs",
		},
		[]string{"metric", "status"},
	)
}

func (r *Registry) initScreeningMetrics() {
	r.OrdersScreenedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contingency_orders_screened_total",
			Help: "Total number of screening runs per order",
		},
		[]string{"order", "status"},
	)

	r.OrderDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contingency_order_duration_seconds",
			Help:    "Wall time to screen every contingency of an order",
			Buckets: []float64{0.01, 0.1, 1, 10, 60, 600, 3600},
		},
		[]string{"order"},
	)

	r.CacheHitsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contingency_cache_hits_total",
			Help: "Total number of results served from memoized state",
		},
		[]string{"cache"},
	)
}

func (r *Registry) initCheckpointMetrics() {
	r.CheckpointOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contingency_checkpoint_operations_total",
			Help: "Total number of checkpoint store operations",
		},
		[]string{"operation", "status"},
	)

	r.CheckpointBytesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "contingency_checkpoint_bytes_total",
			Help: "Compressed bytes read from or written to the checkpoint store",
		},
		[]string{"operation"},
	)
}
