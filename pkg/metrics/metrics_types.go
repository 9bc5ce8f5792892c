package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Network Metrics
	NetworkNodes *prometheus.GaugeVec
	NetworkEdges *prometheus.GaugeVec

	// Enumeration Metrics
	ContingenciesTotal  *prometheus.CounterVec
	EnumerationDuration *prometheus.HistogramVec

	// Evaluation Metrics
	EvaluationsTotal      *prometheus.CounterVec
	EvaluationDuration    *prometheus.HistogramVec
	EvaluationsInFlight   prometheus.Gauge
	TaskTimeoutsTotal     *prometheus.CounterVec
	ReferenceComputations *prometheus.CounterVec

	// Screening Metrics
	OrdersScreenedTotal *prometheus.CounterVec
	OrderDuration       *prometheus.HistogramVec
	CacheHitsTotal      *prometheus.CounterVec

	// Checkpoint Metrics
	CheckpointOperationsTotal *prometheus.CounterVec
	CheckpointBytesTotal      *prometheus.CounterVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
	mu        sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry:  reg,
		startTime: time.Now(),
	}

	r.initNetworkMetrics()
	r.initEnumerationMetrics()
	r.initEvaluationMetrics()
	r.initScreeningMetrics()
	r.initCheckpointMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
