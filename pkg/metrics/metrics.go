package metrics

import (
	"runtime"
	"strconv"
	"time"
)

// Cache labels for CacheHitsTotal
const (
	CacheReference  = "reference"
	CacheDeltas     = "deltas"
	CacheGlobal     = "global"
	CacheCheckpoint = "checkpoint"
)

// Evaluation status labels
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// RecordNetwork records the size of a loaded network
func (r *Registry) RecordNetwork(name string, nodes, edges int) {
	r.NetworkNodes.WithLabelValues(name).Set(float64(nodes))
	r.NetworkEdges.WithLabelValues(name).Set(float64(edges))
}

// RecordEnumeration records the outcome of partitioning an order
func (r *Registry) RecordEnumeration(order, valid, islanding int, duration time.Duration) {
	o := strconv.Itoa(order)
	r.ContingenciesTotal.WithLabelValues(o, "valid").Add(float64(valid))
	r.ContingenciesTotal.WithLabelValues(o, "islanding").Add(float64(islanding))
	r.EnumerationDuration.WithLabelValues(o).Observe(duration.Seconds())
}

// RecordEvaluation records a single contingency evaluation
func (r *Registry) RecordEvaluation(metric, status string, duration time.Duration) {
	r.EvaluationsTotal.WithLabelValues(metric, status).Inc()
	r.EvaluationDuration.WithLabelValues(metric).Observe(duration.Seconds())
}

// RecordTimeout records an evaluation task that missed its deadline
func (r *Registry) RecordTimeout(order int) {
	r.TaskTimeoutsTotal.WithLabelValues(strconv.Itoa(order)).Inc()
}

// RecordReference records a reference centrality computation
func (r *Registry) RecordReference(metric, status string) {
	r.ReferenceComputations.WithLabelValues(metric, status).Inc()
}

// RecordOrder records a completed or failed screening of one order
func (r *Registry) RecordOrder(order int, status string, duration time.Duration) {
	o := strconv.Itoa(order)
	r.OrdersScreenedTotal.WithLabelValues(o, status).Inc()
	if status == StatusSuccess {
		r.OrderDuration.WithLabelValues(o).Observe(duration.Seconds())
	}
}

// RecordCacheHit records a result served from memoized state
func (r *Registry) RecordCacheHit(cache string) {
	r.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCheckpoint records a checkpoint store operation
func (r *Registry) RecordCheckpoint(operation, status string, bytes int) {
	r.CheckpointOperationsTotal.WithLabelValues(operation, status).Inc()
	if bytes > 0 {
		r.CheckpointBytesTotal.WithLabelValues(operation).Add(float64(bytes))
	}
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges
func (r *Registry) UpdateSystemMetrics() {
	r.mu.Lock()
	defer r.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	r.UptimeSeconds.Set(time.Since(r.startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(mem.Alloc))
	r.MemorySysBytes.Set(float64(mem.Sys))
}
