// Package screener scores every valid k-edge contingency of a network by how
// much its removal perturbs a node centrality metric, and folds those scores
// into a per-edge criticality.
//
// The delta of a contingency c is
//
//	delta(c) = Σ_v |after_c(v) - reference(v)|
//
// where reference is the metric on the intact graph and after_c is the metric
// on a copy of the graph with the edges of c removed. The global delta of an
// edge e is the sum of delta(c) over every valid contingency containing e.
// Normalizing divides by C(m-1, k-1)·n, the number of order-k contingencies
// sharing a given edge times the node count.
//
// Evaluation runs on a bounded worker pool. Each task owns its own graph
// copy and a deadline; a single task missing its deadline fails the whole
// order and leaves nothing cached, so the caller may retry with a larger
// timeout or a smaller order.
package screener
