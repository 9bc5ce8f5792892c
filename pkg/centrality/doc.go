// Package centrality provides the node importance metrics used to score
// contingencies.
//
// A Metric maps an undirected graph to a score per node. Implementations
// must be deterministic, must not modify the graph they are given, and must
// return a score for every node. The screener compares the scores of a
// damaged copy of the network against the intact network, so any metric that
// satisfies this contract can drive screening.
//
// Node IDs in the returned map are the gonum node IDs of the input graph.
package centrality
