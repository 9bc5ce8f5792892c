// Package network models an undirected electrical network for contingency
// screening.
//
// A Network assigns every node and edge a dense, stable index and enumerates
// the k-edge removal sets (contingencies) of the graph, splitting them into
// valid sets, whose removal keeps the graph connected, and islanding sets,
// whose removal disconnects it. Both partitions are computed once per order
// and cached for the lifetime of the Network.
//
// Enumeration probes connectivity by removing edges from one owned graph and
// restoring them afterwards, so it runs sequentially under the Network's
// lock. Code that needs to modify a graph concurrently must work on a copy
// obtained from CloneGraph.
package network
