package centrality

import (
	"container/heap"
	"sort"
)

// RankedNode holds a node ID with its score.
type RankedNode struct {
	NodeID int64   `json:"node_id" yaml:"node_id"`
	Score  float64 `json:"score" yaml:"score"`
}

// rankedNodeHeap is a min-heap by score, ties broken by larger ID first so
// the smallest IDs survive.
type rankedNodeHeap []RankedNode

func (h rankedNodeHeap) Len() int { return len(h) }
func (h rankedNodeHeap) Less(i, j int) bool { return less(h[i], h[j]) }
func (h rankedNodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedNodeHeap) Push(x any) {
	*h = append(*h, x.(RankedNode))
}

func (h *rankedNodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// TopNodes returns the n highest-scoring nodes, by score descending then ID
// ascending.
func TopNodes(scores map[int64]float64, n int) []RankedNode {
	if n <= 0 {
		return nil
	}

	h := make(rankedNodeHeap, 0, n)
	heap.Init(&h)
	for id, score := range scores {
		rn := RankedNode{NodeID: id, Score: score}
		if h.Len() < n {
			heap.Push(&h, rn)
		} else if less(h[0], rn) {
			heap.Pop(&h)
			heap.Push(&h, rn)
		}
	}

	result := make([]RankedNode, h.Len())
	copy(result, h)
	sort.Slice(result, func(i, j int) bool {
		return less(result[j], result[i])
	})
	return result
}

// less orders a below b in ranking terms.
func less(a, b RankedNode) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.NodeID > b.NodeID
}
