package report

import (
	"cmp"
	"slices"
)

// TopEdges returns the n highest-scoring edges, ties kept in input order.
func TopEdges(c Criticality, n int) Criticality {
	if n <= 0 || len(c) == 0 {
		return nil
	}
	sorted := slices.Clone(c)
	slices.SortStableFunc(sorted, func(a, b EdgeScore) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
