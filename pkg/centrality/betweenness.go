package centrality

import (
	"context"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/network"
)

// Betweenness is shortest-path betweenness centrality (Brandes), normalized
// by (n-1)(n-2) over ordered source/target pairs.
type Betweenness struct{}

// Name implements Metric.
func (Betweenness) Name() string {
	return BetweennessName
}

// Score implements Metric.
func (Betweenness) Score(ctx context.Context, g graph.Undirected) (map[int64]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := sortedNodeIDs(g)
	scores := make(map[int64]float64, len(ids))
	for _, id := range ids {
		scores[id] = 0
	}

	// network.Betweenness omits nodes with zero score
	raw := network.Betweenness(g)
	n := len(ids)
	norm := 1.0
	if n > 2 {
		norm = 1.0 / float64((n-1)*(n-2))
	}
	for id, v := range raw {
		scores[id] = v * norm
	}
	return scores, nil
}
