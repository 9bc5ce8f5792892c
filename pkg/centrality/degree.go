package centrality

import (
	"context"

	"gonum.org/v1/gonum/graph"
)

// Degree is degree centrality: the number of neighbours divided by n-1.
type Degree struct{}

// Name implements Metric.
func (Degree) Name() string {
	return DegreeName
}

// Score implements Metric.
func (Degree) Score(ctx context.Context, g graph.Undirected) (map[int64]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := sortedNodeIDs(g)
	scores := make(map[int64]float64, len(ids))
	for _, id := range ids {
		if len(ids) > 1 {
			scores[id] = float64(g.From(id).Len()) / float64(len(ids)-1)
		} else {
			scores[id] = 0
		}
	}
	return scores, nil
}
