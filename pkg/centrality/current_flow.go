package centrality

import (
	"context"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/mat"
)

// CurrentFlowBetweenness is random-walk (current-flow) betweenness: the
// network is treated as a resistor grid with unit conductances, a unit
// current is injected at s and extracted at t for every pair, and each node
// is credited with the current passing through it. Scores are normalized by
// the number of pairs not containing the node, (n-1)(n-2)/2.
//
// The graph must be connected.
type CurrentFlowBetweenness struct{}

// Name implements Metric.
func (CurrentFlowBetweenness) Name() string {
	return CurrentFlowBetweennessName
}

// Score implements Metric.
func (CurrentFlowBetweenness) Score(ctx context.Context, g graph.Undirected) (map[int64]float64, error) {
	ids := sortedNodeIDs(g)
	n := len(ids)

	scores := make(map[int64]float64, n)
	for _, id := range ids {
		scores[id] = 0
	}
	if n == 0 {
		return scores, nil
	}
	if len(topo.ConnectedComponents(g)) != 1 {
		return nil, ErrDisconnected
	}
	if n <= 2 {
		return scores, nil
	}

	pos := make(map[int64]int, n)
	for i, id := range ids {
		pos[id] = i
	}
	neighbours := make([][]int, n)
	for i, id := range ids {
		to := g.From(id)
		for to.Next() {
			neighbours[i] = append(neighbours[i], pos[to.Node().ID()])
		}
		// From iterates a map; fix the order so flow sums are reproducible
		slices.Sort(neighbours[i])
	}

	potentials, err := groundedInverse(neighbours)
	if err != nil {
		return nil, err
	}

	// throughput[v] accumulates Σ_{s<t, v∉{s,t}} τ_st(v)
	throughput := make([]float64, n)
	p := make([]float64, n)
	for s := 0; s < n; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for t := s + 1; t < n; t++ {
			for v := 0; v < n; v++ {
				p[v] = potentials.At(v, s) - potentials.At(v, t)
			}
			for v := 0; v < n; v++ {
				if v == s || v == t {
					continue
				}
				var flow float64
				for _, u := range neighbours[v] {
					flow += math.Abs(p[v] - p[u])
				}
				throughput[v] += flow / 2
			}
		}
	}

	norm := 2 / float64((n-1)*(n-2))
	for i, id := range ids {
		scores[id] = throughput[i] * norm
	}
	return scores, nil
}

// groundedInverse returns the n×n matrix whose column s holds node potentials
// for a unit current injected at s and drawn at node 0 (the ground). It is the
// inverse of the Laplacian with node 0's row and column removed, padded with
// zeros.
func groundedInverse(neighbours [][]int) (*mat.Dense, error) {
	n := len(neighbours)
	reduced := mat.NewSymDense(n-1, nil)
	for v := 1; v < n; v++ {
		reduced.SetSym(v-1, v-1, float64(len(neighbours[v])))
		for _, u := range neighbours[v] {
			if u > v {
				reduced.SetSym(v-1, u-1, -1)
			}
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(reduced); !ok {
		return nil, fmt.Errorf("%w: reduced laplacian is singular", ErrDisconnected)
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, fmt.Errorf("invert reduced laplacian: %w", err)
	}

	full := mat.NewDense(n, n, nil)
	for i := 1; i < n; i++ {
		for j := 1; j < n; j++ {
			full.Set(i, j, inv.At(i-1, j-1))
		}
	}
	return full, nil
}
