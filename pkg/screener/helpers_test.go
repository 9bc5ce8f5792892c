package screener

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gonum.org/v1/gonum/graph"

	"github.com/dd0wney/cluso-contingency/pkg/centrality"
	"github.com/dd0wney/cluso-contingency/pkg/network"
)

// edgeCount counts the undirected edges of g.
func edgeCount(g graph.Undirected) int {
	n := 0
	nodes := g.Nodes()
	for nodes.Next() {
		n += g.From(nodes.Node().ID()).Len()
	}
	return n / 2
}

func mustNetwork(t *testing.T, name, edgelist string) *network.Network {
	t.Helper()
	n, err := network.FromEdgelist(strings.NewReader(edgelist), name)
	if err != nil {
		t.Fatalf("FromEdgelist(%s) failed: %v", name, err)
	}
	return n
}

// triangle edges: (A,B)=0, (A,C)=1, (B,C)=2
func triangle(t *testing.T) *network.Network {
	return mustNetwork(t, "triangle", "A B\nB C\nC A\n")
}

func cycle4(t *testing.T) *network.Network {
	return mustNetwork(t, "cycle4", "A B\nB C\nC D\nD A\n")
}

func path4(t *testing.T) *network.Network {
	return mustNetwork(t, "path4", "A B\nB C\nC D\n")
}

// grid is a 3x3 lattice with one diagonal, small enough for exhaustive
// current-flow screening and asymmetric enough to give distinct deltas.
func grid(t *testing.T) *network.Network {
	return mustNetwork(t, "grid", `0 1
1 2
3 4
4 5
6 7
7 8
0 3
3 6
1 4
4 7
2 5
5 8
0 4
`)
}

func mustScreener(t *testing.T, net *network.Network, opts ...Option) *ExhaustiveScreener {
	t.Helper()
	s, err := NewExhaustiveScreener(net, opts...)
	if err != nil {
		t.Fatalf("NewExhaustiveScreener failed: %v", err)
	}
	return s
}

// countingMetric wraps a metric and counts calls on the intact graph
// separately from calls on graphs with edges removed.
type countingMetric struct {
	inner    centrality.Metric
	numEdges int
	intact   atomic.Int64
	removed  atomic.Int64
}

func newCountingMetric(inner centrality.Metric, net *network.Network) *countingMetric {
	return &countingMetric{inner: inner, numEdges: net.NumEdges()}
}

func (m *countingMetric) Name() string { return "counting_" + m.inner.Name() }

func (m *countingMetric) Score(ctx context.Context, g graph.Undirected) (map[int64]float64, error) {
	if edgeCount(g) == m.numEdges {
		m.intact.Add(1)
	} else {
		m.removed.Add(1)
	}
	return m.inner.Score(ctx, g)
}

// sleepyMetric behaves like Degree except on graphs missing the edge (u, v),
// where it blocks for sleep without looking at its context. When once is set
// it only blocks the first time.
type sleepyMetric struct {
	u, v  int64
	sleep time.Duration
	once  bool
	slept atomic.Bool
	calls atomic.Int64
}

func (m *sleepyMetric) Name() string { return "sleepy" }

func (m *sleepyMetric) Score(ctx context.Context, g graph.Undirected) (map[int64]float64, error) {
	m.calls.Add(1)
	if !g.HasEdgeBetween(m.u, m.v) && !(m.once && m.slept.Load()) {
		m.slept.Store(true)
		time.Sleep(m.sleep)
	}
	return centrality.Degree{}.Score(ctx, g)
}

// randomNetwork builds a connected-ish graph on 4-7 nodes: a spanning path
// plus random chords.
func randomNetwork(seed int64) *network.Network {
	r := rand.New(rand.NewSource(seed))
	n := 4 + r.Intn(4)
	var edges []network.Edge
	for i := 1; i < n; i++ {
		edges = append(edges, network.Edge{U: strconv.Itoa(i - 1), V: strconv.Itoa(i)})
	}
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if r.Float64() < 0.35 {
				edges = append(edges, network.Edge{U: strconv.Itoa(i), V: strconv.Itoa(j)})
			}
		}
	}
	net, err := network.New("random_"+strconv.FormatInt(seed, 10), edges)
	if err != nil {
		panic(err)
	}
	return net
}
