package centrality

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

const tolerance = 1e-9

func buildGraph(n int, edges [][2]int64) *simple.UndirectedGraph {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, e := range edges {
		g.SetEdge(simple.Edge{F: simple.Node(e[0]), T: simple.Node(e[1])})
	}
	return g
}

func star(leaves int) *simple.UndirectedGraph {
	edges := make([][2]int64, leaves)
	for i := range edges {
		edges[i] = [2]int64{0, int64(i + 1)}
	}
	return buildGraph(leaves+1, edges)
}

func near(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestCurrentFlowBetweennessStar(t *testing.T) {
	scores, err := CurrentFlowBetweenness{}.Score(context.Background(), star(4))
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if len(scores) != 5 {
		t.Fatalf("expected 5 scores, got %d", len(scores))
	}
	if !near(scores[0], 1) {
		t.Errorf("centre score = %v, want 1", scores[0])
	}
	for id := int64(1); id <= 4; id++ {
		if !near(scores[id], 0) {
			t.Errorf("leaf %d score = %v, want 0", id, scores[id])
		}
	}
}

func TestCurrentFlowBetweennessTriangle(t *testing.T) {
	g := buildGraph(3, [][2]int64{{0, 1}, {1, 2}, {2, 0}})
	scores, err := CurrentFlowBetweenness{}.Score(context.Background(), g)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	for id, v := range scores {
		if !near(v, 1.0/3) {
			t.Errorf("node %d score = %v, want 1/3", id, v)
		}
	}
}

func TestCurrentFlowBetweennessCycleIsUniform(t *testing.T) {
	g := buildGraph(6, [][2]int64{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 0}})
	scores, err := CurrentFlowBetweenness{}.Score(context.Background(), g)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	for id := int64(1); id < 6; id++ {
		if !near(scores[id], scores[0]) {
			t.Errorf("cycle node %d = %v differs from node 0 = %v", id, scores[id], scores[0])
		}
	}
	if scores[0] <= 0 || scores[0] >= 1 {
		t.Errorf("cycle score %v outside (0, 1)", scores[0])
	}
}

func TestCurrentFlowBetweennessIsDeterministic(t *testing.T) {
	g := buildGraph(7, [][2]int64{{0, 1}, {1, 2}, {2, 0}, {2, 3}, {3, 4}, {4, 5}, {5, 6}, {6, 3}, {1, 5}})
	first, err := CurrentFlowBetweenness{}.Score(context.Background(), g)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := CurrentFlowBetweenness{}.Score(context.Background(), g)
		if err != nil {
			t.Fatalf("Score failed: %v", err)
		}
		for id, v := range first {
			if again[id] != v {
				t.Fatalf("run %d: node %d = %v, first run %v", i, id, again[id], v)
			}
		}
	}
}

func TestCurrentFlowBetweennessDegenerate(t *testing.T) {
	ctx := context.Background()

	scores, err := CurrentFlowBetweenness{}.Score(ctx, simple.NewUndirectedGraph())
	if err != nil || len(scores) != 0 {
		t.Errorf("empty graph: scores=%v err=%v", scores, err)
	}

	scores, err = CurrentFlowBetweenness{}.Score(ctx, buildGraph(2, [][2]int64{{0, 1}}))
	if err != nil || len(scores) != 2 || scores[0] != 0 || scores[1] != 0 {
		t.Errorf("single edge: scores=%v err=%v", scores, err)
	}

	_, err = CurrentFlowBetweenness{}.Score(ctx, buildGraph(4, [][2]int64{{0, 1}, {2, 3}}))
	if !errors.Is(err, ErrDisconnected) {
		t.Errorf("expected ErrDisconnected, got %v", err)
	}
}

func TestCurrentFlowBetweennessHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CurrentFlowBetweenness{}.Score(ctx, star(5))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBetweennessIsTotal(t *testing.T) {
	scores, err := Betweenness{}.Score(context.Background(), star(3))
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if len(scores) != 4 {
		t.Fatalf("expected a score for every node, got %v", scores)
	}
	if scores[0] <= 0 {
		t.Errorf("centre score = %v, want > 0", scores[0])
	}
	for id := int64(1); id <= 3; id++ {
		if scores[id] != 0 {
			t.Errorf("leaf %d score = %v, want 0", id, scores[id])
		}
	}
}

func TestDegree(t *testing.T) {
	scores, err := Degree{}.Score(context.Background(), star(4))
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if !near(scores[0], 1) {
		t.Errorf("centre degree = %v, want 1", scores[0])
	}
	if !near(scores[1], 0.25) {
		t.Errorf("leaf degree = %v, want 0.25", scores[1])
	}

	single := buildGraph(1, nil)
	scores, err = Degree{}.Score(context.Background(), single)
	if err != nil || scores[0] != 0 {
		t.Errorf("single node: scores=%v err=%v", scores, err)
	}
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		m, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", name, err)
		}
		if m.Name() != name {
			t.Errorf("Lookup(%q).Name() = %q", name, m.Name())
		}
	}

	if _, err := Lookup("pagerank"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
	if Default().Name() != CurrentFlowBetweennessName {
		t.Errorf("Default() = %q", Default().Name())
	}
}

func TestNewFunc(t *testing.T) {
	calls := 0
	m := NewFunc("stub", func(ctx context.Context, g graph.Undirected) (map[int64]float64, error) {
		calls++
		return map[int64]float64{0: 1}, nil
	})
	if m.Name() != "stub" {
		t.Errorf("Name() = %q", m.Name())
	}
	if _, err := m.Score(context.Background(), star(1)); err != nil || calls != 1 {
		t.Errorf("Score: calls=%d err=%v", calls, err)
	}
}

func TestTopNodes(t *testing.T) {
	scores := map[int64]float64{1: 0.5, 2: 0.9, 3: 0.5, 4: 0.1, 5: 0.9}

	top := TopNodes(scores, 3)
	want := []RankedNode{{2, 0.9}, {5, 0.9}, {1, 0.5}}
	if len(top) != len(want) {
		t.Fatalf("TopNodes returned %v", top)
	}
	for i := range want {
		if top[i] != want[i] {
			t.Errorf("rank %d = %+v, want %+v", i, top[i], want[i])
		}
	}

	if got := TopNodes(scores, 0); got != nil {
		t.Errorf("TopNodes(0) = %v, want nil", got)
	}
	if got := TopNodes(scores, 10); len(got) != 5 {
		t.Errorf("TopNodes(10) returned %d entries", len(got))
	}
}
