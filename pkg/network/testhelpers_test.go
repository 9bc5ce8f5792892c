package network

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/graph"
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

func mustEdgelist(t *testing.T, name, text string, opts ...EdgelistOption) *Network {
	t.Helper()
	n, err := FromEdgelist(strings.NewReader(text), name, opts...)
	if err != nil {
		t.Fatalf("FromEdgelist(%s) failed: %v", name, err)
	}
	return n
}

func pathGraph(t *testing.T) *Network {
	return mustEdgelist(t, "path4", "A B\nB C\nC D\n")
}

func cycleGraph(t *testing.T) *Network {
	return mustEdgelist(t, "cycle4", "A B\nB C\nC D\nD A\n")
}

func triangleGraph(t *testing.T) *Network {
	return mustEdgelist(t, "triangle", "A B\nB C\nC A\n")
}
