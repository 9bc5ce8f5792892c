package centrality

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
)

// Sentinel errors
var (
	ErrDisconnected  = errors.New("graph is not connected")
	ErrUnknownMetric = errors.New("unknown centrality metric")
)

// Metric scores every node of an undirected graph.
type Metric interface {
	Name() string
	Score(ctx context.Context, g graph.Undirected) (map[int64]float64, error)
}

// ScoreFunc is the signature of a metric implementation.
type ScoreFunc func(ctx context.Context, g graph.Undirected) (map[int64]float64, error)

type funcMetric struct {
	name string
	fn   ScoreFunc
}

func (m funcMetric) Name() string { return m.name }

func (m funcMetric) Score(ctx context.Context, g graph.Undirected) (map[int64]float64, error) {
	return m.fn(ctx, g)
}

// NewFunc wraps fn as a Metric.
func NewFunc(name string, fn ScoreFunc) Metric {
	return funcMetric{name: name, fn: fn}
}

// Registered metric names
const (
	CurrentFlowBetweennessName = "current_flow_betweenness"
	BetweennessName            = "betweenness"
	DegreeName                 = "degree"
)

var registry = map[string]func() Metric{
	CurrentFlowBetweennessName: func() Metric { return CurrentFlowBetweenness{} },
	BetweennessName:            func() Metric { return Betweenness{} },
	DegreeName:                 func() Metric { return Degree{} },
}

// Default returns the metric used when none is configured.
func Default() Metric {
	return CurrentFlowBetweenness{}
}

// Lookup returns the metric registered under name.
func Lookup(name string) (Metric, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownMetric, name, Names())
	}
	return ctor(), nil
}

// Names lists the registered metrics in alphabetical order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sortedNodeIDs returns the IDs of g in ascending order so that metrics
// accumulate in a fixed order regardless of map iteration.
func sortedNodeIDs(g graph.Graph) []int64 {
	nodes := g.Nodes()
	ids := make([]int64, 0, nodes.Len())
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
