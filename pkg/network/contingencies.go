package network

import (
	"fmt"
	"iter"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/dd0wney/cluso-contingency/pkg/logging"
)

// Partition returns the valid and islanding contingencies of the given order,
// enumerating them on first request. Orders above the edge count yield empty
// partitions. Order zero yields the single empty contingency, classified by
// the connectivity of the intact graph, so the partition always holds
// exactly C(m, order) entries.
func (n *Network) Partition(order int) (*Partition, error) {
	if order < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}
	n.ensureMappings()

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.valid[order]; !ok {
		if err := n.enumerate(order); err != nil {
			return nil, err
		}
	}
	return &Partition{
		Order:     order,
		Valid:     cloneAll(n.valid[order]),
		Islanding: cloneAll(n.islanding[order]),
	}, nil
}

// ValidContingencies returns the contingencies of the given order whose
// removal keeps the graph connected.
func (n *Network) ValidContingencies(order int) ([]Contingency, error) {
	p, err := n.Partition(order)
	if err != nil {
		return nil, err
	}
	return p.Valid, nil
}

// IslandingContingencies returns the contingencies of the given order whose
// removal disconnects the graph.
func (n *Network) IslandingContingencies(order int) ([]Contingency, error) {
	p, err := n.Partition(order)
	if err != nil {
		return nil, err
	}
	return p.Islanding, nil
}

// ValidContingencyEdges returns a restartable sequence of valid contingencies
// expressed as canonical edges.
func (n *Network) ValidContingencyEdges(order int) (iter.Seq[[]Edge], error) {
	cs, err := n.ValidContingencies(order)
	if err != nil {
		return nil, err
	}
	return n.edgeSeq(cs), nil
}

// IslandingContingencyEdges returns a restartable sequence of islanding
// contingencies expressed as canonical edges.
func (n *Network) IslandingContingencyEdges(order int) (iter.Seq[[]Edge], error) {
	cs, err := n.IslandingContingencies(order)
	if err != nil {
		return nil, err
	}
	return n.edgeSeq(cs), nil
}

func (n *Network) edgeSeq(cs []Contingency) iter.Seq[[]Edge] {
	reverse := n.ReverseEdgeMapping()
	return func(yield func([]Edge) bool) {
		for _, c := range cs {
			edges := make([]Edge, len(c))
			for i, e := range c {
				edges[i] = reverse[e]
			}
			if !yield(edges) {
				return
			}
		}
	}
}

// ContingencyEdges resolves a contingency to its canonical edges.
func (n *Network) ContingencyEdges(c Contingency) ([]Edge, error) {
	edges := make([]Edge, len(c))
	for i, idx := range c {
		e, err := n.EdgeFromMapping(idx)
		if err != nil {
			return nil, err
		}
		edges[i] = e
	}
	return edges, nil
}

// ContingencyOf converts edges given in any orientation to a sorted
// contingency.
func (n *Network) ContingencyOf(edges ...Edge) (Contingency, error) {
	c := make(Contingency, 0, len(edges))
	for _, e := range edges {
		i, err := n.EdgeIndex(e)
		if err != nil {
			return nil, err
		}
		c = append(c, i)
	}
	slices.Sort(c)
	for i := 1; i < len(c); i++ {
		if c[i] == c[i-1] {
			return nil, fmt.Errorf("%w: edge %d repeated", ErrInvalidOrder, c[i])
		}
	}
	return c, nil
}

// Enumerated reports whether the partition for order is already cached.
func (n *Network) Enumerated(order int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.valid[order]
	return ok
}

// enumerate probes every combination against the owned graph. Caller holds mu.
func (n *Network) enumerate(order int) error {
	m := len(n.edgeList)
	total := Binomial(m, order)
	if n.maxContingencies > 0 && (!total.IsUint64() || total.Uint64() > n.maxContingencies) {
		return fmt.Errorf("%w: C(%d, %d) = %s exceeds limit %d",
			ErrTooManyContingencies, m, order, total.String(), n.maxContingencies)
	}

	op := logging.StartTimer(n.logger, "contingencies enumerated", logging.Order(order))

	var valid, islanding []Contingency
	forEachCombination(m, order, func(idx []int) bool {
		c := make(Contingency, len(idx))
		copy(c, idx)
		if n.connectedWithout(c) {
			valid = append(valid, c)
		} else {
			islanding = append(islanding, c)
		}
		return true
	})

	n.valid[order] = valid
	n.islanding[order] = islanding

	op.End(logging.Int("valid", len(valid)), logging.Int("islanding", len(islanding)))
	return nil
}

// connectedWithout removes the edges of c, tests connectivity and restores
// them. Caller holds mu.
func (n *Network) connectedWithout(c Contingency) bool {
	for _, i := range c {
		k := n.edgeList[i]
		n.graph.RemoveEdge(int64(k.U), int64(k.V))
	}
	connected := len(topo.ConnectedComponents(n.graph)) <= 1
	for _, i := range c {
		k := n.edgeList[i]
		n.graph.SetEdge(simple.Edge{F: simple.Node(int64(k.U)), T: simple.Node(int64(k.V))})
	}
	return connected
}

func cloneAll(cs []Contingency) []Contingency {
	out := make([]Contingency, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}
	return out
}
