package network

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/dd0wney/cluso-contingency/pkg/logging"
)

// Network wraps an undirected simple graph with stable node and edge
// indexing and a per-order cache of contingency partitions.
type Network struct {
	name string

	// Immutable after construction
	nodes     []string         // index -> identifier, first-seen order
	index     map[string]int   // identifier -> index
	adjacency [][]int          // neighbour indices in insertion order
	graph     *simple.UndirectedGraph

	maxContingencies uint64
	logger           logging.Logger

	mappingOnce  sync.Once
	nodeMapping  map[string]int
	edgeMapping  map[EdgeKey]int
	edgeList     []EdgeKey
	reverseOnce  sync.Once
	reverseNodes map[int]string
	reverseEdges map[int]Edge

	// mu serialises enumeration: probing mutates graph in place
	mu        sync.Mutex
	valid     map[int][]Contingency
	islanding map[int][]Contingency
}

// Option configures a Network.
type Option func(*Network)

// WithLogger sets the logger used to report enumeration progress.
func WithLogger(l logging.Logger) Option {
	return func(n *Network) {
		if l != nil {
			n.logger = l
		}
	}
}

// WithMaxContingencies bounds the number of combinations a single order may
// enumerate. Zero disables the check.
func WithMaxContingencies(limit uint64) Option {
	return func(n *Network) {
		n.maxContingencies = limit
	}
}

// builder accumulates nodes and edges in insertion order.
type builder struct {
	nodes     []string
	index     map[string]int
	adjacency [][]int
	graph     *simple.UndirectedGraph
}

func newBuilder() *builder {
	return &builder{
		index: make(map[string]int),
		graph: simple.NewUndirectedGraph(),
	}
}

func (b *builder) addNode(name string) int {
	if i, ok := b.index[name]; ok {
		return i
	}
	i := len(b.nodes)
	b.nodes = append(b.nodes, name)
	b.index[name] = i
	b.adjacency = append(b.adjacency, nil)
	b.graph.AddNode(simple.Node(int64(i)))
	return i
}

// addEdge ignores self-loops and parallel edges.
func (b *builder) addEdge(u, v string) {
	ui := b.addNode(u)
	vi := b.addNode(v)
	if ui == vi || b.graph.HasEdgeBetween(int64(ui), int64(vi)) {
		return
	}
	b.adjacency[ui] = append(b.adjacency[ui], vi)
	b.adjacency[vi] = append(b.adjacency[vi], ui)
	b.graph.SetEdge(simple.Edge{F: simple.Node(int64(ui)), T: simple.Node(int64(vi))})
}

func (b *builder) build(name string, opts []Option) *Network {
	n := &Network{
		name:      name,
		nodes:     b.nodes,
		index:     b.index,
		adjacency: b.adjacency,
		graph:     b.graph,
		logger:    logging.NewNopLogger(),
		valid:     make(map[int][]Contingency),
		islanding: make(map[int][]Contingency),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = n.logger.With(logging.Component("network"), logging.Network(name))
	return n
}

// New builds a Network from an edge list. Nodes are indexed in order of first
// appearance; self-loops and repeated edges are dropped.
func New(name string, edges []Edge, opts ...Option) (*Network, error) {
	b := newBuilder()
	for i, e := range edges {
		if e.U == "" || e.V == "" {
			return nil, &ParseError{Source: name, Line: i + 1, Text: e.String(), Reason: "empty endpoint"}
		}
		b.addEdge(e.U, e.V)
	}
	return b.build(name, opts), nil
}

// Name returns the network name.
func (n *Network) Name() string {
	return n.name
}

// NumNodes returns the number of nodes.
func (n *Network) NumNodes() int {
	return len(n.nodes)
}

// NumEdges returns the number of edges.
func (n *Network) NumEdges() int {
	n.ensureMappings()
	return len(n.edgeList)
}

// Nodes returns node identifiers in index order.
func (n *Network) Nodes() []string {
	out := make([]string, len(n.nodes))
	copy(out, n.nodes)
	return out
}

// Edges returns every edge in index order.
func (n *Network) Edges() []Edge {
	n.ensureMappings()
	out := make([]Edge, len(n.edgeList))
	for i, k := range n.edgeList {
		out[i] = Edge{U: n.nodes[k.U], V: n.nodes[k.V]}
	}
	return out
}

// EdgeKeys returns every edge as a pair of node indices, in index order.
func (n *Network) EdgeKeys() []EdgeKey {
	n.ensureMappings()
	out := make([]EdgeKey, len(n.edgeList))
	copy(out, n.edgeList)
	return out
}

// ensureMappings assigns edge indices following the graph's edge iteration
// order: nodes by index, each node's neighbours in insertion order, every
// edge reported once from the endpoint visited first.
func (n *Network) ensureMappings() {
	n.mappingOnce.Do(func() {
		n.nodeMapping = make(map[string]int, len(n.nodes))
		for i, name := range n.nodes {
			n.nodeMapping[name] = i
		}

		seen := make([]bool, len(n.nodes))
		n.edgeMapping = make(map[EdgeKey]int)
		for u, neighbours := range n.adjacency {
			for _, v := range neighbours {
				if seen[v] {
					continue
				}
				key := EdgeKey{U: u, V: v}
				n.edgeMapping[key] = len(n.edgeList)
				n.edgeList = append(n.edgeList, key)
			}
			seen[u] = true
		}
	})
}

func (n *Network) ensureReverse() {
	n.reverseOnce.Do(func() {
		n.ensureMappings()
		n.reverseNodes = make(map[int]string, len(n.nodes))
		for i, name := range n.nodes {
			n.reverseNodes[i] = name
		}
		n.reverseEdges = make(map[int]Edge, len(n.edgeList))
		for i, k := range n.edgeList {
			n.reverseEdges[i] = Edge{U: n.nodes[k.U], V: n.nodes[k.V]}
		}
	})
}

// NodeMapping returns identifier -> dense index. The map is shared and must
// not be modified.
func (n *Network) NodeMapping() map[string]int {
	n.ensureMappings()
	return n.nodeMapping
}

// EdgeMapping returns canonical index pair -> dense edge index. The map is
// shared and must not be modified.
func (n *Network) EdgeMapping() map[EdgeKey]int {
	n.ensureMappings()
	return n.edgeMapping
}

// ReverseNodeMapping returns dense index -> identifier.
func (n *Network) ReverseNodeMapping() map[int]string {
	n.ensureReverse()
	return n.reverseNodes
}

// ReverseEdgeMapping returns dense edge index -> canonical edge.
func (n *Network) ReverseEdgeMapping() map[int]Edge {
	n.ensureReverse()
	return n.reverseEdges
}

// NodeFromMapping resolves a node index.
func (n *Network) NodeFromMapping(i int) (string, error) {
	name, ok := n.ReverseNodeMapping()[i]
	if !ok {
		return "", nodeIndexError(i)
	}
	return name, nil
}

// EdgeFromMapping resolves an edge index.
func (n *Network) EdgeFromMapping(i int) (Edge, error) {
	e, ok := n.ReverseEdgeMapping()[i]
	if !ok {
		return Edge{}, edgeIndexError(i)
	}
	return e, nil
}

// NodeIndex resolves a node identifier.
func (n *Network) NodeIndex(name string) (int, error) {
	i, ok := n.NodeMapping()[name]
	if !ok {
		return 0, &LookupError{Entity: "node", Index: -1, Key: name}
	}
	return i, nil
}

// EdgeIndex resolves an edge given in either orientation.
func (n *Network) EdgeIndex(e Edge) (int, error) {
	u, uok := n.index[e.U]
	v, vok := n.index[e.V]
	if !uok || !vok {
		return 0, edgeKeyError(e)
	}
	mapping := n.EdgeMapping()
	if i, ok := mapping[EdgeKey{U: u, V: v}]; ok {
		return i, nil
	}
	if i, ok := mapping[EdgeKey{U: v, V: u}]; ok {
		return i, nil
	}
	return 0, edgeKeyError(e)
}

// Canonical returns e in the network's canonical orientation.
func (n *Network) Canonical(e Edge) (Edge, error) {
	i, err := n.EdgeIndex(e)
	if err != nil {
		return Edge{}, err
	}
	return n.ReverseEdgeMapping()[i], nil
}

// CloneGraph returns an independent copy of the intact graph. Node IDs equal
// node indices. The copy is built from the immutable edge list, so it never
// observes an in-progress connectivity probe.
func (n *Network) CloneGraph() *simple.UndirectedGraph {
	n.ensureMappings()
	g := simple.NewUndirectedGraph()
	for i := range n.nodes {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, k := range n.edgeList {
		g.SetEdge(simple.Edge{F: simple.Node(int64(k.U)), T: simple.Node(int64(k.V))})
	}
	return g
}

// CloneWithout returns a copy of the graph with the edges of c removed.
func (n *Network) CloneWithout(c Contingency) (*simple.UndirectedGraph, error) {
	g := n.CloneGraph()
	for _, i := range c {
		if i < 0 || i >= len(n.edgeList) {
			return nil, edgeIndexError(i)
		}
		k := n.edgeList[i]
		g.RemoveEdge(int64(k.U), int64(k.V))
	}
	return g, nil
}

// Graph exposes the graph read-only for callers that only inspect it. It
// must not be used while an enumeration may be running; use CloneGraph
// instead.
func (n *Network) Graph() graph.Undirected {
	return n.graph
}

func (n *Network) String() string {
	return fmt.Sprintf("Network(%s, nodes=%d, edges=%d)", n.name, n.NumNodes(), n.NumEdges())
}
