package network

import (
	"strconv"
	"strings"
)

// Edge is an undirected edge identified by its endpoint names, in the
// network's canonical orientation.
type Edge struct {
	U string `json:"src" yaml:"src"`
	V string `json:"dst" yaml:"dst"`
}

// Reversed returns the edge with its endpoints swapped.
func (e Edge) Reversed() Edge {
	return Edge{U: e.V, V: e.U}
}

func (e Edge) String() string {
	return "(" + e.U + ", " + e.V + ")"
}

// EdgeKey is an edge expressed with dense node indices.
type EdgeKey struct {
	U int
	V int
}

// Contingency is a set of edge indices removed together, sorted ascending.
// Contingencies returned by a Network are copies; mutating them does not
// affect its cache.
type Contingency []int

// Order returns the number of edges in the contingency.
func (c Contingency) Order() int {
	return len(c)
}

// Contains reports whether edge index i belongs to the contingency.
func (c Contingency) Contains(i int) bool {
	for _, e := range c {
		if e == i {
			return true
		}
		if e > i {
			return false
		}
	}
	return false
}

// Key returns a comparable representation, e.g. "0,4,7".
func (c Contingency) Key() string {
	var b strings.Builder
	for i, e := range c {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(e))
	}
	return b.String()
}

// ParseContingencyKey is the inverse of Contingency.Key.
func ParseContingencyKey(key string) (Contingency, error) {
	if key == "" {
		return Contingency{}, nil
	}
	parts := strings.Split(key, ",")
	c := make(Contingency, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, &ParseError{Line: 1, Text: key, Reason: "invalid contingency key"}
		}
		c[i] = v
	}
	return c, nil
}

// Clone returns a copy that does not share storage with c.
func (c Contingency) Clone() Contingency {
	out := make(Contingency, len(c))
	copy(out, c)
	return out
}

// Partition holds the valid and islanding contingencies of one order, each
// in lexicographic enumeration order.
type Partition struct {
	Order     int
	Valid     []Contingency
	Islanding []Contingency
}

// Total returns the number of enumerated combinations.
func (p *Partition) Total() int {
	return len(p.Valid) + len(p.Islanding)
}
