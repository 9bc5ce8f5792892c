package screener

import (
	"iter"

	"github.com/dd0wney/cluso-contingency/pkg/network"
)

// DeltaSet holds the delta of every valid contingency of one order, in
// enumeration order. It is immutable.
type DeltaSet struct {
	order         int
	contingencies []network.Contingency
	deltas        []float64
	index         map[string]int
}

func newDeltaSet(order int, contingencies []network.Contingency, deltas []float64) *DeltaSet {
	index := make(map[string]int, len(contingencies))
	for i, c := range contingencies {
		index[c.Key()] = i
	}
	return &DeltaSet{
		order:         order,
		contingencies: contingencies,
		deltas:        deltas,
		index:         index,
	}
}

// Order returns the contingency order.
func (d *DeltaSet) Order() int {
	return d.order
}

// Len returns the number of contingencies.
func (d *DeltaSet) Len() int {
	return len(d.contingencies)
}

// Get returns the delta of c and whether c is in the set.
func (d *DeltaSet) Get(c network.Contingency) (float64, bool) {
	i, ok := d.index[c.Key()]
	if !ok {
		return 0, false
	}
	return d.deltas[i], true
}

// At returns the i-th contingency and its delta.
func (d *DeltaSet) At(i int) (network.Contingency, float64) {
	return d.contingencies[i].Clone(), d.deltas[i]
}

// All iterates contingencies and deltas in enumeration order.
func (d *DeltaSet) All() iter.Seq2[network.Contingency, float64] {
	return func(yield func(network.Contingency, float64) bool) {
		for i, c := range d.contingencies {
			if !yield(c.Clone(), d.deltas[i]) {
				return
			}
		}
	}
}

// Contingencies returns a copy of the contingencies in enumeration order.
func (d *DeltaSet) Contingencies() []network.Contingency {
	out := make([]network.Contingency, len(d.contingencies))
	for i, c := range d.contingencies {
		out[i] = c.Clone()
	}
	return out
}

// Values returns a copy of the deltas in enumeration order.
func (d *DeltaSet) Values() []float64 {
	return append([]float64(nil), d.deltas...)
}

// Map returns the deltas keyed by Contingency.Key.
func (d *DeltaSet) Map() map[string]float64 {
	out := make(map[string]float64, len(d.deltas))
	for i, c := range d.contingencies {
		out[c.Key()] = d.deltas[i]
	}
	return out
}

// Sum returns the total of all deltas, accumulated in enumeration order.
func (d *DeltaSet) Sum() float64 {
	var sum float64
	for _, v := range d.deltas {
		sum += v
	}
	return sum
}
