package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/dd0wney/cluso-contingency/pkg/network"
)

// Class is the label assigned to an edge.
type Class int

const (
	// ClassZero marks an edge whose criticality is not positive
	ClassZero Class = -1
	// ClassRegular marks a positive but unremarkable edge
	ClassRegular Class = 0
	// ClassCritical marks an edge at or above the strategy's cut-off
	ClassCritical Class = 1
)

func (c Class) String() string {
	switch c {
	case ClassZero:
		return "zero"
	case ClassRegular:
		return "regular"
	case ClassCritical:
		return "critical"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Strategy names
const (
	StrategyThreshold = "threshold"
	StrategyQuantile  = "quantile"
)

// ErrUnknownStrategy is returned by NewLabeling for an unregistered name.
var ErrUnknownStrategy = errors.New("unknown labeling strategy")

// Labeling assigns a class to every edge of a criticality list.
type Labeling interface {
	Label(c Criticality) []Label
	Identifier() (string, float64)
}

// Label is the class of one edge.
type Label struct {
	Edge  network.Edge
	Class Class
}

// NewLabeling builds the named strategy.
func NewLabeling(strategy string, value float64) (Labeling, error) {
	switch strategy {
	case StrategyThreshold:
		return ThresholdLabeling{Threshold: value}, nil
	case StrategyQuantile:
		return QuantileLabeling{Quantile: value}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// scoreTolerance is the relative difference below which two scores are taken
// as equal. Current-flow scores carry rounding error of a few ulps.
const scoreTolerance = 1e-9

// ThresholdLabeling min-max scales the positive scores to [0, 1] and marks
// edges scaling to at least Threshold as critical. When every positive score
// is equal within scoreTolerance they all count as critical.
type ThresholdLabeling struct {
	Threshold float64
}

// Label implements Labeling.
func (l ThresholdLabeling) Label(c Criticality) []Label {
	lo, hi, ok := positiveRange(c)
	out := make([]Label, len(c))
	for i, es := range c {
		out[i] = Label{Edge: es.Edge, Class: ClassZero}
		if !ok || es.Score <= 0 {
			continue
		}
		scaled := 1.0
		if hi-lo > scoreTolerance*hi {
			scaled = (es.Score - lo) / (hi - lo)
		}
		if scaled >= l.Threshold {
			out[i].Class = ClassCritical
		} else {
			out[i].Class = ClassRegular
		}
	}
	return out
}

// Identifier implements Labeling.
func (l ThresholdLabeling) Identifier() (string, float64) {
	return StrategyThreshold, l.Threshold
}

// QuantileLabeling marks as critical the edges at or above the (1-Quantile)
// quantile of the positive scores, so roughly the top Quantile fraction.
type QuantileLabeling struct {
	Quantile float64
}

// Label implements Labeling.
func (l QuantileLabeling) Label(c Criticality) []Label {
	var positive []float64
	for _, es := range c {
		if es.Score > 0 {
			positive = append(positive, es.Score)
		}
	}
	slices.Sort(positive)
	cut := quantile(positive, 1-l.Quantile)

	out := make([]Label, len(c))
	for i, es := range c {
		switch {
		case es.Score <= 0 || len(positive) == 0:
			out[i] = Label{Edge: es.Edge, Class: ClassZero}
		case es.Score >= cut-scoreTolerance*cut:
			out[i] = Label{Edge: es.Edge, Class: ClassCritical}
		default:
			out[i] = Label{Edge: es.Edge, Class: ClassRegular}
		}
	}
	return out
}

// Identifier implements Labeling.
func (l QuantileLabeling) Identifier() (string, float64) {
	return StrategyQuantile, l.Quantile
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.Inf(1)
	}
	q = math.Max(0, math.Min(1, q))
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func positiveRange(c Criticality) (lo, hi float64, ok bool) {
	for _, es := range c {
		if es.Score <= 0 {
			continue
		}
		if !ok {
			lo, hi, ok = es.Score, es.Score, true
			continue
		}
		lo = math.Min(lo, es.Score)
		hi = math.Max(hi, es.Score)
	}
	return lo, hi, ok
}

// LabelFileName names the label file written next to a criticality file,
// e.g. "edge_labels_quantile_0.1.csv".
func LabelFileName(l Labeling) string {
	name, value := l.Identifier()
	return fmt.Sprintf("edge_labels_%s_%s.csv", name, strconv.FormatFloat(value, 'g', -1, 64))
}

// WriteLabelsFile writes labels to path, creating parent directories.
func WriteLabelsFile(path string, labels []Label) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create label file: %w", err)
	}
	if err := WriteLabels(f, labels); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// CountClasses tallies labels by class.
func CountClasses(labels []Label) map[Class]int {
	counts := map[Class]int{ClassZero: 0, ClassRegular: 0, ClassCritical: 0}
	for _, l := range labels {
		counts[l.Class]++
	}
	return counts
}

// WriteLabels writes headerless src,dst,class rows.
func WriteLabels(w io.Writer, labels []Label) error {
	cw := csv.NewWriter(w)
	for _, l := range labels {
		if err := cw.Write([]string{l.Edge.U, l.Edge.V, strconv.Itoa(int(l.Class))}); err != nil {
			return fmt.Errorf("write label row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
