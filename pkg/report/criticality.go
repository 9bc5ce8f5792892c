package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-contingency/pkg/network"
)

// CriticalityFileName is the name of the per-order criticality file.
const CriticalityFileName = "edge_global_deltas.csv"

// EdgeScore pairs an edge with its criticality.
type EdgeScore struct {
	Edge  network.Edge `yaml:",inline"`
	Score float64      `yaml:"score"`
}

// Criticality is an ordered list of edge scores.
type Criticality []EdgeScore

// Map returns the scores keyed by edge.
func (c Criticality) Map() map[network.Edge]float64 {
	out := make(map[network.Edge]float64, len(c))
	for _, es := range c {
		out[es.Edge] = es.Score
	}
	return out
}

// Lookup returns the score of e in either orientation.
func (c Criticality) Lookup(e network.Edge) (float64, bool) {
	for _, es := range c {
		if es.Edge == e || es.Edge == e.Reversed() {
			return es.Score, true
		}
	}
	return 0, false
}

// FromScores orders scores by the network's edge index. Every edge of net
// must be present.
func FromScores(net *network.Network, scores map[network.Edge]float64) (Criticality, error) {
	edges := net.Edges()
	out := make(Criticality, len(edges))
	for i, e := range edges {
		v, ok := scores[e]
		if !ok {
			v, ok = scores[e.Reversed()]
		}
		if !ok {
			return nil, &network.LookupError{Entity: "edge", Index: i, Key: e.String()}
		}
		out[i] = EdgeScore{Edge: e, Score: v}
	}
	return out, nil
}

// CriticalityPath returns the criticality file for one network and order.
func CriticalityPath(dir, networkName string, order int) string {
	return filepath.Join(dir, fmt.Sprintf("exhaustive_%s_%d", networkName, order), CriticalityFileName)
}

// WriteCriticality writes c as headerless src,dst,delta rows.
func WriteCriticality(w io.Writer, c Criticality) error {
	cw := csv.NewWriter(w)
	for _, es := range c {
		record := []string{es.Edge.U, es.Edge.V, strconv.FormatFloat(es.Score, 'g', -1, 64)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write criticality row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCriticalityFile writes c to path, creating parent directories.
func WriteCriticalityFile(path string, c Criticality) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create criticality file: %w", err)
	}
	if err := WriteCriticality(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadCriticality parses headerless src,dst,delta rows. Blank lines are
// skipped; any other malformed row fails with network.ErrMalformedInput.
func ReadCriticality(r io.Reader, source string) (Criticality, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out Criticality
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &network.ParseError{Source: source, Line: line, Reason: err.Error()}
		}
		line, _ := cr.FieldPos(0)
		if len(record) != 3 {
			return nil, &network.ParseError{
				Source: source, Line: line, Text: strings.Join(record, ","),
				Reason: fmt.Sprintf("expected 3 fields, got %d", len(record)),
			}
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, &network.ParseError{
				Source: source, Line: line, Text: strings.Join(record, ","),
				Reason: "delta is not a number",
			}
		}
		out = append(out, EdgeScore{Edge: network.Edge{U: record[0], V: record[1]}, Score: score})
	}
	return out, nil
}

// ReadCriticalityFile reads a criticality file from disk.
func ReadCriticalityFile(path string) (Criticality, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCriticality(f, path)
}
