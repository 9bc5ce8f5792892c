package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// SummaryFileName is the name of the run summary written next to the
// criticality files.
const SummaryFileName = "summary.yaml"

// Summary describes one screening run.
type Summary struct {
	RunID      string           `yaml:"run_id"`
	StartedAt  time.Time        `yaml:"started_at"`
	FinishedAt time.Time        `yaml:"finished_at"`
	Metric     string           `yaml:"metric"`
	Processors int              `yaml:"processors"`
	Networks   []NetworkSummary `yaml:"networks"`
}

// NetworkSummary holds the per-network part of a Summary.
type NetworkSummary struct {
	Name   string         `yaml:"name"`
	Nodes  int            `yaml:"nodes"`
	Edges  int            `yaml:"edges"`
	Orders []OrderSummary `yaml:"orders"`
}

// OrderSummary holds the results for one contingency order.
type OrderSummary struct {
	Order         int         `yaml:"order"`
	Contingencies int         `yaml:"contingencies"`
	Duration      Duration    `yaml:"duration"`
	Output        string      `yaml:"output,omitempty"`
	Error         string      `yaml:"error,omitempty"`
	TopEdges      Criticality `yaml:"top_edges,omitempty"`
}

// Duration marshals as a Go duration string.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// NewSummary starts a summary with a fresh run ID.
func NewSummary(metric string, processors int) *Summary {
	return &Summary{
		RunID:      NewRunID(),
		StartedAt:  time.Now().UTC(),
		Metric:     metric,
		Processors: processors,
	}
}

// NewRunID returns a random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// AddNetwork appends a network entry and returns it for filling in.
func (s *Summary) AddNetwork(name string, nodes, edges int) *NetworkSummary {
	s.Networks = append(s.Networks, NetworkSummary{Name: name, Nodes: nodes, Edges: edges})
	return &s.Networks[len(s.Networks)-1]
}

// Finish stamps the end time.
func (s *Summary) Finish() {
	s.FinishedAt = time.Now().UTC()
}

// Failed reports whether any order recorded an error.
func (s *Summary) Failed() bool {
	for _, n := range s.Networks {
		for _, o := range n.Orders {
			if o.Error != "" {
				return true
			}
		}
	}
	return false
}

// WriteSummary encodes s as YAML.
func WriteSummary(w io.Writer, s *Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return enc.Close()
}

// WriteSummaryFile writes s to path, creating parent directories.
func WriteSummaryFile(path string, s *Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	if err := WriteSummary(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadSummary decodes a YAML summary.
func ReadSummary(r io.Reader) (*Summary, error) {
	var s Summary
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	return &s, nil
}

// ReadSummaryFile reads a summary from disk.
func ReadSummaryFile(path string) (*Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSummary(f)
}
