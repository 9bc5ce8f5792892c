package checkpoint

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dd0wney/cluso-contingency/pkg/network"
)

// Sentinel errors
var (
	ErrNotFound = errors.New("checkpoint not found")
	ErrCorrupt  = errors.New("checkpoint corrupt")
	ErrMismatch = errors.New("checkpoint does not match network")
)

// CorruptError describes why a snapshot file was rejected.
type CorruptError struct {
	Path   string
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("checkpoint %s: %s", e.Path, e.Reason)
}

func (e *CorruptError) Unwrap() error {
	return ErrCorrupt
}

// Key identifies a snapshot.
type Key struct {
	Network string
	Metric  string
	Order   int
}

// filename maps a key to a file name, replacing characters that are unsafe
// in paths.
func (k Key) filename() string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
				return r
			}
			return '_'
		}, s)
	}
	return fmt.Sprintf("%s.%s.k%d%s", clean(k.Network), clean(k.Metric), k.Order, fileExt)
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/k=%d", k.Network, k.Metric, k.Order)
}

// Snapshot is the persisted result of screening one order: every valid
// contingency with its delta, in enumeration order.
type Snapshot struct {
	Key           Key
	NumEdges      int
	Contingencies []network.Contingency
	Deltas        []float64
	CreatedAt     time.Time
}

// Stats reports compression statistics for a store.
type Stats struct {
	Saves             uint64
	Loads             uint64
	BytesUncompressed uint64
	BytesCompressed   uint64
}

// CompressionRatio returns uncompressed / compressed bytes, or 0 when nothing
// has been written.
func (s Stats) CompressionRatio() float64 {
	if s.BytesCompressed == 0 {
		return 0
	}
	return float64(s.BytesUncompressed) / float64(s.BytesCompressed)
}

// Matches reports whether the snapshot was taken over the given valid
// contingencies of a network with numEdges edges. A snapshot that does not
// match must not be reused.
func (s *Snapshot) Matches(numEdges int, valid []network.Contingency) error {
	if s.NumEdges != numEdges {
		return fmt.Errorf("%w: %d edges, network has %d", ErrMismatch, s.NumEdges, numEdges)
	}
	if len(s.Contingencies) != len(valid) {
		return fmt.Errorf("%w: %d contingencies, network has %d", ErrMismatch, len(s.Contingencies), len(valid))
	}
	for i, c := range valid {
		if s.Contingencies[i].Key() != c.Key() {
			return fmt.Errorf("%w: contingency %d is %v, want %v", ErrMismatch, i, s.Contingencies[i], c)
		}
	}
	return nil
}
