package screener

import (
	"context"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-contingency/pkg/centrality"
	"github.com/dd0wney/cluso-contingency/pkg/checkpoint"
	"github.com/dd0wney/cluso-contingency/pkg/logging"
	"github.com/dd0wney/cluso-contingency/pkg/metrics"
	"github.com/dd0wney/cluso-contingency/pkg/network"
)

// Screener computes contingency deltas and per-edge criticality for one
// network.
type Screener interface {
	Network() *network.Network
	ReferenceCentrality(ctx context.Context) (map[string]float64, error)
	Deltas(ctx context.Context, order int) (*DeltaSet, error)
	GlobalDeltas(ctx context.Context, order int) (map[network.Edge]float64, error)
	NormalizedGlobalDeltas(ctx context.Context, order int) (map[network.Edge]float64, error)
}

// CheckpointStore persists fully screened orders.
type CheckpointStore interface {
	Load(key checkpoint.Key) (*checkpoint.Snapshot, error)
	Save(snapshot *checkpoint.Snapshot) error
}

// State is the lifecycle stage of one order.
type State int

const (
	StateUnrequested State = iota
	StateEnumerating
	StateEvaluating
	StateAggregated
)

func (s State) String() string {
	switch s {
	case StateUnrequested:
		return "unrequested"
	case StateEnumerating:
		return "enumerating"
	case StateEvaluating:
		return "evaluating"
	case StateAggregated:
		return "aggregated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Defaults
const (
	DefaultNumProcessors = 1
	DefaultTaskTimeout   = 30 * time.Second
)

// Option configures an ExhaustiveScreener.
type Option func(*ExhaustiveScreener) error

// WithNumProcessors sets the number of concurrent evaluation workers.
func WithNumProcessors(n int) Option {
	return func(s *ExhaustiveScreener) error {
		if n < 1 {
			return fmt.Errorf("%w: num_processors must be positive, got %d", ErrInvalidOption, n)
		}
		s.numProcessors = n
		return nil
	}
}

// WithTaskTimeout sets the deadline for a single contingency evaluation.
func WithTaskTimeout(d time.Duration) Option {
	return func(s *ExhaustiveScreener) error {
		if d <= 0 {
			return fmt.Errorf("%w: task timeout must be positive, got %s", ErrInvalidOption, d)
		}
		s.taskTimeout = d
		return nil
	}
}

// WithMetric sets the centrality metric.
func WithMetric(m centrality.Metric) Option {
	return func(s *ExhaustiveScreener) error {
		if m == nil {
			return fmt.Errorf("%w: nil metric", ErrInvalidOption)
		}
		s.metric = m
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *ExhaustiveScreener) error {
		if l != nil {
			s.logger = l
		}
		return nil
	}
}

// WithMetrics records screening activity in reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *ExhaustiveScreener) error {
		s.metrics = reg
		return nil
	}
}

// WithCheckpoint reuses and persists per-order results through store.
func WithCheckpoint(store CheckpointStore) Option {
	return func(s *ExhaustiveScreener) error {
		s.checkpoint = store
		return nil
	}
}
