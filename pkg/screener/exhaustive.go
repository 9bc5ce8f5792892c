package screener

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dd0wney/cluso-contingency/pkg/centrality"
	"github.com/dd0wney/cluso-contingency/pkg/checkpoint"
	"github.com/dd0wney/cluso-contingency/pkg/logging"
	"github.com/dd0wney/cluso-contingency/pkg/metrics"
	"github.com/dd0wney/cluso-contingency/pkg/network"
	"github.com/dd0wney/cluso-contingency/pkg/parallel"
)

// ExhaustiveScreener evaluates every valid contingency of a requested order.
type ExhaustiveScreener struct {
	net           *network.Network
	metric        centrality.Metric
	numProcessors int
	taskTimeout   time.Duration
	logger        logging.Logger
	metrics       *metrics.Registry
	checkpoint    CheckpointStore

	// refMu serialises the reference computation; reference is nil until it
	// has succeeded once
	refMu     sync.Mutex
	reference []float64

	mu     sync.RWMutex
	deltas map[int]*DeltaSet
	global map[int][]float64 // by edge index
	states map[int]State

	flight singleflight.Group
}

var _ Screener = (*ExhaustiveScreener)(nil)

// NewExhaustiveScreener returns a screener over net.
func NewExhaustiveScreener(net *network.Network, opts ...Option) (*ExhaustiveScreener, error) {
	if net == nil {
		return nil, fmt.Errorf("%w: nil network", ErrInvalidOption)
	}

	s := &ExhaustiveScreener{
		net:           net,
		metric:        centrality.Default(),
		numProcessors: DefaultNumProcessors,
		taskTimeout:   DefaultTaskTimeout,
		logger:        logging.NewNopLogger(),
		deltas:        make(map[int]*DeltaSet),
		global:        make(map[int][]float64),
		states:        make(map[int]State),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With(
		logging.Component("screener"),
		logging.Network(net.Name()),
		logging.Metric(s.metric.Name()),
	)
	if s.metrics != nil {
		s.metrics.RecordNetwork(net.Name(), net.NumNodes(), net.NumEdges())
	}
	return s, nil
}

// Network returns the screened network.
func (s *ExhaustiveScreener) Network() *network.Network {
	return s.net
}

// Metric returns the centrality metric in use.
func (s *ExhaustiveScreener) Metric() centrality.Metric {
	return s.metric
}

// NumProcessors returns the worker pool size.
func (s *ExhaustiveScreener) NumProcessors() int {
	return s.numProcessors
}

// TaskTimeout returns the per-contingency deadline.
func (s *ExhaustiveScreener) TaskTimeout() time.Duration {
	return s.taskTimeout
}

// ReferenceCentrality returns the metric on the intact graph keyed by node
// identifier. It is computed once; a failed computation is retried on the
// next call.
func (s *ExhaustiveScreener) ReferenceCentrality(ctx context.Context) (map[string]float64, error) {
	ref, err := s.referenceScores(ctx)
	if err != nil {
		return nil, err
	}
	nodes := s.net.Nodes()
	out := make(map[string]float64, len(ref))
	for i, v := range ref {
		out[nodes[i]] = v
	}
	return out, nil
}

func (s *ExhaustiveScreener) referenceScores(ctx context.Context) ([]float64, error) {
	s.refMu.Lock()
	defer s.refMu.Unlock()

	if s.reference != nil {
		s.cacheHit(metrics.CacheReference)
		return s.reference, nil
	}

	op := logging.StartTimer(s.logger, "reference centrality computed")
	scores, err := s.metric.Score(ctx, s.net.CloneGraph())
	if err != nil {
		op.EndError(err)
		s.recordReference(metrics.StatusError)
		return nil, fmt.Errorf("reference centrality: %w", err)
	}

	ref := make([]float64, s.net.NumNodes())
	for i := range ref {
		ref[i] = scores[int64(i)]
	}
	s.reference = ref
	s.recordReference(metrics.StatusSuccess)
	op.End(logging.Count(len(ref)))
	return ref, nil
}

// Deltas returns the delta of every valid contingency of the given order.
// The result is memoized only once every contingency has been scored.
// Concurrent calls for the same order share a single computation.
func (s *ExhaustiveScreener) Deltas(ctx context.Context, order int) (*DeltaSet, error) {
	if ds, ok := s.cachedDeltas(order); ok {
		s.cacheHit(metrics.CacheDeltas)
		return ds, nil
	}

	v, err, _ := s.flight.Do(strconv.Itoa(order), func() (any, error) {
		// A caller that lost the race may arrive after the leader finished
		if ds, ok := s.cachedDeltas(order); ok {
			return ds, nil
		}
		return s.screen(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return v.(*DeltaSet), nil
}

func (s *ExhaustiveScreener) cachedDeltas(order int) (*DeltaSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.deltas[order]
	return ds, ok
}

// screen runs one order through enumeration and evaluation.
func (s *ExhaustiveScreener) screen(ctx context.Context, order int) (ds *DeltaSet, err error) {
	start := time.Now()
	log := s.logger.With(logging.Order(order))

	defer func() {
		if err != nil {
			s.setState(order, StateUnrequested)
			status := metrics.StatusError
			if errors.Is(err, ErrTimeout) {
				status = metrics.StatusTimeout
			}
			s.recordOrder(order, status, time.Since(start))
			log.Error("screening failed", logging.Error(err), logging.Latency(time.Since(start)))
		}
	}()

	s.setState(order, StateEnumerating)
	enumStart := time.Now()
	partition, err := s.net.Partition(order)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordEnumeration(order, len(partition.Valid), len(partition.Islanding), time.Since(enumStart))
	}
	log.Info("contingencies partitioned",
		logging.Int("valid", len(partition.Valid)),
		logging.Int("islanding", len(partition.Islanding)))

	s.setState(order, StateEvaluating)
	var (
		deltas         []float64
		fromCheckpoint bool
	)
	switch {
	case len(partition.Valid) == 0:
		// Nothing to score, so the reference is not needed either
		deltas = []float64{}
	default:
		deltas, fromCheckpoint = s.restore(order, partition.Valid, log)
		if fromCheckpoint {
			break
		}
		reference, err := s.referenceScores(ctx)
		if err != nil {
			return nil, err
		}
		deltas, err = s.evaluateAll(ctx, order, partition.Valid, reference, log)
		if err != nil {
			return nil, err
		}
	}

	ds = newDeltaSet(order, partition.Valid, deltas)

	s.mu.Lock()
	s.deltas[order] = ds
	s.states[order] = StateAggregated
	s.mu.Unlock()

	if !fromCheckpoint {
		s.persist(order, ds, log)
	}

	elapsed := time.Since(start)
	s.recordOrder(order, metrics.StatusSuccess, elapsed)
	log.Info("order screened",
		logging.Count(ds.Len()),
		logging.Float64("delta_sum", ds.Sum()),
		logging.Bool("checkpoint", fromCheckpoint),
		logging.Latency(elapsed))
	return ds, nil
}

// evaluateAll scores contingencies on the worker pool. Results land in a
// slice indexed by enumeration position so that the caller sums them in a
// fixed order regardless of completion order.
func (s *ExhaustiveScreener) evaluateAll(ctx context.Context, order int, valid []network.Contingency, reference []float64, log logging.Logger) ([]float64, error) {
	deltas := make([]float64, len(valid))
	op := logging.StartTimer(log, "contingencies evaluated",
		logging.Count(len(valid)), logging.Workers(s.numProcessors))

	err := parallel.Run(ctx, s.numProcessors, len(valid), func(ctx context.Context, i int) error {
		d, err := s.evaluate(ctx, order, valid[i], reference)
		if err != nil {
			return err
		}
		deltas[i] = d
		return nil
	}, parallel.WithPoolLogger(log))
	if err != nil {
		// Panics inside the metric already arrive as *EvaluationError; only
		// a panic in the task itself needs the contingency attached.
		var (
			ee *EvaluationError
			pe *parallel.PanicError
		)
		if !errors.As(err, &ee) && errors.As(err, &pe) && pe.Index >= 0 && pe.Index < len(valid) {
			err = &EvaluationError{Order: order, Contingency: valid[pe.Index].Clone(), Cause: err}
		}
		op.EndError(err)
		return nil, err
	}

	op.End()
	return deltas, nil
}

type scoreResult struct {
	scores map[int64]float64
	err    error
}

// evaluate computes delta(c) on a private copy of the graph under the task
// deadline.
func (s *ExhaustiveScreener) evaluate(ctx context.Context, order int, c network.Contingency, reference []float64) (float64, error) {
	if len(c) == 0 {
		return 0, nil
	}

	g, err := s.net.CloneWithout(c)
	if err != nil {
		return 0, err
	}

	taskCtx, cancel := context.WithTimeout(ctx, s.taskTimeout)
	defer cancel()

	if s.metrics != nil {
		s.metrics.EvaluationsInFlight.Inc()
		defer s.metrics.EvaluationsInFlight.Dec()
	}
	start := time.Now()

	// The metric runs in its own goroutine so that a deadline is enforced
	// even when the metric ignores its context.
	done := make(chan scoreResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- scoreResult{err: &parallel.PanicError{Index: -1, Value: r}}
			}
		}()
		scores, err := s.metric.Score(taskCtx, g)
		done <- scoreResult{scores: scores, err: err}
	}()

	var res scoreResult
	timedOut := false
	select {
	case res = <-done:
	case <-taskCtx.Done():
		timedOut = true
	}

	if timedOut || errors.Is(res.err, context.DeadlineExceeded) {
		if ctx.Err() != nil {
			// Caller cancelled or a sibling task failed
			return 0, ctx.Err()
		}
		s.recordEvaluation(metrics.StatusTimeout, time.Since(start))
		if s.metrics != nil {
			s.metrics.RecordTimeout(order)
		}
		s.logger.Warn("contingency timed out",
			logging.Order(order),
			logging.Contingency(c),
			logging.Duration("timeout", s.taskTimeout))
		return 0, &TimeoutError{Order: order, Contingency: c.Clone(), Timeout: s.taskTimeout}
	}
	if res.err != nil {
		if ctx.Err() != nil && errors.Is(res.err, context.Canceled) {
			return 0, ctx.Err()
		}
		s.recordEvaluation(metrics.StatusError, time.Since(start))
		return 0, &EvaluationError{Order: order, Contingency: c.Clone(), Cause: res.err}
	}

	s.recordEvaluation(metrics.StatusSuccess, time.Since(start))
	s.logger.Debug("contingency evaluated", logging.Order(order), logging.Contingency(c))
	return deltaOf(res.scores, reference), nil
}

// deltaOf sums |after(v) - reference(v)| in node index order.
func deltaOf(after map[int64]float64, reference []float64) float64 {
	var d float64
	for i, ref := range reference {
		d += math.Abs(after[int64(i)] - ref)
	}
	return d
}

// GlobalDeltas returns, for every edge, the sum of the deltas of the valid
// contingencies of the given order that contain it. Edges in no valid
// contingency map to 0.
func (s *ExhaustiveScreener) GlobalDeltas(ctx context.Context, order int) (map[network.Edge]float64, error) {
	acc, err := s.globalByIndex(ctx, order)
	if err != nil {
		return nil, err
	}
	return s.edgeMap(acc, 1), nil
}

// NormalizedGlobalDeltas divides GlobalDeltas by C(m-1, order-1)·n. It fails
// with a *DomainError when that factor is zero.
func (s *ExhaustiveScreener) NormalizedGlobalDeltas(ctx context.Context, order int) (map[network.Edge]float64, error) {
	factor, err := NormalizationFactor(s.net.NumEdges(), s.net.NumNodes(), order)
	if err != nil {
		return nil, err
	}
	acc, err := s.globalByIndex(ctx, order)
	if err != nil {
		return nil, err
	}
	return s.edgeMap(acc, factor), nil
}

// NormalizationFactor returns C(m-1, order-1)·n as a float64.
func NormalizationFactor(numEdges, numNodes, order int) (float64, error) {
	f := network.Binomial(numEdges-1, order-1)
	f.Mul(f, big.NewInt(int64(numNodes)))
	if f.Sign() == 0 {
		return 0, &DomainError{Order: order, NumEdges: numEdges, NumNodes: numNodes}
	}
	v, _ := new(big.Float).SetInt(f).Float64()
	return v, nil
}

func (s *ExhaustiveScreener) globalByIndex(ctx context.Context, order int) ([]float64, error) {
	s.mu.RLock()
	acc, ok := s.global[order]
	s.mu.RUnlock()
	if ok {
		s.cacheHit(metrics.CacheGlobal)
		return acc, nil
	}

	ds, err := s.Deltas(ctx, order)
	if err != nil {
		return nil, err
	}

	acc = make([]float64, s.net.NumEdges())
	for i, c := range ds.contingencies {
		for _, e := range c {
			acc[e] += ds.deltas[i]
		}
	}

	s.mu.Lock()
	if cached, ok := s.global[order]; ok {
		acc = cached
	} else {
		s.global[order] = acc
	}
	s.mu.Unlock()
	return acc, nil
}

func (s *ExhaustiveScreener) edgeMap(acc []float64, divisor float64) map[network.Edge]float64 {
	edges := s.net.Edges()
	out := make(map[network.Edge]float64, len(edges))
	for i, e := range edges {
		out[e] = acc[i] / divisor
	}
	return out
}

// State reports the lifecycle stage of order.
func (s *ExhaustiveScreener) State(order int) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[order]
}

// ScreenedOrders lists the orders whose deltas are memoized, ascending.
func (s *ExhaustiveScreener) ScreenedOrders() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make([]int, 0, len(s.deltas))
	for k := range s.deltas {
		orders = append(orders, k)
	}
	slices.Sort(orders)
	return orders
}

func (s *ExhaustiveScreener) setState(order int, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == StateUnrequested {
		delete(s.states, order)
		return
	}
	s.states[order] = st
}

func (s *ExhaustiveScreener) checkpointKey(order int) checkpoint.Key {
	return checkpoint.Key{Network: s.net.Name(), Metric: s.metric.Name(), Order: order}
}

// restore loads a previously persisted order when it matches the current
// enumeration.
func (s *ExhaustiveScreener) restore(order int, valid []network.Contingency, log logging.Logger) ([]float64, bool) {
	if s.checkpoint == nil {
		return nil, false
	}
	snap, err := s.checkpoint.Load(s.checkpointKey(order))
	if err != nil {
		if !errors.Is(err, checkpoint.ErrNotFound) {
			log.Warn("checkpoint unreadable, recomputing", logging.Error(err))
		}
		return nil, false
	}
	if err := snap.Matches(s.net.NumEdges(), valid); err != nil {
		log.Warn("checkpoint stale, recomputing", logging.Error(err))
		return nil, false
	}
	s.cacheHit(metrics.CacheCheckpoint)
	return snap.Deltas, true
}

// persist saves a screened order. Failures are logged and otherwise ignored:
// the in-memory result is already complete.
func (s *ExhaustiveScreener) persist(order int, ds *DeltaSet, log logging.Logger) {
	if s.checkpoint == nil {
		return
	}
	snap := &checkpoint.Snapshot{
		Key:           s.checkpointKey(order),
		NumEdges:      s.net.NumEdges(),
		Contingencies: ds.contingencies,
		Deltas:        ds.deltas,
		CreatedAt:     time.Now(),
	}
	if err := s.checkpoint.Save(snap); err != nil {
		log.Warn("checkpoint save failed", logging.Error(err))
	}
}

func (s *ExhaustiveScreener) cacheHit(cache string) {
	if s.metrics != nil {
		s.metrics.RecordCacheHit(cache)
	}
}

func (s *ExhaustiveScreener) recordReference(status string) {
	if s.metrics != nil {
		s.metrics.RecordReference(s.metric.Name(), status)
	}
}

func (s *ExhaustiveScreener) recordEvaluation(status string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordEvaluation(s.metric.Name(), status, d)
	}
}

func (s *ExhaustiveScreener) recordOrder(order int, status string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordOrder(order, status, d)
	}
}
