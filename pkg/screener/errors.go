package screener

import (
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-contingency/pkg/network"
)

// Sentinel errors
var (
	ErrTimeout       = errors.New("contingency evaluation timed out")
	ErrDomain        = errors.New("normalization factor is zero")
	ErrEvaluation    = errors.New("contingency evaluation failed")
	ErrInvalidOption = errors.New("invalid screener option")
)

// TimeoutError identifies the task that missed its deadline.
type TimeoutError struct {
	Order       int
	Contingency network.Contingency
	Timeout     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("order %d: contingency %v exceeded %s", e.Order, []int(e.Contingency), e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// DomainError reports an order for which normalization is undefined.
type DomainError struct {
	Order    int
	NumEdges int
	NumNodes int
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("cannot normalize order %d on a network with %d edges and %d nodes: C(%d, %d) * %d is zero",
		e.Order, e.NumEdges, e.NumNodes, e.NumEdges-1, e.Order-1, e.NumNodes)
}

func (e *DomainError) Unwrap() error {
	return ErrDomain
}

// EvaluationError wraps a metric failure on a single contingency.
type EvaluationError struct {
	Order       int
	Contingency network.Contingency
	Cause       error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("order %d: contingency %v: %v", e.Order, []int(e.Contingency), e.Cause)
}

func (e *EvaluationError) Unwrap() []error {
	return []error{ErrEvaluation, e.Cause}
}
