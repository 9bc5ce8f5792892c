package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dd0wney/cluso-contingency/pkg/logging"
)

// ErrTaskPanic marks a task that panicked.
var ErrTaskPanic = errors.New("task panicked")

// PanicError carries the value recovered from a panicking task.
type PanicError struct {
	Index int
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Index, e.Value)
}

func (e *PanicError) Unwrap() error {
	return ErrTaskPanic
}

// IndexedTask processes item i of a batch.
type IndexedTask func(ctx context.Context, i int) error

// Run executes task for every index in [0, n) on a pool of the given size and
// waits for all of them. Tasks are dispatched in index order. The first
// failure cancels the context handed to the remaining tasks and is returned;
// tasks not yet started when that happens are skipped. A panicking task
// fails with a *PanicError.
func Run(ctx context.Context, workers, n int, task IndexedTask, opts ...PoolOption) error {
	if n <= 0 {
		return ctx.Err()
	}
	if workers > n {
		workers = n
	}

	pool, err := NewWorkerPool(workers, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		ok := pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			defer func() {
				if r := recover(); r != nil {
					pool.logger.Error("task panic recovered",
						logging.Int("task", i), logging.Any("panic", r))
					fail(&PanicError{Index: i, Value: r})
				}
			}()
			if err := task(ctx, i); err != nil {
				fail(err)
			}
		})
		if !ok {
			fail(ErrPoolClosed)
			break
		}
	}
	pool.Close()

	if firstErr != nil {
		return firstErr
	}
	// Parent cancellation observed before any task failed
	return ctx.Err()
}
