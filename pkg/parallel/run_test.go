package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunVisitsEveryIndexOnce(t *testing.T) {
	for _, workers := range []int{1, 3, 16} {
		seen := make([]int32, 40)
		err := Run(context.Background(), workers, len(seen), func(ctx context.Context, i int) error {
			atomic.AddInt32(&seen[i], 1)
			return nil
		})
		if err != nil {
			t.Fatalf("workers=%d: Run failed: %v", workers, err)
		}
		for i, n := range seen {
			if n != 1 {
				t.Errorf("workers=%d: index %d ran %d times", workers, i, n)
			}
		}
	}
}

func TestRunSingleWorkerPreservesOrder(t *testing.T) {
	var order []int
	err := Run(context.Background(), 1, 10, func(ctx context.Context, i int) error {
		order = append(order, i)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("expected dispatch order 0..9, got %v", order)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	var active, peak int32
	err := Run(context.Background(), 3, 30, func(ctx context.Context, i int) error {
		now := atomic.AddInt32(&active, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if peak > 3 {
		t.Errorf("expected at most 3 concurrent tasks, saw %d", peak)
	}
}

func TestRunStopsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	var ran int32

	err := Run(context.Background(), 1, 100, func(ctx context.Context, i int) error {
		atomic.AddInt32(&ran, 1)
		if i == 4 {
			return boom
		}
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ran >= 100 {
		t.Errorf("expected remaining tasks to be skipped, %d ran", ran)
	}
}

func TestRunCancelsSiblings(t *testing.T) {
	boom := errors.New("boom")
	var cancelled int32
	var wg sync.WaitGroup
	wg.Add(1)

	err := Run(context.Background(), 2, 2, func(ctx context.Context, i int) error {
		if i == 0 {
			wg.Wait()
			return boom
		}
		wg.Done()
		select {
		case <-ctx.Done():
			atomic.StoreInt32(&cancelled, 1)
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if cancelled != 1 {
		t.Error("expected the sibling task to observe cancellation")
	}
}

func TestRunReportsPanics(t *testing.T) {
	err := Run(context.Background(), 2, 5, func(ctx context.Context, i int) error {
		if i == 2 {
			panic("bad task")
		}
		return nil
	})

	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *PanicError, got %v", err)
	}
	if pe.Index != 2 || !errors.Is(err, ErrTaskPanic) {
		t.Errorf("unexpected panic error: %+v", pe)
	}
}

func TestRunHonoursParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, 2, 10, func(ctx context.Context, i int) error {
		t.Error("no task should run after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunEmpty(t *testing.T) {
	if err := Run(context.Background(), 4, 0, nil); err != nil {
		t.Errorf("expected nil for an empty batch, got %v", err)
	}
}
