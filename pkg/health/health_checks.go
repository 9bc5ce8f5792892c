package health

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"
)

// Progress counts screened orders for the progress check. The zero value is
// ready to use.
type Progress struct {
	total  atomic.Int64
	done   atomic.Int64
	failed atomic.Int64
}

// Expect adds n orders to the planned total.
func (p *Progress) Expect(n int) {
	p.total.Add(int64(n))
}

// Finish records one completed order; err marks it failed.
func (p *Progress) Finish(err error) {
	p.done.Add(1)
	if err != nil {
		p.failed.Add(1)
	}
}

// Snapshot returns planned, completed and failed counts.
func (p *Progress) Snapshot() (total, done, failed int64) {
	return p.total.Load(), p.done.Load(), p.failed.Load()
}

// ProgressCheck reports screening progress. Any failed order degrades it.
func ProgressCheck(p *Progress) CheckFunc {
	return func() Check {
		total, done, failed := p.Snapshot()
		check := Check{
			Status: StatusHealthy,
			Details: map[string]any{
				"orders_total":  total,
				"orders_done":   done,
				"orders_failed": failed,
			},
		}
		check.Message = fmt.Sprintf("%d of %d orders screened", done, total)
		if failed > 0 {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d of %d orders failed", failed, done)
		}
		return check
	}
}

// DirectoryCheck verifies that dir exists and accepts new files.
func DirectoryCheck(dir string) CheckFunc {
	return func() Check {
		check := Check{Details: map[string]any{"dir": dir}}

		f, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		f.Close()
		_ = os.Remove(f.Name())

		check.Status = StatusHealthy
		check.Message = "writable"
		return check
	}
}

// MemoryCheck degrades when the heap holds more than limit bytes. A zero
// limit only reports usage.
func MemoryCheck(limit uint64) CheckFunc {
	return func() Check {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		check := Check{
			Status:  StatusHealthy,
			Message: "memory usage normal",
			Details: map[string]any{
				"alloc_bytes": mem.Alloc,
				"sys_bytes":   mem.Sys,
			},
		}
		if limit > 0 && mem.Alloc > limit {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("heap %d bytes exceeds %d", mem.Alloc, limit)
		}
		return check
	}
}
