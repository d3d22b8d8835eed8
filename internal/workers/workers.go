// Package workers runs embarrassingly parallel loops over index ranges on
// a bounded pond pool.
package workers

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/alitto/pond/v2"
)

// DefaultChunk is the number of elements handed to one task.
const DefaultChunk = 1024

var limit atomic.Int64

// SetLimit caps the number of concurrent tasks. Values <= 0 restore the
// default of one task per CPU.
func SetLimit(n int) {
	limit.Store(int64(n))
}

// Limit returns the current concurrency cap.
func Limit() int {
	if n := int(limit.Load()); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// ForEach calls fn(lo, hi) for consecutive chunks covering [0, n) and
// returns once every chunk is done. Chunks run concurrently and must not
// write to elements outside their own range.
func ForEach(n, chunk int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if chunk <= 0 {
		chunk = DefaultChunk
	}
	numWorkers := Limit()
	if n <= chunk || numWorkers == 1 {
		fn(0, n)
		return
	}

	pool := pond.NewPool(numWorkers)
	defer pool.StopAndWait()

	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			fn(lo, hi)
		})
	}
	wg.Wait()
}

// ForEachRow is ForEach over image rows.
func ForEachRow(height int, fn func(y int)) {
	ForEach(height, 16, func(lo, hi int) {
		for y := lo; y < hi; y++ {
			fn(y)
		}
	})
}
