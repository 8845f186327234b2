// Package shard computes the deterministic partition of a run's input across a
// fixed number of workers.
//
// A unit is whatever the caller counts: a file in a list of input files or a byte
// of a single large file. Worker i of n receives the half-open range
// [i*S, (i+1)*S) with S = total/n, and the last worker (index n-1) absorbs the
// remainder so the union of all ranges is always [0, total).
package shard

import (
	"fmt"
	"runtime"
)

// Range is an immutable descriptor of the units assigned to one worker.
type Range struct {
	// Index is the worker index in [0, n).
	Index int
	// Start is the first unit of the range.
	Start int64
	// End is one past the last unit of the range.
	End int64
}

// Len returns the number of units in the range.
func (r Range) Len() int64 {
	return r.End - r.Start
}

// Last reports whether r is the final range of a plan with n workers.
func (r Range) Last(n int) bool {
	return r.Index == n-1
}

func (r Range) String() string {
	return fmt.Sprintf("shard %d [%d, %d)", r.Index, r.Start, r.End)
}

// Workers clamps the requested worker count so that 1 <= n <= total. A
// non-positive request selects the number of available CPUs. When total is
// zero there is nothing to do and 0 is returned.
func Workers(requested int, total int64) int {
	if total <= 0 {
		return 0
	}

	n := requested
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	if int64(n) > total {
		n = int(total)
	}
	return n
}

// Plan splits [0, total) into n contiguous, non-overlapping ranges after
// clamping n with Workers. The returned slice is ordered by Index.
func Plan(total int64, n int) []Range {
	n = Workers(n, total)
	if n == 0 {
		return nil
	}

	size := total / int64(n)
	ranges := make([]Range, 0, n)
	for i := 0; i < n; i++ {
		r := Range{
			Index: i,
			Start: int64(i) * size,
			End:   int64(i+1) * size,
		}
		if r.Last(n) {
			r.End = total
		}
		ranges = append(ranges, r)
	}
	return ranges
}

// Slice returns the elements of units covered by r.
func Slice[T any](units []T, r Range) []T {
	return units[r.Start:r.End]
}
