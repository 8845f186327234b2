package pipeline

import (
	"github.com/collabgraph/collabgraph/internal/errors"
	"github.com/collabgraph/collabgraph/internal/record"
)

// Tally counts what the workers of a stage consumed and produced. Each worker
// owns one; they are summed after the barrier.
type Tally struct {
	// Read is the number of records handed to the transform.
	Read int64
	// Written is the number of records the stage emitted.
	Written int64
	// FilesSkipped is the number of input files that could not be decoded.
	FilesSkipped int64
	// Skipped counts rejected records by errors.Reason.
	Skipped map[string]int64
}

func newTally() *Tally {
	return &Tally{Skipped: make(map[string]int64)}
}

func (t *Tally) skip(err error) {
	t.Skipped[errors.Reason(err)]++
}

func (t *Tally) addScan(s record.ScanStats) {
	t.Read += s.Lines
	for reason, n := range s.Skipped {
		t.Skipped[reason] += n
	}
}

// SkippedTotal returns the number of rejected records.
func (t *Tally) SkippedTotal() int64 {
	var n int64
	for _, c := range t.Skipped {
		n += c
	}
	return n
}

func (t *Tally) Merge(other *Tally) {
	if other == nil {
		return
	}
	t.Read += other.Read
	t.Written += other.Written
	t.FilesSkipped += other.FilesSkipped
	for reason, n := range other.Skipped {
		t.Skipped[reason] += n
	}
}
