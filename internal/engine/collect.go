package engine

import (
	"time"

	"github.com/cratestats/cargo-tally/internal/matrix"
)

// collector consolidates per-batch counts into the output matrix. Rows
// appear only when some coordinate changed, so quiescent gaps collapse;
// leading all-zero batches are dropped entirely.
type collector struct {
	m    *matrix.Matrix
	last []uint32
}

func newCollector(width int) *collector {
	return &collector{m: matrix.New(width)}
}

func (c *collector) offer(at time.Time, counts []uint32) {
	if c.last == nil {
		nonzero := false
		for _, count := range counts {
			if count != 0 {
				nonzero = true
				break
			}
		}
		if !nonzero {
			return
		}
	} else if equalCounts(c.last, counts) {
		return
	}
	row := make([]uint32, len(counts))
	copy(row, counts)
	c.m.Push(at, row)
	c.last = row
}

func equalCounts(a, b []uint32) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
