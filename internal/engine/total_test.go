package engine

import (
	"testing"
	"time"
)

func TestTotalsCountsDistinctCrates(t *testing.T) {
	b := newBuilder(t)
	b.release("a", "1.0.0", day(0))
	b.release("a", "1.1.0", day(1)) // second release of the same crate
	b.release("b", "1.0.0", day(2))

	totals := IndexTotals(b.db.Releases)

	tests := []struct {
		at   time.Time
		want uint32
	}{
		{day(0).Add(-time.Hour), 0},
		{day(0), 1},
		{day(1), 1}, // a's second release adds nothing
		{day(2), 2},
		{day(9), 2},
	}
	for _, tt := range tests {
		if got := totals.Eval(tt.at); got != tt.want {
			t.Errorf("Eval(%v) = %d, want %d", tt.at, got, tt.want)
		}
	}
}

func TestTotalsEmpty(t *testing.T) {
	totals := IndexTotals(nil)
	if got := totals.Eval(day(0)); got != 0 {
		t.Fatalf("Eval on empty index = %d", got)
	}
}
