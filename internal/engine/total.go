package engine

import (
	"sort"
	"time"

	"github.com/cratestats/cargo-tally/internal/types"
)

// Totals answers "how many distinct crates had published anything as of t",
// the denominator of relative output. The index is the sorted list of
// first-release timestamps; lookup is a binary search.
type Totals struct {
	times []time.Time
}

// IndexTotals builds the index from a chronologically sorted release list.
func IndexTotals(releases []types.Release) *Totals {
	seen := make(map[types.CrateId]struct{})
	var times []time.Time
	for i := range releases {
		rel := &releases[i]
		if _, ok := seen[rel.Crate]; ok {
			continue
		}
		seen[rel.Crate] = struct{}{}
		times = append(times, rel.CreatedAt)
	}
	return &Totals{times: times}
}

// Eval returns the number of crates with a release at or before t.
func (t *Totals) Eval(at time.Time) uint32 {
	return uint32(sort.Search(len(t.times), func(i int) bool {
		return t.times[i].After(at)
	}))
}
