package engine

import "github.com/cratestats/cargo-tally/internal/types"

// Transitive reachability. reach[q] is the visited set of the fixpoint:
// the key set is every (version, feature) known to activate something
// matching query q; the value records whether the node was reached through
// an edge. Seeds (the matching releases themselves) enter with value
// false and are not counted - a crate depends on a query through at least
// one edge, never by merely matching it - but become counted if some edge
// later reaches them.

// reachAdd grows the visited set from start, walking incoming edges.
func (e *engine) reachAdd(q int, start types.VersionFeature, viaEdge bool) {
	type item struct {
		vf      types.VersionFeature
		viaEdge bool
	}
	work := []item{{start, viaEdge}}
	for len(work) > 0 {
		next := work[len(work)-1]
		work = work[:len(work)-1]

		prev, seen := e.reach[q][next.vf]
		if seen {
			if next.viaEdge && !prev {
				e.reach[q][next.vf] = true
				e.project(q, next.vf)
			}
			continue
		}
		e.reach[q][next.vf] = next.viaEdge
		if next.viaEdge {
			e.project(q, next.vf)
		}
		for from := range e.revFeature[next.vf] {
			work = append(work, item{from, true})
		}
	}
}

// project records an edge-reached CRATE node in the per-crate index and
// refreshes the crate's counted state. Only the CRATE feature of a release
// marks the crate as depending; feature nodes are plumbing.
func (e *engine) project(q int, vf types.VersionFeature) {
	if vf.Feature != types.FeatureCrate {
		return
	}
	crate := e.releases[vf.Version].Crate
	versions := e.reachCrate[q][crate]
	if versions == nil {
		versions = make(map[types.VersionId]struct{})
		e.reachCrate[q][crate] = versions
	}
	versions[vf.Version] = struct{}{}
	e.updateCounted(q, crate)
}

// updateCounted reconciles one crate's contribution to query q's count: a
// crate counts exactly when its current release is reachable.
func (e *engine) updateCounted(q int, crate types.CrateId) {
	current, ok := e.active[crate]
	inReach := false
	if ok {
		_, inReach = e.reachCrate[q][crate][current]
	}
	_, isCounted := e.counted[q][crate]
	switch {
	case inReach && !isCounted:
		e.counted[q][crate] = struct{}{}
	case !inReach && isCounted:
		delete(e.counted[q], crate)
	}
}

// recompute reruns query q's fixpoint from its seeds. Called for dirty
// queries at the end of a timestamp batch; safe to run concurrently for
// distinct queries because all shared state is read-only here.
func (e *engine) recompute(q int) {
	e.reach[q] = make(map[types.VersionFeature]bool)
	e.reachCrate[q] = make(map[types.CrateId]map[types.VersionId]struct{})
	e.counted[q] = make(map[types.CrateId]struct{})
	for version := range e.match[q] {
		e.reachAdd(q, types.VersionFeature{Version: version, Feature: types.FeatureCrate}, false)
	}
	e.dirty[q] = false
}
