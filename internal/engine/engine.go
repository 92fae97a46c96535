// Package engine maintains, as a function of time, the number of distinct
// crates whose current release depends - directly or transitively through
// the feature graph - on something matching each query.
//
// The engine consumes the chronological release stream one event at a time
// and keeps every derived relation incremental:
//
//   - The resolver is a reified relation (crate, requirement) -> best
//     matching release. A new release updates exactly the requirement
//     groups on its own crate; dependent rows re-resolve through a
//     targeted join instead of a rescan.
//   - Direct counts are support-counted: per query, each dependent crate
//     tracks how many of its current release's edges land in the query's
//     match set, so edge insertions and retractions adjust counts without
//     recounting.
//   - Transitive reachability over the (version, feature) graph grows
//     monotonically through a worklist when edges or matches are added.
//     Retractions (a dependency re-resolving away from a release inside
//     the reachable set) mark the query dirty; dirty queries rerun the
//     fixpoint from their seeds at the end of the timestamp batch, in
//     parallel across queries.
//
// Events carrying the same timestamp form one logical batch; counts are
// observed only at batch boundaries.
package engine

import (
	"github.com/cratestats/cargo-tally/internal/semver"
	"github.com/cratestats/cargo-tally/internal/types"
)

// resolution is one reified resolver group: every dependency row declaring
// the same requirement against the same crate shares the group and its
// current best match.
type resolution struct {
	req     semver.VersionReq
	deps    []*types.Dependency
	best    types.VersionId
	bestNum semver.Version
	hasBest bool
}

type engine struct {
	transitive bool
	queries    []types.Query

	releases map[types.VersionId]*types.Release
	depsOf   map[types.VersionId][]*types.Dependency
	byCrate  map[types.CrateId][]*types.Release
	active   map[types.CrateId]types.VersionId

	resolutions map[types.CrateId]map[string]*resolution
	resolved    map[types.DependencyId]types.VersionId

	// match[q] is the set of releases satisfying query q's predicates.
	match []map[types.VersionId]struct{}

	// Direct mode: revDirect indexes current edges by target so a
	// growing match set can credit existing dependents; support counts
	// matching edges per dependent crate.
	revDirect map[types.VersionId]map[types.VersionId]int
	support   []map[types.CrateId]int

	// Transitive mode state lives in featuregraph.go / reach.go.
	revFeature map[types.VersionFeature]map[types.VersionFeature]int
	featEdges  map[types.VersionId][]vfEdge
	reach      []map[types.VersionFeature]bool
	reachCrate []map[types.CrateId]map[types.VersionId]struct{}
	counted    []map[types.CrateId]struct{}
	dirty      []bool
}

func newEngine(db *types.DbDump, queries []types.Query, transitive bool) *engine {
	e := &engine{
		transitive:  transitive,
		queries:     queries,
		releases:    make(map[types.VersionId]*types.Release, len(db.Releases)),
		depsOf:      make(map[types.VersionId][]*types.Dependency),
		byCrate:     make(map[types.CrateId][]*types.Release),
		active:      make(map[types.CrateId]types.VersionId),
		resolutions: make(map[types.CrateId]map[string]*resolution),
		resolved:    make(map[types.DependencyId]types.VersionId),
		match:       make([]map[types.VersionId]struct{}, len(queries)),
		revDirect:   make(map[types.VersionId]map[types.VersionId]int),
		support:     make([]map[types.CrateId]int, len(queries)),
		revFeature:  make(map[types.VersionFeature]map[types.VersionFeature]int),
		featEdges:   make(map[types.VersionId][]vfEdge),
		reach:       make([]map[types.VersionFeature]bool, len(queries)),
		reachCrate:  make([]map[types.CrateId]map[types.VersionId]struct{}, len(queries)),
		counted:     make([]map[types.CrateId]struct{}, len(queries)),
		dirty:       make([]bool, len(queries)),
	}
	for q := range queries {
		e.match[q] = make(map[types.VersionId]struct{})
		e.support[q] = make(map[types.CrateId]int)
		e.reach[q] = make(map[types.VersionFeature]bool)
		e.reachCrate[q] = make(map[types.CrateId]map[types.VersionId]struct{})
		e.counted[q] = make(map[types.CrateId]struct{})
	}
	for i := range db.Dependencies {
		dep := &db.Dependencies[i]
		e.depsOf[dep.Version] = append(e.depsOf[dep.Version], dep)
	}
	return e
}

// insert applies one release event.
func (e *engine) insert(rel *types.Release) {
	e.releases[rel.ID] = rel
	e.byCrate[rel.Crate] = append(e.byCrate[rel.Crate], rel)

	// The new release may supersede the resolution of existing
	// requirement groups on its crate.
	for _, res := range e.resolutions[rel.Crate] {
		if !res.req.Matches(rel.Num) {
			continue
		}
		if res.hasBest && !res.bestNum.Less(rel.Num) {
			continue
		}
		old, hadOld := res.best, res.hasBest
		res.best, res.bestNum, res.hasBest = rel.ID, rel.Num, true
		for _, dep := range res.deps {
			e.reresolve(dep, old, hadOld, rel.ID)
		}
	}

	// Register the release's own dependency rows.
	for _, dep := range e.depsOf[rel.ID] {
		if dep.Kind == types.DependencyDev {
			continue
		}
		res := e.group(dep.Crate, dep.Req)
		res.deps = append(res.deps, dep)
		if res.hasBest {
			e.resolved[dep.ID] = res.best
		}
	}

	if e.transitive {
		e.addFeatureEdges(rel.ID)
	}

	// The release becomes the current release of its crate.
	prev, had := e.active[rel.Crate]
	e.active[rel.Crate] = rel.ID
	if e.transitive {
		for q := range e.queries {
			if !e.dirty[q] {
				e.updateCounted(q, rel.Crate)
			}
		}
	} else {
		if had {
			e.removeDirectEdges(prev)
		}
		e.addDirectEdges(rel.ID)
	}

	for q := range e.queries {
		if e.queries[q].Matches(rel) {
			e.addMatch(q, rel)
		}
	}
}

// group returns the resolver group for (crate, req), creating it with a
// one-time scan of the crate's releases published so far.
func (e *engine) group(crate types.CrateId, req semver.VersionReq) *resolution {
	key := req.String()
	groups := e.resolutions[crate]
	if groups == nil {
		groups = make(map[string]*resolution)
		e.resolutions[crate] = groups
	}
	res, ok := groups[key]
	if !ok {
		res = &resolution{req: req}
		for _, rel := range e.byCrate[crate] {
			if req.Matches(rel.Num) && (!res.hasBest || res.bestNum.Less(rel.Num)) {
				res.best, res.bestNum, res.hasBest = rel.ID, rel.Num, true
			}
		}
		groups[key] = res
	}
	return res
}

// reresolve moves one dependency row from the old resolution to the new
// one and propagates the edge diff.
func (e *engine) reresolve(dep *types.Dependency, old types.VersionId, hadOld bool, next types.VersionId) {
	e.resolved[dep.ID] = next
	if e.transitive {
		e.refreshFeatureEdges(dep.Version)
		return
	}
	if !unconditional(dep) {
		return
	}
	declarer := e.releases[dep.Version]
	if e.active[declarer.Crate] != dep.Version {
		return
	}
	if hadOld {
		e.removeDirectEdge(dep.Version, old)
	}
	e.addDirectEdge(dep.Version, next)
}

// addMatch records a release satisfying query q and credits whatever
// already points at it.
func (e *engine) addMatch(q int, rel *types.Release) {
	if _, ok := e.match[q][rel.ID]; ok {
		return
	}
	e.match[q][rel.ID] = struct{}{}
	if e.transitive {
		if !e.dirty[q] {
			e.reachAdd(q, types.VersionFeature{Version: rel.ID, Feature: types.FeatureCrate}, false)
		}
		return
	}
	for from, multiplicity := range e.revDirect[rel.ID] {
		e.supportAdd(q, e.releases[from].Crate, multiplicity)
	}
}

// snapshot returns the current count per query.
func (e *engine) snapshot() []uint32 {
	counts := make([]uint32, len(e.queries))
	for q := range e.queries {
		if e.transitive {
			counts[q] = uint32(len(e.counted[q]))
		} else {
			counts[q] = uint32(len(e.support[q]))
		}
	}
	return counts
}
