package engine

import "github.com/cratestats/cargo-tally/internal/types"

// Direct-mode edge accounting. An edge (from, to) exists while `from` is
// the current release of its crate and one of its unconditional dependency
// rows resolves to `to`. Optional dependencies are not dependencies until
// some feature activates them, which only the transitive graph can tell,
// so they contribute no direct edges. Edges are stored indexed by target
// with multiplicities, so a release newly entering a match set can credit
// every crate already pointing at it.

// unconditional reports whether a dependency row exists in every build of
// its declaring release.
func unconditional(dep *types.Dependency) bool {
	return dep.Kind != types.DependencyDev && dep.Feature == types.FeatureCrate
}

func (e *engine) addDirectEdges(v types.VersionId) {
	for _, dep := range e.depsOf[v] {
		if !unconditional(dep) {
			continue
		}
		if to, ok := e.resolved[dep.ID]; ok {
			e.addDirectEdge(v, to)
		}
	}
}

func (e *engine) removeDirectEdges(v types.VersionId) {
	for _, dep := range e.depsOf[v] {
		if !unconditional(dep) {
			continue
		}
		if to, ok := e.resolved[dep.ID]; ok {
			e.removeDirectEdge(v, to)
		}
	}
}

func (e *engine) addDirectEdge(from, to types.VersionId) {
	incoming := e.revDirect[to]
	if incoming == nil {
		incoming = make(map[types.VersionId]int)
		e.revDirect[to] = incoming
	}
	incoming[from]++

	fromCrate := e.releases[from].Crate
	for q := range e.queries {
		if _, ok := e.match[q][to]; ok {
			e.supportAdd(q, fromCrate, 1)
		}
	}
}

func (e *engine) removeDirectEdge(from, to types.VersionId) {
	incoming := e.revDirect[to]
	incoming[from]--
	if incoming[from] <= 0 {
		delete(incoming, from)
		if len(incoming) == 0 {
			delete(e.revDirect, to)
		}
	}

	fromCrate := e.releases[from].Crate
	for q := range e.queries {
		if _, ok := e.match[q][to]; ok {
			e.supportAdd(q, fromCrate, -1)
		}
	}
}

// supportAdd adjusts the matching-edge count of a dependent crate for one
// query. A crate is counted while its support is positive; counts are
// crate-distinct no matter how many edges or matching target releases are
// involved.
func (e *engine) supportAdd(q int, crate types.CrateId, delta int) {
	n := e.support[q][crate] + delta
	if n <= 0 {
		delete(e.support[q], crate)
		return
	}
	e.support[q][crate] = n
}
