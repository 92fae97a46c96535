package engine

import "github.com/cratestats/cargo-tally/internal/types"

// The transitive reachability graph is keyed on (version, feature). Each
// release contributes edges of three forms:
//
//  1. Dependency edges: a dependency row declared under feature F of
//     version V, resolving to V', yields (V, F) -> (V', g) for each
//     feature g the row enables on its target.
//  2. Intra-crate feature edges: (V, DEFAULT) -> (V, CRATE)
//     unconditionally, (V, F) -> (V, CRATE) for every other feature, and
//     (V, F) -> (V, G) for each same-crate enables clause.
//  3. Cross-crate feature edges: a clause `dep/feat` under feature F
//     routes through V's dependency rows on `dep`; the row both activates
//     the dependency and enables the named feature on it. Weak clauses
//     (`dep?/feat`) are treated as regular enables, which overcounts
//     slightly.
//     TODO: gate weak edges on the dependency being activated through
//     some other path; needs a second fixpoint.
//
// Forms 1 and 3 depend on the resolver, so a re-resolved dependency row
// rebuilds its declaring version's contribution.

type vfEdge struct {
	from, to types.VersionFeature
}

func (e *engine) addFeatureEdges(v types.VersionId) {
	edges := e.computeFeatureEdges(v)
	e.featEdges[v] = edges
	for _, edge := range edges {
		e.addFeatureEdge(edge)
	}
}

// refreshFeatureEdges rebuilds a version's contribution after one of its
// dependency rows re-resolved.
func (e *engine) refreshFeatureEdges(v types.VersionId) {
	for _, edge := range e.featEdges[v] {
		e.removeFeatureEdge(edge)
	}
	e.addFeatureEdges(v)
}

func (e *engine) computeFeatureEdges(v types.VersionId) []vfEdge {
	rel := e.releases[v]
	var edges []vfEdge

	edges = append(edges, vfEdge{
		from: types.VersionFeature{Version: v, Feature: types.FeatureDefault},
		to:   types.VersionFeature{Version: v, Feature: types.FeatureCrate},
	})

	declared := make(map[types.FeatureId]bool, rel.Features.Len())
	for _, feature := range rel.Features.Items() {
		declared[feature.ID] = true
		source := types.VersionFeature{Version: v, Feature: feature.ID}
		if feature.ID != types.FeatureDefault {
			edges = append(edges, vfEdge{
				from: source,
				to:   types.VersionFeature{Version: v, Feature: types.FeatureCrate},
			})
		}
		for _, clause := range feature.Enables.Items() {
			edges = e.appendEnableEdges(edges, rel, source, clause)
		}
		for _, clause := range feature.WeakEnables.Items() {
			edges = e.appendEnableEdges(edges, rel, source, clause)
		}
	}

	for _, dep := range e.depsOf[v] {
		if dep.Kind == types.DependencyDev {
			continue
		}
		if dep.Feature != types.FeatureCrate && !declared[dep.Feature] {
			// The feature an optional dependency is exposed as exists
			// even when the release declares no feature of that name.
			declared[dep.Feature] = true
			edges = append(edges, vfEdge{
				from: types.VersionFeature{Version: v, Feature: dep.Feature},
				to:   types.VersionFeature{Version: v, Feature: types.FeatureCrate},
			})
		}
		to, ok := e.resolved[dep.ID]
		if !ok {
			continue
		}
		source := types.VersionFeature{Version: v, Feature: dep.Feature}
		for _, g := range dep.EnabledFeatures() {
			edges = append(edges, vfEdge{
				from: source,
				to:   types.VersionFeature{Version: to, Feature: g},
			})
		}
	}

	return edges
}

// appendEnableEdges expands one enables clause of the feature `source`.
func (e *engine) appendEnableEdges(edges []vfEdge, rel *types.Release, source types.VersionFeature, clause types.CrateFeature) []vfEdge {
	if clause.Crate == rel.Crate {
		return append(edges, vfEdge{
			from: source,
			to:   types.VersionFeature{Version: rel.ID, Feature: clause.Feature},
		})
	}
	// Cross-crate enable: route through the dependency rows targeting
	// the named crate. A clause naming a crate this release does not
	// depend on is historical looseness and contributes nothing.
	for _, dep := range e.depsOf[rel.ID] {
		if dep.Kind == types.DependencyDev || dep.Crate != clause.Crate {
			continue
		}
		to, ok := e.resolved[dep.ID]
		if !ok {
			continue
		}
		edges = append(edges, vfEdge{
			from: source,
			to:   types.VersionFeature{Version: to, Feature: clause.Feature},
		})
		for _, g := range dep.EnabledFeatures() {
			edges = append(edges, vfEdge{
				from: source,
				to:   types.VersionFeature{Version: to, Feature: g},
			})
		}
	}
	return edges
}

func (e *engine) addFeatureEdge(edge vfEdge) {
	incoming := e.revFeature[edge.to]
	if incoming == nil {
		incoming = make(map[types.VersionFeature]int)
		e.revFeature[edge.to] = incoming
	}
	incoming[edge.from]++
	if incoming[edge.from] > 1 {
		return
	}
	for q := range e.queries {
		if e.dirty[q] {
			continue
		}
		if _, ok := e.reach[q][edge.to]; !ok {
			continue
		}
		e.reachAdd(q, edge.from, true)
	}
}

func (e *engine) removeFeatureEdge(edge vfEdge) {
	incoming := e.revFeature[edge.to]
	incoming[edge.from]--
	if incoming[edge.from] > 0 {
		return
	}
	delete(incoming, edge.from)
	if len(incoming) == 0 {
		delete(e.revFeature, edge.to)
	}
	for q := range e.queries {
		if e.dirty[q] {
			continue
		}
		if _, ok := e.reach[q][edge.to]; !ok {
			continue
		}
		if _, ok := e.reach[q][edge.from]; ok {
			// The tail may have lost its only support; rerun the
			// fixpoint for this query at the end of the batch.
			e.dirty[q] = true
		}
	}
}
