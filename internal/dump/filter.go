package dump

import (
	"regexp"

	"github.com/cratestats/cargo-tally/internal/cratemap"
	"github.com/cratestats/cargo-tally/internal/types"
)

// Exclude drops every release published by a crate matching one of the
// patterns. Dependency rows declared by dropped releases become inert; the
// engine never joins them against anything.
func Exclude(db *types.DbDump, crates *cratemap.CrateMap, exclude []*regexp.Regexp) {
	if len(exclude) == 0 {
		return
	}
	kept := db.Releases[:0]
	for i := range db.Releases {
		rel := &db.Releases[i]
		name, _ := crates.Name(rel.Crate)
		matched := false
		for _, pattern := range exclude {
			if pattern.MatchString(name) {
				matched = true
				break
			}
		}
		if !matched {
			kept = append(kept, *rel)
		}
	}
	db.Releases = kept
}

// Disjoin prunes the dump to the crates connected to some query predicate
// through the crate-level reverse-dependency graph. Crates that cannot
// reach a queried crate can never contribute to a count, so dropping their
// releases up front keeps them out of every downstream join.
func Disjoin(db *types.DbDump, queries []types.Query) {
	crateOfVersion := make(map[types.VersionId]types.CrateId, len(db.Releases))
	for i := range db.Releases {
		crateOfVersion[db.Releases[i].ID] = db.Releases[i].Crate
	}

	// target crate -> crates declaring a dependency on it
	reverse := make(map[types.CrateId]map[types.CrateId]struct{})
	for i := range db.Dependencies {
		dep := &db.Dependencies[i]
		declarer, ok := crateOfVersion[dep.Version]
		if !ok {
			continue
		}
		set, ok := reverse[dep.Crate]
		if !ok {
			set = make(map[types.CrateId]struct{})
			reverse[dep.Crate] = set
		}
		set[declarer] = struct{}{}
	}

	connected := make(map[types.CrateId]struct{})
	var frontier []types.CrateId
	for _, query := range queries {
		for _, pred := range query.Predicates.Items() {
			if _, ok := connected[pred.Crate]; !ok {
				connected[pred.Crate] = struct{}{}
				frontier = append(frontier, pred.Crate)
			}
		}
	}
	for len(frontier) > 0 {
		crate := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for declarer := range reverse[crate] {
			if _, ok := connected[declarer]; !ok {
				connected[declarer] = struct{}{}
				frontier = append(frontier, declarer)
			}
		}
	}

	keptReleases := db.Releases[:0]
	for i := range db.Releases {
		if _, ok := connected[db.Releases[i].Crate]; ok {
			keptReleases = append(keptReleases, db.Releases[i])
		}
	}
	db.Releases = keptReleases

	keptDeps := db.Dependencies[:0]
	for i := range db.Dependencies {
		if _, ok := connected[db.Dependencies[i].Crate]; ok {
			keptDeps = append(keptDeps, db.Dependencies[i])
		}
	}
	db.Dependencies = keptDeps
}
