package dump

import (
	"github.com/cratestats/cargo-tally/internal/cratemap"
	"github.com/cratestats/cargo-tally/internal/debug"
	"github.com/cratestats/cargo-tally/internal/semver"
	"github.com/cratestats/cargo-tally/internal/types"
)

// Clean walks the release stream in chronological order and repairs the
// dependency table against it.
//
// A dependency whose target crate has not published anything as of the
// declaring release is dropped: either every published version of the
// target is a pre-release (which we do not track), or the crate has gone
// missing from the index entirely.
//
// A requirement that matches a synthetic version one semver-incompatibility
// past the target's current maximum (`0.*` matching 1.0.0) would silently
// accept future incompatible releases as they appear in the stream; such
// requirements are constrained to `^max_published` as of the declaring
// release.
//
// Releases must already be sorted; Dependencies is rewritten in place.
func Clean(db *types.DbDump, crates *cratemap.CrateMap) {
	perVersion := make(map[types.VersionId][]int)
	for i := range db.Dependencies {
		dep := &db.Dependencies[i]
		perVersion[dep.Version] = append(perVersion[dep.Version], i)
	}

	crateMax := make(map[types.CrateId]semver.Version)
	drop := make(map[int]bool)

	for r := range db.Releases {
		rel := &db.Releases[r]
		if max, ok := crateMax[rel.Crate]; !ok || max.Less(rel.Num) {
			crateMax[rel.Crate] = rel.Num
		}

		for _, i := range perVersion[rel.ID] {
			dep := &db.Dependencies[i]
			max, published := crateMax[dep.Crate]
			if !published {
				if debug.Enabled() {
					relName, _ := crates.Name(rel.Crate)
					depName, _ := crates.Name(dep.Crate)
					debug.Logf("unresolved dep %s %s on %s %s\n", relName, rel.Num, depName, dep.Req)
				}
				drop[i] = true
				continue
			}
			if dep.Req.Matches(onePastMax(max)) {
				dep.Req = semver.Caret(max.Major(), max.Minor(), max.Patch())
			}
		}
	}

	if len(drop) == 0 {
		return
	}
	kept := db.Dependencies[:0]
	for i := range db.Dependencies {
		if !drop[i] {
			kept = append(kept, db.Dependencies[i])
		}
	}
	db.Dependencies = kept
}

// onePastMax produces a synthetic version semver-incompatible with the
// highest version currently published.
func onePastMax(max semver.Version) semver.Version {
	switch {
	case max.Major() > 0:
		return semver.New(max.Major()+1, 0, 0)
	case max.Minor() > 0:
		return semver.New(0, max.Minor()+1, 0)
	default:
		return semver.New(0, 0, max.Patch()+1)
	}
}
