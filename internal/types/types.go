// Package types defines the identifiers and entities the tally engine
// operates on. Identifiers are compact copyable handles; entities are
// immutable once inserted and reference each other exclusively through
// integer ids, never pointers.
package types

import (
	"time"

	"github.com/cratestats/cargo-tally/internal/arena"
	"github.com/cratestats/cargo-tally/internal/semver"
)

// CrateId identifies a crate. Assigned by the database dump, stable within
// a run.
type CrateId uint32

// VersionId identifies a release.
type VersionId uint32

// DependencyId identifies a dependency row.
type DependencyId uint32

// QueryId indexes the user's query list.
type QueryId uint8

// DependencyKind distinguishes normal, build, and dev dependencies.
type DependencyKind uint8

const (
	DependencyNormal DependencyKind = iota
	DependencyBuild
	DependencyDev
)

func (k DependencyKind) String() string {
	switch k {
	case DependencyNormal:
		return "normal"
	case DependencyBuild:
		return "build"
	case DependencyDev:
		return "dev"
	}
	return "unknown"
}

// Release is one published version of a crate.
type Release struct {
	ID        VersionId
	Crate     CrateId
	Num       semver.Version
	CreatedAt time.Time
	Features  arena.Slice[FeatureEnables]
}

// Dependency is one row of a release's [dependencies] section.
//
// Feature names the feature of the declaring crate that activates this
// edge: FeatureCrate for unconditional dependencies, or the feature an
// optional dependency is exposed as.
type Dependency struct {
	ID              DependencyId
	Version         VersionId // declaring release
	Crate           CrateId   // target crate
	Req             semver.VersionReq
	Feature         FeatureId
	DefaultFeatures bool
	Features        arena.Slice[FeatureId]
	Kind            DependencyKind
}

// EnabledFeatures lists the features of the target crate activated by this
// dependency edge: just FeatureCrate when default features are off and no
// explicit features are listed, otherwise FeatureDefault followed by the
// explicit list.
func (d Dependency) EnabledFeatures() []FeatureId {
	if !d.DefaultFeatures && d.Features.IsEmpty() {
		return []FeatureId{FeatureCrate}
	}
	features := make([]FeatureId, 0, d.Features.Len()+1)
	if d.DefaultFeatures {
		features = append(features, FeatureDefault)
	}
	features = append(features, d.Features.Items()...)
	return features
}

// Predicate matches releases of one crate, optionally constrained by a
// requirement. A nil Req matches every release of the crate.
type Predicate struct {
	Crate CrateId
	Req   *semver.VersionReq
}

// Matches reports whether the predicate accepts the release.
func (p Predicate) Matches(rel *Release) bool {
	return p.Crate == rel.Crate && (p.Req == nil || p.Req.Matches(rel.Num))
}

// Query is a disjunction of predicates.
type Query struct {
	ID         QueryId
	Predicates arena.Slice[Predicate]
}

// Matches reports whether any predicate accepts the release.
func (q Query) Matches(rel *Release) bool {
	for _, p := range q.Predicates.Items() {
		if p.Matches(rel) {
			return true
		}
	}
	return false
}

// DbDump is the validated in-memory form of a database dump.
type DbDump struct {
	Releases     []Release
	Dependencies []Dependency
	Features     *FeatureNames
}
