package types

import (
	"github.com/cratestats/cargo-tally/internal/arena"
	"github.com/cratestats/cargo-tally/internal/intern"
)

// FeatureId is an interned handle for a feature name.
type FeatureId uint32

const (
	// FeatureCrate is the implicit "the crate itself" pseudo-feature.
	FeatureCrate FeatureId = 0
	// FeatureDefault is the feature named "default".
	FeatureDefault FeatureId = 1
	// FeatureTBD marks an optional dependency whose exposed feature has
	// not been assigned yet. It never survives the load.
	FeatureTBD FeatureId = ^FeatureId(0)
)

// CrateFeature names a feature of a crate. When the crate id equals the
// owning release's crate id the target is an intra-crate feature.
type CrateFeature struct {
	Crate   CrateId
	Feature FeatureId
}

// VersionFeature is the node type of the transitive reachability graph.
type VersionFeature struct {
	Version VersionId
	Feature FeatureId
}

// FeatureEnables records, for one feature a release declares, the set of
// features it enables. WeakEnables holds `dep?/feat` clauses.
type FeatureEnables struct {
	ID          FeatureId
	Enables     arena.Slice[CrateFeature]
	WeakEnables arena.Slice[CrateFeature]
}

// FeatureNames interns feature names process-wide. The ids of the "crate
// itself" pseudo-feature and the default feature are reserved.
type FeatureNames struct {
	table *intern.Table
}

// NewFeatureNames returns a table with the reserved names assigned.
func NewFeatureNames() *FeatureNames {
	f := &FeatureNames{table: intern.NewTable()}
	if f.ID("") != FeatureCrate || f.ID("default") != FeatureDefault {
		panic("reserved feature ids out of order")
	}
	return f
}

// ID interns name.
func (f *FeatureNames) ID(name string) FeatureId {
	return FeatureId(f.table.Intern(name))
}

// Lookup returns the id for name without interning.
func (f *FeatureNames) Lookup(name string) (FeatureId, bool) {
	id, ok := f.table.Lookup(name)
	return FeatureId(id), ok
}

// Name resolves an id.
func (f *FeatureNames) Name(id FeatureId) string {
	return f.table.Name(uint32(id))
}

// Len reports how many names have been interned.
func (f *FeatureNames) Len() int {
	return f.table.Len()
}
