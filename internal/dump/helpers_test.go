package dump

import (
	"testing"
	"time"

	"github.com/cratestats/cargo-tally/internal/cratemap"
	"github.com/cratestats/cargo-tally/internal/semver"
	"github.com/cratestats/cargo-tally/internal/types"
)

// testCrateMap wraps a CrateMap with fatal-on-miss lookups.
type testCrateMap struct {
	t *testing.T
	m *cratemap.CrateMap
}

func (c *testCrateMap) id(name string) types.CrateId {
	c.t.Helper()
	id, ok := c.m.ID(name)
	if !ok {
		c.t.Fatalf("no crate named %s", name)
	}
	return id
}

// dumpBuilder assembles small DbDumps for clean/mend tests.
type dumpBuilder struct {
	t           *testing.T
	db          *types.DbDump
	crates      *cratemap.CrateMap
	nextCrate   types.CrateId
	nextVersion types.VersionId
	nextDep     types.DependencyId
}

func newDumpBuilder(t *testing.T) *dumpBuilder {
	return &dumpBuilder{
		t:      t,
		db:     &types.DbDump{Features: types.NewFeatureNames()},
		crates: cratemap.New(),
	}
}

func (b *dumpBuilder) crate(name string) types.CrateId {
	b.t.Helper()
	if id, ok := b.crates.ID(name); ok {
		return id
	}
	b.nextCrate++
	if err := b.crates.Insert(b.nextCrate, name); err != nil {
		b.t.Fatal(err)
	}
	return b.nextCrate
}

func (b *dumpBuilder) release(crate string, num string, at time.Time) types.VersionId {
	b.t.Helper()
	version, err := semver.Parse(num)
	if err != nil {
		b.t.Fatal(err)
	}
	b.nextVersion++
	b.db.Releases = append(b.db.Releases, types.Release{
		ID:        b.nextVersion,
		Crate:     b.crate(crate),
		Num:       version,
		CreatedAt: at,
	})
	return b.nextVersion
}

func (b *dumpBuilder) dep(version types.VersionId, target string, req string) types.DependencyId {
	b.t.Helper()
	parsed, err := semver.ParseReq(req)
	if err != nil {
		b.t.Fatal(err)
	}
	b.nextDep++
	b.db.Dependencies = append(b.db.Dependencies, types.Dependency{
		ID:              b.nextDep,
		Version:         version,
		Crate:           b.crate(target),
		Req:             parsed,
		Feature:         types.FeatureCrate,
		DefaultFeatures: true,
	})
	return b.nextDep
}

func day(n int) time.Time {
	return time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}
