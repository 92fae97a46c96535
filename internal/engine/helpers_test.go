package engine

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/cratestats/cargo-tally/internal/arena"
	"github.com/cratestats/cargo-tally/internal/matrix"
	"github.com/cratestats/cargo-tally/internal/semver"
	"github.com/cratestats/cargo-tally/internal/types"
)

// builder assembles small synthetic dumps for engine tests.
type builder struct {
	t           *testing.T
	db          *types.DbDump
	crates      map[string]types.CrateId
	nextCrate   types.CrateId
	nextVersion types.VersionId
	nextDep     types.DependencyId
}

func newBuilder(t *testing.T) *builder {
	return &builder{
		t:      t,
		db:     &types.DbDump{Features: types.NewFeatureNames()},
		crates: make(map[string]types.CrateId),
	}
}

func (b *builder) crate(name string) types.CrateId {
	if id, ok := b.crates[name]; ok {
		return id
	}
	b.nextCrate++
	b.crates[name] = b.nextCrate
	return b.nextCrate
}

func (b *builder) release(crate, num string, at time.Time, features ...types.FeatureEnables) types.VersionId {
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
		Features:  arena.New(features),
	})
	return b.nextVersion
}

// feature builds one feature-enables record; clauses are "feat" for the
// owning crate or "crate/feat".
func (b *builder) feature(owner, name string, clauses ...string) types.FeatureEnables {
	var enables []types.CrateFeature
	for _, clause := range clauses {
		crate := b.crate(owner)
		feat := clause
		for i := 0; i < len(clause); i++ {
			if clause[i] == '/' {
				crate = b.crate(clause[:i])
				feat = clause[i+1:]
				break
			}
		}
		enables = append(enables, types.CrateFeature{Crate: crate, Feature: b.db.Features.ID(feat)})
	}
	return types.FeatureEnables{
		ID:      b.db.Features.ID(name),
		Enables: arena.New(enables),
	}
}

type depOptions struct {
	kind       types.DependencyKind
	feature    string // exposed-as feature of an optional dependency
	noDefaults bool
	features   []string
}

func (b *builder) dep(version types.VersionId, target, req string) {
	b.depWith(version, target, req, depOptions{})
}

func (b *builder) depWith(version types.VersionId, target, req string, opts depOptions) {
	b.t.Helper()
	parsed, err := semver.ParseReq(req)
	if err != nil {
		b.t.Fatal(err)
	}
	feature := types.FeatureCrate
	if opts.feature != "" {
		feature = b.db.Features.ID(opts.feature)
	}
	var features []types.FeatureId
	for _, name := range opts.features {
		features = append(features, b.db.Features.ID(name))
	}
	b.nextDep++
	b.db.Dependencies = append(b.db.Dependencies, types.Dependency{
		ID:              b.nextDep,
		Version:         version,
		Crate:           b.crate(target),
		Req:             parsed,
		Feature:         feature,
		DefaultFeatures: !opts.noDefaults,
		Features:        arena.New(features),
		Kind:            opts.kind,
	})
}

func (b *builder) query(id types.QueryId, preds ...types.Predicate) types.Query {
	return types.Query{ID: id, Predicates: arena.New(preds)}
}

func (b *builder) pred(crate, req string) types.Predicate {
	b.t.Helper()
	p := types.Predicate{Crate: b.crate(crate)}
	if req != "" {
		parsed, err := semver.ParseReq(req)
		if err != nil {
			b.t.Fatal(err)
		}
		p.Req = &parsed
	}
	return p
}

func (b *builder) run(transitive bool, queries ...types.Query) *matrix.Matrix {
	b.t.Helper()
	sort.SliceStable(b.db.Releases, func(i, j int) bool {
		return b.db.Releases[i].CreatedAt.Before(b.db.Releases[j].CreatedAt)
	})
	m, err := Run(context.Background(), b.db, queries, Options{Transitive: transitive})
	if err != nil {
		b.t.Fatal(err)
	}
	return m
}

func day(n int) time.Time {
	return time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// expectRows asserts the full row series of a matrix.
func expectRows(t *testing.T, m *matrix.Matrix, want []matrix.Row) {
	t.Helper()
	got := m.Rows()
	if got == nil {
		got = []matrix.Row{}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("row series mismatch (-want +got):\n%s", diff)
	}
}

func row(at time.Time, counts ...uint32) matrix.Row {
	return matrix.Row{Time: at, Counts: counts}
}
