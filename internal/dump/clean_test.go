package dump

import (
	"testing"

	"github.com/cratestats/cargo-tally/internal/semver"
)

func TestCleanRewritesWildcardToMaxPublished(t *testing.T) {
	b := newDumpBuilder(t)
	bV1 := b.release("b", "1.0.0", day(0))
	_ = bV1
	aV1 := b.release("a", "0.2.0", day(1))
	b.dep(aV1, "b", "*")
	// Published after the clean decision point; must not widen the
	// rewritten requirement.
	b.release("b", "2.0.0", day(2))
	SortReleases(b.db)

	Clean(b.db, b.crates)

	if got := b.db.Dependencies[0].Req.String(); got != "^1.0.0" {
		t.Fatalf("req = %s, want ^1.0.0", got)
	}
	two, _ := semver.Parse("2.0.0")
	if b.db.Dependencies[0].Req.Matches(two) {
		t.Fatal("rewritten requirement still matches the later incompatible release")
	}
}

func TestCleanUsesMaxAsOfDeclaration(t *testing.T) {
	b := newDumpBuilder(t)
	b.release("b", "0.3.0", day(0))
	aV1 := b.release("a", "1.0.0", day(1))
	b.dep(aV1, "b", "0.*")
	SortReleases(b.db)

	Clean(b.db, b.crates)

	// 0.* matches the synthetic 0.4.0 one past max 0.3.0.
	if got := b.db.Dependencies[0].Req.String(); got != "^0.3.0" {
		t.Fatalf("req = %s, want ^0.3.0", got)
	}
}

func TestCleanKeepsConstrainedRequirements(t *testing.T) {
	b := newDumpBuilder(t)
	b.release("b", "1.4.0", day(0))
	aV1 := b.release("a", "1.0.0", day(1))
	b.dep(aV1, "b", "^1.2")
	SortReleases(b.db)

	Clean(b.db, b.crates)

	if got := b.db.Dependencies[0].Req.String(); got != "^1.2" {
		t.Fatalf("req = %s, want ^1.2 untouched", got)
	}
}

func TestCleanDropsUnpublishedTargets(t *testing.T) {
	b := newDumpBuilder(t)
	aV1 := b.release("a", "1.0.0", day(0))
	// "ghost" is a known crate name with nothing published.
	b.dep(aV1, "ghost", "^1.0")
	bV1 := b.release("b", "1.0.0", day(1))
	b.dep(bV1, "a", "^1.0")
	SortReleases(b.db)

	Clean(b.db, b.crates)

	if len(b.db.Dependencies) != 1 {
		t.Fatalf("dependencies = %d, want the ghost dep dropped", len(b.db.Dependencies))
	}
	if b.db.Dependencies[0].Crate != b.crate("a") {
		t.Fatal("wrong dependency dropped")
	}
}

func TestCleanDependencyOnLaterPublishedCrate(t *testing.T) {
	// The target crate publishes only after the declaring release; as of
	// the declaration it is unpublished and the row is dropped.
	b := newDumpBuilder(t)
	aV1 := b.release("a", "1.0.0", day(0))
	b.dep(aV1, "b", "^1.0")
	b.release("b", "1.0.0", day(1))
	SortReleases(b.db)

	Clean(b.db, b.crates)

	if len(b.db.Dependencies) != 0 {
		t.Fatalf("dependencies = %d, want 0", len(b.db.Dependencies))
	}
}
