package query

import (
	"strings"
	"testing"

	"github.com/cratestats/cargo-tally/internal/cratemap"
	"github.com/cratestats/cargo-tally/internal/types"
)

func testCrates(t *testing.T) *cratemap.CrateMap {
	t.Helper()
	m := cratemap.New()
	for id, name := range map[types.CrateId]string{
		1: "serde",
		2: "serde_json",
		3: "anyhow",
		4: "thiserror",
	} {
		if err := m.Insert(id, name); err != nil {
			t.Fatal(err)
		}
	}
	m.AddOwner("dtolnay", 3)
	m.AddOwner("dtolnay", 4)
	return m
}

func TestParseSingle(t *testing.T) {
	queries, err := Parse([]string{"serde:1.0"}, testCrates(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(queries) != 1 || queries[0].ID != 0 {
		t.Fatalf("queries = %+v", queries)
	}
	preds := queries[0].Predicates.Items()
	if len(preds) != 1 || preds[0].Crate != 1 || preds[0].Req == nil {
		t.Fatalf("predicates = %+v", preds)
	}
	if preds[0].Req.String() != "^1.0" {
		t.Fatalf("req = %s", preds[0].Req)
	}
}

func TestParseDisjunction(t *testing.T) {
	queries, err := Parse([]string{"anyhow:^1.0 + thiserror"}, testCrates(t))
	if err != nil {
		t.Fatal(err)
	}
	preds := queries[0].Predicates.Items()
	if len(preds) != 2 {
		t.Fatalf("predicates = %+v", preds)
	}
	if preds[1].Crate != 4 || preds[1].Req != nil {
		t.Fatalf("bare predicate = %+v", preds[1])
	}
}

func TestParseOwner(t *testing.T) {
	queries, err := Parse([]string{"@DTolnay"}, testCrates(t))
	if err != nil {
		t.Fatal(err)
	}
	if got := queries[0].Predicates.Len(); got != 2 {
		t.Fatalf("owner expanded to %d predicates", got)
	}

	_, err = Parse([]string{"@nobody"}, testCrates(t))
	if err == nil || !strings.Contains(err.Error(), "no crates owned by user @nobody") {
		t.Fatalf("err = %v", err)
	}
	_, err = Parse([]string{"@ghost/team"}, testCrates(t))
	if err == nil || !strings.Contains(err.Error(), "team") {
		t.Fatalf("err = %v", err)
	}
}

func TestParseNormalizesSeparators(t *testing.T) {
	queries, err := Parse([]string{"serde-json"}, testCrates(t))
	if err != nil {
		t.Fatal(err)
	}
	if queries[0].Predicates.At(0).Crate != 2 {
		t.Fatal("separator-agnostic lookup failed")
	}
}

func TestParseUnknownCrate(t *testing.T) {
	_, err := Parse([]string{"nonexistent"}, testCrates(t))
	if err == nil || !strings.Contains(err.Error(), "no crate named nonexistent") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	for _, q := range []string{"serde", "serde:^1.0", "@user", "@org/team", "a + b:1.2"} {
		if err := Validate(q); err != nil {
			t.Errorf("Validate(%q) = %v", q, err)
		}
	}
	for _, q := range []string{"", "1bad", "serde:bogus", "@-x", "has space"} {
		if err := Validate(q); err == nil {
			t.Errorf("Validate(%q) accepted", q)
		}
	}
}

func TestFormat(t *testing.T) {
	crates := testCrates(t)
	if got := Format("anyhow:1.0 + thiserror", crates); got != "anyhow:^1.0 or thiserror" {
		t.Fatalf("format = %q", got)
	}
	if got := Format("serde-json", crates); got != "serde_json" {
		t.Fatalf("format = %q", got)
	}
	if got := Format("@dtolnay", crates); got != "@dtolnay" {
		t.Fatalf("format = %q", got)
	}
}
