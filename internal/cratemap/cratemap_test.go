package cratemap

import (
	"testing"

	"github.com/cratestats/cargo-tally/internal/types"
)

func TestInsertAndLookup(t *testing.T) {
	m := New()
	if err := m.Insert(1, "serde_json"); err != nil {
		t.Fatal(err)
	}
	if err := m.Insert(1, "other"); err == nil {
		t.Fatal("duplicate id accepted")
	}
	if err := m.Insert(2, "serde_json"); err == nil {
		t.Fatal("duplicate name accepted")
	}

	if id, ok := m.ID("serde_json"); !ok || id != 1 {
		t.Fatalf("exact lookup = %d, %v", id, ok)
	}
	if _, ok := m.ID("serde-json"); ok {
		t.Fatal("exact lookup should not normalize separators")
	}
	if id, ok := m.IDNormalized("serde-json"); !ok || id != 1 {
		t.Fatalf("normalized lookup = %d, %v", id, ok)
	}
	if name, ok := m.Name(1); !ok || name != "serde_json" {
		t.Fatalf("name lookup = %q, %v", name, ok)
	}
}

func TestOwners(t *testing.T) {
	m := New()
	m.AddOwner("DTolnay", types.CrateId(1))
	m.AddOwner("dtolnay", types.CrateId(2))

	owned, display, ok := m.Owned("dToLnAy")
	if !ok {
		t.Fatal("case-insensitive owner lookup failed")
	}
	if display != "DTolnay" {
		t.Fatalf("display login = %q", display)
	}
	if len(owned) != 2 {
		t.Fatalf("owned = %v", owned)
	}
	if _, _, ok := m.Owned("nobody"); ok {
		t.Fatal("unknown owner resolved")
	}
}

func TestValidCrateName(t *testing.T) {
	valid := []string{"serde", "serde_json", "tokio-core", "a", "x509"}
	for _, name := range valid {
		if !ValidCrateName(name) {
			t.Errorf("%q should be valid", name)
		}
	}
	invalid := []string{"", "1password", "-serde", "has space", "emoji💀", "_lead"}
	for _, name := range invalid {
		if ValidCrateName(name) {
			t.Errorf("%q should be invalid", name)
		}
	}
}

func TestValidLogin(t *testing.T) {
	if !ValidLogin("dtolnay") || !ValidLogin("rust-lang") {
		t.Error("valid logins rejected")
	}
	for _, login := range []string{"", "-x", "x-", "a--b", "has space"} {
		if ValidLogin(login) {
			t.Errorf("%q should be invalid", login)
		}
	}
	if !IsTeam("rust-lang/libs") || IsTeam("dtolnay") {
		t.Error("team detection wrong")
	}
}
