package render

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cratestats/cargo-tally/internal/matrix"
)

func TestPrintAbsolute(t *testing.T) {
	m := matrix.New(2)
	at := time.Date(2018, 6, 2, 12, 30, 0, 0, time.UTC)
	m.Push(at, []uint32{4, 10})

	var out strings.Builder
	Print(&out, m, nil)

	want := "2018-06-02 12:30:00 [4, 10]\n"
	if out.String() != want {
		t.Fatalf("output = %q, want %q", out.String(), want)
	}
}

func TestGraphWritesFile(t *testing.T) {
	m := matrix.New(1)
	m.Push(time.Date(2018, 6, 2, 12, 30, 0, 0, time.UTC), []uint32{3})

	path, err := Graph("", false, m, []string{"serde"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(raw)
	if !strings.Contains(content, "number of crates depending directly") {
		t.Fatal("default title missing")
	}
	if !strings.Contains(content, `"name":"serde"`) {
		t.Fatal("series label missing")
	}
	if strings.Contains(content, "var data = [];") {
		t.Fatal("data placeholder not substituted")
	}
}
