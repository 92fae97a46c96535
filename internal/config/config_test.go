package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := Initialize(); err != nil {
		t.Fatal(err)
	}
	if DB() != "./db-dump.tar.gz" {
		t.Errorf("db default = %q", DB())
	}
	if Jobs() != 0 || Relative() || Transitive() || Title() != "" {
		t.Error("unexpected defaults")
	}
	if MemoryLimit() != 0 {
		t.Errorf("memory limit default = %d", MemoryLimit())
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CARGO_TALLY_DB", "/data/dump.tar.gz")
	t.Setenv("CARGO_TALLY_MEMORY_LIMIT", "1073741824")
	if err := Initialize(); err != nil {
		t.Fatal(err)
	}
	if DB() != "/data/dump.tar.gz" {
		t.Errorf("db = %q", DB())
	}
	if MemoryLimit() != 1073741824 {
		t.Errorf("memory limit = %d", MemoryLimit())
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "db = \"elsewhere.tar.gz\"\njobs = 4\ntransitive = true\nexclude = [\"-internal-\"]\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	if err := Initialize(); err != nil {
		t.Fatal(err)
	}
	if DB() != "elsewhere.tar.gz" || Jobs() != 4 || !Transitive() {
		t.Errorf("file values not applied: db=%q jobs=%d transitive=%v", DB(), Jobs(), Transitive())
	}
	if got := Exclude(); len(got) != 1 || got[0] != "-internal-" {
		t.Errorf("exclude = %v", got)
	}
}

func TestMalformedConfigFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFile), []byte("db = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	if err := Initialize(); err == nil {
		t.Fatal("malformed config accepted")
	}
}
