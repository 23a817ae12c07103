package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFillsDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"moduleRoot": "./src", "stackSize": 4096}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ModuleRoot != "./src" {
		t.Fatalf("expected moduleRoot ./src, got %q", cfg.ModuleRoot)
	}
	if cfg.StackSize != 4096 {
		t.Fatalf("expected stackSize 4096, got %d", cfg.StackSize)
	}
	if !cfg.Optimize {
		t.Fatalf("expected optimize to keep its default true value")
	}
	if cfg.MaxPassIterations != 32 {
		t.Fatalf("expected maxPassIterations to keep its default 32, got %d", cfg.MaxPassIterations)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.json"); err == nil {
		t.Fatalf("expected an error loading a missing config file")
	}
}

func TestJSONDumpSetAndQuery(t *testing.T) {
	d := NewJSONDump()
	if err := d.Set("moduleRoot", "./src"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := d.SetRaw("types", `[{"name":"i32"},{"name":"bool"}]`); err != nil {
		t.Fatalf("SetRaw: %v", err)
	}

	got := Query(d.String(), "types.0.name")
	if got.String() != "i32" {
		t.Fatalf("expected types.0.name == i32, got %q", got.String())
	}
}
