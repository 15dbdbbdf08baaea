package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LRUSIM_SIM__TRACE", "keys.txt")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Cache.Capacity != 1024 || cfg.Sim.Workers != 1 || cfg.Log.Level != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Sim.Trace != "keys.txt" {
		t.Fatalf("trace = %q", cfg.Sim.Trace)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := writeFile(t, "lrusim.yaml", `
cache:
  capacity: 10
sim:
  trace: a.txt
  workers: 4
log:
  level: debug
`)
	t.Setenv("LRUSIM_CACHE__CAPACITY", "20")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Cache.Capacity != 20 {
		t.Fatalf("environment should win over the file: capacity = %d", cfg.Cache.Capacity)
	}
	if cfg.Sim.Trace != "a.txt" || cfg.Sim.Workers != 4 || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing trace", "cache:\n  capacity: 1\n"},
		{"negative capacity", "cache:\n  capacity: -1\nsim:\n  trace: a\n"},
		{"no workers", "sim:\n  trace: a\n  workers: 0\n"},
		{"bad level", "sim:\n  trace: a\nlog:\n  level: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(writeFile(t, "c.yaml", tt.yaml)); err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("LRUSIM_SIM__TRACE"); got != "sim.trace" {
		t.Fatalf("envKey = %q", got)
	}
}
