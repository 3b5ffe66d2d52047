package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nsguard/internal/core/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
version = 1
language = "java"

[paths]
policy_file = "policy/deps.toml"

[exclude]
dirs = [".git", "generated*"]
files = ["*Test.java"]

[analysis]
concurrency = 3
cache_size = 128

[watch]
debounce = "1s"
max_runs_per_minute = 6

[output]
tsv = "deps.tsv"
sarif = "nsguard.sarif"

[history]
enabled = true
project_key = "shop"
window = "48h"

[observability]
enabled = true
address = "127.0.0.1:9000"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Language != "java" {
		t.Errorf("Expected language java, got %s", cfg.Language)
	}
	if cfg.Paths.PolicyFile != "policy/deps.toml" {
		t.Errorf("Unexpected policy file: %s", cfg.Paths.PolicyFile)
	}
	if len(cfg.Exclude.Dirs) != 2 || cfg.Exclude.Files[0] != "*Test.java" {
		t.Errorf("Unexpected excludes: %+v", cfg.Exclude)
	}
	if cfg.Analysis.Concurrency != 3 || cfg.Analysis.CacheSize != 128 {
		t.Errorf("Unexpected analysis settings: %+v", cfg.Analysis)
	}
	if cfg.Watch.Debounce != time.Second || cfg.Watch.MaxRunsPerMinute != 6 {
		t.Errorf("Unexpected watch settings: %+v", cfg.Watch)
	}
	if cfg.Output.SARIF != "nsguard.sarif" || cfg.Output.Text != "" {
		t.Errorf("Unexpected output settings: %+v", cfg.Output)
	}
	if !cfg.History.Enabled || cfg.History.Window != 48*time.Hour || cfg.History.Path != "history.db" {
		t.Errorf("Unexpected history settings: %+v", cfg.History)
	}
	if cfg.Observability.Address != "127.0.0.1:9000" {
		t.Errorf("Unexpected observability address: %s", cfg.Observability.Address)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Version != 1 || cfg.Language != "go" {
		t.Fatalf("unexpected defaults: version=%d language=%s", cfg.Version, cfg.Language)
	}
	if cfg.Paths.PolicyFile != DefaultPolicyFile {
		t.Fatalf("expected default policy file, got %s", cfg.Paths.PolicyFile)
	}
	if len(cfg.Packages) != 1 || cfg.Packages[0] != "./..." {
		t.Fatalf("unexpected default packages: %v", cfg.Packages)
	}
	if cfg.Analysis.Concurrency < 1 || cfg.Watch.Debounce != 500*time.Millisecond {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.Analysis, cfg.Watch)
	}
	if errs := Validate(cfg); len(errs) > 0 {
		t.Fatalf("default config must validate: %v", errs)
	}
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown key":      "langauge = \"go\"",
		"bad version":      "version = 3",
		"bad language":     "language = \"cobol\"",
		"bad glob":         "[exclude]\ndirs = [\"[x\"]",
		"packages on java": "language = \"java\"\npackages = [\"./cmd/...\"]",
		"output conflict":  "[output]\ntsv = \"out.txt\"\ntext = \"./out.txt\"",
		"bad address":      "[observability]\nenabled = true\naddress = \"nope\"",
		"tracing endpoint": "[observability]\nenabled = true\nenable_tracing = true",
		"negative watch":   "[watch]\nmax_runs_per_minute = -1",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCode(err, errors.CodeValidationError) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !strings.Contains(err.Error(), path) {
				t.Fatalf("expected error to name %s, got %v", path, err)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, found, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault failed: %v", err)
	}
	if found || cfg == nil || cfg.Language != "go" {
		t.Fatalf("expected defaults for a missing file, got found=%v cfg=%+v", found, cfg)
	}

	path := writeConfig(t, "language = \"go\"\n")
	if _, found, err = LoadOrDefault(path); err != nil || !found {
		t.Fatalf("expected existing file to load, got found=%v err=%v", found, err)
	}

	path = writeConfig(t, "language = ")
	if _, _, err = LoadOrDefault(path); err == nil {
		t.Fatal("expected malformed file to fail")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("NSGUARD_LANGUAGE", " Java ")
	t.Setenv("NSGUARD_ANALYSIS_CONCURRENCY", "7")
	t.Setenv("NSGUARD_ANALYSIS_CACHE_SIZE", "many")
	t.Setenv("NSGUARD_WATCH_DEBOUNCE", "2s")
	t.Setenv("NSGUARD_HISTORY_ENABLED", "TRUE")
	t.Setenv("NSGUARD_PACKAGES", "./cmd/..., ./internal/...")

	cfg := DefaultConfig()
	ApplyEnvOverrides(cfg)

	if cfg.Language != "java" {
		t.Errorf("expected java, got %q", cfg.Language)
	}
	if cfg.Analysis.Concurrency != 7 {
		t.Errorf("expected concurrency 7, got %d", cfg.Analysis.Concurrency)
	}
	if cfg.Analysis.CacheSize != 4096 {
		t.Errorf("invalid override must be ignored, got %d", cfg.Analysis.CacheSize)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("expected 2s debounce, got %s", cfg.Watch.Debounce)
	}
	if !cfg.History.Enabled {
		t.Error("expected history enabled")
	}
	if len(cfg.Packages) != 2 || cfg.Packages[1] != "./internal/..." {
		t.Errorf("unexpected packages: %v", cfg.Packages)
	}
}
