package config

import (
	"fmt"
	"net"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateLanguage(cfg *Config) error {
	if !slices.Contains(languages, cfg.Language) {
		return fmt.Errorf("language must be one of: %s, got %q", strings.Join(languages, ", "), cfg.Language)
	}
	if cfg.Language != "go" && len(cfg.Packages) > 0 && !slices.Equal(cfg.Packages, []string{"./..."}) {
		return fmt.Errorf("packages is only supported for language=go")
	}
	return nil
}

func validateExclude(cfg *Config) error {
	for i, pattern := range cfg.Exclude.Dirs {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.dirs[%d] %q: %w", i, pattern, err)
		}
	}
	for i, pattern := range cfg.Exclude.Files {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("exclude.files[%d] %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis.concurrency must be >= 1, got %d", cfg.Analysis.Concurrency)
	}
	if cfg.Analysis.CacheSize < 1 {
		return fmt.Errorf("analysis.cache_size must be >= 1, got %d", cfg.Analysis.CacheSize)
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.MaxRunsPerMinute < 0 {
		return fmt.Errorf("watch.max_runs_per_minute must not be negative, got %d", cfg.Watch.MaxRunsPerMinute)
	}
	return nil
}

func validateOutput(cfg *Config) error {
	targets := []struct {
		name, path string
	}{
		{"output.text", cfg.Output.Text},
		{"output.tsv", cfg.Output.TSV},
		{"output.sarif", cfg.Output.SARIF},
	}
	seen := make(map[string]string, len(targets))
	for _, target := range targets {
		if target.path == "" {
			continue
		}
		clean := filepath.Clean(target.path)
		if owner, ok := seen[clean]; ok {
			return fmt.Errorf("output conflict: %s and %s share the same path %q", owner, target.name, target.path)
		}
		seen[clean] = target.name
	}
	return nil
}

func validateHistory(cfg *Config) error {
	if !cfg.History.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		return fmt.Errorf("history.path must not be empty when history.enabled=true")
	}
	if cfg.History.Window < 0 {
		return fmt.Errorf("history.window must not be negative, got %s", cfg.History.Window)
	}
	return nil
}

func validateObservability(cfg *Config) error {
	if !cfg.Observability.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Observability.Address); err != nil {
		return fmt.Errorf("observability.address %q: %w", cfg.Observability.Address, err)
	}
	if cfg.Observability.EnableTracing && strings.TrimSpace(cfg.Observability.OTLPEndpoint) == "" {
		return fmt.Errorf("observability.otlp_endpoint must not be empty when observability.enable_tracing=true")
	}
	return nil
}

// Validate runs every check and returns all failures.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range []func(*Config) error{
		validateVersion,
		validateLanguage,
		validateExclude,
		validateAnalysis,
		validateWatch,
		validateOutput,
		validateHistory,
		validateObservability,
	} {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
