// Package config loads the nsguard.toml tool configuration.
package config

import (
	"time"
)

const (
	DefaultConfigFile = "nsguard.toml"
	DefaultPolicyFile = "nsguard.policy.toml"
)

type Config struct {
	Version       int           `toml:"version"`
	Paths         Paths         `toml:"paths"`
	Language      string        `toml:"language"`
	Packages      []string      `toml:"packages"`
	IncludeTests  bool          `toml:"include_tests"`
	Exclude       Exclude       `toml:"exclude"`
	Analysis      Analysis      `toml:"analysis"`
	Watch         Watch         `toml:"watch"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
}

type Paths struct {
	ProjectRoot string `toml:"project_root"`
	PolicyFile  string `toml:"policy_file"`
	StateDir    string `toml:"state_dir"`
}

// Exclude patterns are gobwas/glob patterns matched against base names.
type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Analysis struct {
	Concurrency int `toml:"concurrency"`
	CacheSize   int `toml:"cache_size"`
}

type Watch struct {
	Debounce         time.Duration `toml:"debounce"`
	MaxRunsPerMinute int           `toml:"max_runs_per_minute"`
}

// Output names report files; an empty path skips that report.
type Output struct {
	Text  string `toml:"text"`
	TSV   string `toml:"tsv"`
	SARIF string `toml:"sarif"`
}

type History struct {
	Enabled    bool          `toml:"enabled"`
	Path       string        `toml:"path"`
	ProjectKey string        `toml:"project_key"`
	Window     time.Duration `toml:"window"`
}

type Observability struct {
	Enabled       bool   `toml:"enabled"`
	Address       string `toml:"address"`
	OTLPEndpoint  string `toml:"otlp_endpoint"`
	EnableTracing bool   `toml:"enable_tracing"`
}

// DefaultConfig is used when no configuration file exists.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}
