package config

import (
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"nsguard/internal/core/errors"
)

var languages = []string{"go", "java"}

var defaultExcludeDirs = []string{".git", "vendor", "node_modules", "testdata", "target", "build"}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "config file not found"), errors.CtxPath, path)
		}
		return nil, err
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "decode config"), errors.CtxPath, path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.AddContext(errors.New(errors.CodeValidationError, "unknown config key "+undecoded[0].String()), errors.CtxPath, path)
	}

	applyDefaults(&cfg)
	normalize(&cfg)

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.AddContext(errors.Wrap(errs[0], errors.CodeValidationError, "invalid config"), errors.CtxPath, path)
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to DefaultConfig when the file does not exist.
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if errors.IsCode(err, errors.CodeNotFound) {
		return DefaultConfig(), false, nil
	}
	return nil, false, err
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Paths.PolicyFile) == "" {
		cfg.Paths.PolicyFile = DefaultPolicyFile
	}
	if strings.TrimSpace(cfg.Paths.StateDir) == "" {
		cfg.Paths.StateDir = ".nsguard"
	}

	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = "go"
	}
	if len(cfg.Packages) == 0 {
		cfg.Packages = []string{"./..."}
	}
	if cfg.Exclude.Dirs == nil {
		cfg.Exclude.Dirs = append([]string(nil), defaultExcludeDirs...)
	}

	if cfg.Analysis.Concurrency <= 0 {
		cfg.Analysis.Concurrency = runtime.GOMAXPROCS(0)
	}
	if cfg.Analysis.CacheSize <= 0 {
		cfg.Analysis.CacheSize = 4096
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.MaxRunsPerMinute == 0 {
		cfg.Watch.MaxRunsPerMinute = 30
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "history.db"
	}
	if cfg.History.Window == 0 {
		cfg.History.Window = 7 * 24 * time.Hour
	}

	if strings.TrimSpace(cfg.Observability.Address) == "" {
		cfg.Observability.Address = "127.0.0.1:9464"
	}
}

func normalize(cfg *Config) {
	cfg.Language = strings.ToLower(strings.TrimSpace(cfg.Language))
	cfg.Paths.ProjectRoot = strings.TrimSpace(cfg.Paths.ProjectRoot)
	cfg.Paths.PolicyFile = strings.TrimSpace(cfg.Paths.PolicyFile)
	cfg.Output.Text = strings.TrimSpace(cfg.Output.Text)
	cfg.Output.TSV = strings.TrimSpace(cfg.Output.TSV)
	cfg.Output.SARIF = strings.TrimSpace(cfg.Output.SARIF)
	cfg.History.ProjectKey = strings.TrimSpace(cfg.History.ProjectKey)
	cfg.Packages = trimAll(cfg.Packages)
	cfg.Exclude.Dirs = trimAll(cfg.Exclude.Dirs)
	cfg.Exclude.Files = trimAll(cfg.Exclude.Files)
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
