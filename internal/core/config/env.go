package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: NSGUARD_[SECTION]_[KEY] (e.g., NSGUARD_OBSERVABILITY_ADDRESS).
func ApplyEnvOverrides(cfg *Config) {
	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "NSGUARD_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.PolicyFile, "NSGUARD_PATHS_POLICY_FILE")
	setEnvString(&cfg.Paths.StateDir, "NSGUARD_PATHS_STATE_DIR")

	setEnvString(&cfg.Language, "NSGUARD_LANGUAGE")
	setEnvList(&cfg.Packages, "NSGUARD_PACKAGES")
	setEnvBool(&cfg.IncludeTests, "NSGUARD_INCLUDE_TESTS")

	// Analysis
	setEnvInt(&cfg.Analysis.Concurrency, "NSGUARD_ANALYSIS_CONCURRENCY")
	setEnvInt(&cfg.Analysis.CacheSize, "NSGUARD_ANALYSIS_CACHE_SIZE")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "NSGUARD_WATCH_DEBOUNCE")
	setEnvInt(&cfg.Watch.MaxRunsPerMinute, "NSGUARD_WATCH_MAX_RUNS_PER_MINUTE")

	// Output
	setEnvString(&cfg.Output.Text, "NSGUARD_OUTPUT_TEXT")
	setEnvString(&cfg.Output.TSV, "NSGUARD_OUTPUT_TSV")
	setEnvString(&cfg.Output.SARIF, "NSGUARD_OUTPUT_SARIF")

	// History
	setEnvBool(&cfg.History.Enabled, "NSGUARD_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "NSGUARD_HISTORY_PATH")
	setEnvString(&cfg.History.ProjectKey, "NSGUARD_HISTORY_PROJECT_KEY")
	setEnvDuration(&cfg.History.Window, "NSGUARD_HISTORY_WINDOW")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "NSGUARD_OBSERVABILITY_ENABLED")
	setEnvString(&cfg.Observability.Address, "NSGUARD_OBSERVABILITY_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "NSGUARD_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "NSGUARD_OBSERVABILITY_ENABLE_TRACING")

	normalize(cfg)
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = strings.Split(val, ",")
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val, "error", err)
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val, "error", err)
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		} else {
			slog.Warn("ignoring invalid env override", "key", key, "value", val, "error", err)
		}
	}
}
