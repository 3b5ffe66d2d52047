package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"nsguard/internal/core/app"
	"nsguard/internal/core/config"
	"nsguard/internal/core/policy"
	"nsguard/internal/core/watcher"
	"nsguard/internal/shared/util"
	"nsguard/internal/shared/version"
	"nsguard/internal/ui/report"
	"nsguard/internal/ui/report/formats"

	"github.com/joho/godotenv"
)

// Exit codes returned by Run.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	opts, err := parseOptions(args, os.Stderr)
	if err != nil {
		return exitUsage
	}
	if opts.version {
		fmt.Printf("nsguard %s (%s)\n", version.Version, version.Commit)
		return exitOK
	}
	if err := validateOptions(opts); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return exitUsage
	}

	configureLogging(os.Stderr, opts.verbose)
	loadEnvFile(opts.envFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return exitFailed
	}
	return run(ctx, opts, cwd, os.Stdout)
}

func run(ctx context.Context, opts cliOptions, cwd string, stdout io.Writer) int {
	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitFailed
	}
	config.ApplyEnvOverrides(cfg)
	if err := applyOptions(opts, cfg); err != nil {
		slog.Error("invalid options", "error", err)
		return exitUsage
	}

	paths, err := config.ResolvePaths(cfg, cwd)
	if err != nil {
		slog.Error("failed to resolve runtime paths", "error", err)
		return exitFailed
	}
	slog.Debug("configuration resolved",
		"config", cfgPath,
		"projectRoot", paths.ProjectRoot,
		"policy", paths.PolicyFile,
		"language", cfg.Language,
	)

	rt, err := newRuntime(ctx, cfg, paths, stdout)
	if err != nil {
		slog.Error("failed to initialize analyzer", "error", err)
		return exitFailed
	}
	defer rt.Close()

	code := rt.runOnce(ctx, opts)
	if opts.once {
		return code
	}

	if err := rt.watch(ctx, opts); err != nil {
		slog.Error("watch mode failed", "error", err)
		return exitFailed
	}
	return exitOK
}

// loadConfig reads an explicit config file, or ./nsguard.toml when present,
// falling back to defaults.
func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(config.ResolveRelative(cwd, path))
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	candidate := filepath.Join(cwd, config.DefaultConfigFile)
	cfg, found, err := config.LoadOrDefault(candidate)
	if err != nil {
		return nil, "", err
	}
	if !found {
		slog.Debug("no config file found, using defaults", "path", candidate)
		return cfg, "", nil
	}
	return cfg, candidate, nil
}

// applyOptions layers command line overrides over the loaded config and
// re-validates the result.
func applyOptions(opts cliOptions, cfg *config.Config) error {
	if opts.language != "" {
		cfg.Language = opts.language
	}
	if opts.policyPath != "" {
		cfg.Paths.PolicyFile = opts.policyPath
	}
	if opts.includeTests {
		cfg.IncludeTests = true
	}
	if opts.history {
		cfg.History.Enabled = true
	}
	if len(opts.args) == 1 {
		cfg.Paths.ProjectRoot = opts.args[0]
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func loadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		slog.Warn("failed to load env file", "path", path, "error", err)
		return
	}
	slog.Debug("loaded env file", "path", path)
}

func configureLogging(output io.Writer, verbose bool) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
}

// runOnce performs one analysis run and reports it. It returns exitFailed when
// the run errored, the policy is broken, or illegal dependencies were found.
func (rt *runtime) runOnce(ctx context.Context, opts cliOptions) int {
	res, err := rt.analyzer.Run(ctx)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return exitFailed
	}
	rt.syncDiagnosticLevel()

	if err := rt.printResult(opts.format, res); err != nil {
		slog.Error("failed to print report", "error", err)
	}

	written, err := report.WriteOutputs(rt.cfg.Output, rt.paths.ProjectRoot, res)
	if err != nil {
		slog.Error("failed to write reports", "error", err)
	}
	for _, path := range written {
		slog.Debug("report written", "path", path)
	}

	if rt.recorder != nil {
		if err := rt.recordHistory(ctx, opts, res); err != nil {
			slog.Error("history update failed", "error", err)
		}
	}

	slog.Info("analysis finished",
		"run", res.RunID,
		"state", res.State.String(),
		"documents", res.Documents,
		"violations", res.Violations,
		"duration", res.Duration.Round(time.Millisecond),
	)
	if res.Failed() {
		return exitFailed
	}
	return exitOK
}

func (rt *runtime) printResult(format string, res app.Result) error {
	switch format {
	case "none":
		return nil
	case "tsv":
		out, err := formats.GenerateTSV(rt.paths.ProjectRoot, res)
		if err != nil {
			return err
		}
		_, err = io.WriteString(rt.stdout, out)
		return err
	case "sarif":
		out, err := formats.GenerateSARIF(rt.paths.ProjectRoot, res)
		if err != nil {
			return err
		}
		_, err = rt.stdout.Write(append(out, '\n'))
		return err
	default:
		_, err := io.WriteString(rt.stdout, formats.GenerateText(rt.paths.ProjectRoot, res))
		return err
	}
}

func (rt *runtime) recordHistory(ctx context.Context, opts cliOptions, res app.Result) error {
	trend, err := rt.recorder.Record(ctx, res, rt.cfg.History.Window)
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.stdout, "History: %s\n", report.TrendSummary(trend))

	if opts.historyTSV != "" {
		tsv, err := report.RenderTrendTSV(trend)
		if err != nil {
			return fmt.Errorf("render trend TSV: %w", err)
		}
		if err := util.WriteFileWithDirs(opts.historyTSV, tsv, 0o644); err != nil {
			return fmt.Errorf("write trend TSV %q: %w", opts.historyTSV, err)
		}
	}
	if opts.historyJSON != "" {
		raw, err := report.RenderTrendJSON(trend)
		if err != nil {
			return fmt.Errorf("render trend JSON: %w", err)
		}
		if err := util.WriteFileWithDirs(opts.historyJSON, raw, 0o644); err != nil {
			return fmt.Errorf("write trend JSON %q: %w", opts.historyJSON, err)
		}
	}
	return nil
}

// watch re-runs the analysis whenever sources or the policy change, until ctx
// is done. Runs are throttled to watch.max_runs_per_minute.
func (rt *runtime) watch(ctx context.Context, opts cliOptions) error {
	trigger := make(chan string, 1)
	notify := func(reason string) {
		select {
		case trigger <- reason:
		default:
		}
	}

	policyWatcher := policy.NewWatcher(rt.store, rt.cfg.Watch.Debounce, func(state policy.State) {
		notify("policy " + state.String())
	})
	if err := policyWatcher.Start(ctx); err != nil {
		return fmt.Errorf("start policy watcher: %w", err)
	}
	defer policyWatcher.Stop()

	sourceWatcher, err := watcher.NewWatcher(rt.cfg.Watch.Debounce, rt.matcher, func(changed []string) {
		slog.Debug("source change detected", "files", len(changed))
		notify(fmt.Sprintf("%d changed files", len(changed)))
	})
	if err != nil {
		return fmt.Errorf("create source watcher: %w", err)
	}
	defer sourceWatcher.Close()
	sourceWatcher.SetLanguageFilters(watcher.LanguageFilters(rt.cfg.Language, rt.cfg.IncludeTests))
	if err := sourceWatcher.Watch([]string{rt.paths.ProjectRoot}); err != nil {
		return fmt.Errorf("watch %s: %w", rt.paths.ProjectRoot, err)
	}

	if rt.cfg.Observability.Enabled {
		server := NewObservabilityServer(rt.cfg.Observability.Address, app.NewHealthService(rt.analyzer, rt.store))
		if err := server.Start(ctx); err != nil {
			return fmt.Errorf("start observability server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				slog.Warn("observability server shutdown failed", "error", err)
			}
		}()
	}

	limiter := util.NewPerMinuteLimiter(rt.cfg.Watch.MaxRunsPerMinute)
	slog.Info("watching for changes", "root", rt.paths.ProjectRoot, "policy", rt.paths.PolicyFile)
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-trigger:
			if err := limiter.Wait(ctx, 1); err != nil {
				return nil
			}
			slog.Info("re-running analysis", "reason", reason)
			rt.runOnce(ctx, opts)
		}
	}
}
