package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"nsguard/internal/core/app"
	"nsguard/internal/core/config"
	"nsguard/internal/core/errors"
	"nsguard/internal/core/policy"
	"nsguard/internal/core/ports"
	"nsguard/internal/data/history"
	"nsguard/internal/engine/gohost"
	"nsguard/internal/engine/javahost"
	"nsguard/internal/shared/observability"
	"nsguard/internal/shared/version"
)

// runtime holds the collaborators of one CLI session.
type runtime struct {
	cfg     *config.Config
	paths   config.ResolvedPaths
	matcher *config.Matcher
	stdout  io.Writer

	host     ports.Host
	store    *policy.Store
	analyzer *app.Analyzer

	historyStore *history.Store
	recorder     *app.HistoryRecorder

	diagnostics     *diagnosticLogger
	shutdownTracing func(context.Context) error
}

func newRuntime(ctx context.Context, cfg *config.Config, paths config.ResolvedPaths, stdout io.Writer) (*runtime, error) {
	matcher, err := config.NewMatcher(cfg.Exclude)
	if err != nil {
		return nil, err
	}
	host, err := buildHost(cfg, paths, matcher)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:         cfg,
		paths:       paths,
		matcher:     matcher,
		stdout:      stdout,
		host:        host,
		diagnostics: &diagnosticLogger{},
	}
	rt.store = policy.NewFileStore(paths.PolicyFile, policy.WithDiagnostics(rt.diagnostics.log))

	rt.analyzer, err = app.NewAnalyzer(host, rt.store, paths.ProjectRoot, app.AnalyzerOptions{
		Concurrency: cfg.Analysis.Concurrency,
		CacheSize:   cfg.Analysis.CacheSize,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Observability.EnableTracing {
		shutdown, err := observability.InitTracing(ctx, cfg.Observability.OTLPEndpoint, version.Version)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		rt.shutdownTracing = shutdown
	}

	if cfg.History.Enabled {
		store, err := history.Open(paths.HistoryDB)
		switch {
		case history.IsCorruptError(err):
			slog.Warn("history database is unreadable, history disabled for this session",
				"path", paths.HistoryDB, "error", err)
		case err != nil:
			rt.Close()
			return nil, fmt.Errorf("open history store: %w", err)
		default:
			rt.historyStore = store
			rt.recorder = app.NewHistoryRecorder(store, paths.ProjectKey, paths.ProjectRoot)
		}
	}
	return rt, nil
}

func buildHost(cfg *config.Config, paths config.ResolvedPaths, matcher *config.Matcher) (ports.Host, error) {
	switch cfg.Language {
	case gohost.Language:
		return gohost.New(cfg.Packages, cfg.IncludeTests, func(path string) bool {
			return matcher.ExcludesUnder(paths.ProjectRoot, path)
		}), nil
	case javahost.Language:
		return javahost.New(cfg.Analysis.Concurrency, matcher.Exclude), nil
	default:
		return nil, errors.AddContext(
			errors.New(errors.CodeNotSupported, "unsupported language"),
			errors.CtxLanguage, cfg.Language,
		)
	}
}

func (rt *runtime) Close() {
	if rt.historyStore != nil {
		if err := rt.historyStore.Close(); err != nil {
			slog.Warn("failed to close history store", "error", err)
		}
	}
	if rt.shutdownTracing != nil {
		if err := rt.shutdownTracing(context.Background()); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}
}

// syncDiagnosticLevel raises policy diagnostics to Info when the loaded policy
// asks for high importance.
func (rt *runtime) syncDiagnosticLevel() {
	p, _, _ := rt.store.Snapshot()
	rt.diagnostics.loud.Store(p != nil && p.InfoImportance == policy.ImportanceHigh)
}

// diagnosticLogger forwards policy store messages to slog. It must not call
// back into the store: messages are emitted while the store lock is held.
type diagnosticLogger struct {
	loud atomic.Bool
}

func (d *diagnosticLogger) log(message string) {
	if d.loud.Load() {
		slog.Info(message, "component", "policy")
		return
	}
	slog.Debug(message, "component", "policy")
}
