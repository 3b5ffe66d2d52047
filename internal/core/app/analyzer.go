package app

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"nsguard/internal/core/errors"
	"nsguard/internal/core/policy"
	"nsguard/internal/core/ports"
	"nsguard/internal/engine/analysis"
	"nsguard/internal/engine/validator"
	"nsguard/internal/shared/observability"
)

// Result summarises one analysis run.
type Result struct {
	RunID        string
	Language     string
	PolicyPath   string
	State        policy.State
	Issues       []Issue
	Documents    int
	Dependencies int
	Truncated    bool
	StartedAt    time.Time
	Duration     time.Duration

	// Violations counts every illegal dependency found, including those
	// dropped from Issues by the issue limit.
	Violations int
}

// Failed reports whether the run should fail a build: the policy could not be
// loaded or at least one illegal dependency was found.
func (r Result) Failed() bool {
	return r.State == policy.StateConfigError || r.Violations > 0
}

type AnalyzerOptions struct {
	// Concurrency bounds the documents analyzed at once; <= 0 uses GOMAXPROCS.
	Concurrency int
	CacheSize   int
}

// Analyzer checks every type dependency of a source tree against the policy.
type Analyzer struct {
	host        ports.Host
	policies    ports.PolicyProvider
	validator   *validator.Validator
	root        string
	concurrency int

	mu   sync.RWMutex
	last *Result
}

func NewAnalyzer(host ports.Host, policies ports.PolicyProvider, root string, opts AnalyzerOptions) (*Analyzer, error) {
	if host == nil {
		return nil, errors.New(errors.CodeValidationError, "analyzer host is required")
	}
	if policies == nil {
		return nil, errors.New(errors.CodeValidationError, "analyzer policy provider is required")
	}
	v, err := validator.New(opts.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create validator")
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Analyzer{
		host:        host,
		policies:    policies,
		validator:   v,
		root:        root,
		concurrency: concurrency,
	}, nil
}

// Run refreshes the policy, loads the source tree and analyzes it. Source
// loading is skipped unless the policy is enabled.
func (a *Analyzer) Run(ctx context.Context) (Result, error) {
	a.policies.Refresh()
	snap := takeSnapshot(a.policies)

	var docs []analysis.Document
	if snap.state == policy.StateEnabled {
		start := time.Now()
		loaded, err := a.host.Load(ctx, a.root)
		observability.AnalysisDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
		if err != nil {
			err = errors.AddContext(err, errors.CtxOperation, "load")
			return Result{}, errors.AddContext(err, errors.CtxLanguage, a.host.Language())
		}
		docs = loaded
	}
	return a.analyze(ctx, snap, docs)
}

// Analyze checks docs against the current policy snapshot without refreshing it.
func (a *Analyzer) Analyze(ctx context.Context, docs []analysis.Document) (Result, error) {
	return a.analyze(ctx, takeSnapshot(a.policies), docs)
}

// policySnapshot is one consistent read of the policy provider.
type policySnapshot struct {
	policy *policy.Policy
	state  policy.State
	err    error
}

func takeSnapshot(policies ports.PolicyProvider) policySnapshot {
	p, state, err := policies.Snapshot()
	return policySnapshot{policy: p, state: state, err: err}
}

// analyze checks docs against snap. A run decides whether to load sources and
// what to check them against from the same snapshot.
func (a *Analyzer) analyze(ctx context.Context, snap policySnapshot, docs []analysis.Document) (Result, error) {
	ctx, span := observability.Tracer.Start(ctx, "Analyzer.Analyze", trace.WithAttributes(
		attribute.String("language", a.host.Language()),
		attribute.Int("documents", len(docs)),
	))
	defer span.End()

	started := time.Now()
	p, state, loadErr := snap.policy, snap.state, snap.err
	result := Result{
		RunID:      uuid.NewString(),
		Language:   a.host.Language(),
		PolicyPath: a.policies.Path(),
		State:      state,
		StartedAt:  started.UTC(),
	}

	switch state {
	case policy.StateNoConfigSource:
		result.Issues = []Issue{noPolicy(result.PolicyPath)}
	case policy.StateConfigError:
		result.Issues = []Issue{policyError(result.PolicyPath, loadErr)}
	case policy.StateDisabled:
		result.Issues = []Issue{disabled(result.PolicyPath, p.InfoImportance)}
	case policy.StateEnabled:
		if err := a.check(ctx, p, docs, &result); err != nil {
			observability.RecordError(span, err)
			return Result{}, err
		}
	}

	result.Duration = time.Since(started)
	observability.AnalysisDuration.WithLabelValues("analyze").Observe(result.Duration.Seconds())
	observability.LastRunViolations.Set(float64(result.Violations))
	span.SetAttributes(
		attribute.String("run_id", result.RunID),
		attribute.String("state", state.String()),
		attribute.Int("violations", result.Violations),
	)
	slog.Info("analysis finished",
		"run_id", result.RunID,
		"state", state.String(),
		"documents", result.Documents,
		"dependencies", result.Dependencies,
		"violations", result.Violations,
		"duration", result.Duration,
	)

	a.mu.Lock()
	a.last = &result
	a.mu.Unlock()
	return result, nil
}

// LastResult returns the most recent completed run.
func (a *Analyzer) LastResult() (Result, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.last == nil {
		return Result{}, false
	}
	return *a.last, true
}

func (a *Analyzer) check(ctx context.Context, p *policy.Policy, docs []analysis.Document, result *Result) error {
	language := a.host.Language()
	perDoc := make([][]Issue, len(docs))
	var edges atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			model := doc.Model()
			var found int64
			for node := range doc.Nodes() {
				for dep := range analysis.Enumerate(node, model) {
					found++
					if !a.validator.IsAllowed(p, dep) {
						perDoc[i] = append(perDoc[i], illegalDependency(dep))
					}
				}
			}
			edges.Add(found)
			observability.DocumentsAnalyzed.WithLabelValues(language).Inc()
			observability.EdgesTotal.WithLabelValues(language).Add(float64(found))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("analyze %d documents", len(docs)))
	}

	var issues []Issue
	for _, docIssues := range perDoc {
		issues = append(issues, docIssues...)
	}
	sortIssues(issues)

	result.Documents = len(docs)
	result.Dependencies = int(edges.Load())
	result.Violations = len(issues)
	if p.MaxIssueCount > 0 && len(issues) > p.MaxIssueCount {
		issues = append(issues[:p.MaxIssueCount], tooManyIssues(p.MaxIssueCount, result.PolicyPath))
		result.Truncated = true
	}
	result.Issues = issues
	observability.ViolationsTotal.Add(float64(result.Violations))
	return nil
}
