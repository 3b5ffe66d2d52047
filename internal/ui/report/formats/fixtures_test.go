package formats

import (
	"time"

	"nsguard/internal/core/app"
	"nsguard/internal/core/policy"
	"nsguard/internal/engine/analysis"
)

func sampleResult() app.Result {
	dep := analysis.TypeDependency{
		FromNamespace: "example.com/shop/api",
		FromType:      "Handler",
		ToNamespace:   "example.com/shop/db",
		ToType:        "Conn",
		Segment: analysis.SourceSegment{
			StartLine: 12, StartColumn: 5, EndLine: 12, EndColumn: 9,
			Text: "Conn", Path: "/project/api/handler.go",
		},
	}
	return app.Result{
		RunID:        "run-1",
		Language:     "go",
		PolicyPath:   "/project/nsguard.policy.toml",
		State:        policy.StateEnabled,
		Documents:    3,
		Dependencies: 14,
		Violations:   2,
		Truncated:    true,
		Duration:     1500 * time.Millisecond,
		Issues: []app.Issue{
			{
				Code:       app.CodeIllegalDependency,
				Severity:   app.SeverityWarning,
				Message:    "Illegal namespace reference: example.com/shop/api (type: Handler) -> example.com/shop/db (type: Conn)",
				Path:       dep.Segment.Path,
				Segment:    dep.Segment,
				Dependency: &dep,
			},
			{
				Code:     app.CodeTooManyIssues,
				Severity: app.SeverityWarning,
				Message:  "Too many issues (limit 1), analysis was stopped.",
				Path:     "/project/nsguard.policy.toml",
			},
		},
	}
}
