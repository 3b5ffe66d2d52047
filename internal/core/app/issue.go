package app

import (
	"cmp"
	"fmt"
	"slices"

	"nsguard/internal/core/policy"
	"nsguard/internal/engine/analysis"
)

// Issue codes reported by the analyzer.
const (
	CodeIllegalDependency = "NSG001"
	CodeTooManyIssues     = "NSG002"
	CodeNoPolicy          = "NSG003"
	CodePolicyError       = "NSG004"
	CodeDisabled          = "NSG005"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Rule describes one issue code for report rule tables.
type Rule struct {
	Code        string
	Name        string
	Description string
}

// Rules lists every issue code in code order.
var Rules = []Rule{
	{CodeIllegalDependency, "IllegalDependency", "A type references a type in a namespace the policy does not allow."},
	{CodeTooManyIssues, "TooManyIssues", "The issue limit was reached and the remaining issues were dropped."},
	{CodeNoPolicy, "NoPolicy", "No policy file was found, so the analysis was skipped."},
	{CodePolicyError, "PolicyError", "The policy file could not be loaded."},
	{CodeDisabled, "Disabled", "The policy file disables the analysis."},
}

// Issue is one reported finding. Dependency is set for illegal dependencies;
// Segment is zero for issues that are not tied to a source location.
type Issue struct {
	Code       string
	Severity   Severity
	Message    string
	Path       string
	Segment    analysis.SourceSegment
	Dependency *analysis.TypeDependency
}

func illegalDependency(dep analysis.TypeDependency) Issue {
	return Issue{
		Code:     CodeIllegalDependency,
		Severity: SeverityWarning,
		Message: fmt.Sprintf("Illegal namespace reference: %s (type: %s) -> %s (type: %s)",
			dep.FromNamespace, dep.FromType, dep.ToNamespace, dep.ToType),
		Path:       dep.Segment.Path,
		Segment:    dep.Segment,
		Dependency: &dep,
	}
}

func tooManyIssues(limit int, policyPath string) Issue {
	return Issue{
		Code:     CodeTooManyIssues,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("Too many issues (limit %d), analysis was stopped.", limit),
		Path:     policyPath,
	}
}

func noPolicy(policyPath string) Issue {
	return Issue{
		Code:     CodeNoPolicy,
		Severity: SeverityNote,
		Message:  fmt.Sprintf("No policy file found at '%s', analysis skipped.", policyPath),
		Path:     policyPath,
	}
}

func policyError(policyPath string, err error) Issue {
	return Issue{
		Code:     CodePolicyError,
		Severity: SeverityError,
		Message:  fmt.Sprintf("Error loading policy file '%s': %v", policyPath, err),
		Path:     policyPath,
	}
}

func disabled(policyPath string, importance policy.Importance) Issue {
	return Issue{
		Code:     CodeDisabled,
		Severity: infoSeverity(importance),
		Message:  "Analysis is disabled in the policy file.",
		Path:     policyPath,
	}
}

func infoSeverity(importance policy.Importance) Severity {
	if importance == policy.ImportanceHigh {
		return SeverityWarning
	}
	return SeverityNote
}

func sortIssues(issues []Issue) {
	slices.SortStableFunc(issues, func(a, b Issue) int {
		return cmp.Or(
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(a.Segment.StartLine, b.Segment.StartLine),
			cmp.Compare(a.Segment.StartColumn, b.Segment.StartColumn),
			cmp.Compare(a.Code, b.Code),
			cmp.Compare(a.Message, b.Message),
		)
	})
}
