// Package policy owns the namespace dependency policy: its document format, the
// allow/deny decision, and the Store that keeps the effective policy current.
package policy

import (
	"fmt"
	"slices"
	"strings"
)

// Importance controls how loudly informational diagnostics are reported.
type Importance int

const (
	ImportanceLow Importance = iota
	ImportanceNormal
	ImportanceHigh
)

func (i Importance) String() string {
	switch i {
	case ImportanceLow:
		return "low"
	case ImportanceHigh:
		return "high"
	default:
		return "normal"
	}
}

func ParseImportance(raw string) (Importance, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low":
		return ImportanceLow, nil
	case "", "normal":
		return ImportanceNormal, nil
	case "high":
		return ImportanceHigh, nil
	default:
		return ImportanceNormal, fmt.Errorf("info_importance must be one of: low, normal, high; got %q", raw)
	}
}

const DefaultMaxIssueCount = 100

// Rule relates a source namespace pattern to a target namespace pattern.
type Rule struct {
	From Pattern
	To   Pattern
	// VisibleTypes restricts an allowed rule to these target type names.
	VisibleTypes []string
}

func (r Rule) Matches(from, to string) bool {
	return r.From.Match(from) && r.To.Match(to)
}

func (r Rule) exposes(typeName string) bool {
	return len(r.VisibleTypes) == 0 || slices.Contains(r.VisibleTypes, typeName)
}

// Policy is an immutable snapshot of the dependency rules.
type Policy struct {
	Enabled                          bool
	InfoImportance                   Importance
	ChildCanDependOnParentImplicitly bool
	MaxIssueCount                    int
	Allowed                          []Rule
	Disallowed                       []Rule
	// VisibleMembers limits which types of a namespace other namespaces may use.
	VisibleMembers map[string][]string
}

// IsEnabled reports whether p is loaded and switched on. It is false for nil.
func (p *Policy) IsEnabled() bool {
	return p != nil && p.Enabled
}

// IsAllowed decides whether a type in fromNamespace may reference toType in toNamespace.
func (p *Policy) IsAllowed(fromNamespace, toNamespace, toType string) bool {
	if fromNamespace == toNamespace {
		return true
	}
	if p.ChildCanDependOnParentImplicitly && IsSubNamespace(fromNamespace, toNamespace) {
		return true
	}
	for _, rule := range p.Disallowed {
		if rule.Matches(fromNamespace, toNamespace) {
			return false
		}
	}

	allowed := false
	for _, rule := range p.Allowed {
		if rule.Matches(fromNamespace, toNamespace) && rule.exposes(toType) {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	if visible, ok := p.VisibleMembers[toNamespace]; ok {
		return slices.Contains(visible, toType)
	}
	return true
}

// Dump renders the policy one setting or rule per line.
func (p *Policy) Dump() []string {
	lines := []string{
		fmt.Sprintf("Enabled=%t", p.Enabled),
		fmt.Sprintf("InfoImportance=%s", p.InfoImportance),
		fmt.Sprintf("ChildCanDependOnParentImplicitly=%t", p.ChildCanDependOnParentImplicitly),
		fmt.Sprintf("MaxIssueCount=%d", p.MaxIssueCount),
	}
	lines = append(lines, fmt.Sprintf("AllowedRules=%d", len(p.Allowed)))
	for _, rule := range p.Allowed {
		lines = append(lines, "  "+formatRule(rule))
	}
	lines = append(lines, fmt.Sprintf("DisallowedRules=%d", len(p.Disallowed)))
	for _, rule := range p.Disallowed {
		lines = append(lines, "  "+formatRule(rule))
	}
	namespaces := make([]string, 0, len(p.VisibleMembers))
	for ns := range p.VisibleMembers {
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)
	lines = append(lines, fmt.Sprintf("VisibleMembers=%d", len(namespaces)))
	for _, ns := range namespaces {
		lines = append(lines, fmt.Sprintf("  %s: %s", ns, strings.Join(p.VisibleMembers[ns], ", ")))
	}
	return lines
}

func formatRule(rule Rule) string {
	s := rule.From.String() + " -> " + rule.To.String()
	if len(rule.VisibleTypes) > 0 {
		s += " [" + strings.Join(rule.VisibleTypes, ", ") + "]"
	}
	return s
}
