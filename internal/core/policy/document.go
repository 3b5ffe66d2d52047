package policy

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"nsguard/internal/core/errors"
)

type document struct {
	Enabled                          *bool            `toml:"enabled"`
	InfoImportance                   string           `toml:"info_importance"`
	ChildCanDependOnParentImplicitly bool             `toml:"child_can_depend_on_parent_implicitly"`
	MaxIssueCount                    *int             `toml:"max_issue_count"`
	Allowed                          []ruleDocument   `toml:"allowed"`
	Disallowed                       []ruleDocument   `toml:"disallowed"`
	VisibleMembers                   []visibleMembers `toml:"visible_members"`
}

type ruleDocument struct {
	From         string   `toml:"from"`
	To           string   `toml:"to"`
	VisibleTypes []string `toml:"visible_types"`
}

type visibleMembers struct {
	Namespace string   `toml:"namespace"`
	Types     []string `toml:"types"`
}

// LoadFile reads and parses the policy document at path.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(string(data))
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "invalid policy"), errors.CtxPolicy, path)
	}
	return p, nil
}

// Parse decodes a TOML policy document.
func Parse(data string) (*Policy, error) {
	var doc document
	md, err := toml.Decode(data, &doc)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("unknown policy keys: %s", strings.Join(keys, ", "))
	}

	p := &Policy{
		Enabled:                          true,
		ChildCanDependOnParentImplicitly: doc.ChildCanDependOnParentImplicitly,
		MaxIssueCount:                    DefaultMaxIssueCount,
	}
	if doc.Enabled != nil {
		p.Enabled = *doc.Enabled
	}
	if doc.MaxIssueCount != nil {
		if *doc.MaxIssueCount < 0 {
			return nil, fmt.Errorf("max_issue_count must be >= 0, got %d", *doc.MaxIssueCount)
		}
		p.MaxIssueCount = *doc.MaxIssueCount
	}
	if p.InfoImportance, err = ParseImportance(doc.InfoImportance); err != nil {
		return nil, err
	}
	if p.Allowed, err = compileRules("allowed", doc.Allowed, true); err != nil {
		return nil, err
	}
	if p.Disallowed, err = compileRules("disallowed", doc.Disallowed, false); err != nil {
		return nil, err
	}
	if p.VisibleMembers, err = compileVisibleMembers(doc.VisibleMembers); err != nil {
		return nil, err
	}
	return p, nil
}

func compileRules(section string, raw []ruleDocument, allowVisibleTypes bool) ([]Rule, error) {
	rules := make([]Rule, 0, len(raw))
	for i, r := range raw {
		ref := fmt.Sprintf("%s[%d]", section, i)
		from, err := CompilePattern(r.From)
		if err != nil {
			return nil, fmt.Errorf("%s.from: %w", ref, err)
		}
		to, err := CompilePattern(r.To)
		if err != nil {
			return nil, fmt.Errorf("%s.to: %w", ref, err)
		}
		if len(r.VisibleTypes) > 0 && !allowVisibleTypes {
			return nil, fmt.Errorf("%s.visible_types is only valid on allowed rules", ref)
		}
		visible, err := trimNames(ref+".visible_types", r.VisibleTypes)
		if err != nil {
			return nil, err
		}
		rules = append(rules, Rule{From: from, To: to, VisibleTypes: visible})
	}
	return rules, nil
}

func compileVisibleMembers(raw []visibleMembers) (map[string][]string, error) {
	out := make(map[string][]string, len(raw))
	for i, vm := range raw {
		ref := fmt.Sprintf("visible_members[%d]", i)
		ns := strings.TrimSpace(vm.Namespace)
		if ns == "" {
			return nil, fmt.Errorf("%s.namespace must not be empty", ref)
		}
		if hasWildcard(ns) {
			return nil, fmt.Errorf("%s.namespace must be a single namespace, got %q", ref, ns)
		}
		if _, dup := out[ns]; dup {
			return nil, fmt.Errorf("duplicate visible_members namespace %q", ns)
		}
		types, err := trimNames(ref+".types", vm.Types)
		if err != nil {
			return nil, err
		}
		if len(types) == 0 {
			return nil, fmt.Errorf("%s.types must list at least one type", ref)
		}
		out[ns] = types
	}
	return out, nil
}

func trimNames(ref string, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%s must not include empty values", ref)
		}
		out = append(out, name)
	}
	return out, nil
}
