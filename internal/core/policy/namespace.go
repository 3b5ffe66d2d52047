package policy

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

const anyNamespace = "*"

// Pattern matches namespace names. Supported forms: "*" (any), "X.*", "X/*" or
// "X/..." (X and everything below it), other glob expressions, and exact names.
type Pattern struct {
	raw     string
	any     bool
	subtree string
	glob    glob.Glob
}

func CompilePattern(raw string) (Pattern, error) {
	norm := strings.TrimSpace(raw)
	if norm == "" {
		return Pattern{}, fmt.Errorf("namespace pattern must not be empty")
	}
	p := Pattern{raw: norm}
	if norm == anyNamespace {
		p.any = true
		return p, nil
	}
	for _, suffix := range []string{".*", "/*", "/..."} {
		if prefix, ok := strings.CutSuffix(norm, suffix); ok && !hasWildcard(prefix) {
			p.subtree = prefix
			return p, nil
		}
	}
	if hasWildcard(norm) {
		g, err := glob.Compile(norm, '.', '/')
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid namespace pattern %q: %w", norm, err)
		}
		p.glob = g
	}
	return p, nil
}

func (p Pattern) String() string { return p.raw }

func (p Pattern) Match(namespace string) bool {
	switch {
	case p.any:
		return true
	case p.subtree != "":
		return namespace == p.subtree || IsSubNamespace(namespace, p.subtree)
	case p.glob != nil:
		return p.glob.Match(namespace)
	default:
		return namespace == p.raw
	}
}

// IsSubNamespace reports whether child lies strictly below parent.
func IsSubNamespace(child, parent string) bool {
	if parent == "" || len(child) <= len(parent) || !strings.HasPrefix(child, parent) {
		return false
	}
	sep := child[len(parent)]
	return sep == '.' || sep == '/'
}

func hasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[]{}")
}
