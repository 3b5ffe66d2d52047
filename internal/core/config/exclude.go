package config

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher decides which directories and files are left out of analysis and
// watching. Patterns match the base name.
type Matcher struct {
	dirs  []glob.Glob
	files []glob.Glob
}

func NewMatcher(exclude Exclude) (*Matcher, error) {
	dirs, err := compileGlobs(exclude.Dirs)
	if err != nil {
		return nil, err
	}
	files, err := compileGlobs(exclude.Files)
	if err != nil {
		return nil, err
	}
	return &Matcher{dirs: dirs, files: files}, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

func (m *Matcher) ExcludeDir(path string) bool {
	return m != nil && matchAny(m.dirs, filepath.Base(path))
}

func (m *Matcher) ExcludeFile(path string) bool {
	return m != nil && matchAny(m.files, filepath.Base(path))
}

// Exclude has the shape the source hosts take.
func (m *Matcher) Exclude(path string, isDir bool) bool {
	if isDir {
		return m.ExcludeDir(path)
	}
	return m.ExcludeFile(path)
}

// ExcludesUnder reports whether path, or a directory between root and path,
// is excluded.
func (m *Matcher) ExcludesUnder(root, path string) bool {
	if m.ExcludeFile(path) {
		return true
	}
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if m.ExcludeDir(part) {
			return true
		}
	}
	return false
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
