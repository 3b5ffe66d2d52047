// Package gohost exposes type-checked Go packages as analysis documents.
// Namespaces are import paths.
package gohost

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/tools/go/packages"

	"nsguard/internal/core/errors"
	"nsguard/internal/engine/analysis"
)

const Language = "go"

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo

// Host loads Go packages below a module root.
type Host struct {
	patterns []string
	tests    bool
	exclude  func(path string) bool
}

// New creates a host for the given package patterns ("./..." when empty).
// exclude may be nil.
func New(patterns []string, includeTests bool, exclude func(path string) bool) *Host {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	return &Host{patterns: patterns, tests: includeTests, exclude: exclude}
}

func (h *Host) Language() string { return Language }

// Load type-checks the packages and returns one document per Go file. Package
// errors are logged and the affected files are analyzed with whatever type
// information was recovered.
func (h *Host) Load(ctx context.Context, root string) ([]analysis.Document, error) {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     root,
		Mode:    loadMode,
		Tests:   h.tests,
	}
	pkgs, err := packages.Load(cfg, h.patterns...)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeInternal, "load go packages"),
			errors.CtxPath, root,
		)
	}

	seen := make(map[string]bool)
	var docs []analysis.Document
	for _, pkg := range pkgs {
		for _, pkgErr := range pkg.Errors {
			slog.Warn("go package has errors", "package", pkg.PkgPath, "error", pkgErr.Error())
		}
		if pkg.TypesInfo == nil {
			continue
		}
		for _, file := range pkg.Syntax {
			path := pkg.Fset.Position(file.Pos()).Filename
			if seen[path] || (h.exclude != nil && h.exclude(path)) {
				continue
			}
			seen[path] = true

			src, err := os.ReadFile(path)
			if err != nil {
				slog.Warn("reading go source failed", "path", path, "error", err)
			}
			docs = append(docs, NewDocument(pkg.Fset, file, pkg.TypesInfo, src))
		}
	}
	return docs, nil
}
