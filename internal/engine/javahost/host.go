// Package javahost exposes Java sources as analysis documents. Files are
// parsed with tree-sitter and names are resolved against an index of every
// type declared in the loaded tree; namespaces are Java packages.
package javahost

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"nsguard/internal/core/errors"
	"nsguard/internal/engine/analysis"
)

const Language = "java"

// Host loads every .java file below a root.
type Host struct {
	pool        *parserPool
	concurrency int
	exclude     func(path string, isDir bool) bool
}

// New creates a Java host. exclude may be nil; concurrency <= 0 uses GOMAXPROCS.
func New(concurrency int, exclude func(path string, isDir bool) bool) *Host {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Host{pool: newParserPool(), concurrency: concurrency, exclude: exclude}
}

func (h *Host) Language() string { return Language }

// Load parses all Java files under root. Files with syntax errors are still
// analyzed; tree-sitter recovers around the broken region.
func (h *Host) Load(ctx context.Context, root string) ([]analysis.Document, error) {
	paths, err := h.discover(root)
	if err != nil {
		return nil, err
	}

	units := make([]*unit, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			u, err := h.parse(path)
			if err != nil {
				return err
			}
			units[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	newIndex(units)
	docs := make([]analysis.Document, 0, len(units))
	for _, u := range units {
		docs = append(docs, &Document{unit: u})
	}
	return docs, nil
}

func (h *Host) discover(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if h.exclude != nil && path != root && h.exclude(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(path, ".java") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeNotFound, "walk java sources"),
			errors.CtxPath, root,
		)
	}
	sort.Strings(paths)
	return paths, nil
}

func (h *Host) parse(path string) (*unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(
			errors.Wrap(err, errors.CodeNotFound, "read java source"),
			errors.CtxPath, path,
		)
	}
	return h.parseSource(path, src)
}

func (h *Host) parseSource(path string, src []byte) (*unit, error) {
	sp := h.pool.Get()
	defer h.pool.Put(sp)

	tree := sp.Parse(src, nil)
	if tree == nil {
		return nil, errors.AddContext(
			errors.New(errors.CodeInternal, "tree-sitter returned no tree"),
			errors.CtxPath, path,
		)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		slog.Debug("java source has syntax errors", "path", path)
	}
	u := newUnit(path, src)
	u.build(root)
	return u, nil
}
