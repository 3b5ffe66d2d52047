package gohost

import (
	"go/ast"
	"go/token"
	"go/types"
	"iter"

	"nsguard/internal/engine/analysis"
)

// Document is one type-checked Go file.
type Document struct {
	path  string
	fset  *token.FileSet
	info  *types.Info
	src   []byte
	model model
	nodes []*node
}

// NewDocument indexes file for analysis. src is the file content used for
// segment text; it may be nil, in which case text is left empty.
func NewDocument(fset *token.FileSet, file *ast.File, info *types.Info, src []byte) *Document {
	d := &Document{
		path: fset.Position(file.Pos()).Filename,
		fset: fset,
		info: info,
		src:  src,
	}
	d.model = model{info: info}
	d.index(file)
	return d
}

func (d *Document) Path() string { return d.path }

func (d *Document) Model() analysis.SemanticModel { return d.model }

func (d *Document) Nodes() iter.Seq[analysis.Node] {
	return func(yield func(analysis.Node) bool) {
		for _, n := range d.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// index walks file once, building parent links and collecting identifier uses
// and generic instantiations in source order.
func (d *Document) index(file *ast.File) {
	var stack []*node
	covered := make(map[*ast.Ident]bool)

	ast.Inspect(file, func(n ast.Node) bool {
		if n == nil {
			stack = stack[:len(stack)-1]
			return true
		}
		var parent *node
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}
		current := &node{doc: d, syntax: n, parent: parent, kind: d.kindOf(n)}
		stack = append(stack, current)

		switch n := n.(type) {
		case *ast.IndexExpr, *ast.IndexListExpr:
			if current.kind != analysis.NodeKindGenericName {
				break
			}
			name := genericName(n.(ast.Expr))
			if name != nil {
				covered[name] = true
				current.first = &tokenSpan{doc: d, pos: name.Pos(), end: name.End()}
			}
			d.nodes = append(d.nodes, current)
		case *ast.Ident:
			if _, used := d.info.Uses[n]; used && !covered[n] {
				d.nodes = append(d.nodes, current)
			}
		}
		return true
	})
}

func (d *Document) kindOf(n ast.Node) analysis.NodeKind {
	switch n := n.(type) {
	case *ast.TypeSpec, *ast.FuncDecl:
		return analysis.NodeKindTypeDeclaration
	case *ast.IndexExpr, *ast.IndexListExpr:
		if tv, ok := d.info.Types[n.(ast.Expr)]; ok && tv.IsType() {
			return analysis.NodeKindGenericName
		}
	}
	return analysis.NodeKindOther
}

func (d *Document) span(pos, end token.Pos) analysis.LineSpan {
	start := d.fset.Position(pos)
	stop := d.fset.Position(end)
	return analysis.LineSpan{
		Path:  start.Filename,
		Start: analysis.Position{Line: start.Line - 1, Column: start.Column - 1},
		End:   analysis.Position{Line: stop.Line - 1, Column: stop.Column - 1},
	}
}

func (d *Document) text(pos, end token.Pos) string {
	file := d.fset.File(pos)
	if file == nil || d.src == nil {
		return ""
	}
	from, to := file.Offset(pos), file.Offset(end)
	if from < 0 || to > len(d.src) || from > to {
		return ""
	}
	return string(d.src[from:to])
}

// genericName returns the identifier naming an instantiated generic type.
func genericName(expr ast.Expr) *ast.Ident {
	var x ast.Expr
	switch e := expr.(type) {
	case *ast.IndexExpr:
		x = e.X
	case *ast.IndexListExpr:
		x = e.X
	}
	switch x := ast.Unparen(x).(type) {
	case *ast.Ident:
		return x
	case *ast.SelectorExpr:
		return x.Sel
	}
	return nil
}

type node struct {
	doc    *Document
	syntax ast.Node
	parent *node
	kind   analysis.NodeKind
	first  *tokenSpan
}

func (n *node) Span() analysis.LineSpan { return n.doc.span(n.syntax.Pos(), n.syntax.End()) }

func (n *node) Text() string { return n.doc.text(n.syntax.Pos(), n.syntax.End()) }

func (n *node) Parent() analysis.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) Kind() analysis.NodeKind { return n.kind }

func (n *node) FirstToken() analysis.Token {
	if n.first == nil {
		return nil
	}
	return n.first
}

type tokenSpan struct {
	doc      *Document
	pos, end token.Pos
}

func (t *tokenSpan) Span() analysis.LineSpan { return t.doc.span(t.pos, t.end) }

func (t *tokenSpan) Text() string { return t.doc.text(t.pos, t.end) }
