package analysis

import "iter"

// NodeKind tells the enumerator how to treat a syntax node.
type NodeKind int

const (
	NodeKindOther NodeKind = iota
	NodeKindTypeDeclaration
	NodeKindGenericName
)

// Position is a 0-based line/column pair as reported by hosts.
type Position struct {
	Line   int
	Column int
}

// LineSpan is a 0-based host span; End is exclusive.
type LineSpan struct {
	Path  string
	Start Position
	End   Position
}

// Token is the smallest reportable piece of syntax.
type Token interface {
	Span() LineSpan
	Text() string
}

// Node is one syntax node of a host tree.
type Node interface {
	Token
	// Parent returns nil for the root.
	Parent() Node
	Kind() NodeKind
	FirstToken() Token
}

// Document is one parsed source file together with its semantic model.
type Document interface {
	Path() string
	Model() SemanticModel
	// Nodes yields the nodes the host wants analyzed, in source order.
	Nodes() iter.Seq[Node]
}

// Ancestors yields the parents of node from the nearest outward.
func Ancestors(node Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if node == nil {
			return
		}
		for p := node.Parent(); p != nil; p = p.Parent() {
			if !yield(p) {
				return
			}
		}
	}
}
