package javahost

import "nsguard/internal/engine/analysis"

// node mirrors a named tree-sitter node. typeRef marks an expression name
// that refers to a type.
type node struct {
	unit       *unit
	kind       string
	role       analysis.NodeKind
	start, end uint
	span       analysis.LineSpan
	parent     *node
	first      *leaf
	declared   *javaType
	typeParams []string
	call       *invocation
	typeRef    bool
}

// invocation describes an identifier inside a method invocation. Either it
// names the invoked method, or it is the receiver expression.
type invocation struct {
	method       string
	receiver     bool
	hasObject    bool
	objectIsThis bool
	object       string
}

func (n *node) Span() analysis.LineSpan { return n.span }
func (n *node) Text() string            { return n.unit.slice(n.start, n.end) }
func (n *node) Kind() analysis.NodeKind { return n.role }

func (n *node) Parent() analysis.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *node) FirstToken() analysis.Token {
	if n.first == nil {
		return nil
	}
	return n.first
}

type leaf struct {
	unit       *unit
	start, end uint
	span       analysis.LineSpan
}

func (l *leaf) Span() analysis.LineSpan { return l.span }
func (l *leaf) Text() string            { return l.unit.slice(l.start, l.end) }

func (u *unit) slice(start, end uint) string {
	if start > end || end > uint(len(u.src)) {
		return ""
	}
	return string(u.src[start:end])
}
