package analysis

type fakeType struct {
	name      string
	namespace string
	global    bool
	kind      TypeKind
	anonymous bool
}

func (t *fakeType) Name() string     { return t.name }
func (t *fakeType) Kind() TypeKind   { return t.kind }
func (t *fakeType) IsAnonymous() bool { return t.anonymous }
func (t *fakeType) Namespace() (string, bool) {
	if t.global {
		return "", false
	}
	return t.namespace, true
}

type fakeMethod struct {
	name       string
	extension  bool
	returns    TypeSymbol
	containing TypeSymbol
}

func (m *fakeMethod) Name() string               { return m.name }
func (m *fakeMethod) IsExtension() bool          { return m.extension }
func (m *fakeMethod) ReturnType() TypeSymbol     { return m.returns }
func (m *fakeMethod) ContainingType() TypeSymbol { return m.containing }

type fakeVariable struct{ name string }

func (v *fakeVariable) Name() string { return v.name }

type fakeToken struct {
	span LineSpan
	text string
}

func (t *fakeToken) Span() LineSpan { return t.span }
func (t *fakeToken) Text() string   { return t.text }

type fakeNode struct {
	fakeToken
	parent *fakeNode
	kind   NodeKind
	first  *fakeToken
}

func (n *fakeNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *fakeNode) Kind() NodeKind { return n.kind }

func (n *fakeNode) FirstToken() Token {
	if n.first == nil {
		return &n.fakeToken
	}
	return n.first
}

// fakeModel answers from maps keyed by node identity.
type fakeModel struct {
	expressionTypes map[*fakeNode]TypeSymbol
	boundSymbols    map[*fakeNode]Symbol
	declaredTypes   map[*fakeNode]TypeSymbol
	calls           int
}

func newFakeModel() *fakeModel {
	return &fakeModel{
		expressionTypes: make(map[*fakeNode]TypeSymbol),
		boundSymbols:    make(map[*fakeNode]Symbol),
		declaredTypes:   make(map[*fakeNode]TypeSymbol),
	}
}

func (m *fakeModel) ExpressionType(node Node) TypeSymbol {
	m.calls++
	if t, ok := m.expressionTypes[node.(*fakeNode)]; ok {
		return t
	}
	return nil
}

func (m *fakeModel) BoundSymbol(node Node) Symbol {
	m.calls++
	if s, ok := m.boundSymbols[node.(*fakeNode)]; ok {
		return s
	}
	return nil
}

func (m *fakeModel) DeclaredType(node Node) TypeSymbol {
	m.calls++
	if t, ok := m.declaredTypes[node.(*fakeNode)]; ok {
		return t
	}
	return nil
}

func span(path string, startLine, startCol, endLine, endCol int) LineSpan {
	return LineSpan{
		Path:  path,
		Start: Position{Line: startLine, Column: startCol},
		End:   Position{Line: endLine, Column: endCol},
	}
}

// classTree builds: namespace A { class Foo { <member> } } and returns the
// class declaration node plus a member node nested inside it.
func classTree(model *fakeModel) (*fakeNode, *fakeNode) {
	unit := &fakeNode{fakeToken: fakeToken{span: span("a.go", 0, 0, 10, 0)}}
	class := &fakeNode{
		fakeToken: fakeToken{span: span("a.go", 1, 0, 9, 1), text: "class Foo { ... }"},
		parent:    unit,
		kind:      NodeKindTypeDeclaration,
	}
	field := &fakeNode{
		fakeToken: fakeToken{span: span("a.go", 3, 4, 3, 20), text: "private B.Bar bar;"},
		parent:    class,
	}
	model.declaredTypes[class] = &fakeType{name: "Foo", namespace: "A", kind: TypeKindClass}
	return class, field
}

func childOf(parent *fakeNode, text string, s LineSpan) *fakeNode {
	return &fakeNode{fakeToken: fakeToken{span: s, text: text}, parent: parent}
}
