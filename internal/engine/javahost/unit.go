package javahost

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"nsguard/internal/engine/analysis"
)

var declarationKinds = map[string]analysis.TypeKind{
	"class_declaration":           analysis.TypeKindClass,
	"record_declaration":          analysis.TypeKindClass,
	"interface_declaration":       analysis.TypeKindInterface,
	"annotation_type_declaration": analysis.TypeKindInterface,
	"enum_declaration":            analysis.TypeKindEnum,
}

// unit is one parsed compilation unit. It owns its node mirror, so the
// tree-sitter tree can be released right after indexing.
type unit struct {
	path      string
	src       []byte
	pkg       string
	imports   map[string]string
	wildcards []string
	declared  []*javaType
	nodes     []*node
	index     *index
}

func newUnit(path string, src []byte) *unit {
	return &unit{path: path, src: src, imports: make(map[string]string)}
}

// build walks the syntax tree, recording declarations and the nodes that
// may reference types.
func (u *unit) build(root *sitter.Node) {
	u.visit(root, nil, nil)
}

func (u *unit) visit(ts *sitter.Node, parent *node, owner *javaType) {
	if ts == nil || !ts.IsNamed() {
		return
	}
	kind := ts.Kind()
	current := &node{
		unit:   u,
		kind:   kind,
		start:  ts.StartByte(),
		end:    ts.EndByte(),
		span:   u.span(ts),
		parent: parent,
	}

	switch kind {
	case "package_declaration":
		u.pkg = u.nameChildText(ts)
		return
	case "import_declaration":
		u.addImport(u.text(ts))
		return
	case "method_declaration":
		current.typeParams = u.typeParams(ts)
		if owner != nil {
			u.addMethod(ts, owner, current.typeParams)
		}
	case "type_identifier":
		if !u.isCoveredTypeName(ts) {
			u.nodes = append(u.nodes, current)
		}
	case "scoped_type_identifier":
		if !u.isCoveredTypeName(ts) {
			u.nodes = append(u.nodes, current)
		}
	case "generic_type":
		if !u.isCoveredTypeName(ts) {
			current.role = analysis.NodeKindGenericName
			if name := ts.NamedChild(0); name != nil {
				current.first = &leaf{unit: u, start: name.StartByte(), end: name.EndByte(), span: u.span(name)}
			}
			u.nodes = append(u.nodes, current)
		}
	case "identifier":
		if call := u.invocationPart(ts); call != nil {
			current.call = call
			u.nodes = append(u.nodes, current)
		} else if u.isTypeQualifier(ts) {
			current.typeRef = true
			u.nodes = append(u.nodes, current)
		}
	case "scoped_identifier":
		if u.isTypeQualifier(ts) {
			current.typeRef = true
			u.nodes = append(u.nodes, current)
		}
	default:
		if typeKind, ok := declarationKinds[kind]; ok {
			if name := ts.ChildByFieldName("name"); name != nil {
				declared := u.declare(u.text(name), typeKind, owner)
				current.role = analysis.NodeKindTypeDeclaration
				current.declared = declared
				current.typeParams = u.typeParams(ts)
				owner = declared
			}
		}
	}

	for i := uint(0); i < ts.ChildCount(); i++ {
		u.visit(ts.Child(i), current, owner)
	}
}

func (u *unit) declare(name string, kind analysis.TypeKind, outer *javaType) *javaType {
	qualified := name
	switch {
	case outer != nil:
		qualified = outer.qualified + "." + name
	case u.pkg != "":
		qualified = u.pkg + "." + name
	}
	t := &javaType{
		name:      name,
		pkg:       u.pkg,
		qualified: qualified,
		kind:      kind,
		unit:      u,
		methods:   make(map[string]methodDecl),
	}
	u.declared = append(u.declared, t)
	return t
}

func (u *unit) addImport(text string) {
	text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), ";"))
	text = strings.TrimSpace(strings.TrimPrefix(text, "import"))
	if strings.HasPrefix(text, "static ") {
		return
	}
	text = compact(text)
	if pkg, ok := strings.CutSuffix(text, ".*"); ok {
		u.wildcards = append(u.wildcards, pkg)
		return
	}
	simple := text
	if idx := strings.LastIndex(text, "."); idx >= 0 {
		simple = text[idx+1:]
	}
	u.imports[simple] = text
}

func (u *unit) addMethod(ts *sitter.Node, owner *javaType, typeParams []string) {
	name := ts.ChildByFieldName("name")
	if name == nil {
		return
	}
	methodName := u.text(name)
	if _, exists := owner.methods[methodName]; exists {
		return
	}
	owner.methods[methodName] = methodDecl{
		returnType: u.returnTypeName(ts.ChildByFieldName("type")),
		typeParams: typeParams,
	}
}

// returnTypeName reduces a return type to the name the resolver can look up.
// Primitive, void and array returns yield "".
func (u *unit) returnTypeName(ts *sitter.Node) string {
	if ts == nil {
		return ""
	}
	switch ts.Kind() {
	case "type_identifier", "scoped_type_identifier":
		return compact(u.text(ts))
	case "generic_type":
		if name := ts.NamedChild(0); name != nil {
			return compact(u.text(name))
		}
	}
	return ""
}

func (u *unit) typeParams(ts *sitter.Node) []string {
	params := ts.ChildByFieldName("type_parameters")
	if params == nil {
		return nil
	}
	var names []string
	for i := uint(0); i < params.NamedChildCount(); i++ {
		param := params.NamedChild(i)
		if param == nil || param.Kind() != "type_parameter" {
			continue
		}
		for j := uint(0); j < param.NamedChildCount(); j++ {
			child := param.NamedChild(j)
			if child != nil && (child.Kind() == "type_identifier" || child.Kind() == "identifier") {
				names = append(names, u.text(child))
				break
			}
		}
	}
	return names
}

// isCoveredTypeName reports whether a type name is part of a larger reported
// name or is itself a declaration.
func (u *unit) isCoveredTypeName(ts *sitter.Node) bool {
	parent := ts.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "scoped_type_identifier", "type_parameter":
		return true
	case "generic_type":
		return ts.Kind() != "generic_type"
	}
	return false
}

// invocationPart describes an identifier that names the method or the
// receiver of a method invocation.
func (u *unit) invocationPart(ts *sitter.Node) *invocation {
	parent := ts.Parent()
	if parent == nil || parent.Kind() != "method_invocation" {
		return nil
	}
	name := parent.ChildByFieldName("name")
	object := parent.ChildByFieldName("object")
	switch {
	case sameNode(name, ts):
		call := &invocation{method: u.text(ts)}
		if object != nil {
			call.hasObject = true
			call.object = compact(u.text(object))
			call.objectIsThis = object.Kind() == "this"
		}
		return call
	case sameNode(object, ts):
		return &invocation{receiver: true, object: u.text(ts)}
	}
	return nil
}

// isTypeQualifier reports whether an expression name stands for a type: an
// annotation name, or an upper-case qualifier of a member access or method
// reference such as Limits.MAX or Mapper::map.
func (u *unit) isTypeQualifier(ts *sitter.Node) bool {
	parent := ts.Parent()
	if parent == nil {
		return false
	}
	switch parent.Kind() {
	case "marker_annotation", "annotation":
		return sameNode(parent.ChildByFieldName("name"), ts)
	case "field_access":
		return ts.Kind() == "identifier" && startsUpper(u.text(ts)) &&
			sameNode(parent.ChildByFieldName("object"), ts)
	case "method_reference":
		return ts.Kind() == "identifier" && startsUpper(u.text(ts)) &&
			sameNode(parent.NamedChild(0), ts)
	}
	return false
}

func (u *unit) nameChildText(ts *sitter.Node) string {
	for i := uint(0); i < ts.NamedChildCount(); i++ {
		child := ts.NamedChild(i)
		if child == nil {
			continue
		}
		if k := child.Kind(); k == "identifier" || k == "scoped_identifier" {
			return compact(u.text(child))
		}
	}
	return ""
}

func (u *unit) text(ts *sitter.Node) string {
	return ts.Utf8Text(u.src)
}

func (u *unit) span(ts *sitter.Node) analysis.LineSpan {
	start, end := ts.StartPosition(), ts.EndPosition()
	return analysis.LineSpan{
		Path:  u.path,
		Start: analysis.Position{Line: int(start.Row), Column: int(start.Column)},
		End:   analysis.Position{Line: int(end.Row), Column: int(end.Column)},
	}
}

func sameNode(a, b *sitter.Node) bool {
	return a != nil && b != nil && a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte()
}

// compact drops whitespace inside dotted names.
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
