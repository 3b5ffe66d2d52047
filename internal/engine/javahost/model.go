package javahost

import (
	"iter"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"nsguard/internal/engine/analysis"
)

// index holds every type declared by the loaded units.
type index struct {
	byQualified map[string]*javaType
	byPackage   map[string]map[string]*javaType
}

func newIndex(units []*unit) *index {
	idx := &index{
		byQualified: make(map[string]*javaType),
		byPackage:   make(map[string]map[string]*javaType),
	}
	for _, u := range units {
		u.index = idx
		for _, t := range u.declared {
			if _, exists := idx.byQualified[t.qualified]; !exists {
				idx.byQualified[t.qualified] = t
			}
			names := idx.byPackage[t.pkg]
			if names == nil {
				names = make(map[string]*javaType)
				idx.byPackage[t.pkg] = names
			}
			if _, exists := names[t.name]; !exists {
				names[t.name] = t
			}
		}
	}
	return idx
}

func (idx *index) lookup(pkg, name string) *javaType {
	return idx.byPackage[pkg][name]
}

// resolve finds the type a (possibly dotted) name refers to from inside u.
// It follows Java scoping loosely: single-type imports, the unit's own
// package, on-demand imports, then java.lang.
func (u *unit) resolve(name string) analysis.TypeSymbol {
	if name == "" {
		return nil
	}
	head, rest, dotted := strings.Cut(name, ".")
	if !dotted {
		return u.resolveSimple(name)
	}
	if t, ok := u.index.byQualified[name]; ok {
		return t
	}
	if outer, ok := u.resolveSimple(head).(*javaType); ok {
		if t, ok := u.index.byQualified[outer.qualified+"."+rest]; ok {
			return t
		}
		return nil
	}
	if startsLower(head) {
		return newExternalType(name, analysis.TypeKindClass)
	}
	return nil
}

func (u *unit) resolveSimple(name string) analysis.TypeSymbol {
	if qualified, ok := u.imports[name]; ok {
		if t, ok := u.index.byQualified[qualified]; ok {
			return t
		}
		return newExternalType(qualified, analysis.TypeKindClass)
	}
	if t := u.index.lookup(u.pkg, name); t != nil {
		return t
	}
	for _, pkg := range u.wildcards {
		if t := u.index.lookup(pkg, name); t != nil {
			return t
		}
	}
	if kind, ok := javaLang[name]; ok {
		return newExternalType("java.lang."+name, kind)
	}
	return nil
}

// Document is one parsed Java file.
type Document struct {
	unit *unit
}

func (d *Document) Path() string                  { return d.unit.path }
func (d *Document) Model() analysis.SemanticModel { return model{} }

func (d *Document) Nodes() iter.Seq[analysis.Node] {
	return func(yield func(analysis.Node) bool) {
		for _, n := range d.unit.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// model resolves names syntactically against the project index. It has no
// expression typing, so every reference is answered through BoundSymbol.
type model struct{}

func (model) ExpressionType(analysis.Node) analysis.TypeSymbol { return nil }

func (model) BoundSymbol(n analysis.Node) analysis.Symbol {
	own, ok := n.(*node)
	if !ok || own == nil {
		return nil
	}
	var sym analysis.Symbol
	switch {
	case own.call != nil && own.call.receiver:
		if startsUpper(own.call.object) {
			sym = typeSymbol(own.resolveType(own.call.object))
		}
	case own.call != nil:
		sym = own.resolveMethod()
	case own.role == analysis.NodeKindGenericName && own.first != nil:
		sym = typeSymbol(own.resolveType(compact(own.first.Text())))
	case own.typeRef || own.kind == "type_identifier" || own.kind == "scoped_type_identifier":
		sym = typeSymbol(own.resolveType(compact(own.Text())))
	}
	return sym
}

func (model) DeclaredType(n analysis.Node) analysis.TypeSymbol {
	own, ok := n.(*node)
	if !ok || own == nil || own.declared == nil {
		return nil
	}
	return own.declared
}

// typeSymbol keeps a nil TypeSymbol from turning into a non-nil Symbol.
func typeSymbol(t analysis.TypeSymbol) analysis.Symbol {
	if t == nil {
		return nil
	}
	return t
}

func (n *node) resolveType(name string) analysis.TypeSymbol {
	if !strings.Contains(name, ".") {
		for p := n; p != nil; p = p.parent {
			if slices.Contains(p.typeParams, name) {
				return typeParam{name: name, pkg: n.unit.pkg}
			}
		}
	}
	return n.unit.resolve(name)
}

func (n *node) resolveMethod() analysis.Symbol {
	call := n.call
	var candidates []*javaType
	switch {
	case !call.hasObject || call.objectIsThis:
		for p := n.parent; p != nil; p = p.parent {
			if p.declared != nil {
				candidates = append(candidates, p.declared)
			}
		}
	case startsUpper(call.object):
		if t, ok := n.resolveType(call.object).(*javaType); ok {
			candidates = append(candidates, t)
		}
	}
	for _, owner := range candidates {
		if decl, ok := owner.methods[call.method]; ok {
			return method{name: call.method, owner: owner, decl: decl}
		}
	}
	return nil
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}
