package javahost

import (
	"strings"

	"nsguard/internal/engine/analysis"
)

// javaType is a type declared in one of the loaded compilation units.
type javaType struct {
	name      string
	pkg       string
	qualified string
	kind      analysis.TypeKind
	unit      *unit
	methods   map[string]methodDecl
}

// methodDecl keeps the first declaration seen for a method name; overloads
// are not distinguished.
type methodDecl struct {
	returnType string
	typeParams []string
}

func (t *javaType) Name() string            { return t.name }
func (t *javaType) Kind() analysis.TypeKind { return t.kind }
func (t *javaType) IsAnonymous() bool       { return false }

func (t *javaType) Namespace() (string, bool) {
	return t.pkg, t.pkg != ""
}

// externalType is a type known only by its qualified name, such as one
// imported from a library that is not part of the loaded tree.
type externalType struct {
	name string
	pkg  string
	kind analysis.TypeKind
}

func newExternalType(qualified string, kind analysis.TypeKind) externalType {
	idx := strings.LastIndex(qualified, ".")
	if idx < 0 {
		return externalType{name: qualified, kind: kind}
	}
	return externalType{name: qualified[idx+1:], pkg: qualified[:idx], kind: kind}
}

func (t externalType) Name() string              { return t.name }
func (t externalType) Kind() analysis.TypeKind   { return t.kind }
func (t externalType) Namespace() (string, bool) { return t.pkg, t.pkg != "" }
func (t externalType) IsAnonymous() bool         { return false }

type typeParam struct {
	name string
	pkg  string
}

func (p typeParam) Name() string              { return p.name }
func (p typeParam) Kind() analysis.TypeKind   { return analysis.TypeKindTypeParameter }
func (p typeParam) Namespace() (string, bool) { return p.pkg, p.pkg != "" }
func (p typeParam) IsAnonymous() bool         { return false }

type method struct {
	name  string
	owner *javaType
	decl  methodDecl
}

func (m method) Name() string { return m.name }

// IsExtension is always false: Java has no extension methods.
func (m method) IsExtension() bool { return false }

func (m method) ReturnType() analysis.TypeSymbol {
	if m.decl.returnType == "" {
		return nil
	}
	for _, p := range m.decl.typeParams {
		if p == m.decl.returnType {
			return typeParam{name: p, pkg: m.owner.pkg}
		}
	}
	return m.owner.unit.resolve(m.decl.returnType)
}

func (m method) ContainingType() analysis.TypeSymbol { return m.owner }

// javaLang lists the implicitly imported java.lang types the resolver knows.
var javaLang = map[string]analysis.TypeKind{
	"Object":                        analysis.TypeKindClass,
	"String":                        analysis.TypeKindClass,
	"StringBuilder":                 analysis.TypeKindClass,
	"CharSequence":                  analysis.TypeKindInterface,
	"Boolean":                       analysis.TypeKindClass,
	"Byte":                          analysis.TypeKindClass,
	"Character":                     analysis.TypeKindClass,
	"Short":                         analysis.TypeKindClass,
	"Integer":                       analysis.TypeKindClass,
	"Long":                          analysis.TypeKindClass,
	"Float":                         analysis.TypeKindClass,
	"Double":                        analysis.TypeKindClass,
	"Number":                        analysis.TypeKindClass,
	"Void":                          analysis.TypeKindClass,
	"Math":                          analysis.TypeKindClass,
	"System":                        analysis.TypeKindClass,
	"Thread":                        analysis.TypeKindClass,
	"Class":                         analysis.TypeKindClass,
	"Enum":                          analysis.TypeKindClass,
	"Record":                        analysis.TypeKindClass,
	"Throwable":                     analysis.TypeKindClass,
	"Exception":                     analysis.TypeKindClass,
	"Error":                         analysis.TypeKindClass,
	"RuntimeException":              analysis.TypeKindClass,
	"IllegalArgumentException":      analysis.TypeKindClass,
	"IllegalStateException":         analysis.TypeKindClass,
	"NullPointerException":          analysis.TypeKindClass,
	"UnsupportedOperationException": analysis.TypeKindClass,
	"IndexOutOfBoundsException":     analysis.TypeKindClass,
	"InterruptedException":          analysis.TypeKindClass,
	"Runnable":                      analysis.TypeKindInterface,
	"Iterable":                      analysis.TypeKindInterface,
	"Comparable":                    analysis.TypeKindInterface,
	"AutoCloseable":                 analysis.TypeKindInterface,
	"Cloneable":                     analysis.TypeKindInterface,
	"Appendable":                    analysis.TypeKindInterface,
	"Override":                      analysis.TypeKindInterface,
	"Deprecated":                    analysis.TypeKindInterface,
	"FunctionalInterface":           analysis.TypeKindInterface,
	"SuppressWarnings":              analysis.TypeKindInterface,
	"SafeVarargs":                   analysis.TypeKindInterface,
}
