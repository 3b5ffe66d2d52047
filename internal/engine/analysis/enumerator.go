// Package analysis derives namespace-level type dependencies from host syntax nodes.
//
// Hosts supply syntax (Node, Token) and symbol resolution (SemanticModel); the
// functions here are pure and safe to call concurrently for different nodes.
package analysis

import (
	"iter"
	"slices"
)

// IsAnalyzable reports whether t can be an endpoint of a dependency edge.
func IsAnalyzable(t TypeSymbol) bool {
	if t == nil {
		return false
	}
	if _, ok := t.Namespace(); !ok {
		return false
	}
	return slices.Contains(AnalyzedTypeKinds, t.Kind()) && !t.IsAnonymous()
}

// Enumerate yields the type dependencies implied by node: at most one edge to the
// referenced type and one edge to the declaring type of an extension method.
func Enumerate(node Node, model SemanticModel) iter.Seq[TypeDependency] {
	return func(yield func(TypeDependency) bool) {
		if node == nil || model == nil {
			return
		}

		enclosing := enclosingType(node, model)
		if !IsAnalyzable(enclosing) {
			return
		}

		if referenced := referencedType(node, model); IsAnalyzable(referenced) {
			if !yield(newDependency(enclosing, referenced, node)) {
				return
			}
		}

		if declaring := extensionMethodDeclaringType(node, model); IsAnalyzable(declaring) {
			yield(newDependency(enclosing, declaring, node))
		}
	}
}

// Dependencies collects Enumerate into a slice.
func Dependencies(node Node, model SemanticModel) []TypeDependency {
	return slices.Collect(Enumerate(node, model))
}

func enclosingType(node Node, model SemanticModel) TypeSymbol {
	for ancestor := range Ancestors(node) {
		if ancestor.Kind() == NodeKindTypeDeclaration {
			return model.DeclaredType(ancestor)
		}
	}
	return nil
}

func referencedType(node Node, model SemanticModel) TypeSymbol {
	if t := model.ExpressionType(node); t != nil {
		return t
	}

	// A type name inside an object creation may have no expression type while
	// its bound symbol is the type itself.
	switch sym := model.BoundSymbol(node).(type) {
	case TypeSymbol:
		return sym
	case MethodSymbol:
		// An invocation depends on what it returns.
		return sym.ReturnType()
	}
	return nil
}

func extensionMethodDeclaringType(node Node, model SemanticModel) TypeSymbol {
	method, ok := model.BoundSymbol(node).(MethodSymbol)
	if !ok || !method.IsExtension() {
		return nil
	}
	return method.ContainingType()
}

func newDependency(from, to TypeSymbol, node Node) TypeDependency {
	fromNamespace, _ := from.Namespace()
	toNamespace, _ := to.Namespace()
	return TypeDependency{
		FromNamespace: fromNamespace,
		FromType:      from.Name(),
		ToNamespace:   toNamespace,
		ToType:        to.Name(),
		Segment:       Locate(node),
	}
}
