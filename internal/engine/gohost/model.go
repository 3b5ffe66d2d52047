package gohost

import (
	"go/ast"
	"go/types"

	"nsguard/internal/engine/analysis"
)

// model answers symbol questions from go/types results.
type model struct {
	info *types.Info
}

// ExpressionType is the type of a value or type reference. Function and method
// names have none; their dependency comes through BoundSymbol. Neither do
// package-level values whose type is not analyzable.
func (m model) ExpressionType(n analysis.Node) analysis.TypeSymbol {
	syntax := astOf(n)
	switch e := syntax.(type) {
	case *ast.Ident:
		switch obj := m.info.Uses[e].(type) {
		case *types.Var, *types.Const:
			t := wrapType(obj.Type())
			if !analysis.IsAnalyzable(t) && packageMember(obj) {
				return nil
			}
			return t
		case *types.TypeName:
			return wrapType(obj.Type())
		}
	case *ast.IndexExpr, *ast.IndexListExpr:
		if tv, ok := m.info.Types[e.(ast.Expr)]; ok && tv.IsType() {
			return wrapType(tv.Type)
		}
	}
	return nil
}

// BoundSymbol resolves identifiers to types, functions and values. A
// package-level function or value that leads to no analyzable type binds to a
// stand-in in its own package, so lib.Init() still depends on lib.
func (m model) BoundSymbol(n analysis.Node) analysis.Symbol {
	ident, ok := astOf(n).(*ast.Ident)
	if !ok {
		return nil
	}
	switch obj := m.info.Uses[ident].(type) {
	case *types.TypeName:
		if t := wrapType(obj.Type()); t != nil {
			return t
		}
	case *types.Func:
		fn := method{fn: obj}
		if !analysis.IsAnalyzable(fn.ReturnType()) && packageMember(obj) {
			return funcType{fn: obj}
		}
		return fn
	case *types.Var, *types.Const:
		if !analysis.IsAnalyzable(wrapType(obj.Type())) && packageMember(obj) {
			return valueType{obj: obj}
		}
		return value{name: obj.Name()}
	}
	return nil
}

// DeclaredType resolves type specs to their type, methods to their receiver
// base type and plain functions to a delegate named after the function.
func (m model) DeclaredType(n analysis.Node) analysis.TypeSymbol {
	switch decl := astOf(n).(type) {
	case *ast.TypeSpec:
		if obj, ok := m.info.Defs[decl.Name].(*types.TypeName); ok {
			return wrapType(obj.Type())
		}
	case *ast.FuncDecl:
		if decl.Recv == nil || len(decl.Recv.List) == 0 {
			if fn, ok := m.info.Defs[decl.Name].(*types.Func); ok {
				return funcType{fn: fn}
			}
			return nil
		}
		base := receiverBase(decl.Recv.List[0].Type)
		if base == nil {
			return nil
		}
		if obj, ok := m.info.Uses[base].(*types.TypeName); ok {
			return wrapType(obj.Type())
		}
	}
	return nil
}

// packageMember reports whether obj is declared at package scope. Methods,
// fields and locals are not.
func packageMember(obj types.Object) bool {
	return obj.Pkg() != nil && obj.Pkg().Scope().Lookup(obj.Name()) == obj
}

func astOf(n analysis.Node) ast.Node {
	if own, ok := n.(*node); ok && own != nil {
		return own.syntax
	}
	return nil
}

// receiverBase strips pointers, parentheses and type arguments from a
// receiver type expression.
func receiverBase(expr ast.Expr) *ast.Ident {
	for {
		switch e := expr.(type) {
		case *ast.Ident:
			return e
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		default:
			return nil
		}
	}
}
