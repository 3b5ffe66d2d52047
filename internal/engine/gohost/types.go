package gohost

import (
	"go/types"

	"nsguard/internal/engine/analysis"
)

// wrapType adapts a go/types type. Pointers to named types are seen through so
// that *T depends on T. It returns untyped nil for a nil type.
func wrapType(t types.Type) analysis.TypeSymbol {
	if t == nil {
		return nil
	}
	t = types.Unalias(t)
	if ptr, ok := t.(*types.Pointer); ok {
		switch elem := types.Unalias(ptr.Elem()).(type) {
		case *types.Named:
			return namedType{named: elem}
		case *types.TypeParam:
			return typeParam{param: elem}
		}
		return unnamedType{typ: t, kind: analysis.TypeKindPointer}
	}

	switch t := t.(type) {
	case *types.Named:
		return namedType{named: t}
	case *types.TypeParam:
		return typeParam{param: t}
	case *types.Tuple:
		return nil
	case *types.Slice, *types.Array:
		return unnamedType{typ: t, kind: analysis.TypeKindArray}
	case *types.Struct:
		return unnamedType{typ: t, kind: analysis.TypeKindStruct}
	case *types.Interface:
		return unnamedType{typ: t, kind: analysis.TypeKindInterface}
	case *types.Signature:
		return unnamedType{typ: t, kind: analysis.TypeKindDelegate}
	}
	return unnamedType{typ: t, kind: analysis.TypeKindUnknown}
}

// namedType is a declared Go type. Its namespace is the import path.
type namedType struct {
	named *types.Named
}

func (n namedType) Name() string { return n.named.Obj().Name() }

func (n namedType) Kind() analysis.TypeKind {
	switch n.named.Underlying().(type) {
	case *types.Struct:
		return analysis.TypeKindStruct
	case *types.Interface:
		return analysis.TypeKindInterface
	case *types.Signature:
		return analysis.TypeKindDelegate
	case *types.Basic:
		return analysis.TypeKindEnum
	default:
		return analysis.TypeKindClass
	}
}

func (n namedType) Namespace() (string, bool) {
	return packagePath(n.named.Obj().Pkg())
}

func (n namedType) IsAnonymous() bool { return false }

type typeParam struct {
	param *types.TypeParam
}

func (p typeParam) Name() string              { return p.param.Obj().Name() }
func (p typeParam) Kind() analysis.TypeKind   { return analysis.TypeKindTypeParameter }
func (p typeParam) Namespace() (string, bool) { return packagePath(p.param.Obj().Pkg()) }
func (p typeParam) IsAnonymous() bool         { return false }

// unnamedType covers type literals; they never belong to a package.
type unnamedType struct {
	typ  types.Type
	kind analysis.TypeKind
}

func (u unnamedType) Name() string              { return u.typ.String() }
func (u unnamedType) Kind() analysis.TypeKind   { return u.kind }
func (u unnamedType) Namespace() (string, bool) { return "", false }

func (u unnamedType) IsAnonymous() bool {
	return u.kind == analysis.TypeKindStruct || u.kind == analysis.TypeKindInterface
}

// funcType stands in for a package-level function so that references made in
// its body have an owner. It is reported as a delegate named after the function.
type funcType struct {
	fn *types.Func
}

func (f funcType) Name() string              { return f.fn.Name() }
func (f funcType) Kind() analysis.TypeKind   { return analysis.TypeKindDelegate }
func (f funcType) Namespace() (string, bool) { return packagePath(f.fn.Pkg()) }
func (f funcType) IsAnonymous() bool         { return false }

// valueType stands in for a package-level variable or constant whose own type
// belongs to no package. Constants read as enum members.
type valueType struct {
	obj types.Object
}

func (v valueType) Name() string { return v.obj.Name() }

func (v valueType) Kind() analysis.TypeKind {
	if _, ok := v.obj.(*types.Const); ok {
		return analysis.TypeKindEnum
	}
	return analysis.TypeKindClass
}

func (v valueType) Namespace() (string, bool) { return packagePath(v.obj.Pkg()) }
func (v valueType) IsAnonymous() bool         { return false }

// method adapts a function or method object.
type method struct {
	fn *types.Func
}

func (m method) Name() string { return m.fn.Name() }

// IsExtension is always false: Go has no extension methods.
func (m method) IsExtension() bool { return false }

// ReturnType is the single result, or the first result of a (T, error) pair.
func (m method) ReturnType() analysis.TypeSymbol {
	sig, ok := m.fn.Type().(*types.Signature)
	if !ok {
		return nil
	}
	results := sig.Results()
	switch {
	case results.Len() == 1:
		return wrapType(results.At(0).Type())
	case results.Len() == 2 && isError(results.At(1).Type()):
		return wrapType(results.At(0).Type())
	}
	return nil
}

func (m method) ContainingType() analysis.TypeSymbol {
	sig, ok := m.fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return nil
	}
	return wrapType(sig.Recv().Type())
}

// value is a variable or constant; only its name is of interest.
type value struct {
	name string
}

func (v value) Name() string { return v.name }

func packagePath(pkg *types.Package) (string, bool) {
	if pkg == nil {
		return "", false
	}
	return pkg.Path(), true
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}
