package analysis

// TypeKind is the host-neutral category of a type symbol.
type TypeKind int

const (
	TypeKindUnknown TypeKind = iota
	TypeKindClass
	TypeKindDelegate
	TypeKindEnum
	TypeKindInterface
	TypeKindStruct
	TypeKindTypeParameter
	TypeKindArray
	TypeKindPointer
	TypeKindError
)

var typeKindNames = map[TypeKind]string{
	TypeKindUnknown:       "unknown",
	TypeKindClass:         "class",
	TypeKindDelegate:      "delegate",
	TypeKindEnum:          "enum",
	TypeKindInterface:     "interface",
	TypeKindStruct:        "struct",
	TypeKindTypeParameter: "type_parameter",
	TypeKindArray:         "array",
	TypeKindPointer:       "pointer",
	TypeKindError:         "error",
}

func (k TypeKind) String() string {
	if name, ok := typeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// AnalyzedTypeKinds lists the kinds that can be a dependency endpoint.
var AnalyzedTypeKinds = []TypeKind{
	TypeKindClass,
	TypeKindDelegate,
	TypeKindEnum,
	TypeKindInterface,
	TypeKindStruct,
	TypeKindTypeParameter,
}

// Symbol is anything a host can bind a syntax node to.
type Symbol interface {
	Name() string
}

// TypeSymbol is a resolved type.
type TypeSymbol interface {
	Symbol
	Kind() TypeKind
	// Namespace returns the containing namespace; ok is false when the type has none.
	Namespace() (name string, ok bool)
	IsAnonymous() bool
}

// MethodSymbol is a resolved function or method.
type MethodSymbol interface {
	Symbol
	IsExtension() bool
	// ReturnType is nil when the method returns nothing or several values.
	ReturnType() TypeSymbol
	ContainingType() TypeSymbol
}

// SemanticModel answers symbol questions about the nodes of one document.
// Implementations return untyped nil when nothing is known.
type SemanticModel interface {
	ExpressionType(node Node) TypeSymbol
	BoundSymbol(node Node) Symbol
	DeclaredType(node Node) TypeSymbol
}
