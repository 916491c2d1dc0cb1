package ast

// TypeKind enumerates the surface type forms a programmer can write.
type TypeKind int

const (
	TypeNone TypeKind = iota // "infer from initializer" on a let, "void" as a return type
	TypeI32
	TypeI64
	TypeBool
	TypeString
	TypeList
)

// Type is the surface type annotation attached to parameters, let-bindings
// and function return types, before resolution.
type Type struct {
	Kind TypeKind
	Elem *Type // populated only when Kind == TypeList
}

func (t Type) String() string {
	switch t.Kind {
	case TypeNone:
		return "none"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeList:
		if t.Elem == nil {
			return "list<?>"
		}
		return "list<" + t.Elem.String() + ">"
	default:
		return "unknown"
	}
}

// Equal reports whether two surface types denote the same type.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind == TypeList {
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	}
	return true
}

var (
	I32    = Type{Kind: TypeI32}
	I64    = Type{Kind: TypeI64}
	Boolean = Type{Kind: TypeBool}
	Str    = Type{Kind: TypeString}
	None   = Type{Kind: TypeNone}
)

// ListOf builds a list<Elem> surface type.
func ListOf(elem Type) Type {
	e := elem
	return Type{Kind: TypeList, Elem: &e}
}
