// Package restype defines the resolved type lattice and the typed AST the
// type resolver produces, mirroring the shape of
// original_source's codegen/src/typed_ast.go (ResolvedType/TypedExpression)
// but adapted to Go's lack of sum types the same way internal/ast is: one
// tagged struct per node kind.
package restype

import "fmt"

// Kind enumerates the resolved primitive and composite types (spec §3).
type Kind int

const (
	I32 Kind = iota
	I64
	StringT
	BoolT
	ListT
	FunctionT
	VoidT
)

// Type is a fully resolved type: a primitive tag plus, for composites, the
// auxiliary type information needed to lower it (element type for lists,
// parameter/return types for functions).
type Type struct {
	Kind    Kind
	Elem    *Type   // ListT
	Params  []Type  // FunctionT
	Returns *Type   // FunctionT
}

func (t Type) String() string {
	switch t.Kind {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case StringT:
		return "string"
	case BoolT:
		return "bool"
	case ListT:
		return fmt.Sprintf("list<%s>", t.Elem.String())
	case FunctionT:
		return "function"
	case VoidT:
		return "void"
	default:
		return "unknown"
	}
}

// Equal reports whether two resolved types are identical.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case ListT:
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == o.Elem
		}
		return t.Elem.Equal(*o.Elem)
	case FunctionT:
		if len(t.Params) != len(o.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		return t.Returns.Equal(*o.Returns)
	default:
		return true
	}
}

// IsNumeric reports whether t is I32 or I64.
func (t Type) IsNumeric() bool {
	return t.Kind == I32 || t.Kind == I64
}

var (
	Int32  = Type{Kind: I32}
	Int64  = Type{Kind: I64}
	Str    = Type{Kind: StringT}
	Boolean = Type{Kind: BoolT}
	Void   = Type{Kind: VoidT}
)

// ListOf constructs a ListT resolved type.
func ListOf(elem Type) Type {
	e := elem
	return Type{Kind: ListT, Elem: &e}
}

// Func constructs a FunctionT resolved type.
func Func(params []Type, ret Type) Type {
	r := ret
	return Type{Kind: FunctionT, Params: params, Returns: &r}
}
