package restype

import "github.com/art-lang/art/internal/ast"

// TypedExpression is the typed-AST counterpart of ast.Expression: the same
// variant shape, but every node additionally carries a resolved Type.
type TypedExpression struct {
	Kind ast.Kind
	Type Type
	Line int
	Pos  int

	NumVal int64
	StrVal string
	BoolVal bool
	Name   string

	Op          string
	Left, Right *TypedExpression

	Inner *TypedExpression

	DeclType Type
	Value    *TypedExpression

	Cond, Then, Else *TypedExpression

	Var              string
	Start, End, Step *TypedExpression
	Body             *TypedExpression

	Stmts []*TypedExpression

	Params     []Param
	ReturnType Type

	Callee *TypedExpression
	Args   []*TypedExpression

	Elements []*TypedExpression

	List  *TypedExpression
	Index *TypedExpression

	Path string
}

// Param is a resolved function parameter.
type Param struct {
	Name string
	Type Type
}
