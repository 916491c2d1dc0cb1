// Package analysis runs the semantic analyzer (spec §4.3): a small, fixed
// set of independent validation rules over the resolved program, each
// reporting at most one error per violation.
package analysis

import (
	"github.com/art-lang/art/internal/ast"
	"github.com/art-lang/art/internal/restype"
)

// Kind identifies which rule produced the error.
type Kind int

const (
	MissingMain Kind = iota
	BreakOutsideLoop
	ReturnTypeMismatch
)

func (k Kind) String() string {
	switch k {
	case MissingMain:
		return "MissingMain"
	case BreakOutsideLoop:
		return "BreakOutsideLoop"
	case ReturnTypeMismatch:
		return "ReturnTypeMismatch"
	default:
		return "UnknownAnalysisError"
	}
}

// Error reports a single rule violation.
type Error struct {
	Kind      Kind
	Line, Pos int
	Msg       string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Msg
}

// Check runs every rule against the resolved top-level program in order,
// returning the first violation found. Rules themselves are independent of
// each other; ordering here only decides which error surfaces first when
// more than one unit is broken.
func Check(program []*restype.TypedExpression) error {
	if err := requireMainFunction(program); err != nil {
		return err
	}
	for _, top := range program {
		if top.Kind != ast.FuncStmt {
			continue
		}
		if err := breakInsideLoop(top.Body, false); err != nil {
			return err
		}
		if err := returnTypeMatches(top.Body, top.ReturnType); err != nil {
			return err
		}
	}
	return nil
}

// requireMainFunction implements rule 1: the resolved top-level must
// contain a FuncStmt named "main".
func requireMainFunction(program []*restype.TypedExpression) error {
	for _, top := range program {
		if top.Kind == ast.FuncStmt && top.Name == "main" {
			return nil
		}
	}
	return &Error{Kind: MissingMain, Msg: "program has no fn main()"}
}

// breakInsideLoop implements rule 2 by walking a function body and
// tracking whether the current node is lexically inside a while loop.
// Desugared for-loops are already while loops by the time analysis runs,
// so this single check covers both surface forms.
func breakInsideLoop(e *restype.TypedExpression, inLoop bool) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.BreakStmt:
		if !inLoop {
			return &Error{Kind: BreakOutsideLoop, Line: e.Line, Pos: e.Pos, Msg: "break outside of a loop"}
		}
		return nil
	case ast.WhileStmt:
		return breakInsideLoop(e.Then, true)
	case ast.BlockStmt:
		for _, s := range e.Stmts {
			if err := breakInsideLoop(s, inLoop); err != nil {
				return err
			}
		}
		return nil
	case ast.IfStmt:
		if err := breakInsideLoop(e.Then, inLoop); err != nil {
			return err
		}
		return breakInsideLoop(e.Else, inLoop)
	case ast.FuncStmt:
		// Nested function literals are not part of the surface grammar,
		// but guard against them resetting the loop context if they ever
		// appear.
		return breakInsideLoop(e.Body, false)
	default:
		return nil
	}
}

// returnTypeMatches implements rule 3: every ReturnStmt inside body must
// agree with declared, the enclosing function's declared return type.
// Bare return (nil Value) requires a Void declared type.
func returnTypeMatches(e *restype.TypedExpression, declared restype.Type) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.ReturnStmt:
		actual := restype.Void
		if e.Value != nil {
			actual = e.Value.Type
		}
		if declared.Equal(actual) {
			return nil
		}
		if declared.Kind == restype.I64 && actual.Kind == restype.I32 {
			return nil
		}
		return &Error{
			Kind: ReturnTypeMismatch, Line: e.Line, Pos: e.Pos,
			Msg: "return type " + actual.String() + " does not match declared " + declared.String(),
		}
	case ast.BlockStmt:
		for _, s := range e.Stmts {
			if err := returnTypeMatches(s, declared); err != nil {
				return err
			}
		}
		return nil
	case ast.IfStmt:
		if err := returnTypeMatches(e.Then, declared); err != nil {
			return err
		}
		return returnTypeMatches(e.Else, declared)
	case ast.WhileStmt:
		return returnTypeMatches(e.Then, declared)
	default:
		return nil
	}
}
