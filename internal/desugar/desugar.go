// Package desugar rewrites surface constructs into a minimal core AST
// before type resolution (spec §4.1). It is a pure AST→AST pass: total,
// no errors produced, grounded on original_source's
// crates/backend/src/compiler/desugar.rs desugar_expr.
package desugar

import "github.com/art-lang/art/internal/ast"

// Program desugars a full list of top-level expressions.
func Program(exprs []*ast.Expression) []*ast.Expression {
	out := make([]*ast.Expression, len(exprs))
	for i, e := range exprs {
		out[i] = expr(e)
	}
	return out
}

// expr desugars a single expression, recursing into composite statements.
// All variants other than ForStmt/Block/If/While/Func pass through
// unchanged, as spec §4.1 requires.
func expr(e *ast.Expression) *ast.Expression {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.ForStmt:
		return forLoop(e)
	case ast.BlockStmt:
		return block(e)
	case ast.IfStmt:
		return &ast.Expression{
			Kind: ast.IfStmt, Line: e.Line, Pos: e.Pos,
			Cond: expr(e.Cond), Then: expr(e.Then), Else: expr(e.Else),
		}
	case ast.WhileStmt:
		return &ast.Expression{
			Kind: ast.WhileStmt, Line: e.Line, Pos: e.Pos,
			Cond: expr(e.Cond), Then: expr(e.Then),
		}
	case ast.FuncStmt:
		return &ast.Expression{
			Kind: ast.FuncStmt, Line: e.Line, Pos: e.Pos,
			Name: e.Name, Params: e.Params, ReturnType: e.ReturnType,
			Body: expr(e.Body),
		}
	default:
		return e
	}
}

func block(e *ast.Expression) *ast.Expression {
	stmts := make([]*ast.Expression, len(e.Stmts))
	for i, s := range e.Stmts {
		stmts[i] = expr(s)
	}
	return &ast.Expression{Kind: ast.BlockStmt, Line: e.Line, Pos: e.Pos, Stmts: stmts}
}

// forLoop rewrites For(var, start, end, step, body) into
// Block[ Let(var, i32, start); While(cond, Block[body; Assign(var, var op |step|)]) ]
// as specified in spec §4.1. A step of 0 is not diagnosed here, and the
// analyzer does not diagnose it either: it yields a loop whose variable never
// changes.
func forLoop(e *ast.Expression) *ast.Expression {
	init := &ast.Expression{
		Kind: ast.LetStmt, Line: e.Line, Pos: e.Pos,
		Name: e.Var, DeclType: ast.I32, Value: e.Start,
	}

	stepVal := e.Step
	nonNegative := isNonNegativeLiteral(stepVal)

	cmpOp := "<"
	incrOp := "+"
	if !nonNegative {
		cmpOp = ">"
		incrOp = "-"
	}

	cond := &ast.Expression{
		Kind: ast.Binary, Line: e.Line, Pos: e.Pos,
		Op:   cmpOp,
		Left: &ast.Expression{Kind: ast.Variable, Name: e.Var},
		Right: e.End,
	}

	absStep := abs(stepVal)
	incr := &ast.Expression{
		Kind: ast.AssignStmt, Line: e.Line, Pos: e.Pos,
		Name: e.Var,
		Value: &ast.Expression{
			Kind: ast.Binary, Op: incrOp,
			Left:  &ast.Expression{Kind: ast.Variable, Name: e.Var},
			Right: absStep,
		},
	}

	desugaredBody := expr(e.Body)
	var bodyStmts []*ast.Expression
	if desugaredBody.Kind == ast.BlockStmt {
		bodyStmts = append(append([]*ast.Expression{}, desugaredBody.Stmts...), incr)
	} else {
		bodyStmts = []*ast.Expression{desugaredBody, incr}
	}

	whileStmt := &ast.Expression{
		Kind: ast.WhileStmt, Line: e.Line, Pos: e.Pos,
		Cond: cond,
		Then: &ast.Expression{Kind: ast.BlockStmt, Stmts: bodyStmts},
	}

	return &ast.Expression{
		Kind: ast.BlockStmt, Line: e.Line, Pos: e.Pos,
		Stmts: []*ast.Expression{init, whileStmt},
	}
}

// isNonNegativeLiteral reports whether a step expression is a literal
// number >= 0. Non-literal steps are treated as non-negative, matching the
// spec's "step ≥ 0" wording for the common case of a constant step; a
// runtime-signed step is outside this compiler's scope (expressions are not
// evaluated at desugar time).
func isNonNegativeLiteral(e *ast.Expression) bool {
	if e.Kind == ast.Number {
		return e.NumVal >= 0
	}
	return true
}

// abs returns |step| as an expression: a literal when step is a literal, and
// step itself, unchanged, otherwise (non-literal steps are treated as
// non-negative, see isNonNegativeLiteral).
func abs(e *ast.Expression) *ast.Expression {
	if e.Kind == ast.Number {
		v := e.NumVal
		if v < 0 {
			v = -v
		}
		return &ast.Expression{Kind: ast.Number, NumVal: v, Is64: e.Is64}
	}
	return e
}
