package desugar

import (
	"testing"

	"github.com/art-lang/art/internal/ast"
)

func forExpr(step int64) *ast.Expression {
	return &ast.Expression{
		Kind:  ast.ForStmt,
		Var:   "i",
		Start: &ast.Expression{Kind: ast.Number, NumVal: 0},
		End:   &ast.Expression{Kind: ast.Number, NumVal: 3},
		Step:  &ast.Expression{Kind: ast.Number, NumVal: step},
		Body:  &ast.Expression{Kind: ast.BlockStmt, Stmts: []*ast.Expression{{Kind: ast.Print, Value: &ast.Expression{Kind: ast.Variable, Name: "i"}}}},
	}
}

func TestForLoopDesugarsToLetWhile(t *testing.T) {
	out := Program([]*ast.Expression{forExpr(1)})
	if len(out) != 1 || out[0].Kind != ast.BlockStmt {
		t.Fatalf("expected single block, got %v", out)
	}
	stmts := out[0].Stmts
	if len(stmts) != 2 {
		t.Fatalf("expected [let, while], got %d stmts", len(stmts))
	}
	if stmts[0].Kind != ast.LetStmt || stmts[0].Name != "i" {
		t.Fatalf("expected let i, got %v", stmts[0])
	}
	while := stmts[1]
	if while.Kind != ast.WhileStmt {
		t.Fatalf("expected while statement, got %s", while.Kind)
	}
	if while.Cond.Op != "<" {
		t.Fatalf("expected < condition for non-negative step, got %s", while.Cond.Op)
	}
	body := while.Then.Stmts
	if len(body) != 2 {
		t.Fatalf("expected [print, incr], got %d", len(body))
	}
	incr := body[1]
	if incr.Kind != ast.AssignStmt || incr.Value.Op != "+" {
		t.Fatalf("expected += style increment, got %v", incr)
	}
}

func TestForLoopNegativeStepUsesDecrement(t *testing.T) {
	out := Program([]*ast.Expression{forExpr(-1)})
	while := out[0].Stmts[1]
	if while.Cond.Op != ">" {
		t.Fatalf("expected > condition for negative step, got %s", while.Cond.Op)
	}
	incr := while.Then.Stmts[1]
	if incr.Value.Op != "-" {
		t.Fatalf("expected -= style decrement, got %s", incr.Value.Op)
	}
	if incr.Value.Right.NumVal != 1 {
		t.Fatalf("expected absolute step value 1, got %d", incr.Value.Right.NumVal)
	}
}

func TestDesugarIsIdempotentOnItsImage(t *testing.T) {
	once := Program([]*ast.Expression{forExpr(1)})
	twice := Program(once)
	if len(once) != len(twice) {
		t.Fatalf("expected idempotent desugaring to preserve shape")
	}
	if once[0].Stmts[1].Cond.Op != twice[0].Stmts[1].Cond.Op {
		t.Fatalf("desugaring the already-desugared program changed it")
	}
}

func TestBlockRecursesIntoNestedIf(t *testing.T) {
	nested := &ast.Expression{
		Kind: ast.BlockStmt,
		Stmts: []*ast.Expression{
			{
				Kind: ast.IfStmt,
				Cond: &ast.Expression{Kind: ast.Bool, BoolVal: true},
				Then: &ast.Expression{Kind: ast.BlockStmt, Stmts: []*ast.Expression{forExpr(1)}},
			},
		},
	}
	out := Program([]*ast.Expression{nested})
	ifStmt := out[0].Stmts[0]
	innerBlock := ifStmt.Then
	if innerBlock.Stmts[0].Kind != ast.BlockStmt {
		t.Fatalf("expected nested for-loop to be desugared in place, got %s", innerBlock.Stmts[0].Kind)
	}
}
