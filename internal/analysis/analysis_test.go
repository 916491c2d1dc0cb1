package analysis

import (
	"testing"

	"github.com/art-lang/art/internal/ast"
	"github.com/art-lang/art/internal/desugar"
	"github.com/art-lang/art/internal/parser"
	"github.com/art-lang/art/internal/resolver"
	"github.com/art-lang/art/internal/restype"
)

func compileTyped(t *testing.T, src string) []*restype.TypedExpression {
	t.Helper()
	exprs, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	exprs = desugar.Program(exprs)
	r := resolver.New()
	typed, err := r.Program(exprs)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	return typed
}

func TestCheckRequiresMain(t *testing.T) {
	src := "fn helper() {\n print(1)\n}\n"
	typed := compileTyped(t, src)
	err := Check(typed)
	aerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *analysis.Error, got %v (%T)", err, err)
	}
	if aerr.Kind != MissingMain {
		t.Fatalf("expected MissingMain, got %s", aerr.Kind)
	}
}

func TestCheckBreakOutsideLoopFails(t *testing.T) {
	src := "fn main() {\n break\n}\n"
	typed := compileTyped(t, src)
	err := Check(typed)
	aerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *analysis.Error, got %v (%T)", err, err)
	}
	if aerr.Kind != BreakOutsideLoop {
		t.Fatalf("expected BreakOutsideLoop, got %s", aerr.Kind)
	}
}

func TestCheckBreakInsideWhileOk(t *testing.T) {
	src := "fn main() {\n let i: i32 = 0\n while i < 3 {\n if i == 1 {\n break\n }\n i = i + 1\n }\n}\n"
	typed := compileTyped(t, src)
	if err := Check(typed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckBreakInsideForLoopOk(t *testing.T) {
	src := "fn main() {\n for i in 0..3 {\n if i == 1 {\n break\n }\n }\n}\n"
	typed := compileTyped(t, src)
	if err := Check(typed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckReturnTypeMismatchFails(t *testing.T) {
	// The resolver already rejects `fn f() -> i32 { return "oops" }` with a
	// TypeMismatch, so the typed program is built by hand to reach the
	// analyzer's own return-type rule.
	ret := &restype.TypedExpression{
		Kind: ast.ReturnStmt, Type: restype.Str,
		Value: &restype.TypedExpression{Kind: ast.String, Type: restype.Str, StrVal: "oops"},
	}
	f := &restype.TypedExpression{
		Kind: ast.FuncStmt, Name: "f", ReturnType: restype.Int32,
		Body: &restype.TypedExpression{Kind: ast.BlockStmt, Stmts: []*restype.TypedExpression{ret}},
	}
	mainFn := &restype.TypedExpression{
		Kind: ast.FuncStmt, Name: "main", ReturnType: restype.Void,
		Body: &restype.TypedExpression{Kind: ast.BlockStmt},
	}
	typed := []*restype.TypedExpression{f, mainFn}
	err := Check(typed)
	aerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *analysis.Error, got %v (%T)", err, err)
	}
	if aerr.Kind != ReturnTypeMismatch {
		t.Fatalf("expected ReturnTypeMismatch, got %s", aerr.Kind)
	}
}

func TestCheckBareReturnInVoidFuncOk(t *testing.T) {
	src := "fn helper() {\n return\n}\n" +
		"fn main() {\n helper()\n}\n"
	typed := compileTyped(t, src)
	if err := Check(typed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
