package resolver

import (
	"testing"

	"github.com/art-lang/art/internal/ast"
	"github.com/art-lang/art/internal/desugar"
	"github.com/art-lang/art/internal/parser"
	"github.com/art-lang/art/internal/restype"
)

func mustParse(t *testing.T, src string) []*ast.Expression {
	t.Helper()
	exprs, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return desugar.Program(exprs)
}

func TestResolveLetInfersType(t *testing.T) {
	src := "fn main() {\n let x = 41 + 1\n print(x)\n}\n"
	exprs := mustParse(t, src)
	r := New()
	typed, err := r.Program(exprs)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	fn := typed[0]
	letStmt := fn.Body.Stmts[0]
	if letStmt.DeclType.Kind != restype.I32 {
		t.Fatalf("expected inferred i32, got %s", letStmt.DeclType)
	}
}

func TestResolveUndefinedNameFails(t *testing.T) {
	src := "fn main() {\n print(missing)\n}\n"
	exprs := mustParse(t, src)
	r := New()
	_, err := r.Program(exprs)
	rerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *resolver.Error, got %v (%T)", err, err)
	}
	if rerr.Kind != UndefinedName {
		t.Fatalf("expected UndefinedName, got %s", rerr.Kind)
	}
}

func TestResolveBinaryTypeMismatch(t *testing.T) {
	src := "fn main() {\n let x = 1 + \"a\"\n}\n"
	exprs := mustParse(t, src)
	r := New()
	_, err := r.Program(exprs)
	rerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *resolver.Error, got %v (%T)", err, err)
	}
	if rerr.Kind != TypeMismatch {
		t.Fatalf("expected TypeMismatch, got %s", rerr.Kind)
	}
}

func TestResolveIfConditionMustBeBool(t *testing.T) {
	src := "fn main() {\n if 1 {\n print(1)\n }\n}\n"
	exprs := mustParse(t, src)
	r := New()
	_, err := r.Program(exprs)
	rerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *resolver.Error, got %v (%T)", err, err)
	}
	if rerr.Kind != TypeMismatch {
		t.Fatalf("expected TypeMismatch, got %s", rerr.Kind)
	}
}

func TestResolveFuncAllowsRecursion(t *testing.T) {
	src := "fn fact(n: i32) -> i32 {\n if n == 0 {\n return 1\n }\n return n * fact(n - 1)\n}\n" +
		"fn main() {\n print(fact(5))\n}\n"
	exprs := mustParse(t, src)
	r := New()
	if _, err := r.Program(exprs); err != nil {
		t.Fatalf("resolve error: %v", err)
	}
}

func TestResolveCallArityMismatch(t *testing.T) {
	src := "fn add(a: i32, b: i32) -> i32 {\n return a + b\n}\n" +
		"fn main() {\n print(add(1))\n}\n"
	exprs := mustParse(t, src)
	r := New()
	_, err := r.Program(exprs)
	rerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *resolver.Error, got %v (%T)", err, err)
	}
	if rerr.Kind != ArityMismatch {
		t.Fatalf("expected ArityMismatch, got %s", rerr.Kind)
	}
}

func TestResolveEmptyListWithoutDeclaredTypeFails(t *testing.T) {
	src := "fn main() {\n let xs = []\n}\n"
	exprs := mustParse(t, src)
	r := New()
	_, err := r.Program(exprs)
	rerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *resolver.Error, got %v (%T)", err, err)
	}
	if rerr.Kind != InvalidDeclaration {
		t.Fatalf("expected InvalidDeclaration, got %s", rerr.Kind)
	}
}

func TestResolveListElementTypeMismatch(t *testing.T) {
	src := "fn main() {\n let xs = [1, \"a\"]\n}\n"
	exprs := mustParse(t, src)
	r := New()
	_, err := r.Program(exprs)
	rerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *resolver.Error, got %v (%T)", err, err)
	}
	if rerr.Kind != TypeMismatch {
		t.Fatalf("expected TypeMismatch, got %s", rerr.Kind)
	}
}

func TestResolveI32ToI64Widening(t *testing.T) {
	src := "fn main() {\n let x: i64 = 1\n}\n"
	exprs := mustParse(t, src)
	r := New()
	typed, err := r.Program(exprs)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	letStmt := typed[0].Body.Stmts[0]
	if letStmt.DeclType.Kind != restype.I64 {
		t.Fatalf("expected declared i64, got %s", letStmt.DeclType)
	}
}

func TestResolveLenOnListAndString(t *testing.T) {
	src := "fn main() {\n let xs = [1, 2, 3]\n print(len(xs))\n print(len(\"hi\"))\n}\n"
	exprs := mustParse(t, src)
	r := New()
	if _, err := r.Program(exprs); err != nil {
		t.Fatalf("resolve error: %v", err)
	}
}
