package parser

import (
	"testing"

	"github.com/art-lang/art/internal/ast"
)

func TestParseSimpleMain(t *testing.T) {
	src := "fn main() {\n  print(1 + 2)\n}\n"
	exprs, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(exprs) != 1 {
		t.Fatalf("expected 1 top level expression, got %d", len(exprs))
	}
	fn := exprs[0]
	if fn.Kind != ast.FuncStmt || fn.Name != "main" {
		t.Fatalf("expected main function, got %s %q", fn.Kind, fn.Name)
	}
	if len(fn.Body.Stmts) != 1 || fn.Body.Stmts[0].Kind != ast.Print {
		t.Fatalf("expected single print statement in body")
	}
	printArg := fn.Body.Stmts[0].Value
	if printArg.Kind != ast.Binary || printArg.Op != "+" {
		t.Fatalf("expected binary + expression, got %s", printArg.Kind)
	}
}

func TestParseForLoop(t *testing.T) {
	src := "fn main() {\n  for i in 0..3 step 1 {\n    print(i)\n  }\n}\n"
	exprs, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	body := exprs[0].Body.Stmts
	if len(body) != 1 || body[0].Kind != ast.ForStmt {
		t.Fatalf("expected for statement, got %v", body)
	}
	forStmt := body[0]
	if forStmt.Var != "i" {
		t.Fatalf("expected loop variable i, got %s", forStmt.Var)
	}
}

func TestParseListAndLen(t *testing.T) {
	src := "fn main() {\n  let xs: list<i32> = [1,2,3]\n  print(len(xs))\n}\n"
	exprs, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	let := exprs[0].Body.Stmts[0]
	if let.Kind != ast.LetStmt || let.DeclType.Kind != ast.TypeList {
		t.Fatalf("expected list let statement, got %s", let.Kind)
	}
	if len(let.Value.Elements) != 3 {
		t.Fatalf("expected 3 list elements, got %d", len(let.Value.Elements))
	}
}

func TestParseExternModule(t *testing.T) {
	src := "extern \"helpers.c\"\nfn main() {\n  print(1)\n}\n"
	exprs, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if exprs[0].Kind != ast.ExternModule || exprs[0].Path != "helpers.c" {
		t.Fatalf("expected extern module helpers.c, got %v", exprs[0])
	}
}

func TestParseErrorUnclosedParen(t *testing.T) {
	_, err := Parse("fn main() {\n  print(1\n}\n")
	if err == nil {
		t.Fatalf("expected parse error for unclosed paren")
	}
}
