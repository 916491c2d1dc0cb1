package codegen

import (
	"strings"
	"testing"

	"github.com/art-lang/art/internal/analysis"
	"github.com/art-lang/art/internal/desugar"
	"github.com/art-lang/art/internal/parser"
	"github.com/art-lang/art/internal/resolver"
)

// compileIR runs the full pipeline (parse -> desugar -> resolve -> analyze
// -> codegen) and returns the textual LLVM IR, matching spec §6's
// compile-mode output. These tests assume a real LLVM installation is
// available to tinygo.org/x/go-llvm at build/test time, exactly as the
// rest of this module does.
func compileIR(t *testing.T, src string) string {
	t.Helper()
	exprs, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	exprs = desugar.Program(exprs)

	typed, err := resolver.New().Program(exprs)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if err := analysis.Check(typed); err != nil {
		t.Fatalf("analysis error: %v", err)
	}

	b, err := NewBuilder(nil, TargetWasm)
	if err != nil {
		t.Fatalf("builder init error: %v", err)
	}
	defer b.Dispose()

	if err := NewGenerator(b).Program(typed); err != nil {
		t.Fatalf("codegen error: %v", err)
	}
	return b.IR()
}

func TestCodegenEmitsMainFunction(t *testing.T) {
	ir := compileIR(t, "fn main() {\n print(1 + 2)\n}\n")
	if !strings.Contains(ir, "@main") {
		t.Fatalf("expected IR to define main, got:\n%s", ir)
	}
	if !strings.Contains(ir, "@printf") {
		t.Fatalf("expected IR to reference printf, got:\n%s", ir)
	}
}

func TestCodegenEmitsCalledFunction(t *testing.T) {
	ir := compileIR(t, "fn add(a: i32, b: i32) -> i32 {\n return a + b\n}\n"+
		"fn main() {\n print(add(2, 3))\n}\n")
	if !strings.Contains(ir, "@add") {
		t.Fatalf("expected IR to define add, got:\n%s", ir)
	}
}

func TestCodegenForLoopLowersToBranches(t *testing.T) {
	ir := compileIR(t, "fn main() {\n for i in 0..3 step 1 {\n print(i)\n }\n}\n")
	if !strings.Contains(ir, "loop.head") {
		t.Fatalf("expected desugared for-loop to lower through a loop head block, got:\n%s", ir)
	}
}

func TestCodegenIfElseLowersBothBranches(t *testing.T) {
	ir := compileIR(t, `fn main() {
 if 1 == 1 {
 print("y")
 } else {
 print("n")
 }
}
`)
	if !strings.Contains(ir, "@stringInit") {
		t.Fatalf("expected string literals to call stringInit, got:\n%s", ir)
	}
	if !strings.Contains(ir, `c"y\00"`) || !strings.Contains(ir, `c"n\00"`) {
		t.Fatalf("expected the literals of both the then and the else branch in the IR, got:\n%s", ir)
	}
}
