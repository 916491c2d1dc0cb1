// Package replline implements the interactive REPL, grounded on
// original_source's crates/art/src/repl.rs. The compiler has no
// incremental mode, so every line is recompiled from scratch against the
// accumulated history plus the new input; only the lines that declared
// something reusable (a let-binding or a function) are kept in history,
// matching the original's filter on Expression::LetStmt/FuncStmt.
package replline

import (
	"fmt"
	"io"
	"strings"

	"github.com/art-lang/art/internal/ast"
	"github.com/art-lang/art/internal/compiler"
	"github.com/art-lang/art/internal/parser"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/art-lang/art/pkg/clierr"
)

const prompt = ">> "
const exitSentinel = "exit()"

// Run starts the interactive loop. version is printed once on entry the
// way the original prints CARGO_PKG_VERSION.
func Run(version string) error {
	color.New(color.Italic).Printf("art %s\n", version)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return errors.Wrap(err, "readline init")
	}
	defer rl.Close()

	var history []string
	for {
		line, err := rl.Readline()
		switch {
		case err == readline.ErrInterrupt:
			fmt.Fprintln(rl.Stderr(), "Did you want to exit? Type exit()")
			continue
		case err == io.EOF:
			fmt.Fprintln(rl.Stderr(), "CTRL-D")
			return nil
		case err != nil:
			return errors.Wrap(err, "readline")
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == exitSentinel {
			return nil
		}
		if trimmed == "" {
			continue
		}

		output, keep, err := evalLine(history, trimmed)
		if err != nil {
			clierr.Print(rl.Stderr(), err)
			continue
		}
		if keep {
			history = append(history, trimmed)
		}
		if output != "" {
			fmt.Fprintf(rl.Stdout(), "%q\n", output)
		}
	}
}

// evalLine recompiles the whole session (history + input) with the
// execution engine on, and reports whether input itself should be
// retained in history: only when it parses, standing alone, to a
// top-level LetStmt or FuncStmt (the original's own history filter).
func evalLine(history []string, input string) (output string, keep bool, err error) {
	joined := strings.Join(append(append([]string{}, history...), input), "\n")

	res, err := compiler.Compile(joined, compiler.Options{ExecutionEngine: true})
	if err != nil {
		return "", false, err
	}

	keep = declaresReusableBinding(input)
	return res.Output, keep, nil
}

func declaresReusableBinding(input string) bool {
	exprs, err := parser.Parse(input)
	if err != nil {
		return false
	}
	for _, e := range exprs {
		if e.Kind == ast.LetStmt || e.Kind == ast.FuncStmt {
			return true
		}
	}
	return false
}
