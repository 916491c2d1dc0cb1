// Command art is the compiler's CLI entrypoint: an interactive REPL plus
// compile/run subcommands, grounded on the cobra root-command-with-flags
// style the rest of the retrieved pack uses for its own compiler
// frontends (oisee-minz's cmd/minzc), rather than vslc's hand-rolled
// flag.FlagSet (util.ParseArgs), since this module's go.mod already
// carries cobra/pflag as its CLI stack.
package main

import (
	"fmt"
	"os"

	"github.com/art-lang/art/internal/codegen"
	"github.com/art-lang/art/internal/compiler"
	"github.com/art-lang/art/internal/replline"
	"github.com/art-lang/art/pkg/clierr"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// targetFlag adapts codegen.Target to pflag.Value so --target only
// accepts the names codegen.ParseTarget recognizes, failing fast on a
// typo instead of surfacing UnsupportedTarget deep in codegen init.
type targetFlag struct {
	t codegen.Target
}

func (f *targetFlag) String() string { return f.t.String() }
func (f *targetFlag) Type() string   { return "target" }
func (f *targetFlag) Set(s string) error {
	t, err := codegen.ParseTarget(s)
	if err != nil {
		return err
	}
	f.t = t
	return nil
}

var (
	target  = &targetFlag{t: codegen.TargetWasm}
	verbose bool
	// jobs is reserved for a future parallel-compilation mode (spec
	// §9's open question on concurrent module compilation); unused
	// today, kept as a no-op flag so scripts can pass it without error.
	jobs int
)

func main() {
	root := &cobra.Command{
		Use:     "art",
		Short:   "art is an AOT compiler for a small typed expression language",
		Version: version,
	}
	root.PersistentFlags().VarP(target, "target", "t", "compilation target (wasm, arm32, arm64, x86_32, x86_64)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print full error stack traces")
	root.PersistentFlags().IntVarP(&jobs, "jobs", "j", 1, "reserved for future parallel compilation")

	root.AddCommand(replCmd(), compileCmd(), runCmd())

	if err := root.Execute(); err != nil {
		clierr.Exit(err, verbose)
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return replline.Run(version)
		},
	}
}

func compileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <file>",
		Short: "compile a source file and print its LLVM IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := compiler.Compile(string(src), compiler.Options{
				Target:  target.t,
				Verbose: verbose,
			})
			if err != nil {
				clierr.Exit(err, verbose)
			}
			fmt.Println(res.IR)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file>",
		Short: "compile and JIT-execute a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			res, err := compiler.Compile(string(src), compiler.Options{
				Target:          target.t,
				Verbose:         verbose,
				ExecutionEngine: true,
			})
			if err != nil {
				clierr.Exit(err, verbose)
			}
			fmt.Print(res.Output)
			return nil
		},
	}
}
