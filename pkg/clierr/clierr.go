// Package clierr renders pipeline errors for a terminal the way
// original_source's REPL does (text_colorizer's .red()), using
// github.com/fatih/color instead since this is Go, not Rust.
package clierr

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var errColor = color.New(color.FgRed)

// Print writes err's message to w in red, with no trailing stack trace.
// This is the default rendering for both the REPL and the `compile`/`run`
// subcommands.
func Print(w io.Writer, err error) {
	fmt.Fprintln(w, errColor.Sprint(err.Error()))
}

// PrintVerbose writes err's message to w in red, followed by the
// github.com/pkg/errors stack trace every pipeline-stage wrap carries,
// for --verbose runs.
func PrintVerbose(w io.Writer, err error) {
	fmt.Fprintf(w, "%s\n", errColor.Sprintf("%+v", err))
}

// Exit prints err to stderr (verbosely if verbose is set) and terminates
// the process with status 1. Used by cmd/art's non-interactive
// subcommands; the REPL never calls this since a bad line shouldn't kill
// the session.
func Exit(err error, verbose bool) {
	if verbose {
		PrintVerbose(os.Stderr, err)
	} else {
		Print(os.Stderr, err)
	}
	os.Exit(1)
}
