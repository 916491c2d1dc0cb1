// Package externmod compiles a user-supplied extern module (spec §6
// `extern "path.c"`) into a linkable bitcode file, shelling out to clang
// exactly the way the original_source's compile_c_to_bc does
// (crates/backend/src/compiler/mod.rs): this is the one place in the
// pipeline that spawns a subprocess, so it is grounded on that file
// rather than on vslc, which never shells out.
package externmod

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Error reports a bad or failed extern module, surfaced by the codegen
// builder as spec §7's BadExternModule.
type Error struct {
	Path string
	Msg  string
}

func (e *Error) Error() string {
	return "BadExternModule: " + e.Path + ": " + e.Msg
}

// Compile resolves path to a linkable .bc file. A .bc path is used
// as-is; a .c path is compiled with `clang -c -emit-llvm -O0` into a
// temp .bc. Any other extension, or a failed clang invocation (with its
// captured stderr), is a *Error. The returned cleanup must be called
// once the caller is done linking the result.
func Compile(path string) (bcPath string, cleanup func(), err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bc":
		return path, func() {}, nil
	case ".c":
		return compileC(path)
	default:
		return "", nil, errors.WithStack(&Error{Path: path, Msg: "extern module must be .c or .bc"})
	}
}

func compileC(path string) (string, func(), error) {
	out, err := os.CreateTemp("", "art-extern-*.bc")
	if err != nil {
		return "", nil, errors.WithStack(&Error{Path: path, Msg: "could not create temp file: " + err.Error()})
	}
	outPath := out.Name()
	out.Close()
	cleanup := func() { os.Remove(outPath) }

	cmd := exec.Command("clang", "-c", "-emit-llvm", "-O0", path, "-o", outPath)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		cleanup()
		return "", nil, errors.WithStack(&Error{
			Path: path,
			Msg:  "clang invocation failed: " + err.Error() + ": " + stderr.String(),
		})
	}
	return outPath, cleanup, nil
}
