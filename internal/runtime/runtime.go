// Package runtime embeds the precompiled runtime bitcode that every
// compilation links against (spec §4.4 step 2, §6 "Runtime bitcode").
//
//go:generate make -C . bitcode.bc
package runtime

import _ "embed"

//go:embed bitcode.bc
var bitcode []byte

// Bitcode returns the embedded runtime bitcode blob. The codegen builder
// writes it to a temp file and parses/links it (tinygo.org/x/go-llvm has
// no in-memory bitcode parser, only ParseBitcodeFile).
func Bitcode() []byte {
	return bitcode
}

// HelperNames lists the well-known symbols the codegen builder looks up
// in the linked module to populate its runtime-helper cache (spec §4.4
// step 4). boolToStrZig and printf/sprintf are handled separately: the
// former is synthesized as raw IR, the latter two are plain C library
// externs declared directly by the builder.
var HelperNames = []string{
	"stringInit",
	"stringAdd",
	"stringPrint",
	"isStringEqual",
	"pushInt32",
	"printInt32List",
	"printStringList",
	"lenInt32List",
	"lenStringList",
}
