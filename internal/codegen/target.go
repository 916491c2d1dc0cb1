package codegen

import "tinygo.org/x/go-llvm"

// Target identifies one of the recognized compilation targets (spec §4.7).
type Target int

const (
	TargetWasm Target = iota
	TargetArm32
	TargetArm64
	TargetX86_32
	TargetX86_64
)

// triples maps each Target to its fixed LLVM triple string (spec §4.7).
var triples = map[Target]string{
	TargetWasm:   "wasm32-unknown-unknown-wasm",
	TargetArm32:  "arm-unknown-linux-gnueabihf",
	TargetArm64:  "aarch64-unknown-linux-gnu",
	TargetX86_32: "i386-unknown-unknown-elf",
	TargetX86_64: "x86_64-unknown-unknown-elf",
}

var targetNames = map[string]Target{
	"wasm":   TargetWasm,
	"arm32":  TargetArm32,
	"arm64":  TargetArm64,
	"x86_32": TargetX86_32,
	"x86_64": TargetX86_64,
}

// String renders t back to the CLI spelling ParseTarget accepts.
func (t Target) String() string {
	for name, candidate := range targetNames {
		if candidate == t {
			return name
		}
	}
	return "unknown"
}

// ParseTarget resolves a CLI --target string to a Target, or
// UnsupportedTarget if the name is not recognized at all.
func ParseTarget(name string) (Target, error) {
	t, ok := targetNames[name]
	if !ok {
		return 0, newErr(UnsupportedTarget, "unrecognized target "+name)
	}
	return t, nil
}

// fullyFunctional reports whether Target actually JITs/executes end to
// end. Only wasm is, matching the grounded source (spec §4.7).
func (t Target) fullyFunctional() bool {
	return t == TargetWasm
}

// configureTarget initializes the corresponding LLVM target and
// asm-printer backends and returns the llvm.Target plus triple string for
// t. Non-wasm targets are accepted for IR emission but rejected
// (UnsupportedTarget) if the caller asks to JIT/execute them, matching
// "other targets throw UnsupportedTarget if selected" for execution mode.
func configureTarget(t Target) (llvm.Target, string, error) {
	triple, ok := triples[t]
	if !ok {
		return llvm.Target{}, "", newErr(UnsupportedTarget, "target has no known triple")
	}

	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()
	llvm.InitializeAllTargets()

	tt, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return llvm.Target{}, "", wrapErr(UnsupportedTarget, "no LLVM target registered for "+triple, err)
	}
	return tt, triple, nil
}
