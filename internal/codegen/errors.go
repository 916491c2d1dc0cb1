// Package codegen owns the LLVM IR builder, the value-handle contract, the
// typed-AST visitor, and the target configurator (spec §4.4-§4.7).
package codegen

import "github.com/pkg/errors"

// Kind identifies the class of codegen-stage error (the tail of spec §7's
// taxonomy; UndefinedName/TypeMismatch/ArityMismatch/InvalidDeclaration are
// produced earlier, by internal/resolver).
type Kind int

const (
	MissingMain Kind = iota
	BadExternModule
	RuntimeLinkFailure
	UnsupportedTarget
	UnsupportedListElement
	InternalInvariant
)

func (k Kind) String() string {
	switch k {
	case MissingMain:
		return "MissingMain"
	case BadExternModule:
		return "BadExternModule"
	case RuntimeLinkFailure:
		return "RuntimeLinkFailure"
	case UnsupportedTarget:
		return "UnsupportedTarget"
	case UnsupportedListElement:
		return "UnsupportedListElement"
	case InternalInvariant:
		return "InternalInvariant"
	default:
		return "UnknownCodegenError"
	}
}

// Error is a codegen-stage failure, wrapped with github.com/pkg/errors so
// callers get a stack trace attached at the point of creation.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, msg string) error {
	return errors.WithStack(&Error{Kind: kind, Msg: msg})
}

func wrapErr(kind Kind, msg string, cause error) error {
	return errors.WithStack(&Error{Kind: kind, Msg: msg, Err: cause})
}
