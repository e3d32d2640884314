// Package rvrerr defines the closed set of error kinds the compiler
// pipeline and runtime can fail with (spec §7 "Error handling design"),
// wrapped with github.com/pkg/errors so a failure carries a stack trace
// back to the CLI (grounded on the ambient use of the same package in
// other_examples/27ad74f9_moby-moby...machine.go's dependency tree).
package rvrerr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind discriminates the error taxonomy from spec §7.
type Kind uint8

const (
	// ElfRejected covers every ELF-import-contract violation: bad magic,
	// wrong endianness, XLEN mismatch, overlapping or too-many segments.
	ElfRejected Kind = iota
	// DecodeFailure covers an illegal or unsupported instruction encoding.
	DecodeFailure
	// CfgInconsistency covers a CFG builder invariant violation (an
	// address claimed as a leader that was never decoded, a dangling
	// successor, an absorption cycle).
	CfgInconsistency
	// BackendEmit covers a code-generation backend failure.
	BackendEmit
	// LoadError covers a runtime failure to dlopen/dlsym the emitted
	// artifact or resolve its required symbols.
	LoadError
	// ExecutionExit is not a failure: it wraps the guest's own exit code
	// so callers can distinguish "guest exited with code N" from every
	// other Kind using the same error-handling path.
	ExecutionExit
)

func (k Kind) String() string {
	switch k {
	case ElfRejected:
		return "elf_rejected"
	case DecodeFailure:
		return "decode_failure"
	case CfgInconsistency:
		return "cfg_inconsistency"
	case BackendEmit:
		return "backend_emit"
	case LoadError:
		return "load_error"
	case ExecutionExit:
		return "execution_exit"
	default:
		return "unknown"
	}
}

// Error is a Kind-tagged, stack-carrying error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error with a stack trace attached at the
// call site.
func New(kind Kind, msg string) error {
	return pkgerrors.WithStack(&Error{Kind: kind, Msg: msg})
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...any) error {
	return pkgerrors.WithStack(&Error{Kind: kind, Msg: fmt.Sprintf(format, args...)})
}

// Wrap attaches a Kind and a stack trace to an existing error.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return pkgerrors.WithStack(&Error{Kind: kind, Msg: msg, Err: err})
}

// Is reports whether err (or anything it wraps) is an *Error of kind.
func Is(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}
