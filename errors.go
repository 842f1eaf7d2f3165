package tinybasic

import (
	"errors"
	"fmt"
)

//
// Manifest constants for runtime fault messages.  Where an equivalent
// DEC BASIC-PLUS message exists, we use its wording
//

const (
	EINTERRUPTED       = "Interrupted"
	EFLOATINGERROR     = "Floating point error"
	EDIVISIONBYZERO    = "Division by 0"
	EILLEGALNUMBER     = "Illegal number"
	EILLEGALLINENUMBER = "Illegal line number(s)"
	EEXPERROR          = "Argument too large in EXP"
	ELOGERROR          = "Argument to LOG/LOG10 <= 0"
	ESQRERROR          = "Argument to SQR is negative"
	EENDOFFILE         = "End of file on device"
	ESTACKUNDERFLOW    = "Stack underflow"
	ESTACKOVERFLOW     = "Stack overflow"
	ERETURNNOGOSUB     = "RETURN without GOSUB"
	EBADBYTECODE       = "Corrupt bytecode"
	ESLEEPTIME         = "Invalid sleep time"
)

//
// Compile-time diagnostics.  The parser itself only knows success or
// failure; these are attached by the top level using the furthest
// column the scanner reached
//

const (
	ESYNTAX          = "Syntax error"
	EIMMEDIATEONLY   = "%s is only valid in immediate mode"
	ETOOMANYVARS     = "Too many variables"
	EBADLINENUMBER   = "Line number out of range"
	EUNKNOWNKEYWORD  = "Unknown statement"
	EDUPLICATENAME   = "%q is already registered"
	EBADNAME         = "Invalid extension name %q"
	EBADARITY        = "Invalid argument count %d for %q"
	ENILCALLBACK     = "Nil callback for %q"
	EIMAGEVERSION    = "Image version %q does not match %q"
	EIMAGEDIALECT    = "Image dialect %q does not match %q"
	EIMAGENATIVES    = "Image native table does not match registry"
	EIMAGESYMBOLS    = "Image symbol table does not fit this interpreter"
	EIMAGEBADLINE    = "Image line %d: %v"
	ENONEXISTENTLINE = "%s to non-existent line %d"
)

//
// ErrInterrupted is wrapped by the fault raised when the host
// interrupts a running program, so callers can tell it apart with
// errors.Is
//

var ErrInterrupted = errors.New(EINTERRUPTED)

//
// A CompileError describes a line that was rejected.  Column is the
// 1-based position of the furthest character the parser consumed
// before giving up, which is usually the culprit
//

type CompileError struct {
	Source string
	Column int
	Msg    string
}

func (e *CompileError) Error() string {

	if e.Column > 0 {
		return fmt.Sprintf("%s at column %d", e.Msg, e.Column)
	}

	return e.Msg
}

//
// A RuntimeFault terminates a run.  Line is 0 for faults raised while
// executing an immediate statement
//

type RuntimeFault struct {
	Line int
	Msg  string
	Err  error
}

func (f *RuntimeFault) Error() string {

	if f.Line > 0 {
		return fmt.Sprintf("%s at line %d", f.Msg, f.Line)
	}

	return f.Msg
}

func (f *RuntimeFault) Unwrap() error {

	return f.Err
}

func compileError(src string, col int, f string, args ...any) *CompileError {

	return &CompileError{Source: src, Column: col, Msg: fmt.Sprintf(f, args...)}
}

//
// The VM calls this for every fault.  The line number is filled in by
// the run loop, which knows which line was executing
//

func fault(f string, args ...any) *RuntimeFault {

	return &RuntimeFault{Msg: fmt.Sprintf(f, args...)}
}

func runtimeCheck(chk bool, msg string) error {

	if !chk {
		return fault("%s", msg)
	}

	return nil
}
