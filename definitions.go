package tinybasic

import (
	"io"
	"sync/atomic"

	"github.com/danswartzendruber/avl"
	"github.com/tliron/commonlog"
)

//
// Constants
//

const VERSION = "0.2.0"

const BasFileSuffix = ".bas"
const ImageFileSuffix = ".bimg"

const maxLineNumber = 65535

const basicVariables = 26
const extendedVariables = 256

const maxArity = 8

const defaultStackLimit = 1024

const defaultPrompt = "> "
const executePrompt = "? "

const clearScreenSeq = "\033[2J\033[H"

//
// Number of significant digits PRINT and LIST will show.  Enough to
// show PI as 3.14159265359 without exposing binary rounding noise
//

const printDigits = 12

//
// Dialects.  The basic dialect is the classic 26 single letter
// variable Tiny BASIC, the extended one adds long variable names,
// a larger variable store and the builtin function library
//

const (
	DialectBasic    = "basic"
	DialectExtended = "extended"
)

//
// Type definitions
//

type Word uint64

type Code []Word

type Opcode Word

type OpcodeInfo struct {
	Name     string // mnemonic
	Operands int    // inline operand words following the opcode
	Subexprs int    // embedded operand sub-programs, -1 = taken from arity word
}

//
// A Line is one entry of the program store.  The AVL node is embedded
// so the store can thread lines without a separate allocation
//

type Line struct {
	avl    avl.AvlNode
	Number int
	Code   Code
	Source string
}

type Program struct {
	root     *avl.AvlNode
	sentinel *Line
	count    int
}

type symbolTable struct {
	slots    map[string]int
	names    []string
	maxSlots int
	long     bool
}

//
// NativeFunc is the callback signature shared by registered commands
// and functions.  Functions publish their value with Call.Return
//

type NativeFunc func(vm *VM, c *Call) error

type Extension struct {
	Name   string
	Arity  int
	Parens bool
	Fn     NativeFunc
	index  int
	isFunc bool
}

type Registry struct {
	commands  map[string]*Extension
	functions map[string]*Extension
	natives   []*Extension
}

//
// Call is the argument-relative view of the operand stack handed to
// a native callback.  base is the stack index of the first argument,
// result the index of the placeholder slot (-1 for commands)
//

type Call struct {
	vm     *VM
	ext    *Extension
	base   int
	argc   int
	result int
}

//
// NumberReader is the numeric input collaborator used by INPUT
//

type NumberReader interface {
	ReadNumber(prompt string) (float64, error)
}

type VM struct {
	program    *Program
	registry   *Registry
	out        io.Writer
	in         NumberReader
	stack      []float64
	variables  []float64
	stackLimit int
	prompt     string
	cur        *Line
	next       *Line
	code       Code
	pc         int
	statements int64
	clearTerm  bool
	traceExec  bool
	interrupt  atomic.Bool
	log        commonlog.Logger
}

type opHandler func(vm *VM) error

//
// Persistent program image.  Only exported fields so CBOR can encode
// them; the registry signature pins natives to the table they were
// compiled against
//

type imageLine struct {
	Number int    `cbor:"1,keyasint"`
	Source string `cbor:"2,keyasint"`
	Code   []Word `cbor:"3,keyasint"`
}

type image struct {
	Version string      `cbor:"1,keyasint"`
	Dialect string      `cbor:"2,keyasint"`
	Symbols []string    `cbor:"3,keyasint"`
	Natives []string    `cbor:"4,keyasint"`
	Lines   []imageLine `cbor:"5,keyasint"`
}

//
// Keywords recognised in statement position.  Anything else must be
// a registered command
//

var keywords = map[string]bool{
	"CALL":   true,
	"CLEAR":  true,
	"END":    true,
	"GOSUB":  true,
	"GOTO":   true,
	"IF":     true,
	"INPUT":  true,
	"LET":    true,
	"LIST":   true,
	"PRINT":  true,
	"REM":    true,
	"RETURN": true,
	"RUN":    true,
	"THEN":   true,
}
