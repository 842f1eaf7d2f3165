package tinybasic

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/tliron/commonlog"
)

//
// The VM executes one line's bytecode at a time.  The step loop
// decodes the opcode at pc, moves pc past it, and dispatches.  Operator
// handlers recursively step() their operand sub-programs, which follow
// them in the buffer, so by the time a handler combines values, pc is
// already past everything it owns.
//
// Control transfer never touches the current line: handlers set next
// and push pc to the end of the buffer, and the run loop picks next up
//

var opTable [numOpcodes]opHandler

func init() {

	opTable = [numOpcodes]opHandler{
		OpNop:       (*VM).opNop,
		OpPush:      (*VM).opPush,
		OpPop:       (*VM).opPop,
		OpJumpFalse: (*VM).opJumpFalse,
		OpAdd:       (*VM).opAdd,
		OpSub:       (*VM).opSub,
		OpMul:       (*VM).opMul,
		OpDiv:       (*VM).opDiv,
		OpSetVar:    (*VM).opSetVar,
		OpGetVar:    (*VM).opGetVar,
		OpGoto:      (*VM).opGoto,
		OpGosub:     (*VM).opGosub,
		OpReturn:    (*VM).opReturn,
		OpEnd:       (*VM).opEnd,
		OpEq:        (*VM).opEq,
		OpNe:        (*VM).opNe,
		OpGt:        (*VM).opGt,
		OpLt:        (*VM).opLt,
		OpGe:        (*VM).opGe,
		OpLe:        (*VM).opLe,
		OpPrint:     (*VM).opPrint,
		OpInput:     (*VM).opInput,
		OpClear:     (*VM).opClear,
		OpCallProc:  (*VM).opCallProc,
		OpCallFunc:  (*VM).opCallFunc,
		OpList:      (*VM).opList,
		OpRun:       (*VM).opRun,
	}
}

//
// NewVM creates a VM over prog with the given number of variable
// slots, all zero.  Output defaults to io.Discard and input to a
// reader that always reports end of file
//

func NewVM(prog *Program, reg *Registry, variables int) *VM {

	if reg == nil {
		reg = NewRegistry()
	}

	return &VM{
		program:    prog,
		registry:   reg,
		out:        io.Discard,
		in:         noInput{},
		variables:  make([]float64, variables),
		stackLimit: defaultStackLimit,
		prompt:     executePrompt,
		log:        commonlog.GetLogger("tinybasic.vm"),
	}
}

type noInput struct{}

func (noInput) ReadNumber(prompt string) (float64, error) {

	return 0, io.EOF
}

func (vm *VM) SetOutput(w io.Writer) {

	if w == nil {
		w = io.Discard
	}

	vm.out = w
}

func (vm *VM) Output() io.Writer {

	return vm.out
}

func (vm *VM) SetInput(r NumberReader) {

	if r == nil {
		r = noInput{}
	}

	vm.in = r
}

func (vm *VM) SetStackLimit(n int) {

	if n > 0 {
		vm.stackLimit = n
	}
}

// SetInputPrompt sets the prompt INPUT hands to the NumberReader.
func (vm *VM) SetInputPrompt(prompt string) {

	vm.prompt = prompt
}

func (vm *VM) SetClearScreen(b bool) {

	vm.clearTerm = b
}

func (vm *VM) SetTraceExec(b bool) {

	vm.traceExec = b
}

//
// Reset zeroes every variable and empties the operand stack.  This is
// what CLEAR and RUN do to the variables; the program is untouched
//

func (vm *VM) Reset() {

	vm.clearVariables()
	vm.stack = vm.stack[:0]
	vm.statements = 0
}

func (vm *VM) clearVariables() {

	for i := range vm.variables {
		vm.variables[i] = 0
	}
}

func (vm *VM) NumSlots() int {

	return len(vm.variables)
}

func (vm *VM) Slot(i int) float64 {

	if i < 0 || i >= len(vm.variables) {
		return 0
	}

	return vm.variables[i]
}

func (vm *VM) SetSlot(i int, v float64) {

	if i >= 0 && i < len(vm.variables) {
		vm.variables[i] = v
	}
}

// Depth is the number of values on the operand stack.
func (vm *VM) Depth() int {

	return len(vm.stack)
}

// Statements returns how many lines have been executed since the last
// Reset.
func (vm *VM) Statements() int64 {

	return vm.statements
}

// CurrentLine is the number of the line being executed, 0 for an
// immediate statement.
func (vm *VM) CurrentLine() int {

	if vm.cur == nil {
		return 0
	}

	return vm.cur.Number
}

// Interrupt asks a running program to stop before its next line.  It
// is safe to call from another goroutine.
func (vm *VM) Interrupt() {

	vm.interrupt.Store(true)
}

//
// Run executes the program from its lowest numbered line until END,
// the end of the program, or a fault
//

func (vm *VM) Run() error {

	vm.stack = vm.stack[:0]
	vm.interrupt.Store(false)

	first := vm.program.First()
	if first == nil {
		return nil
	}

	return vm.execute(first)
}

//
// Immediate executes code as an unnumbered line.  If it transfers
// control into the program (GOTO, GOSUB, RUN), execution carries on
// there, just as if the line had been part of the program
//

func (vm *VM) Immediate(code Code) error {

	vm.interrupt.Store(false)

	return vm.execute(&Line{Number: 0, Code: code})
}

func (vm *VM) execute(line *Line) error {

	for line != nil {
		if vm.interrupt.Swap(false) {
			return vm.lineFault(line, &RuntimeFault{Msg: EINTERRUPTED, Err: ErrInterrupted})
		}

		//
		// Default successor.  An unnumbered line has none
		//

		if line.Number == 0 {
			vm.next = nil
		} else {
			vm.next = vm.program.Next(line)
		}

		if err := vm.exec(line); err != nil {
			return vm.lineFault(line, err)
		}

		line = vm.next
	}

	return nil
}

func (vm *VM) exec(line *Line) error {

	vm.cur = line
	vm.code = line.Code
	vm.pc = 0
	vm.statements++

	if vm.traceExec {
		vm.trace(line)
	}

	for vm.pc < len(vm.code) {
		if err := vm.step(); err != nil {
			return err
		}
	}

	return nil
}

//
// Attach the line number to a fault, and log it
//

func (vm *VM) lineFault(line *Line, err error) error {

	var rf *RuntimeFault

	if !errors.As(err, &rf) {
		rf = &RuntimeFault{Msg: err.Error(), Err: err}
	}

	rf.Line = line.Number

	vm.log.Debugf("run stopped: %s", rf.Error())

	return rf
}

func (vm *VM) trace(line *Line) {

	if line.Number != 0 {
		fmt.Fprintf(vm.out, "[%d]\n", line.Number)
	} else {
		fmt.Fprintf(vm.out, "[immediate]\n")
	}

	fmt.Fprint(vm.out, Disassemble(line.Code, vm.registry, nil))
}

func (vm *VM) step() error {

	if vm.pc >= len(vm.code) {
		return fault(EBADBYTECODE)
	}

	op := Opcode(vm.code[vm.pc])
	if op >= numOpcodes {
		return fault(EBADBYTECODE)
	}

	vm.pc++

	return opTable[op](vm)
}

func (vm *VM) operand() (Word, error) {

	if vm.pc >= len(vm.code) {
		return 0, fault(EBADBYTECODE)
	}

	w := vm.code[vm.pc]
	vm.pc++

	return w, nil
}

//
// Finish the current line: the run loop moves on to vm.next
//

func (vm *VM) endLine() {

	vm.pc = len(vm.code)
}

//
// Operand stack primitives
//

func (vm *VM) push(v float64) error {

	if len(vm.stack) >= vm.stackLimit {
		return fault(ESTACKOVERFLOW)
	}

	vm.stack = append(vm.stack, v)

	return nil
}

func (vm *VM) pop() (float64, error) {

	n := len(vm.stack)
	if n == 0 {
		return 0, fault(ESTACKUNDERFLOW)
	}

	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]

	return v, nil
}

//
// Evaluate the two operand sub-programs, then combine the two top
// values in place, leaving one
//

func (vm *VM) binary(f func(a, b float64) (float64, error)) error {

	if err := vm.step(); err != nil {
		return err
	}

	if err := vm.step(); err != nil {
		return err
	}

	n := len(vm.stack)
	if n < 2 {
		return fault(ESTACKUNDERFLOW)
	}

	r, err := f(vm.stack[n-2], vm.stack[n-1])
	if err != nil {
		return err
	}

	vm.stack[n-2] = r
	vm.stack = vm.stack[:n-1]

	return nil
}

//
// Any arithmetic result that is not a finite number is a fault, so a
// poisoned value can never reach a variable
//

func checkFloatingStatus(v float64) (float64, error) {

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fault(EFLOATINGERROR)
	}

	return v, nil
}

//
// Line numbers come off the stack as floats.  They have to be whole
// and in range
//

func lineNumber(v float64) (int, bool) {

	if v != math.Trunc(v) || v < 1 || v > maxLineNumber {
		return 0, false
	}

	return int(v), true
}

func (vm *VM) resolve(verb string, v float64) (*Line, error) {

	n, ok := lineNumber(v)
	if !ok {
		return nil, fault("%s: %s", EILLEGALLINENUMBER, formatNumber(v))
	}

	line := vm.program.Lookup(n)
	if line == nil {
		return nil, fault(ENONEXISTENTLINE, verb, n)
	}

	return line, nil
}
