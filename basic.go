package tinybasic

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/goforj/godump"
	"github.com/tliron/commonlog"
)

//
// An Interpreter ties together one program store, one symbol table,
// one extension registry and one VM.  Instances share nothing, so a
// host may run as many as it likes
//

type Interpreter struct {
	cfg       *Config
	program   *Program
	registry  *Registry
	syms      *symbolTable
	vm        *VM
	traceDump bool
	log       commonlog.Logger
}

//
// New creates an interpreter for the given configuration.  A nil cfg
// means DefaultConfig().  The extended dialect comes with the builtin
// function library already registered; the host may add its own
// commands and functions through Registry() before compiling anything
// that uses them
//

func New(cfg *Config) (*Interpreter, error) {

	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	it := &Interpreter{
		cfg:       cfg,
		program:   NewProgram(),
		registry:  NewRegistry(),
		syms:      newSymbolTable(cfg.Extended()),
		traceDump: cfg.TraceDump,
		log:       commonlog.GetLogger("tinybasic"),
	}

	nvars := basicVariables

	if cfg.Extended() {
		nvars = extendedVariables
		if err := registerBuiltins(it.registry); err != nil {
			return nil, err
		}
	}

	it.vm = NewVM(it.program, it.registry, nvars)
	it.vm.SetStackLimit(cfg.StackLimit)
	it.vm.SetInputPrompt(cfg.InputPrompt)
	it.vm.SetClearScreen(cfg.ClearScreen)
	it.vm.SetTraceExec(cfg.TraceExec)

	it.log.Infof("%s dialect, %d variables, stack limit %d",
		cfg.Dialect, nvars, cfg.StackLimit)

	return it, nil
}

// NewBasic returns an interpreter for the classic 26 variable dialect.
func NewBasic() *Interpreter {

	it, err := New(nil)
	if err != nil {
		panic(err)
	}

	return it
}

// NewExtended returns an interpreter with long variable names and the
// builtin function library.
func NewExtended() *Interpreter {

	cfg := DefaultConfig()
	cfg.Dialect = DialectExtended

	it, err := New(cfg)
	if err != nil {
		panic(err)
	}

	return it
}

func (it *Interpreter) Config() *Config {

	return it.cfg
}

func (it *Interpreter) Program() *Program {

	return it.program
}

func (it *Interpreter) Registry() *Registry {

	return it.registry
}

func (it *Interpreter) VM() *VM {

	return it.vm
}

func (it *Interpreter) SetOutput(w io.Writer) {

	it.vm.SetOutput(w)
}

func (it *Interpreter) SetInput(r NumberReader) {

	it.vm.SetInput(r)
}

func (it *Interpreter) SetTraceExec(b bool) {

	it.vm.SetTraceExec(b)
}

// SetTraceDump turns on a dump of each stored line to the output
// writer.
func (it *Interpreter) SetTraceDump(b bool) {

	it.traceDump = b
}

func (it *Interpreter) Interrupt() {

	it.vm.Interrupt()
}

//
// ParseLine is the whole line-input contract.  A numbered line is
// compiled and stored, replacing any line with that number; a bare
// line number deletes the line.  Anything else is compiled as an
// immediate statement and executed at once.  A line that fails to
// compile changes nothing
//

func (it *Interpreter) ParseLine(text string) error {

	number, rest, ok := splitLineNumber(text)
	if !ok {
		return compileError(text, 1, "%s", EBADLINENUMBER)
	}

	var err error

	switch {
	case number == 0 && rest == "":
		return nil

	case number == 0:
		err = it.Execute(rest)

	case rest == "":
		if it.program.Remove(number) {
			it.log.Debugf("deleted line %d", number)
		}
		return nil

	default:
		err = it.StoreLine(number, rest)
	}

	return asTyped(err, text, rest)
}

//
// Report a compile error's column against the line as typed, rather
// than the statement after its line number
//

func asTyped(err error, text, rest string) error {

	if ce, ok := err.(*CompileError); ok && ce.Column > 0 {
		ce.Source = text
		ce.Column += len(text) - len(rest)
	}

	return err
}

//
// LoadSource replaces the program with the numbered lines read from r,
// as OLD does for a text file.  Every line is compiled against a fresh
// symbol table before anything is committed: a bad line anywhere
// leaves the current program and variables as they were.  Errors are
// reported as name:line
//

func (it *Interpreter) LoadSource(name string, r io.Reader) error {

	syms := newSymbolTable(it.cfg.Extended())
	staged := make(map[int]*Line)

	sc := bufio.NewScanner(r)

	for n := 1; sc.Scan(); n++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		number, rest, ok := splitLineNumber(text)

		switch {
		case !ok:
			return fmt.Errorf("%s:%d: %w", name, n, compileError(text, 1, "%s", EBADLINENUMBER))

		case number == 0:
			return fmt.Errorf("%s:%d: statement without a line number", name, n)

		case rest == "":
			delete(staged, number)

		default:
			code, err := it.compileWith(syms, rest, false)
			if err != nil {
				return fmt.Errorf("%s:%d: %w", name, n, asTyped(err, text, rest))
			}
			staged[number] = &Line{Number: number, Code: code, Source: trimWhitespace(rest)}
		}
	}

	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	it.program.Clear()

	for _, number := range slices.Sorted(maps.Keys(staged)) {
		if err := it.program.Insert(staged[number]); err != nil {
			return err
		}
	}

	it.syms = syms
	it.vm.Reset()

	it.log.Infof("loaded %d lines from %s", len(staged), name)

	return nil
}

//
// StoreLine compiles one statement and stores it under number
//

func (it *Interpreter) StoreLine(number int, src string) error {

	if number < 1 || number > maxLineNumber {
		return compileError(src, 0, "%s: %d", EBADLINENUMBER, number)
	}

	code, err := it.compile(src, false)
	if err != nil {
		return err
	}

	line := &Line{Number: number, Code: code, Source: trimWhitespace(src)}

	if err := it.program.Insert(line); err != nil {
		return err
	}

	it.log.Debugf("stored line %d, %d words", number, len(code))

	if it.traceDump {
		godump.Fdump(it.vm.Output(), struct {
			Number int
			Source string
			Code   Code
		}{line.Number, line.Source, line.Code})
	}

	return nil
}

// Compile compiles one statement as a program line would be, without
// storing it.
func (it *Interpreter) Compile(src string) (Code, error) {

	return it.compile(src, false)
}

//
// Compile a statement.  Variables the parser allocated on the way to
// a failure are given back, so a rejected line leaves no trace
//

func (it *Interpreter) compile(src string, immediate bool) (Code, error) {

	return it.compileWith(it.syms, src, immediate)
}

func (it *Interpreter) compileWith(syms *symbolTable, src string, immediate bool) (Code, error) {

	mark := len(syms.names)

	p := newParser(src, it.registry, syms, immediate)

	code, ok := p.compile()
	if !ok {
		syms.truncate(mark)
		ce := p.failure()
		it.log.Debugf("compile failed: %q: %s", src, ce.Error())
		return nil, ce
	}

	return code, nil
}

//
// Execute compiles and runs one immediate statement.  Variables keep
// their values from one immediate statement to the next
//

func (it *Interpreter) Execute(src string) error {

	code, err := it.compile(src, true)
	if err != nil {
		return err
	}

	return it.vm.Immediate(code)
}

//
// Run starts the stored program from its first line with every
// variable zeroed
//

func (it *Interpreter) Run() error {

	it.vm.Reset()

	return it.vm.Run()
}

func (it *Interpreter) List(w io.Writer) error {

	return it.program.List(w)
}

//
// Clear is NEW: forget the program and every variable
//

func (it *Interpreter) Clear() {

	it.program.Clear()
	it.syms = newSymbolTable(it.cfg.Extended())
	it.vm.Reset()

	it.log.Debugf("program cleared")
}

// Var returns the value of a variable by name.  ok is false if no
// such variable has been allocated.
func (it *Interpreter) Var(name string) (v float64, ok bool) {

	slot, ok := it.syms.lookupSymbolRef(name)
	if !ok {
		return 0, false
	}

	return it.vm.Slot(slot), true
}

func (it *Interpreter) SetVar(name string, v float64) error {

	slot, ok := it.syms.lookupSymbol(name)
	if !ok {
		return fmt.Errorf("%s: %s", ETOOMANYVARS, name)
	}

	it.vm.SetSlot(slot, v)

	return nil
}

// Variables returns the allocated variable names in slot order.
func (it *Interpreter) Variables() []string {

	return it.syms.symbols()
}

// Disassemble renders the bytecode of one stored line.
func (it *Interpreter) Disassemble(number int) (string, bool) {

	line := it.program.Lookup(number)
	if line == nil {
		return "", false
	}

	return Disassemble(line.Code, it.registry, it.syms.names), true
}

func (it *Interpreter) Statements() int64 {

	return it.vm.Statements()
}
