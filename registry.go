package tinybasic

import (
	"fmt"
)

//
// The extension registry holds the host supplied commands and
// functions.  The parser consults it while compiling; the index it
// hands out is what gets embedded in the bytecode, so the VM never
// has to search by name.  Entries are never removed, so an index
// stays valid for the lifetime of the registry
//

func NewRegistry() *Registry {

	return &Registry{
		commands:  make(map[string]*Extension),
		functions: make(map[string]*Extension),
	}
}

// RegisterCommand adds a statement-position extension.
func (reg *Registry) RegisterCommand(name string, arity int, parens bool, fn NativeFunc) error {

	return reg.register(reg.commands, name, arity, parens, fn, false)
}

// RegisterFunction adds an expression-position extension.  The
// callback must publish exactly one value with Call.Return.
func (reg *Registry) RegisterFunction(name string, arity int, parens bool, fn NativeFunc) error {

	return reg.register(reg.functions, name, arity, parens, fn, true)
}

func (reg *Registry) register(table map[string]*Extension, name string,
	arity int, parens bool, fn NativeFunc, isFunc bool) error {

	if !validExtensionName(name) {
		return fmt.Errorf(EBADNAME, name)
	}

	if arity < 0 || arity > maxArity {
		return fmt.Errorf(EBADARITY, arity, name)
	}

	if fn == nil {
		return fmt.Errorf(ENILCALLBACK, name)
	}

	if _, ok := table[name]; ok {
		return fmt.Errorf(EDUPLICATENAME, name)
	}

	ext := &Extension{
		Name:   name,
		Arity:  arity,
		Parens: parens,
		Fn:     fn,
		index:  len(reg.natives),
		isFunc: isFunc,
	}

	table[name] = ext
	reg.natives = append(reg.natives, ext)

	return nil
}

func validExtensionName(name string) bool {

	if name == "" || !isUpper(name[0]) || keywords[name] {
		return false
	}

	for i := 1; i < len(name); i++ {
		if !isUpper(name[i]) && !isDigit(name[i]) {
			return false
		}
	}

	return true
}

func (reg *Registry) lookupCommand(name string) *Extension {

	return reg.commands[name]
}

func (reg *Registry) lookupFunction(name string) *Extension {

	return reg.functions[name]
}

func (reg *Registry) native(index int) *Extension {

	if index < 0 || index >= len(reg.natives) {
		return nil
	}

	return reg.natives[index]
}

//
// The registry signature lists every native in index order, tagged
// with its kind and arity.  Saved images carry it so that bytecode is
// only ever loaded against the table it was compiled for
//

func (reg *Registry) signature() []string {

	sig := make([]string, 0, len(reg.natives))

	for _, ext := range reg.natives {
		kind := "C"
		if ext.isFunc {
			kind = "F"
		}
		sig = append(sig, fmt.Sprintf("%s:%s/%d", kind, ext.Name, ext.Arity))
	}

	return sig
}

//
// Accessors for the argument-relative view handed to callbacks
//

func (c *Call) VM() *VM {

	return c.vm
}

func (c *Call) Name() string {

	return c.ext.Name
}

func (c *Call) NumArgs() int {

	return c.argc
}

// Arg returns the i-th argument, counting from 0, left to right.
func (c *Call) Arg(i int) float64 {

	if i < 0 || i >= c.argc {
		return 0
	}

	return c.vm.stack[c.base+i]
}

// Return sets the result of a function call.  It is an error for a
// command to call it.
func (c *Call) Return(v float64) error {

	if c.result < 0 {
		return fault("%s does not return a value", c.ext.Name)
	}

	c.vm.stack[c.result] = v

	return nil
}
