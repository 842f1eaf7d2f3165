package tinybasic

import (
	"errors"
	"fmt"
	"io"
)

//
// Opcode handlers.  On entry pc is just past the opcode byte; on exit
// it must be just past everything the instruction owns
//

func (vm *VM) opNop() error {

	return nil
}

func (vm *VM) opPush() error {

	w, err := vm.operand()
	if err != nil {
		return err
	}

	return vm.push(wordValue(w))
}

func (vm *VM) opPop() error {

	_, err := vm.pop()

	return err
}

//
// Pop the condition.  If it is zero, skip the guarded statement that
// follows, whose length is the operand
//

func (vm *VM) opJumpFalse() error {

	skip, err := vm.operand()
	if err != nil {
		return err
	}

	cond, err := vm.pop()
	if err != nil {
		return err
	}

	if cond != 0 {
		return nil
	}

	if skip > Word(len(vm.code)-vm.pc) {
		return fault(EBADBYTECODE)
	}

	vm.pc += int(skip)

	return nil
}

func (vm *VM) opAdd() error {

	return vm.binary(func(a, b float64) (float64, error) {
		return checkFloatingStatus(a + b)
	})
}

func (vm *VM) opSub() error {

	return vm.binary(func(a, b float64) (float64, error) {
		return checkFloatingStatus(a - b)
	})
}

func (vm *VM) opMul() error {

	return vm.binary(func(a, b float64) (float64, error) {
		return checkFloatingStatus(a * b)
	})
}

func (vm *VM) opDiv() error {

	return vm.binary(func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, fault(EDIVISIONBYZERO)
		}
		return checkFloatingStatus(a / b)
	})
}

//
// Relational operators leave 1 for true and 0 for false
//

func boolToFloat(b bool) float64 {

	if b {
		return 1
	}

	return 0
}

func (vm *VM) compare(f func(a, b float64) bool) error {

	return vm.binary(func(a, b float64) (float64, error) {
		return boolToFloat(f(a, b)), nil
	})
}

func (vm *VM) opEq() error {

	return vm.compare(func(a, b float64) bool { return a == b })
}

func (vm *VM) opNe() error {

	return vm.compare(func(a, b float64) bool { return a != b })
}

func (vm *VM) opGt() error {

	return vm.compare(func(a, b float64) bool { return a > b })
}

func (vm *VM) opLt() error {

	return vm.compare(func(a, b float64) bool { return a < b })
}

func (vm *VM) opGe() error {

	return vm.compare(func(a, b float64) bool { return a >= b })
}

func (vm *VM) opLe() error {

	return vm.compare(func(a, b float64) bool { return a <= b })
}

func (vm *VM) slotOperand() (int, error) {

	w, err := vm.operand()
	if err != nil {
		return 0, err
	}

	if w >= Word(len(vm.variables)) {
		return 0, fault(EBADBYTECODE)
	}

	return int(w), nil
}

func (vm *VM) opSetVar() error {

	slot, err := vm.slotOperand()
	if err != nil {
		return err
	}

	if err := vm.step(); err != nil {
		return err
	}

	v, err := vm.pop()
	if err != nil {
		return err
	}

	vm.variables[slot] = v

	return nil
}

func (vm *VM) opGetVar() error {

	slot, err := vm.slotOperand()
	if err != nil {
		return err
	}

	return vm.push(vm.variables[slot])
}

func (vm *VM) opGoto() error {

	if err := vm.step(); err != nil {
		return err
	}

	v, err := vm.pop()
	if err != nil {
		return err
	}

	target, err := vm.resolve("GOTO", v)
	if err != nil {
		return err
	}

	vm.next = target
	vm.endLine()

	return nil
}

//
// The return address is the number of the line after this one, or 0
// if there is none, in which case RETURN ends the run
//

func (vm *VM) opGosub() error {

	if err := vm.step(); err != nil {
		return err
	}

	v, err := vm.pop()
	if err != nil {
		return err
	}

	target, err := vm.resolve("GOSUB", v)
	if err != nil {
		return err
	}

	ret := 0
	if vm.next != nil {
		ret = vm.next.Number
	}

	if err := vm.push(float64(ret)); err != nil {
		return err
	}

	vm.next = target
	vm.endLine()

	return nil
}

func (vm *VM) opReturn() error {

	if len(vm.stack) == 0 {
		return fault(ERETURNNOGOSUB)
	}

	v, _ := vm.pop()

	vm.endLine()

	if v == 0 {
		vm.next = nil
		return nil
	}

	target, err := vm.resolve("RETURN", v)
	if err != nil {
		return err
	}

	vm.next = target

	return nil
}

func (vm *VM) opEnd() error {

	vm.next = nil
	vm.endLine()

	return nil
}

func (vm *VM) opPrint() error {

	if err := vm.step(); err != nil {
		return err
	}

	v, err := vm.pop()
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(vm.out, formatNumber(v)); err != nil {
		return &RuntimeFault{Msg: err.Error(), Err: err}
	}

	return nil
}

func (vm *VM) opInput() error {

	slot, err := vm.slotOperand()
	if err != nil {
		return err
	}

	v, err := vm.in.ReadNumber(vm.prompt)
	if err != nil {
		var rf *RuntimeFault

		switch {
		case errors.Is(err, io.EOF):
			return &RuntimeFault{Msg: EENDOFFILE, Err: err}

		case errors.As(err, &rf):
			return rf

		default:
			return &RuntimeFault{Msg: err.Error(), Err: err}
		}
	}

	if _, err := checkFloatingStatus(v); err != nil {
		return err
	}

	vm.variables[slot] = v

	return nil
}

func (vm *VM) opClear() error {

	vm.clearVariables()

	if vm.clearTerm {
		fmt.Fprint(vm.out, clearScreenSeq)
	}

	return nil
}

func (vm *VM) opCallProc() error {

	return vm.callNative(false)
}

func (vm *VM) opCallFunc() error {

	return vm.callNative(true)
}

//
// Common code for both call flavours.  A function gets a 0 placeholder
// under its arguments for the result, so a function that never calls
// Return yields 0.  The callback sees its arguments through Call; once
// it returns, the arguments are popped, leaving the placeholder (if
// any) on top.  A callback that pushes or pops on its own is a fault,
// since the stack would no longer line up
//

func (vm *VM) callNative(isFunc bool) error {

	arity, err := vm.operand()
	if err != nil {
		return err
	}

	index, err := vm.operand()
	if err != nil {
		return err
	}

	ext := vm.registry.native(int(index))
	if ext == nil || ext.isFunc != isFunc || Word(ext.Arity) != arity {
		return fault(EBADBYTECODE)
	}

	call := &Call{vm: vm, ext: ext, argc: ext.Arity, result: -1}

	if isFunc {
		call.result = len(vm.stack)
		if err := vm.push(0); err != nil {
			return err
		}
	}

	for i := 0; i < ext.Arity; i++ {
		if err := vm.step(); err != nil {
			return err
		}
	}

	call.base = len(vm.stack) - ext.Arity

	if err := ext.Fn(vm, call); err != nil {
		return err
	}

	if len(vm.stack) != call.base+ext.Arity {
		return fault("%s: %s", ext.Name, EBADBYTECODE)
	}

	vm.stack = vm.stack[:call.base]

	if isFunc {
		if _, err := checkFloatingStatus(vm.stack[call.result]); err != nil {
			return err
		}
	}

	return nil
}

func (vm *VM) opList() error {

	return vm.program.List(vm.out)
}

//
// RUN from the keyboard: start the program over with fresh variables
//

func (vm *VM) opRun() error {

	vm.Reset()

	vm.next = vm.program.First()
	vm.endLine()

	return nil
}
