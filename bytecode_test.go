package tinybasic

import (
	"math"
	"strings"
	"testing"
)

func TestOpcodeNames(t *testing.T) {

	for op := OpNop; op < numOpcodes; op++ {
		if op.String() == "" || strings.HasPrefix(op.String(), "UNKNOWN") {
			t.Errorf("opcode %d has no name", op)
		}
	}

	if got := Opcode(200).String(); got != "UNKNOWN_200" {
		t.Errorf("Opcode(200) = %q", got)
	}

	if OpAdd.String() != "ADD" || OpJumpFalse.String() != "JUMP_FALSE" {
		t.Errorf("unexpected names %s %s", OpAdd, OpJumpFalse)
	}
}

func TestValueWordRoundTrip(t *testing.T) {

	for _, v := range []float64{0, 1, -1, 0.1, math.Pi, math.MaxFloat64, math.SmallestNonzeroFloat64} {
		if got := wordValue(valueWord(v)); got != v {
			t.Errorf("wordValue(valueWord(%v)) = %v", v, got)
		}
	}
}

func TestCodeEqual(t *testing.T) {

	a := cat(emit(OpPrint), pushValue(1))
	b := cat(emit(OpPrint), pushValue(1))
	c := cat(emit(OpPrint), pushValue(2))

	if !a.Equal(b) {
		t.Errorf("identical code compares unequal")
	}

	if a.Equal(c) || a.Equal(a[:2]) {
		t.Errorf("different code compares equal")
	}
}

func TestValidateRejects(t *testing.T) {

	reg := NewRegistry()
	if err := reg.RegisterFunction("TWICE", 1, true, func(vm *VM, c *Call) error { return nil }); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		code Code
	}{
		{"bad opcode", Code{Word(numOpcodes)}},
		{"missing operand", Code{Word(OpPush)}},
		{"missing subexpression", emit(OpPrint)},
		{"truncated binary", cat(emit(OpAdd), pushValue(1))},
		{"skip past end", cat(emit(OpEq), pushValue(1), pushValue(1), emit(OpJumpFalse, 9), emit(OpEnd))},
		{"skip splits instruction", cat(emit(OpJumpFalse, 1), pushValue(1))},
		{"unknown native", cat(emit(OpCallFunc, 1, 5), pushValue(1))},
		{"wrong native arity", cat(emit(OpCallFunc, 2, 0), pushValue(1), pushValue(2))},
		{"function called as command", cat(emit(OpCallProc, 1, 0), pushValue(1))},
		{"arity too large", emit(OpCallProc, maxArity+1, 0)},
	}

	for _, tt := range tests {
		if err := tt.code.Validate(reg); err == nil {
			t.Errorf("%s: %v validated", tt.name, tt.code)
		}
	}
}

func TestValidateAccepts(t *testing.T) {

	tests := []Code{
		nil,
		emit(OpNop),
		cat(emit(OpPrint), pushValue(1)),
		cat(emit(OpEq), pushValue(1), pushValue(1), emit(OpJumpFalse, 1), emit(OpEnd)),
		cat(emit(OpCallFunc, 2, 7), pushValue(1), pushValue(2), emit(OpPop)),
	}

	for _, code := range tests {
		if err := code.Validate(nil); err != nil {
			t.Errorf("%v: %v", code, err)
		}
	}
}
