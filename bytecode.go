package tinybasic

import (
	"fmt"
	"math"
)

//
// Opcodes.  The numbering follows the classic Tiny BASIC instruction
// table, with the call instruction split into command and function
// flavours, and LIST/RUN added so immediate commands can run on the VM
//

const (
	OpNop Opcode = iota
	OpPush
	OpPop
	OpJumpFalse
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpSetVar
	OpGetVar
	OpGoto
	OpGosub
	OpReturn
	OpEnd
	OpEq
	OpNe
	OpGt
	OpLt
	OpGe
	OpLe
	OpPrint
	OpInput
	OpClear
	OpCallProc
	OpCallFunc
	OpList
	OpRun

	numOpcodes
)

var opcodeTable = [numOpcodes]OpcodeInfo{
	OpNop:       {"NOP", 0, 0},
	OpPush:      {"PUSH", 1, 0},
	OpPop:       {"POP", 0, 0},
	OpJumpFalse: {"JUMP_FALSE", 1, 0},
	OpAdd:       {"ADD", 0, 2},
	OpSub:       {"SUB", 0, 2},
	OpMul:       {"MUL", 0, 2},
	OpDiv:       {"DIV", 0, 2},
	OpSetVar:    {"SET_VAR", 1, 1},
	OpGetVar:    {"GET_VAR", 1, 0},
	OpGoto:      {"GOTO", 0, 1},
	OpGosub:     {"GOSUB", 0, 1},
	OpReturn:    {"RETURN", 0, 0},
	OpEnd:       {"END", 0, 0},
	OpEq:        {"EQ", 0, 2},
	OpNe:        {"NE", 0, 2},
	OpGt:        {"GT", 0, 2},
	OpLt:        {"LT", 0, 2},
	OpGe:        {"GE", 0, 2},
	OpLe:        {"LE", 0, 2},
	OpPrint:     {"PRINT", 0, 1},
	OpInput:     {"INPUT", 1, 0},
	OpClear:     {"CLEAR", 0, 0},
	OpCallProc:  {"CALL_PROC", 2, -1},
	OpCallFunc:  {"CALL_FUNC", 2, -1},
	OpList:      {"LIST", 0, 0},
	OpRun:       {"RUN", 0, 0},
}

func (op Opcode) Info() OpcodeInfo {

	if op < numOpcodes {
		return opcodeTable[op]
	}

	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%d", uint64(op))}
}

func (op Opcode) String() string {

	return op.Info().Name
}

//
// Fragment builders.  Every parser rule returns a fresh Code value;
// parents build theirs by concatenating children in evaluation order,
// so a failed rule never leaves a half-built buffer behind
//

func emit(op Opcode, operands ...Word) Code {

	code := make(Code, 0, 1+len(operands))
	code = append(code, Word(op))

	return append(code, operands...)
}

func valueWord(v float64) Word {

	return Word(math.Float64bits(v))
}

func wordValue(w Word) float64 {

	return math.Float64frombits(uint64(w))
}

func pushValue(v float64) Code {

	return emit(OpPush, valueWord(v))
}

func cat(parts ...Code) Code {

	n := 0
	for _, p := range parts {
		n += len(p)
	}

	code := make(Code, 0, n)
	for _, p := range parts {
		code = append(code, p...)
	}

	return code
}

func (c Code) Equal(o Code) bool {

	if len(c) != len(o) {
		return false
	}

	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}

	return true
}

//
// Validate walks a buffer the way the VM would, without executing
// anything.  Compiled code always passes; this exists for buffers
// that came from outside, such as a saved image.  reg may be nil, in
// which case native calls are only checked for shape
//

func (c Code) Validate(reg *Registry) error {

	pc := 0
	for pc < len(c) {
		next, err := c.validateInstr(pc, reg)
		if err != nil {
			return err
		}
		pc = next
	}

	return nil
}

func (c Code) validateInstr(pc int, reg *Registry) (int, error) {

	if pc >= len(c) {
		return 0, fmt.Errorf("truncated at word %d", pc)
	}

	op := Opcode(c[pc])
	if op >= numOpcodes {
		return 0, fmt.Errorf("bad opcode %d at word %d", uint64(op), pc)
	}

	info := opcodeTable[op]
	start := pc
	pc++

	if pc+info.Operands > len(c) {
		return 0, fmt.Errorf("%s at word %d: missing operands", op, start)
	}

	subs := info.Subexprs

	switch op {
	case OpJumpFalse:
		skip := int(c[pc])
		pc++

		//
		// The skipped span must be exactly one or more whole
		// instructions
		//

		if skip < 0 || skip > len(c)-pc {
			return 0, fmt.Errorf("JUMP_FALSE at word %d: bad skip %d", start, skip)
		}

		end := pc + skip

		for p := pc; p < end; {
			n, err := c.validateInstr(p, reg)
			if err != nil {
				return 0, err
			}
			if n > end {
				return 0, fmt.Errorf("JUMP_FALSE at word %d: skip splits an instruction", start)
			}
			p = n
		}

		return pc, nil

	case OpCallProc, OpCallFunc:
		arity := int(c[pc])
		index := int(c[pc+1])
		pc += 2

		if arity < 0 || arity > maxArity {
			return 0, fmt.Errorf("%s at word %d: bad arity %d", op, start, arity)
		}

		if reg != nil {
			ext := reg.native(index)
			if ext == nil || ext.Arity != arity || ext.isFunc != (op == OpCallFunc) {
				return 0, fmt.Errorf("%s at word %d: bad native %d", op, start, index)
			}
		}

		subs = arity

	case OpSetVar, OpGetVar, OpInput:
		pc++

	default:
		pc += info.Operands
	}

	for i := 0; i < subs; i++ {
		n, err := c.validateInstr(pc, reg)
		if err != nil {
			return 0, err
		}
		pc = n
	}

	return pc, nil
}
