package tinybasic

import (
	"fmt"
	"strings"
)

//
// Disassemble renders a line's bytecode one instruction per output
// line, with operand sub-programs indented under their owner.  names,
// if not nil, maps variable slots to names; reg resolves native
// indexes.  Malformed code is shown up to the point it goes wrong
//

func Disassemble(code Code, reg *Registry, names []string) string {

	var sb strings.Builder

	d := &disassembler{sb: &sb, code: code, reg: reg, names: names}

	pc := 0
	for pc < len(code) {
		next, ok := d.instruction(pc, 0)
		if !ok {
			break
		}
		pc = next
	}

	return sb.String()
}

type disassembler struct {
	sb    *strings.Builder
	code  Code
	reg   *Registry
	names []string
}

func (d *disassembler) slotName(w Word) string {

	if w < Word(len(d.names)) {
		return d.names[w]
	}

	return fmt.Sprintf("#%d", uint64(w))
}

func (d *disassembler) nativeName(w Word) string {

	if d.reg != nil {
		if ext := d.reg.native(int(w)); ext != nil {
			return ext.Name
		}
	}

	return fmt.Sprintf("native#%d", uint64(w))
}

func (d *disassembler) instruction(pc, depth int) (int, bool) {

	fmt.Fprintf(d.sb, "%04d %s", pc, strings.Repeat("  ", depth))

	op := Opcode(d.code[pc])
	info := op.Info()

	if op >= numOpcodes {
		fmt.Fprintf(d.sb, "%s\n", info.Name)
		return 0, false
	}

	if pc+1+info.Operands > len(d.code) {
		fmt.Fprintf(d.sb, "%s <truncated>\n", info.Name)
		return 0, false
	}

	ops := d.code[pc+1 : pc+1+info.Operands]
	subs := info.Subexprs

	switch op {
	case OpPush:
		fmt.Fprintf(d.sb, "%s %s\n", info.Name, formatNumber(wordValue(ops[0])))

	case OpSetVar, OpGetVar, OpInput:
		fmt.Fprintf(d.sb, "%s %s\n", info.Name, d.slotName(ops[0]))

	case OpJumpFalse:
		fmt.Fprintf(d.sb, "%s +%d\n", info.Name, uint64(ops[0]))

	case OpCallProc, OpCallFunc:
		fmt.Fprintf(d.sb, "%s %s/%d\n", info.Name, d.nativeName(ops[1]), uint64(ops[0]))
		if ops[0] > maxArity {
			return 0, false
		}
		subs = int(ops[0])

	default:
		fmt.Fprintf(d.sb, "%s\n", info.Name)
	}

	pc += 1 + info.Operands

	for i := 0; i < subs; i++ {
		if pc >= len(d.code) {
			fmt.Fprintf(d.sb, "%04d %s<truncated>\n", pc, strings.Repeat("  ", depth+1))
			return 0, false
		}

		next, ok := d.instruction(pc, depth+1)
		if !ok {
			return 0, false
		}
		pc = next
	}

	return pc, true
}
