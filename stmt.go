package tinybasic

import (
	"fmt"
	"io"

	"github.com/danswartzendruber/avl"
)

//
// A set of wrapper routines to the AVL package.  We do this to hide
// the AVL interface from the rest of the interpreter.  Lines are kept
// in line number order, which is the default run order.  Line 0 is a
// sentinel with no code that is always present: it is never listed
// and never run, but it means a lookup on an otherwise empty program
// still has a tree to search
//

func NewProgram() *Program {

	prog := &Program{}

	prog.Clear()

	return prog
}

//
// Drop every line except the sentinel.  Used for program restart
// (NEW, loading an image)
//

func (prog *Program) Clear() {

	prog.root = nil
	prog.count = 0
	prog.sentinel = &Line{Number: 0}

	p := avl.AvlTreeInsert(&prog.root, &prog.sentinel.avl, prog.sentinel, cmpLineNodes)
	if p != nil {
		panic("sentinel already in tree")
	}
}

func cmpLineKey(key any, node any) int {

	return cmpLineNumbers(key.(int), node.(*Line).Number)
}

func cmpLineNodes(node1, node2 any) int {

	return cmpLineNumbers(node1.(*Line).Number, node2.(*Line).Number)
}

func cmpLineNumbers(n1, n2 int) int {

	if n1 < n2 {
		return -1
	} else if n1 > n2 {
		return 1
	} else {
		return 0
	}
}

//
// Insert a line, replacing any existing line with the same number
//

func (prog *Program) Insert(line *Line) error {

	if line.Number < 1 || line.Number > maxLineNumber {
		return fmt.Errorf("%s: %d", EBADLINENUMBER, line.Number)
	}

	if old := prog.Lookup(line.Number); old != nil {
		prog.remove(old)
	}

	p := avl.AvlTreeInsert(&prog.root, &line.avl, line, cmpLineNodes)
	if p != nil {
		return fmt.Errorf("line %d already in tree", line.Number)
	}

	prog.count++

	return nil
}

func (prog *Program) Lookup(number int) *Line {

	if number < 1 || number > maxLineNumber {
		return nil
	}

	p := avl.AvlTreeLookup(prog.root, number, cmpLineKey)
	if p != nil {
		return p.(*Line)
	} else {
		return nil
	}
}

//
// Remove a line by number.  Returns false if there was no such line
//

func (prog *Program) Remove(number int) bool {

	line := prog.Lookup(number)
	if line == nil {
		return false
	}

	prog.remove(line)

	return true
}

func (prog *Program) remove(line *Line) {

	avl.AvlTreeRemove(&prog.root, &line.avl)

	prog.count--
}

//
// First real line, skipping the sentinel
//

func (prog *Program) First() *Line {

	return prog.Next(prog.sentinel)
}

func (prog *Program) Last() *Line {

	p := avl.AvlTreeLastInOrder(prog.root)
	if p == nil || p.(*Line) == prog.sentinel {
		return nil
	}

	return p.(*Line)
}

func (prog *Program) Next(line *Line) *Line {

	p := avl.AvlTreeNextInOrder(&line.avl)
	if p != nil {
		return p.(*Line)
	} else {
		return nil
	}
}

func (prog *Program) Len() int {

	return prog.count
}

//
// Lines in run order, without the sentinel
//

func (prog *Program) Lines() []*Line {

	lines := make([]*Line, 0, prog.count)

	for line := prog.First(); line != nil; line = prog.Next(line) {
		lines = append(lines, line)
	}

	return lines
}

//
// List writes every line as "number source", in line number order
//

func (prog *Program) List(w io.Writer) error {

	for line := prog.First(); line != nil; line = prog.Next(line) {
		if _, err := fmt.Fprintf(w, "%d %s\n", line.Number, line.Source); err != nil {
			return &RuntimeFault{Msg: err.Error(), Err: err}
		}
	}

	return nil
}
