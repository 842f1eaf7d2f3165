package tinybasic

import (
	"fmt"
	"math"
)

//
// Recursive descent compiler.  Each rule either returns a complete
// bytecode fragment and true, or nil and false with the scan position
// put back where the rule found it, so the caller can try something
// else at the same spot.  There is no syntax tree: fragments are glued
// together on the way back up.
//
//   line       := NUMBER statement | statement
//   statement  := PRINT expr | INPUT var | IF expr relop expr THEN statement
//               | GOTO expr | GOSUB expr | RETURN | LET var = expr
//               | LIST | RUN | END | CLEAR | REM ... | CALL function
//               | command
//   expr       := term (('+'|'-') term)*
//   term       := factor (('*'|'/') factor)*
//   factor     := NUMBER | function | variable | '(' expr ')'
//   relop      := '=' | '<>' | '>' | '>=' | '<' | '<='
//

type parser struct {
	s         *scanner
	reg       *Registry
	syms      *symbolTable
	immediate bool
	errMsg    string
}

type ruleFunc func(p *parser) (Code, bool)

var statementRules map[string]ruleFunc

func init() {

	statementRules = map[string]ruleFunc{
		"CALL":   (*parser).parseCall,
		"CLEAR":  (*parser).parseClear,
		"END":    (*parser).parseEnd,
		"GOSUB":  (*parser).parseGosub,
		"GOTO":   (*parser).parseGoto,
		"IF":     (*parser).parseIf,
		"INPUT":  (*parser).parseInput,
		"LET":    (*parser).parseLet,
		"LIST":   (*parser).parseList,
		"PRINT":  (*parser).parsePrint,
		"REM":    (*parser).parseRem,
		"RETURN": (*parser).parseReturn,
		"RUN":    (*parser).parseRun,
	}
}

func newParser(text string, reg *Registry, syms *symbolTable, immediate bool) *parser {

	return &parser{s: newScanner(text), reg: reg, syms: syms, immediate: immediate}
}

//
// Compile a whole statement.  The statement has to use up the entire
// line, apart from trailing blanks
//

func (p *parser) compile() (Code, bool) {

	p.s.eatBlank()

	code, ok := p.parseStatement()
	if !ok || !p.s.atEnd() {
		return nil, false
	}

	return code, true
}

//
// Describe why compile failed, for the caller's diagnostic
//

func (p *parser) failure() *CompileError {

	msg := p.errMsg
	if msg == "" {
		msg = ESYNTAX
	}

	return compileError(p.s.line, p.s.furthest+1, "%s", msg)
}

func (p *parser) parseStatement() (Code, bool) {

	pos := p.s.mark()

	name, ok := p.s.identifier()
	if !ok {
		return nil, false
	}

	if rule, ok := statementRules[name]; ok {
		if code, ok := rule(p); ok {
			return code, true
		}
	} else if ext := p.reg.lookupCommand(name); ext != nil {
		if args, ok := p.parseArguments(ext); ok {
			return cat(emit(OpCallProc, Word(ext.Arity), Word(ext.index)), args), true
		}
	} else if rule, ok := p.keywordPrefix(pos, name); ok {
		if code, ok := rule(p); ok {
			return code, true
		}
	} else if p.errMsg == "" {
		p.errMsg = EUNKNOWNKEYWORD
	}

	p.s.rewind(pos)

	return nil, false
}

//
// GOTO20 scans as one identifier.  If its leading letters are a
// statement keyword, leave the scanner just past them
//

func (p *parser) keywordPrefix(pos int, name string) (ruleFunc, bool) {

	p.s.rewind(pos)

	if word, ok := p.s.letters(); ok && len(word) < len(name) {
		if rule, ok := statementRules[word]; ok {
			return rule, true
		}
	}

	return nil, false
}

func (p *parser) parsePrint() (Code, bool) {

	if exp, ok := p.parseExpression(); ok {
		return cat(emit(OpPrint), exp), true
	}

	return nil, false
}

func (p *parser) parseInput() (Code, bool) {

	if slot, ok := p.parseVariable(); ok {
		return emit(OpInput, Word(slot)), true
	}

	return nil, false
}

//
// IF compiles to [relop][exp1][exp2][JUMP_FALSE][len][statement].
// The guarded statement is compiled before we emit the jump, so its
// length is already known: no backpatching needed
//

func (p *parser) parseIf() (Code, bool) {

	pos := p.s.mark()

	if exp1, ok := p.parseExpression(); ok {
		if op, ok := p.parseRelop(); ok {
			if exp2, ok := p.parseExpression(); ok {
				if p.s.keyword("THEN") {
					if stmt, ok := p.parseStatement(); ok {
						return cat(emit(op), exp1, exp2,
							emit(OpJumpFalse, Word(len(stmt))), stmt), true
					}
				}
			}
		}
	}

	p.s.rewind(pos)

	return nil, false
}

func (p *parser) parseGoto() (Code, bool) {

	if exp, ok := p.parseExpression(); ok {
		return cat(emit(OpGoto), exp), true
	}

	return nil, false
}

func (p *parser) parseGosub() (Code, bool) {

	if exp, ok := p.parseExpression(); ok {
		return cat(emit(OpGosub), exp), true
	}

	return nil, false
}

func (p *parser) parseReturn() (Code, bool) {

	return emit(OpReturn), true
}

func (p *parser) parseLet() (Code, bool) {

	pos := p.s.mark()

	if slot, ok := p.parseVariable(); ok {
		if p.s.accept('=') {
			if exp, ok := p.parseExpression(); ok {
				return cat(emit(OpSetVar, Word(slot)), exp), true
			}
		}
	}

	p.s.rewind(pos)

	return nil, false
}

//
// LIST and RUN act on the whole program, so they make no sense as
// program lines
//

func (p *parser) parseList() (Code, bool) {

	if !p.immediate {
		p.errMsg = fmt.Sprintf(EIMMEDIATEONLY, "LIST")
		return nil, false
	}

	return emit(OpList), true
}

func (p *parser) parseRun() (Code, bool) {

	if !p.immediate {
		p.errMsg = fmt.Sprintf(EIMMEDIATEONLY, "RUN")
		return nil, false
	}

	return emit(OpRun), true
}

func (p *parser) parseEnd() (Code, bool) {

	return emit(OpEnd), true
}

func (p *parser) parseClear() (Code, bool) {

	return emit(OpClear), true
}

//
// Everything after REM is commentary
//

func (p *parser) parseRem() (Code, bool) {

	p.s.advance(len(p.s.line) - p.s.seek)

	return emit(OpNop), true
}

//
// CALL invokes a registered function for its side effects and throws
// the result away, so the stack stays balanced
//

func (p *parser) parseCall() (Code, bool) {

	if fn, ok := p.parseFunction(); ok {
		return cat(fn, emit(OpPop)), true
	}

	return nil, false
}

func (p *parser) parseExpression() (Code, bool) {

	set, ok := p.parseTerm()
	if !ok {
		return nil, false
	}

	for {
		var op Opcode

		pos := p.s.mark()

		if p.s.accept('+') {
			op = OpAdd
		} else if p.s.accept('-') {
			op = OpSub
		} else {
			return set, true
		}

		b, ok := p.parseTerm()
		if !ok {
			p.s.rewind(pos)
			return nil, false
		}

		set = cat(emit(op), set, b)
	}
}

func (p *parser) parseTerm() (Code, bool) {

	set, ok := p.parseFactor()
	if !ok {
		return nil, false
	}

	for {
		var op Opcode

		pos := p.s.mark()

		if p.s.accept('*') {
			op = OpMul
		} else if p.s.accept('/') {
			op = OpDiv
		} else {
			return set, true
		}

		b, ok := p.parseFactor()
		if !ok {
			p.s.rewind(pos)
			return nil, false
		}

		set = cat(emit(op), set, b)
	}
}

//
// Resolution order for a bare identifier: a keyword is never a factor,
// then registered functions, then variables
//

func (p *parser) parseFactor() (Code, bool) {

	pos := p.s.mark()

	if number, ok := p.s.number(); ok {
		if math.IsInf(number, 0) {
			p.errMsg = EILLEGALNUMBER
			p.s.rewind(pos)
			return nil, false
		}
		return pushValue(number), true
	}

	if p.s.accept('(') {
		if exp, ok := p.parseExpression(); ok && p.s.accept(')') {
			return exp, true
		}
		p.s.rewind(pos)
		return nil, false
	}

	if fn, ok := p.parseFunction(); ok {
		return fn, true
	}

	if slot, ok := p.parseVariable(); ok {
		return emit(OpGetVar, Word(slot)), true
	}

	p.s.rewind(pos)

	return nil, false
}

func (p *parser) parseFunction() (Code, bool) {

	pos := p.s.mark()

	if name, ok := p.s.identifier(); ok {
		if ext := p.reg.lookupFunction(name); ext != nil {
			if args, ok := p.parseArguments(ext); ok {
				return cat(emit(OpCallFunc, Word(ext.Arity), Word(ext.index)), args), true
			}
		}
	}

	p.s.rewind(pos)

	return nil, false
}

func (p *parser) parseVariable() (int, bool) {

	pos := p.s.mark()

	if name, ok := p.s.identifier(); ok && !p.reserved(name) {
		if p.syms.long || len(name) == 1 {
			if slot, ok := p.syms.lookupSymbol(name); ok {
				return slot, true
			}
			if p.syms.full() {
				p.errMsg = ETOOMANYVARS
			}
		}
	}

	p.s.rewind(pos)

	return 0, false
}

//
// Keywords and registered names can never be variables, otherwise
// LET could create a variable that no expression is able to read
//

func (p *parser) reserved(name string) bool {

	return keywords[name] || p.reg.lookupFunction(name) != nil ||
		p.reg.lookupCommand(name) != nil
}

//
// Parse the argument list of a registered command or function.  The
// argument count must match the registered arity exactly; parentheses
// are required if the entry says so, and not allowed otherwise
//

func (p *parser) parseArguments(ext *Extension) (Code, bool) {

	pos := p.s.mark()

	var set Code

	if ext.Parens && !p.s.accept('(') {
		p.s.rewind(pos)
		return nil, false
	}

	for i := 0; i < ext.Arity; i++ {
		if i > 0 && !p.s.accept(',') {
			p.s.rewind(pos)
			return nil, false
		}

		exp, ok := p.parseExpression()
		if !ok {
			p.s.rewind(pos)
			return nil, false
		}

		set = cat(set, exp)
	}

	if ext.Parens && !p.s.accept(')') {
		p.s.rewind(pos)
		return nil, false
	}

	return set, true
}

func (p *parser) parseRelop() (Opcode, bool) {

	switch {
	case p.s.accept('='):
		return OpEq, true

	case p.s.peek() == '>' && !p.s.eol():
		p.s.advance(1)
		if p.s.accept('=') {
			return OpGe, true
		}
		p.s.eatBlank()
		return OpGt, true

	case p.s.peek() == '<' && !p.s.eol():
		p.s.advance(1)
		if p.s.accept('=') {
			return OpLe, true
		} else if p.s.accept('>') {
			return OpNe, true
		}
		p.s.eatBlank()
		return OpLt, true
	}

	return 0, false
}
