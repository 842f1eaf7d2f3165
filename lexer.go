package tinybasic

//
// There is no token stream.  The parser rules pull characters straight
// from the line through this scanner, and rewind seek themselves when a
// rule fails.  furthest only ever grows; it is what we report when the
// whole line is rejected
//

type scanner struct {
	line     string
	seek     int
	furthest int
}

func newScanner(line string) *scanner {

	return &scanner{line: line}
}

func (s *scanner) eol() bool {

	return s.seek >= len(s.line)
}

func (s *scanner) peek() byte {

	if s.eol() {
		return 0
	}

	return s.line[s.seek]
}

func (s *scanner) advance(n int) {

	s.seek += n
	if s.seek > s.furthest {
		s.furthest = s.seek
	}
}

func (s *scanner) mark() int {

	return s.seek
}

func (s *scanner) rewind(pos int) {

	s.seek = pos
}

func (s *scanner) eatBlank() {

	for !s.eol() && (s.line[s.seek] == ' ' || s.line[s.seek] == '\t') {
		s.advance(1)
	}
}

//
// Consume ch (and any blanks after it) if it is next
//

func (s *scanner) accept(ch byte) bool {

	if s.peek() == ch && !s.eol() {
		s.advance(1)
		s.eatBlank()
		return true
	}

	return false
}

func isDigit(ch byte) bool {

	return ch >= '0' && ch <= '9'
}

func isUpper(ch byte) bool {

	return ch >= 'A' && ch <= 'Z'
}

//
// Decimal digit run, accumulated left to right.  No sign, fraction or
// exponent: negative values only ever come from subtraction
//

func (s *scanner) number() (float64, bool) {

	if s.eol() || !isDigit(s.peek()) {
		return 0, false
	}

	var value float64

	for !s.eol() && isDigit(s.peek()) {
		value = value*10 + float64(s.peek()-'0')
		s.advance(1)
	}

	s.eatBlank()

	return value, true
}

//
// Identifiers start with an upper case letter, and continue with
// upper case letters or digits.  Trailing blanks are consumed.  On
// failure nothing is consumed
//

func (s *scanner) identifier() (string, bool) {

	start := s.seek

	if s.eol() || !isUpper(s.peek()) {
		return "", false
	}

	s.advance(1)
	for !s.eol() && (isUpper(s.peek()) || isDigit(s.peek())) {
		s.advance(1)
	}

	name := s.line[start:s.seek]

	s.eatBlank()

	return name, true
}

//
// A run of upper case letters only, so a keyword written hard against
// its operand (GOTO20) can be told apart from the digits after it
//

func (s *scanner) letters() (string, bool) {

	start := s.seek

	for !s.eol() && isUpper(s.peek()) {
		s.advance(1)
	}

	if s.seek == start {
		return "", false
	}

	name := s.line[start:s.seek]

	s.eatBlank()

	return name, true
}

//
// Consume the keyword kw if it is the next identifier
//

func (s *scanner) keyword(kw string) bool {

	pos := s.mark()

	if name, ok := s.identifier(); ok && name == kw {
		return true
	}

	s.rewind(pos)

	return false
}

//
// Returns true if the rest of the line is blank
//

func (s *scanner) atEnd() bool {

	s.eatBlank()

	return s.eol()
}
