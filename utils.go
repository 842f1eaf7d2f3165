package tinybasic

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

//
// formatNumber renders a value the way PRINT shows it: at most
// printDigits significant digits, no trailing zeros, no trailing '.',
// and exponent form only for very large or very small magnitudes.
// Negative zero prints as 0
//

func formatNumber(v float64) string {

	if v == 0 {
		return "0"
	}

	return strconv.FormatFloat(v, 'g', printDigits, 64)
}

//
// Prettify a source line for storage and LIST.  Eliminate leading and
// trailing whitespace, and replace runs of whitespace elsewhere with a
// single space, except in the text of a REM
//

func trimWhitespace(s string) string {

	src := []byte(strings.TrimSpace(s))
	var dst []byte
	var lastWasBlank bool

	for i, ch := range src {
		if unicode.IsSpace(rune(ch)) {
			if !lastWasBlank {
				lastWasBlank = true
				dst = append(dst, ' ')
			}
			continue
		}

		lastWasBlank = false
		dst = append(dst, ch)

		if bytes.HasSuffix(dst, []byte("REM")) && isRemStart(dst) {
			return string(append(dst, src[i+1:]...))
		}
	}

	return string(dst)
}

//
// REM only starts a comment if it is a whole word at statement start:
// the first thing on the line, after a line number, or after THEN
//

func isRemStart(dst []byte) bool {

	if len(dst) > 3 && dst[len(dst)-4] != ' ' {
		return false
	}

	before := strings.TrimRight(string(dst[:len(dst)-3]), " ")

	if before == "" || strings.HasSuffix(before, "THEN") {
		return true
	}

	for i := 0; i < len(before); i++ {
		if !isDigit(before[i]) {
			return false
		}
	}

	return true
}

//
// Split an optional leading line number off a source line.  ok is
// false if the line starts with digits that are not a legal number
//

func splitLineNumber(text string) (number int, rest string, ok bool) {

	text = strings.TrimLeft(text, " \t")

	i := 0
	for i < len(text) && isDigit(text[i]) {
		i++
	}

	if i == 0 {
		return 0, text, true
	}

	n, err := strconv.Atoi(text[:i])
	if err != nil || n < 1 || n > maxLineNumber {
		return 0, text, false
	}

	return n, strings.TrimLeft(text[i:], " \t"), true
}

//
// ParseNumber converts one line of INPUT to a value.  The error is a
// RuntimeFault carrying the BASIC-PLUS message for the kind of failure
//

func ParseNumber(s string) (float64, error) {

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && ne.Err == strconv.ErrRange {
			return 0, &RuntimeFault{Msg: EFLOATINGERROR, Err: err}
		}
		return 0, &RuntimeFault{Msg: EILLEGALNUMBER, Err: err}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fault(EILLEGALNUMBER)
	}

	return f, nil
}

//
// A NumberReader over a plain stream: write the prompt, read one line,
// and convert it.  Used when input is not a terminal
//

type streamReader struct {
	r *bufio.Reader
	w io.Writer
}

func NewNumberReader(r io.Reader, w io.Writer) NumberReader {

	if w == nil {
		w = io.Discard
	}

	return &streamReader{r: bufio.NewReader(r), w: w}
}

func (sr *streamReader) ReadNumber(prompt string) (float64, error) {

	if _, err := io.WriteString(sr.w, prompt); err != nil {
		return 0, err
	}

	line, err := sr.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return 0, err
	}

	return ParseNumber(line)
}

//
// Function to implement an interruptible sleep
//

func (vm *VM) sleep(d time.Duration) error {

	const tick = 50 * time.Millisecond

	for d > 0 {
		if vm.interrupt.Swap(false) {
			return &RuntimeFault{Msg: EINTERRUPTED, Err: ErrInterrupted}
		}

		step := min(d, tick)
		time.Sleep(step)
		d -= step
	}

	return nil
}
