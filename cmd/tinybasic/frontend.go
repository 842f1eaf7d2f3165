package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/danswartzendruber/liner"

	"tinybasic"
)

const colorRedSeq = "\033[31m"
const colorResetSeq = "\033[0m"

//
// Where lines come from.  On a terminal we create two Liner instances:
// one for the command loop, and one for INPUT statements, since we
// want scrollback history for commands but not for user input.  They
// have to be destroyed in LIFO order, as Close restores the terminal
// to the state it was in when the instance was created.  Off a
// terminal, commands and INPUT share one buffered reader
//

type lineSource interface {
	ReadLine(prompt string, history bool) (string, error)
	Close()
}

type linerSource struct {
	l *liner.State
}

func newLinerSource(allowCtrlC bool) *linerSource {

	l := liner.NewLiner()

	l.SetMultiLineMode(allowCtrlC)

	return &linerSource{l: l}
}

func (ls *linerSource) ReadLine(prompt string, history bool) (string, error) {

	s, err := ls.l.Prompt(prompt)
	if err != nil {
		return "", err
	}

	if history {
		ls.l.AppendHistory(s)
	}

	return s, nil
}

func (ls *linerSource) Close() {

	ls.l.Close()
}

type streamSource struct {
	r *bufio.Reader
	w io.Writer
}

func newStreamSource(r io.Reader, w io.Writer) *streamSource {

	return &streamSource{r: bufio.NewReader(r), w: w}
}

func (ss *streamSource) ReadLine(prompt string, history bool) (string, error) {

	if prompt != "" {
		io.WriteString(ss.w, prompt)
	}

	line, err := ss.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func (ss *streamSource) Close() {
}

//
// INPUT reads through the same line sources.  ^C at an INPUT prompt
// interrupts the program, exactly as it would while running
//

type inputReader struct {
	src lineSource
}

func (ir inputReader) ReadNumber(prompt string) (float64, error) {

	line, err := ir.src.ReadLine(prompt, false)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return 0, &tinybasic.RuntimeFault{Msg: tinybasic.EINTERRUPTED, Err: tinybasic.ErrInterrupted}
		}
		return 0, err
	}

	return tinybasic.ParseNumber(line)
}

//
// A session is one interactive (or batch) front end around one
// interpreter
//

type session struct {
	it          *tinybasic.Interpreter
	cfg         *tinybasic.Config
	cmds        lineSource
	input       lineSource
	out         io.Writer
	interactive bool
	color       bool
	filename    string
	modified    bool
	exiting     bool
	clock       cpuClock
}

func newSession(it *tinybasic.Interpreter, cfg *tinybasic.Config, interactive bool) *session {

	s := &session{
		it:          it,
		cfg:         cfg,
		out:         os.Stdout,
		interactive: interactive,
		color:       interactive,
	}

	if interactive {
		s.cmds = newLinerSource(false)
		s.input = newLinerSource(true)
	} else {
		ss := newStreamSource(os.Stdin, os.Stdout)
		s.cmds = ss
		s.input = ss
	}

	it.SetOutput(s.out)
	it.SetInput(inputReader{src: s.input})

	return s
}

//
// Restore terminal state.  Close the Liner instances in reverse order,
// to make sure we end up back in cooked mode
//

func (s *session) close() {

	if s.input != nil {
		s.input.Close()
		s.input = nil
	}

	if s.cmds != nil {
		s.cmds.Close()
		s.cmds = nil
	}
}

//
// Read one line and act on it
//

func (s *session) readEval() {

	prompt := ""
	if s.interactive {
		prompt = s.cfg.Prompt
	}

	line, err := s.cmds.ReadLine(prompt, true)
	if err != nil {
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(s.out)

		case errors.Is(err, io.EOF):
			s.exiting = true

		default:
			fmt.Fprintf(s.out, "readLine error: %q\n", err)
			s.exiting = true
		}
		return
	}

	s.processLine(line)
}

func (s *session) processLine(line string) {

	text := strings.TrimSpace(line)
	if text == "" {
		return
	}

	if s.frontEndCommand(text) {
		return
	}

	numbered := text[0] >= '0' && text[0] <= '9'

	if !numbered {
		s.clock.start()
	}

	err := s.it.ParseLine(text)

	if numbered && err == nil {
		s.modified = true
	}

	if err != nil {
		s.printError(err)
	}

	if !numbered && s.cfg.Stats {
		s.printStatistics()
	}
}

//
// Commands handled here rather than by the interpreter, because they
// deal with files and the terminal.  Returns false if text is not one
// of them, so it goes to the interpreter instead
//

func (s *session) frontEndCommand(text string) bool {

	fields := strings.Fields(text)
	args := fields[1:]

	switch fields[0] {
	default:
		return false

	case "BYE":
		if len(args) != 0 {
			return false
		}
		if s.checkModified() {
			s.exiting = true
		}

	case "NEW":
		if len(args) > 1 {
			return false
		}
		s.executeNew(args)

	case "OLD":
		if len(args) != 1 {
			return false
		}
		if err := s.executeOld(args[0]); err != nil {
			fmt.Fprintln(s.out, err)
		}

	case "SAVE":
		if len(args) > 1 {
			return false
		}
		if err := s.executeSave(args); err != nil {
			fmt.Fprintln(s.out, err)
		}

	case "TRACE":
		if len(args) == 0 {
			return false
		}
		if !s.executeTrace(args) {
			return false
		}

	case "STATS":
		if len(args) != 0 {
			return false
		}
		s.cfg.Stats = !s.cfg.Stats
		fmt.Fprintf(s.out, "statistics %s\n", switchSetting(s.cfg.Stats))

	case "DIS":
		if len(args) > 1 {
			return false
		}
		s.executeDis(args)

	case "HELP":
		if len(args) > 1 {
			return false
		}
		executeHelp(s.out, args)
	}

	return true
}

func (s *session) executeNew(args []string) {

	if !s.checkModified() {
		fmt.Fprintln(s.out, "Please save the current program first")
		return
	}

	s.it.Clear()

	//
	// If the user said NEW with no filename, forget the current
	// filename, as otherwise a later SAVE would overwrite the
	// previous program
	//

	s.filename = ""
	if len(args) == 1 {
		s.filename = programFilename(args[0])
	}

	s.modified = false
}

//
// OLD loads either program text or a compiled image, depending on the
// suffix.  Both loaders check everything before committing, so a bad
// file leaves the program and filename alone
//

func (s *session) executeOld(name string) error {

	if !s.checkModified() {
		return errors.New("Please save the current program first")
	}

	name = programFilename(name)

	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}

	if filepath.Ext(name) == tinybasic.ImageFileSuffix {
		err = s.it.LoadImage(data)
	} else {
		err = s.it.LoadSource(name, bytes.NewReader(data))
	}

	if err != nil {
		return err
	}

	if len(data) == 0 {
		fmt.Fprintf(s.out, "File %s is empty?\n", name)
	}

	s.filename = name
	s.modified = false

	return nil
}

//
// 4 cases:
//
// No filename given, and a current filename is defined - use that name
// No filename given, and no current filename - error
// A filename was given - save there, and make it the current filename,
//   asking first if it would overwrite some other file
//

func (s *session) executeSave(args []string) error {

	var data []byte
	var err error

	name := s.filename

	if len(args) == 1 {
		name = programFilename(args[0])
		if name != s.filename && fileExists(name) && !s.promptYesNo("Overwrite "+name) {
			return errors.New("File not overwritten")
		}
	}

	if name == "" {
		return errors.New("Filename required")
	}

	if s.it.Program().Len() == 0 {
		return errors.New("No program to save!")
	}

	if filepath.Ext(name) == tinybasic.ImageFileSuffix {
		data, err = s.it.MarshalImage()
		if err != nil {
			return err
		}
	} else {
		var buf bytes.Buffer
		if err := s.it.List(&buf); err != nil {
			return err
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(name, data, 0644); err != nil {
		return err
	}

	s.filename = name
	s.modified = false

	return nil
}

func (s *session) executeTrace(args []string) bool {

	for _, arg := range args {
		switch arg {
		default:
			return false

		case "EXEC":
			s.cfg.TraceExec = !s.cfg.TraceExec
			s.it.SetTraceExec(s.cfg.TraceExec)
			fmt.Fprintf(s.out, "toggling traceExec %s\n", switchSetting(s.cfg.TraceExec))

		case "DUMP":
			s.cfg.TraceDump = !s.cfg.TraceDump
			s.it.SetTraceDump(s.cfg.TraceDump)
			fmt.Fprintf(s.out, "toggling traceDump %s\n", switchSetting(s.cfg.TraceDump))
		}
	}

	return true
}

func (s *session) executeDis(args []string) {

	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintln(s.out, tinybasic.EILLEGALLINENUMBER)
			return
		}

		text, ok := s.it.Disassemble(n)
		if !ok {
			fmt.Fprintf(s.out, "No line %d\n", n)
			return
		}

		fmt.Fprint(s.out, text)
		return
	}

	for _, line := range s.it.Program().Lines() {
		text, _ := s.it.Disassemble(line.Number)
		fmt.Fprintf(s.out, "%d %s\n%s", line.Number, line.Source, text)
	}
}

func (s *session) runProgram() error {

	s.clock.start()

	err := s.it.Run()
	if err != nil {
		s.printError(err)
	}

	if s.cfg.Stats {
		s.printStatistics()
	}

	return err
}

//
// Compile errors show the line with the offending column marked;
// runtime faults already say which line they happened on
//

func (s *session) printError(err error) {

	var ce *tinybasic.CompileError

	if errors.As(err, &ce) && ce.Source != "" && ce.Column > 0 {
		fmt.Fprintln(s.out, s.markColumn(ce.Source, ce.Column))
	}

	fmt.Fprintln(s.out, err)
}

func (s *session) markColumn(src string, col int) string {

	if col > len(src) {
		src += " "
		col = len(src)
	}

	if s.color {
		return src[:col-1] + colorRedSeq + src[col-1:col] + colorResetSeq + src[col:]
	}

	return src + "\n" + strings.Repeat(" ", col-1) + "^"
}

//
// The NEW, OLD and BYE commands need to check the modified flag, so
// an unsaved program is not thrown away without asking
//

func (s *session) checkModified() bool {

	if !s.modified || !s.interactive {
		return true
	}

	return s.promptYesNo("Discard modified program")
}

//
// Prompt user for an action requiring a yes/no
//

func (s *session) promptYesNo(msg string) bool {

	if !s.interactive {
		return true
	}

	for {
		line, err := s.cmds.ReadLine(fmt.Sprintf("%s (yes/no)? ", msg), false)
		if err != nil {
			return false
		}

		switch strings.TrimSpace(line) {
		default:
			fmt.Fprintln(s.out, "Answer yes or no!")

		case "yes":
			return true

		case "no":
			return false
		}
	}
}

//
// A name without a suffix is program text
//

func programFilename(name string) string {

	if filepath.Ext(name) == "" {
		return name + tinybasic.BasFileSuffix
	}

	return name
}

func fileExists(name string) bool {

	_, err := os.Stat(name)

	return err == nil
}

func switchSetting(b bool) string {

	if b {
		return "ON"
	} else {
		return "OFF"
	}
}
