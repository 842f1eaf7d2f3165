package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/term"

	"tinybasic"
)

func main() {

	configPath := flag.String("config", "", "configuration file (default ./"+tinybasic.ConfigFileName+" if present)")
	extended := flag.Bool("x", false, "use the extended dialect")
	runIt := flag.Bool("run", false, "run the program file and exit")
	traceExec := flag.Bool("trace", false, "trace statement execution")
	traceDump := flag.Bool("dump", false, "dump each line as it is compiled")
	stats := flag.Bool("stats", false, "print statistics after each run")
	verbose := flag.Int("v", 0, "log verbosity (-4 silent .. 2 debug)")
	logFile := flag.String("log", "", "log to this file instead of stderr")
	version := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tinybasic [options] [program]\n\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		printVersionInfo()
		return
	}

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		crash(err.Error())
	}

	//
	// Flags override the configuration file, but only when given
	//

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "x":
			if *extended {
				cfg.Dialect = tinybasic.DialectExtended
			} else {
				cfg.Dialect = tinybasic.DialectBasic
			}
		case "trace":
			cfg.TraceExec = *traceExec
		case "dump":
			cfg.TraceDump = *traceDump
		case "stats":
			cfg.Stats = *stats
		case "v":
			cfg.LogVerbosity = *verbose
		case "log":
			cfg.LogFile = *logFile
		}
	})

	initLogging(cfg)

	interactive := term.IsTerminal(int(os.Stdin.Fd())) && !*runIt

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		cfg.ClearScreen = false
	}

	it, err := tinybasic.New(cfg)
	if err != nil {
		crash(err.Error())
	}

	s := newSession(it, cfg, interactive)
	defer s.close()

	if flag.NArg() == 1 {
		if err := s.executeOld(flag.Arg(0)); err != nil {
			s.close()
			crash(err.Error())
		}
	}

	//
	// Run the signal handling code in a goroutine
	//

	go sigHdlr(it)

	if *runIt {
		var err error

		call(func() { err = s.runProgram() })

		if err != nil {
			s.close()
			os.Exit(1)
		}
		return
	}

	if interactive {
		printVersionInfo()
	}

	//
	// Loop forever, or until we quit
	//

	for !s.exiting {
		call(s.readEval)
	}
}

//
// An explicit -config must exist; the default file is optional
//

func loadConfig(path string) (*tinybasic.Config, error) {

	if path != "" {
		return tinybasic.LoadConfig(path)
	}

	cfg, err := tinybasic.LoadConfig(tinybasic.ConfigFileName)
	if errors.Is(err, fs.ErrNotExist) {
		return tinybasic.DefaultConfig(), nil
	}

	return cfg, err
}

func initLogging(cfg *tinybasic.Config) {

	if cfg.LogFile != "" {
		commonlog.Configure(cfg.LogVerbosity, &cfg.LogFile)
	} else {
		commonlog.Configure(cfg.LogVerbosity, nil)
	}
}

func printVersionInfo() {

	fmt.Printf("Tiny BASIC version %s\n", tinybasic.VERSION)
}

func sigHdlr(it *tinybasic.Interpreter) {

	ch := make(chan os.Signal, 1)

	signal.Ignore(syscall.SIGTSTP)

	signal.Notify(ch, syscall.SIGINT)

	for range ch {
		it.Interrupt()
	}
}

//
// The interpreter reports every user error through its return values,
// so a panic here is a bug.  Say where it happened and carry on at the
// prompt rather than losing the user's program
//

func decodePanic(e any) {

	var panicSeen bool
	var panicFrame runtime.Frame

	pcs := make([]uintptr, 64)

	frames := runtime.CallersFrames(pcs[:runtime.Callers(1, pcs)])

	for {
		frame, more := frames.Next()

		if frame.Function == "runtime.gopanic" {
			panicSeen = true
		} else if panicSeen && !strings.HasPrefix(frame.Function, "runtime.") {
			panicFrame = frame
			panicSeen = false
		}

		if !more {
			break
		}
	}

	fmt.Printf("%v at %s line %d\n", e, filepath.Base(panicFrame.File), panicFrame.Line)

	debug.PrintStack()
}

//
// Wrapper routine for a function.  We need this so that panic calls
// can be caught and decoded before returning to our caller
//

func call(f func()) {

	defer func() {
		err := recover()
		if err != nil {
			decodePanic(err)
		}
	}()

	f()
}

//
// Print a fatal message and abort the process.  Standard error, since
// the user may have redirected standard output
//

func crash(msg string) {

	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}

	os.Exit(1)
}
