package main

import (
	"fmt"
	"io"
)

func executeHelp(w io.Writer, args []string) {

	if len(args) == 0 {
		fmt.Fprintln(w, "bye")
		fmt.Fprintln(w, "dis")
		fmt.Fprintln(w, "list")
		fmt.Fprintln(w, "new")
		fmt.Fprintln(w, "old")
		fmt.Fprintln(w, "run")
		fmt.Fprintln(w, "save")
		fmt.Fprintln(w, "stats")
		fmt.Fprintln(w, "trace")
		return
	}

	switch args[0] {
	default:
		fmt.Fprintf(w, "No help for %s\n", args[0])

	case "BYE":
		fmt.Fprintln(w, "Exit from Tiny BASIC")

	case "DIS":
		fmt.Fprintln(w, "Disassemble the bytecode of one statement," +
			" or of the whole program")

	case "LIST":
		fmt.Fprintln(w, "List the current program")

	case "NEW":
		fmt.Fprintln(w, "Erase current program, optionally specifying a" +
			" new filename")

	case "OLD":
		fmt.Fprintln(w, "Load an existing program, either source (.bas)" +
			" or compiled image (.bimg)")

	case "RUN":
		fmt.Fprintln(w, "Execute the current program")

	case "SAVE":
		fmt.Fprintln(w, "Save the current program, optionally specifying a" +
			" new filename.  A .bimg suffix saves the compiled image")

	case "STATS":
		fmt.Fprintln(w, "Toggle printing execution statistics when user" +
			" program stops")

	case "TRACE":
		fmt.Fprintln(w, "Toggle tracing of statement execution" +
			" or of compiled statements")
		fmt.Fprintln(w, "\ttrace exec")
		fmt.Fprintln(w, "\ttrace dump")
	}
}
