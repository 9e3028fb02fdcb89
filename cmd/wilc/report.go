package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/wilc-lang/wilc/compiler"
	"github.com/wilc-lang/wilc/vm"
)

// report prints a human-readable diagnostic for err. Parse and runtime
// errors quote the offending source line and underline it from the error
// column to the end of the line.
func report(w io.Writer, err error) {
	var perr *compiler.ParseError
	var rerr *vm.RuntimeError
	var ierr *vm.InternalError

	switch {
	case errors.As(err, &perr):
		fmt.Fprintf(w, "ERROR DURING PARSING: %s\n", parseMessage(perr))
		fmt.Fprintf(w, "IN FILE %q (%d:%d)\n", perr.Pos.File, perr.Pos.Line+1, perr.Pos.Column)
		excerpt(w, perr.Pos)
	case errors.As(err, &rerr) && rerr.Instr != nil:
		fmt.Fprintf(w, "ERROR DURING RUNTIME: %v\n", rerr.Err)
		pos := rerr.Instr.Pos
		fmt.Fprintf(w, "IN FILE %q (%d:%d) AT %q\n", pos.File, pos.Line+1, pos.Column, rerr.Instr.Name())
		excerpt(w, pos)
	case errors.As(err, &ierr):
		fmt.Fprintf(w, "OTHER ERROR: %v\n", ierr.Cause)
	default:
		fmt.Fprintf(w, "OTHER ERROR: %v\n", err)
	}
}

func parseMessage(e *compiler.ParseError) string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Err.Error()
}

// excerpt writes the source line at pos followed by a caret run. Nothing is
// written when the file can no longer be read.
func excerpt(w io.Writer, pos vm.Position) {
	data, err := os.ReadFile(pos.File)
	if err != nil {
		return
	}
	lines := strings.Split(string(data), "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		return
	}
	line := strings.TrimSuffix(lines[pos.Line], "\r")
	if pos.Line == 0 {
		line = strings.TrimPrefix(line, "\ufeff")
	}
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, caret(line, pos.Column))
}

// caret returns col spaces followed by one '^' per remaining character of
// line. col is a byte offset.
func caret(line string, col int) string {
	if col < 0 {
		col = 0
	}
	if col > len(line) {
		col = len(line)
	}
	return strings.Repeat(" ", col) + strings.Repeat("^", utf8.RuneCountInString(line[col:]))
}
