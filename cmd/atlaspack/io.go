package main

import (
	"fmt"
	"io"
)

// consoleIO is the single place command output flows through, so tests
// can capture it and the REPL can share command implementations with the
// one-shot subcommands.
type consoleIO struct {
	out    io.Writer
	errOut io.Writer
}

func newConsoleIO(out, errOut io.Writer) *consoleIO {
	return &consoleIO{out: out, errOut: errOut}
}

func (o *consoleIO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

func (o *consoleIO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

func (o *consoleIO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}
