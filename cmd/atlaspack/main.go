// Command atlaspack exercises the atlas and raster packages from the
// command line: allocate rectangles in a scratch atlas, flatten a single
// Bezier curve, or drive both interactively through a REPL.
//
// Usage:
//
//	atlaspack alloc <w> <h> [-c config] [-n cols] [-a align] [--vertical] [-o out.svg]
//	atlaspack curve <x1> <y1> <x2> <y2> <x3> <y3> <x4> <y4> [-o out.svg]
//	atlaspack repl [-c config]
package main

import (
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	o := newConsoleIO(stdout, stderr)

	commands := []*command{
		newAllocCommand(),
		newCurveCommand(),
		newREPLCommand(),
	}

	if len(args) == 0 {
		printTopLevelHelp(o, commands)
		return 1
	}

	if args[0] == "-h" || args[0] == "--help" {
		printTopLevelHelp(o, commands)
		return 0
	}

	for _, c := range commands {
		if c.name() == args[0] {
			return c.run(o, args[1:])
		}
	}

	o.ErrPrintln("error: unknown command:", args[0])
	printTopLevelHelp(o, commands)
	return 1
}

func printTopLevelHelp(o *consoleIO, commands []*command) {
	o.Println("Usage: atlaspack <command> [flags]")
	o.Println()
	o.Println("Commands:")
	for _, c := range commands {
		o.Println(c.helpLine())
	}
}

func newREPLCommand() *command {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	cfgPath := fs.StringP("config", "c", "", "path to a JSONC config file")

	return &command{
		Flags: fs,
		Usage: "repl [-c config]",
		Short: "start an interactive session over a live atlas",
		Exec: func(o *consoleIO, _ []string) error {
			if err := runREPL(o, *cfgPath); err != nil {
				return fmt.Errorf("repl: %w", err)
			}
			return nil
		},
	}
}
