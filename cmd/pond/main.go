// Command pond is the CLI entry point: run a script file, or drop
// into a REPL when no path is given, per spec.md §6.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/peteranastasiou/pond"
)

func main() {
	traceEnabled := flag.Bool("trace", false, "Print a disassembled trace of every executed instruction")
	flag.Parse()

	args := flag.Args()
	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, "Usage: pond [path]")
		os.Exit(pond.ExitUsage)
	}

	var trace pond.TraceHook
	if *traceEnabled {
		trace = newTraceHook(os.Stderr)
	}

	if len(args) == 1 {
		os.Exit(pond.RunFile(args[0], os.Stdout, os.Stderr, trace))
	}

	os.Exit(runREPL(os.Stdin, os.Stdout, os.Stderr, trace))
}

func newTraceHook(w io.Writer) pond.TraceHook {
	return func(op string, info pond.FrameInfo) {
		name := info.Function
		if name == "" {
			name = "<script>"
		}
		fmt.Fprintf(w, "%-16s line %-4d %s\n", name, info.Line, op)
	}
}

// runREPL reads one statement-or-expression per line and evaluates it
// against a persistent Interpreter, so variables and functions declared
// on one line are visible on the next. The "> " prompt is suppressed
// when stdin isn't an interactive terminal (piped input, test harness).
func runREPL(stdin io.Reader, stdout, stderr io.Writer, trace pond.TraceHook) int {
	interactive := false
	if f, ok := stdin.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	in := pond.New(stdout)
	if trace != nil {
		in.SetTraceHook(trace)
	}

	scanner := bufio.NewScanner(stdin)
	for {
		if interactive {
			fmt.Fprint(stdout, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		_, err := in.Interpret(line)
		if err != nil {
			fmt.Fprintln(stderr, err.Error())
		}
	}
	// EOF exits 0: a per-line error is reported but never affects the
	// REPL's own exit code. No interrupt handler is installed, so an
	// interrupt ends the process with Go's default signal handling.
	return pond.ExitOK
}
