// Package pond compiles and runs pond source: a small dynamically
// typed scripting language with first-class functions, closures, and
// mutable globals. It is the root facade over internal/compiler and
// internal/vm, in the manner of xirelogy-go-flux's api.go, scoped down
// to pond's non-goals (no FFI, no host-value marshaling).
package pond

import (
	"io"
	"os"

	_ "github.com/peteranastasiou/pond/internal/builtins"
	"github.com/peteranastasiou/pond/internal/compiler"
	"github.com/peteranastasiou/pond/internal/vm"
)

// Exit codes, per spec.md §6.
const (
	ExitOK           = 0
	ExitUsage        = 64
	ExitCompileError = 65
	ExitRuntimeError = 70
	ExitFileError    = 74
)

// RuntimeError is re-exported so callers never need to import
// internal/vm directly.
type RuntimeError = vm.RuntimeError

// FrameInfo describes the active call frame at a traced instruction.
type FrameInfo = vm.FrameInfo

// TraceHook is invoked once per dispatched instruction when tracing
// is enabled via Interpreter.SetTraceHook.
type TraceHook = vm.TraceHook

// CompileError reports every diagnostic raised while compiling.
type CompileError = compiler.CompileError

// Interpreter holds the VM state a script runs against: its globals,
// interned strings, and live object list persist across repeated
// Interpret calls, matching a REPL's session semantics.
type Interpreter struct {
	vm *vm.VM
}

// New creates an Interpreter whose PRINT statements write to stdout.
func New(stdout io.Writer) *Interpreter {
	return &Interpreter{vm: vm.New(stdout)}
}

// SetTraceHook installs a per-instruction trace callback, or clears it
// if hook is nil.
func (in *Interpreter) SetTraceHook(hook TraceHook) {
	in.vm.SetTraceHook(hook)
}

// Interpret compiles and runs source against this Interpreter's VM
// state. On a compile error it returns *CompileError (ExitCompileError);
// on a runtime error it returns *RuntimeError (ExitRuntimeError) and
// resets the VM's value/frame stacks so a REPL session can continue.
func (in *Interpreter) Interpret(source string) (vm.Value, error) {
	proto, err := compiler.Compile(source)
	if err != nil {
		return vm.NilValue(), err
	}
	fn := in.vm.NewFunction(proto.Name, proto.Arity, proto.UpvalueCount, proto.Chunk)
	result, err := in.vm.Run(fn)
	if err != nil {
		in.vm.ResetState()
		return vm.NilValue(), err
	}
	return result, nil
}

// ExitCode maps an error returned from Interpret (or nil) to the
// process exit code spec.md §6 specifies.
func ExitCode(err error) int {
	switch err.(type) {
	case nil:
		return ExitOK
	case *compiler.CompileError:
		return ExitCompileError
	case *vm.RuntimeError:
		return ExitRuntimeError
	default:
		return ExitRuntimeError
	}
}

// RunFile compiles and runs the script at path to completion, writing
// to stdout/stderr and returning the process exit code.
func RunFile(path string, stdout, stderr io.Writer, trace TraceHook) int {
	data, err := os.ReadFile(path)
	if err != nil {
		io.WriteString(stderr, "Could not open file \""+path+"\".\n")
		return ExitFileError
	}
	in := New(stdout)
	if trace != nil {
		in.SetTraceHook(trace)
	}
	_, err = in.Interpret(string(data))
	if err != nil {
		io.WriteString(stderr, err.Error()+"\n")
	}
	return ExitCode(err)
}
