package vm

import (
	"fmt"
	"io"

	"github.com/peteranastasiou/pond/internal/bytecode"
)

// NewTraceHook builds a TraceHook that prints one
// "<function> line <n> <mnemonic>" line per dispatched instruction to
// w. cmd/pond's -trace flag uses its own hook of the same format
// rather than this one.
func NewTraceHook(w io.Writer) TraceHook {
	return func(op string, info FrameInfo) {
		name := info.Function
		if name == "" {
			name = "<script>"
		}
		fmt.Fprintf(w, "%-16s line %-4d %s\n", name, info.Line, op)
	}
}

// DisassembleFunction writes a full listing of fn's chunk, recursing
// into any nested function prototypes held in its literal pool.
func DisassembleFunction(w io.Writer, fn *FunctionObj) {
	d := bytecode.NewDisassembler(w)
	disassembleChunk(d, fn.Name, fn.Chunk)
}

func disassembleChunk(d *bytecode.Disassembler, name string, chunk *bytecode.Chunk) {
	d.Disassemble(name, chunk)
	for _, lit := range chunk.Literals {
		if proto, ok := lit.(*bytecode.Prototype); ok {
			disassembleChunk(d, proto.Name, proto.Chunk)
		}
	}
}
