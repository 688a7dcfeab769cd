package bytecode

import (
	"fmt"
	"io"
	"strconv"
)

// Disassembler formats a chunk as a readable assembly-style dump,
// used only when a tracing flag is enabled (spec.md §4.5).
type Disassembler struct {
	w io.Writer
}

// NewDisassembler constructs a disassembler writing to w.
func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{w: w}
}

// Disassemble writes the chunk's name followed by one line per
// instruction: offset, source line (or "|" if unchanged), mnemonic,
// and formatted operands.
func (d *Disassembler) Disassemble(name string, chunk *Chunk) {
	fmt.Fprintf(d.w, "== %s ==\n", name)
	prevLine := -1
	for offset := 0; offset < len(chunk.Code); {
		offset, prevLine = d.instruction(chunk, offset, prevLine)
	}
}

func (d *Disassembler) instruction(chunk *Chunk, offset, prevLine int) (int, int) {
	line := chunk.GetLineNumber(offset)
	lineStr := "   |"
	if line != prevLine {
		lineStr = fmt.Sprintf("%4d", line)
		prevLine = line
	}
	op := OpCode(chunk.Code[offset])
	fmt.Fprintf(d.w, "%04d %s %-20s", offset, lineStr, op.Name())

	switch op {
	case OP_LITERAL, OP_DEFINE_GLOBAL_VAR, OP_DEFINE_GLOBAL_CONST,
		OP_GET_GLOBAL, OP_SET_GLOBAL:
		idx := chunk.Code[offset+1]
		fmt.Fprintf(d.w, "%4d '%v'\n", idx, chunk.GetLiteral(int(idx)))
		return offset + 2, prevLine
	case OP_GET_LOCAL, OP_SET_LOCAL, OP_GET_UPVALUE, OP_SET_UPVALUE,
		OP_CALL, OP_MAKE_LIST, OP_POP_N:
		fmt.Fprintf(d.w, "%4d\n", chunk.Code[offset+1])
		return offset + 2, prevLine
	case OP_JUMP, OP_LOOP, OP_JUMP_IF_TRUE, OP_JUMP_IF_FALSE,
		OP_JUMP_IF_TRUE_POP, OP_JUMP_IF_FALSE_POP:
		jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
		var target int
		if op == OP_LOOP {
			target = offset + 3 - jump
		} else {
			target = offset + 3 + jump
		}
		fmt.Fprintf(d.w, "%4d -> %d\n", jump, target)
		return offset + 3, prevLine
	case OP_CLOSURE:
		idx := chunk.Code[offset+1]
		upvalCount := chunk.Code[offset+2]
		fmt.Fprintf(d.w, "%4d\n", idx)
		next := offset + 3
		for i := byte(0); i < upvalCount; i++ {
			isLocal := chunk.Code[next]
			slot := chunk.Code[next+1]
			kind := "upvalue"
			if isLocal == 1 {
				kind = "local"
			}
			fmt.Fprintf(d.w, "%04d      |                     %s %d\n", next, kind, slot)
			next += 2
		}
		return next, prevLine
	default:
		fmt.Fprintln(d.w)
		return offset + 1, prevLine
	}
}

// DisassembleOffset renders a single offset as "<offset>: <mnemonic>"
// without walking the whole chunk; operands are not shown.
func DisassembleOffset(chunk *Chunk, offset int) string {
	return strconv.Itoa(offset) + ": " + OpCode(chunk.Code[offset]).Name()
}
