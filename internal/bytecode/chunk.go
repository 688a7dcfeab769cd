package bytecode

import "fmt"

// maxLiterals is the literal pool capacity: indices are written as a
// single byte operand.
const maxLiterals = 256

// lineRun is a run-length encoded (line, count) pair.
type lineRun struct {
	line  int
	count int
}

// Prototype is the compile-time function literal placed in an
// enclosing chunk's literal pool. The VM wraps it in a runtime
// Function/Closure object when the CLOSURE instruction executes.
type Prototype struct {
	Name         string
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
}

// Chunk is a mutable bytecode buffer for a single function body: a
// byte-vector of instructions, a run-length line table, and a small
// literal pool indexed by one byte.
type Chunk struct {
	Code     []byte
	lines    []lineRun
	Literals []interface{}
}

// NewChunk creates an empty chunk.
func NewChunk() *Chunk {
	return &Chunk{
		Code:     make([]byte, 0, 64),
		Literals: make([]interface{}, 0, 8),
	}
}

// Write appends a byte at the given source line, extending the last
// run-length pair if the line matches or appending a new one.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	if n := len(c.lines); n > 0 && c.lines[n-1].line == line {
		c.lines[n-1].count++
		return
	}
	c.lines = append(c.lines, lineRun{line: line, count: 1})
}

// WriteOp writes an opcode byte at the given line.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// AddLiteral returns the index of an existing equal entry, or appends
// value and returns the new index. Equal values (in particular
// interned string names) share one slot.
func (c *Chunk) AddLiteral(value interface{}) (int, error) {
	for i, v := range c.Literals {
		if v == value {
			return i, nil
		}
	}
	if len(c.Literals) >= maxLiterals {
		return 0, fmt.Errorf("too many constants in one chunk")
	}
	c.Literals = append(c.Literals, value)
	return len(c.Literals) - 1, nil
}

// GetLiteral returns the literal at idx.
func (c *Chunk) GetLiteral(idx int) interface{} {
	return c.Literals[idx]
}

// GetLineNumber walks the run-length line table to find the source
// line that produced the instruction at byte offset.
func (c *Chunk) GetLineNumber(offset int) int {
	remaining := offset
	for _, run := range c.lines {
		if remaining < run.count {
			return run.line
		}
		remaining -= run.count
	}
	if len(c.lines) == 0 {
		return 0
	}
	return c.lines[len(c.lines)-1].line
}

// Len returns the number of bytes of code emitted so far.
func (c *Chunk) Len() int {
	return len(c.Code)
}
