package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/peteranastasiou/pond/internal/bytecode"
)

func TestInternDeduplicates(t *testing.T) {
	m := New(nil)
	a := m.Intern("shared")
	b := m.Intern("shared")
	if a != b {
		t.Fatalf("Intern returned distinct objects for the same bytes: %p vs %p", a, b)
	}
	c := m.Intern("different")
	if a == c {
		t.Fatal("Intern returned the same object for different bytes")
	}
}

func TestEqualAndTruthy(t *testing.T) {
	if !Equal(NilValue(), NilValue()) {
		t.Fatal("nil should equal nil")
	}
	if Equal(NumberValue(1), BoolValue(true)) {
		t.Fatal("values of different kinds must never be equal")
	}
	if Truthy(NilValue()) {
		t.Fatal("nil must be falsy")
	}
	if Truthy(BoolValue(false)) {
		t.Fatal("false must be falsy")
	}
	if !Truthy(NumberValue(0)) {
		t.Fatal("zero is truthy: only nil and false are falsy")
	}
}

func TestTypeNameTaxonomy(t *testing.T) {
	m := New(nil)
	cases := []struct {
		v    Value
		want string
	}{
		{NilValue(), "nil"},
		{BoolValue(true), "bool"},
		{NumberValue(1), "float"},
		{ObjectValue(m.Intern("s")), "string"},
	}
	for _, c := range cases {
		if got := TypeName(c.v); got != c.want {
			t.Errorf("TypeName(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

// runScript builds a VM around a hand-assembled top-level chunk and
// runs it, returning the result value, stdout contents, and error.
func runScript(t *testing.T, build func(c *bytecode.Chunk)) (Value, string, error) {
	t.Helper()
	chunk := bytecode.NewChunk()
	build(chunk)
	var stdout bytes.Buffer
	m := New(&stdout)
	fn := m.NewFunction("<script>", 0, 0, chunk)
	result, err := m.Run(fn)
	return result, stdout.String(), err
}

func TestRunLiteralAndPrint(t *testing.T) {
	_, out, err := runScript(t, func(c *bytecode.Chunk) {
		idx, _ := c.AddLiteral(3.5)
		c.WriteOp(bytecode.OP_LITERAL, 1)
		c.Write(byte(idx), 1)
		c.WriteOp(bytecode.OP_PRINT, 1)
		c.WriteOp(bytecode.OP_NIL, 1)
		c.WriteOp(bytecode.OP_RETURN, 1)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "3.5\n" {
		t.Fatalf("stdout = %q, want %q", out, "3.5\n")
	}
}

func TestRunAddCoercesStringConcat(t *testing.T) {
	_, out, err := runScript(t, func(c *bytecode.Chunk) {
		sIdx, _ := c.AddLiteral("ab")
		nIdx, _ := c.AddLiteral(float64(1))
		c.WriteOp(bytecode.OP_LITERAL, 1)
		c.Write(byte(sIdx), 1)
		c.WriteOp(bytecode.OP_LITERAL, 1)
		c.Write(byte(nIdx), 1)
		c.WriteOp(bytecode.OP_ADD, 1)
		c.WriteOp(bytecode.OP_PRINT, 1)
		c.WriteOp(bytecode.OP_NIL, 1)
		c.WriteOp(bytecode.OP_RETURN, 1)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != "ab1\n" {
		t.Fatalf("stdout = %q, want %q", out, "ab1\n")
	}
}

func TestRunIndexOutOfRangeIsRuntimeError(t *testing.T) {
	_, _, err := runScript(t, func(c *bytecode.Chunk) {
		for _, v := range []float64{1, 2} {
			idx, _ := c.AddLiteral(v)
			c.WriteOp(bytecode.OP_LITERAL, 1)
			c.Write(byte(idx), 1)
		}
		c.WriteOp(bytecode.OP_MAKE_LIST, 1)
		c.Write(2, 1)
		idx, _ := c.AddLiteral(float64(5))
		c.WriteOp(bytecode.OP_LITERAL, 1)
		c.Write(byte(idx), 1)
		c.WriteOp(bytecode.OP_INDEX_GET, 1)
		c.WriteOp(bytecode.OP_RETURN, 1)
	})
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	rerr, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("error type = %T, want *RuntimeError", err)
	}
	if !strings.Contains(rerr.Message, "Index out of range") {
		t.Fatalf("message = %q", rerr.Message)
	}
}

// TestRunCallArityMismatch builds a one-parameter function and calls
// it with zero arguments via hand-assembled CLOSURE/CALL instructions,
// exercising the full call convention without the compiler.
func TestRunCallArityMismatch(t *testing.T) {
	funcChunk := bytecode.NewChunk()
	funcChunk.WriteOp(bytecode.OP_GET_LOCAL, 1)
	funcChunk.Write(1, 1)
	funcChunk.WriteOp(bytecode.OP_RETURN, 1)
	proto := &bytecode.Prototype{Name: "f", Arity: 1, UpvalueCount: 0, Chunk: funcChunk}

	_, _, err := runScript(t, func(c *bytecode.Chunk) {
		idx, _ := c.AddLiteral(proto)
		c.WriteOp(bytecode.OP_CLOSURE, 1)
		c.Write(byte(idx), 1)
		c.Write(0, 1) // upvalue count
		c.WriteOp(bytecode.OP_CALL, 1)
		c.Write(0, 1) // argc: zero, but proto wants one
		c.WriteOp(bytecode.OP_NIL, 1)
		c.WriteOp(bytecode.OP_RETURN, 1)
	})
	if err == nil {
		t.Fatal("expected a runtime error")
	}
	if !strings.Contains(err.Error(), "Expected 1 arguments but got 0") {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestTeardownClearsInternTable(t *testing.T) {
	m := New(nil)
	first := m.Intern("x")
	m.Teardown()
	second := m.Intern("x")
	if first == second {
		t.Fatal("Teardown should release the previous intern table; expected a fresh object")
	}
}
