package compiler

import (
	"strings"
	"testing"
)

func TestCompileArithmeticPrecedence(t *testing.T) {
	proto, err := Compile("print(1+2*3);")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if proto.Arity != 0 {
		t.Fatalf("Arity = %d, want 0", proto.Arity)
	}
	if proto.Chunk.Len() == 0 {
		t.Fatal("expected emitted bytecode, got an empty chunk")
	}
}

func TestCompileErrorReporting(t *testing.T) {
	_, err := Compile("var a = ;")
	if err == nil {
		t.Fatal("expected a compile error")
	}
	cerr, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("error type = %T, want *CompileError", err)
	}
	if len(cerr.Messages) == 0 {
		t.Fatal("expected at least one diagnostic message")
	}
	if !strings.Contains(cerr.Error(), "Expected expression") {
		t.Fatalf("Error() = %q, want it to mention the missing expression", cerr.Error())
	}
}

// TestLocalSelfReferenceBeforeDefinition covers spec.md's S6 scenario:
// a local's own initializer cannot see the not-yet-defined slot it is
// declaring.
func TestLocalSelfReferenceBeforeDefinition(t *testing.T) {
	_, err := Compile("{ var a = a; }")
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if !strings.Contains(err.Error(), "Local variable referenced before definition") {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestReturnOutsideFunctionIsCompileError(t *testing.T) {
	_, err := Compile("return 1;")
	if err == nil {
		t.Fatal("expected a compile error")
	}
	if !strings.Contains(err.Error(), "Cannot return from top-level script") {
		t.Fatalf("Error() = %q", err.Error())
	}
}

// TestLocalsCapacityBoundary exercises the 255/256 local-variable
// boundary directly on Environment, since generating 256 distinct
// local declarations as source text would obscure the property under
// test.
func TestLocalsCapacityBoundary(t *testing.T) {
	env := newEnvironment(nil, TypeFunction, "f")
	// Slot 0 is already reserved for the callee by newEnvironment, so
	// maxLocals-1 further declarations exactly fill the table.
	for i := 0; i < maxLocals-1; i++ {
		if _, err := env.declareLocal(localName(i), false); err != nil {
			t.Fatalf("declareLocal #%d: unexpected error: %v", i, err)
		}
	}
	if _, err := env.declareLocal("one_too_many", false); err == nil {
		t.Fatal("expected 'Too many local variables' error, got none")
	} else if !strings.Contains(err.Error(), "Too many local variables") {
		t.Fatalf("error = %q", err.Error())
	}
}

// TestUpvaluesCapacityBoundary exercises spec.md §8's stated boundary
// directly: 255 upvalues are accepted, the 256th is rejected.
func TestUpvaluesCapacityBoundary(t *testing.T) {
	env := newEnvironment(nil, TypeFunction, "f")
	for i := 0; i < 255; i++ {
		if _, err := env.addUpvalue(i, true, false); err != nil {
			t.Fatalf("addUpvalue #%d: unexpected error: %v", i, err)
		}
	}
	if _, err := env.addUpvalue(255, true, false); err == nil {
		t.Fatal("expected 'Too many closure variables' error, got none")
	} else if !strings.Contains(err.Error(), "Too many closure variables") {
		t.Fatalf("error = %q", err.Error())
	}
}

func TestAddUpvalueDedupesSameSlot(t *testing.T) {
	env := newEnvironment(nil, TypeFunction, "f")
	a, err := env.addUpvalue(3, true, false)
	if err != nil {
		t.Fatalf("addUpvalue: %v", err)
	}
	b, err := env.addUpvalue(3, true, false)
	if err != nil {
		t.Fatalf("addUpvalue: %v", err)
	}
	if a != b {
		t.Fatalf("capturing the same local twice produced distinct upvalue slots: %d vs %d", a, b)
	}
}

// TestJumpWidthBoundary exercises patchJump's 0xFFFF/0x10000 cutoff
// directly: a jump spanning exactly 0xFFFF bytes patches cleanly, one
// byte further raises a compile error.
func TestJumpWidthBoundary(t *testing.T) {
	c := &Compiler{}
	c.env = newEnvironment(nil, TypeScript, "<script>")

	offset := c.emitJump(0) // opcode value is irrelevant to patching
	for c.env.chunk.Len()-(offset+2) < 0xFFFF {
		c.emitByte(0x00)
	}
	c.patchJump(offset)
	if c.hadError {
		t.Fatalf("unexpected error patching an exactly-0xFFFF jump: %v", c.messages)
	}

	offset2 := c.emitJump(0)
	for c.env.chunk.Len()-(offset2+2) < 0x10000 {
		c.emitByte(0x00)
	}
	c.patchJump(offset2)
	if !c.hadError {
		t.Fatal("expected an error patching a jump wider than 0xFFFF, got none")
	}
}

func localName(i int) string {
	// Distinct, deterministic names; value doesn't matter to the test.
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%len(letters)]) + string(letters[(i/len(letters))%len(letters)]) + itoa(i)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
