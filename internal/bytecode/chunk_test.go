package bytecode

import "testing"

func TestAddLiteralRoundTrip(t *testing.T) {
	c := NewChunk()
	idx, err := c.AddLiteral("hello")
	if err != nil {
		t.Fatalf("AddLiteral: %v", err)
	}
	if got := c.GetLiteral(idx); got != "hello" {
		t.Fatalf("GetLiteral(%d) = %v, want %q", idx, got, "hello")
	}

	fidx, err := c.AddLiteral(3.5)
	if err != nil {
		t.Fatalf("AddLiteral: %v", err)
	}
	if got := c.GetLiteral(fidx); got != 3.5 {
		t.Fatalf("GetLiteral(%d) = %v, want 3.5", fidx, got)
	}
}

func TestAddLiteralDedups(t *testing.T) {
	c := NewChunk()
	a, err := c.AddLiteral("shared")
	if err != nil {
		t.Fatalf("AddLiteral: %v", err)
	}
	b, err := c.AddLiteral("shared")
	if err != nil {
		t.Fatalf("AddLiteral: %v", err)
	}
	if a != b {
		t.Fatalf("equal literals got distinct indices: %d vs %d", a, b)
	}
	if len(c.Literals) != 1 {
		t.Fatalf("expected one pooled literal, got %d", len(c.Literals))
	}
}

func TestAddLiteralCapacityBoundary(t *testing.T) {
	c := NewChunk()
	for i := 0; i < maxLiterals; i++ {
		if _, err := c.AddLiteral(float64(i)); err != nil {
			t.Fatalf("AddLiteral #%d: unexpected error: %v", i, err)
		}
	}
	if _, err := c.AddLiteral(float64(maxLiterals)); err == nil {
		t.Fatalf("AddLiteral #%d: expected capacity error, got none", maxLiterals)
	}
}

func TestGetLineNumberRunLength(t *testing.T) {
	c := NewChunk()
	c.Write(0x01, 1)
	c.Write(0x02, 1)
	c.Write(0x03, 2)
	c.Write(0x04, 2)
	c.Write(0x05, 2)
	c.Write(0x06, 5)

	want := []int{1, 1, 2, 2, 2, 5}
	for offset, line := range want {
		if got := c.GetLineNumber(offset); got != line {
			t.Errorf("GetLineNumber(%d) = %d, want %d", offset, got, line)
		}
	}
}

func TestGetLineNumberEmptyChunk(t *testing.T) {
	c := NewChunk()
	if got := c.GetLineNumber(0); got != 0 {
		t.Fatalf("GetLineNumber on empty chunk = %d, want 0", got)
	}
}

func TestLen(t *testing.T) {
	c := NewChunk()
	c.WriteOp(OP_NIL, 1)
	c.WriteOp(OP_RETURN, 1)
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
}
