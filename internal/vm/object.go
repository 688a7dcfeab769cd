package vm

import (
	"fmt"
	"strings"

	"github.com/peteranastasiou/pond/internal/bytecode"
)

// ObjKind tags the dynamic kind of a heap Object.
type ObjKind byte

const (
	ObjString ObjKind = iota
	ObjFunction
	ObjClosure
	ObjList
)

// Object is the common interface for every heap-allocated value.
// Every object is threaded into the VM's intrusive list via next/setNext
// for bulk teardown; there is no reachability tracing (spec non-goal).
type Object interface {
	Kind() ObjKind
	String() string
	next() Object
	setNext(Object)
}

// header is embedded by every Object implementation.
type header struct {
	nextObj Object
}

func (h *header) next() Object       { return h.nextObj }
func (h *header) setNext(o Object)   { h.nextObj = o }

// StringObj is an immutable, interned byte sequence.
type StringObj struct {
	header
	Bytes []byte
	Hash  uint32
}

func (s *StringObj) Kind() ObjKind  { return ObjString }
func (s *StringObj) String() string { return string(s.Bytes) }

// FunctionObj is an immutable compiled function, built by the VM from
// a compiler Prototype (a fresh one each time CLOSURE executes) and
// never mutated at runtime.
type FunctionObj struct {
	header
	Name         string
	Arity        int
	UpvalueCount int
	Chunk        *bytecode.Chunk
}

func (f *FunctionObj) Kind() ObjKind { return ObjFunction }
func (f *FunctionObj) String() string {
	if f.Name == "" {
		return "<fn (anon)>"
	}
	return fmt.Sprintf("<fn %s>", f.Name)
}

// ClosureObj pairs a compiled function with its captured upvalues.
type ClosureObj struct {
	header
	Function *FunctionObj
	Upvalues []*Upvalue
}

func (c *ClosureObj) Kind() ObjKind  { return ObjClosure }
func (c *ClosureObj) String() string { return c.Function.String() }

// ListObj is an ordered, indexable sequence of values.
type ListObj struct {
	header
	Items []Value
}

func (l *ListObj) Kind() ObjKind { return ObjList }
func (l *ListObj) String() string {
	parts := make([]string, len(l.Items))
	for i, item := range l.Items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// fnv32a hashes bytes for the intern table.
func fnv32a(b []byte) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	hash := uint32(offset32)
	for _, c := range b {
		hash ^= uint32(c)
		hash *= prime32
	}
	return hash
}
