// Package vm implements pond's value model, heap object registry, and
// the stack-based bytecode interpreter.
package vm

import (
	"io"

	"github.com/peteranastasiou/pond/internal/bytecode"
)

const (
	defaultMaxFrames = 64
	framesStackSlots = 256 // per spec.md §4.4: value stack is "fixed capacity, e.g. 256·frames"
)

// frame is a single call-stack record: the active closure, the
// instruction pointer into its chunk, and the base slot on the value
// stack (slot 0 is the callee, slot k is argument k).
type frame struct {
	closure  *ClosureObj
	ip       int
	slotBase int
}

func (fr *frame) chunk() *bytecode.Chunk {
	return fr.closure.Function.Chunk
}

func (fr *frame) currentLine() int {
	ip := fr.ip - 1
	if ip < 0 {
		ip = 0
	}
	return fr.chunk().GetLineNumber(ip)
}

// VM interprets a compiled top-level function's chunk. It owns the
// value stack, the call-frame stack, the globals table, the string
// intern table, and the object list head for bulk teardown at
// shutdown (spec.md §5 — no runtime reclamation during execution).
type VM struct {
	stack        []Value
	frames       []frame
	globals      *globals
	interned     map[string]*StringObj
	objects      Object
	openUpvalues []*Upvalue
	maxStack     int
	maxFrames    int
	traceHook    TraceHook

	Stdout io.Writer
}

// New constructs a VM whose PRINT output is written to stdout.
func New(stdout io.Writer) *VM {
	if stdout == nil {
		stdout = io.Discard
	}
	maxStack := defaultMaxFrames * framesStackSlots
	return &VM{
		globals:   newGlobals(),
		interned:  make(map[string]*StringObj),
		maxFrames: defaultMaxFrames,
		maxStack:  maxStack,
		// Preallocated at fixed capacity: locals and upvalues hold
		// pointers into this backing array, which must never move.
		stack:  make([]Value, 0, maxStack),
		frames: make([]frame, 0, defaultMaxFrames),
		Stdout: stdout,
	}
}

// SetTraceHook registers a callback invoked before every instruction
// dispatch; used only when the CLI's -trace flag is set.
func (vm *VM) SetTraceHook(h TraceHook) {
	vm.traceHook = h
}

// register threads a newly allocated object into the intrusive object
// list so it is torn down exactly once at shutdown.
func (vm *VM) register(o Object) {
	o.setNext(vm.objects)
	vm.objects = o
}

// Intern returns the canonical *StringObj for bytes, allocating and
// registering a new one only if this exact byte sequence has not been
// seen before. This is the sole guarantor of the interning invariant:
// byte-equal strings are reference-equal.
func (vm *VM) Intern(s string) *StringObj {
	if existing, ok := vm.interned[s]; ok {
		return existing
	}
	obj := &StringObj{Bytes: []byte(s), Hash: fnv32a([]byte(s))}
	vm.interned[s] = obj
	vm.register(obj)
	return obj
}

// NewFunction allocates and registers a Function object from a
// compiled prototype's parts; the facade calls it for the top-level
// script and CLOSURE for every nested function. Functions are
// immutable once built.
func (vm *VM) NewFunction(name string, arity, upvalueCount int, chunk *bytecode.Chunk) *FunctionObj {
	fn := &FunctionObj{Name: name, Arity: arity, UpvalueCount: upvalueCount, Chunk: chunk}
	vm.register(fn)
	return fn
}

// Teardown destroys every object on the intrusive list. There is no
// reachability tracing (spec non-goal); this is bulk cleanup only.
func (vm *VM) Teardown() {
	vm.objects = nil
	vm.interned = make(map[string]*StringObj)
}

func (vm *VM) currentFrame() *frame {
	if len(vm.frames) == 0 {
		return nil
	}
	return &vm.frames[len(vm.frames)-1]
}

func (vm *VM) push(v Value) error {
	if len(vm.stack) >= vm.maxStack {
		return vm.runtimeError("Stack overflow")
	}
	vm.stack = append(vm.stack, v)
	return nil
}

// pop removes and returns the top of the value stack. Stack underflow
// is an implementation invariant violation, unreachable from any
// well-formed bytecode (spec.md §5); it is asserted, not handled.
func (vm *VM) pop() Value {
	n := len(vm.stack)
	if n == 0 {
		panic("pond/vm: value stack underflow")
	}
	v := vm.stack[n-1]
	vm.stack = vm.stack[:n-1]
	return v
}

func (vm *VM) popN(n int) {
	if len(vm.stack) < n {
		panic("pond/vm: value stack underflow")
	}
	vm.stack = vm.stack[:len(vm.stack)-n]
}

func (vm *VM) peek(distance int) Value {
	idx := len(vm.stack) - 1 - distance
	if idx < 0 {
		panic("pond/vm: value stack underflow")
	}
	return vm.stack[idx]
}

// pushFrame starts a new call frame for fn with its arguments already
// sitting on the value stack (slotBase points at the callee slot).
func (vm *VM) pushFrame(closure *ClosureObj, slotBase int) error {
	if len(vm.frames) >= vm.maxFrames {
		return vm.runtimeError("Call frame overflow")
	}
	vm.frames = append(vm.frames, frame{closure: closure, slotBase: slotBase})
	return nil
}
