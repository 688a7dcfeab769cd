package vm

import (
	"fmt"

	"github.com/peteranastasiou/pond/internal/bytecode"
)

// Run executes fn as the script body: a synthetic zero-arity closure
// at the bottom of a fresh call-frame stack. It returns the script's
// final result, or a *RuntimeError.
func (vm *VM) Run(fn *FunctionObj) (Value, error) {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvalues = vm.openUpvalues[:0]

	closure := &ClosureObj{Function: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
	vm.register(closure)
	if err := vm.push(ObjectValue(closure)); err != nil {
		return NilValue(), err
	}
	if err := vm.pushFrame(closure, 0); err != nil {
		return NilValue(), err
	}
	return vm.dispatch()
}

// ResetState clears transient execution state after a runtime error,
// per spec.md §7 ("resets the value and frame stacks").
func (vm *VM) ResetState() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvalues = vm.openUpvalues[:0]
}

func (vm *VM) readByte(fr *frame) byte {
	b := fr.chunk().Code[fr.ip]
	fr.ip++
	return b
}

func (vm *VM) readU16(fr *frame) int {
	code := fr.chunk().Code
	hi, lo := code[fr.ip], code[fr.ip+1]
	fr.ip += 2
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readLiteral(fr *frame) interface{} {
	idx := vm.readByte(fr)
	return fr.chunk().GetLiteral(int(idx))
}

// dispatch is the VM's instruction loop: read opcode, advance, execute.
func (vm *VM) dispatch() (Value, error) {
	for {
		fr := vm.currentFrame()
		if vm.traceHook != nil {
			op := bytecode.OpCode(fr.chunk().Code[fr.ip])
			vm.traceHook(op.Name(), FrameInfo{Function: fr.closure.Function.Name, Line: fr.currentLine()})
		}
		op := bytecode.OpCode(vm.readByte(fr))

		switch op {
		case bytecode.OP_LITERAL:
			v, err := vm.literalValue(vm.readLiteral(fr))
			if err != nil {
				return NilValue(), err
			}
			if err := vm.push(v); err != nil {
				return NilValue(), err
			}

		case bytecode.OP_NIL:
			if err := vm.push(NilValue()); err != nil {
				return NilValue(), err
			}
		case bytecode.OP_TRUE:
			if err := vm.push(BoolValue(true)); err != nil {
				return NilValue(), err
			}
		case bytecode.OP_FALSE:
			if err := vm.push(BoolValue(false)); err != nil {
				return NilValue(), err
			}
		case bytecode.OP_POP:
			vm.pop()
		case bytecode.OP_POP_N:
			n := vm.readByte(fr)
			vm.popN(int(n))
		case bytecode.OP_DUP:
			if err := vm.push(vm.peek(0)); err != nil {
				return NilValue(), err
			}

		case bytecode.OP_DEFINE_GLOBAL_VAR, bytecode.OP_DEFINE_GLOBAL_CONST:
			name, err := vm.literalStringName(fr)
			if err != nil {
				return NilValue(), err
			}
			val := vm.peek(0)
			if err := vm.globals.define(name, val, op == bytecode.OP_DEFINE_GLOBAL_CONST); err != nil {
				return NilValue(), vm.runtimeErrorFrom(err)
			}
			vm.pop()

		case bytecode.OP_GET_GLOBAL:
			name, err := vm.literalStringName(fr)
			if err != nil {
				return NilValue(), err
			}
			val, ok := vm.globals.get(name)
			if !ok {
				return NilValue(), vm.runtimeError("Undefined variable '%s'", name.String())
			}
			if err := vm.push(val); err != nil {
				return NilValue(), err
			}

		case bytecode.OP_SET_GLOBAL:
			name, err := vm.literalStringName(fr)
			if err != nil {
				return NilValue(), err
			}
			if err := vm.globals.set(name, vm.peek(0)); err != nil {
				return NilValue(), vm.runtimeErrorFrom(err)
			}

		case bytecode.OP_GET_LOCAL:
			slot := int(vm.readByte(fr))
			if err := vm.push(vm.stack[fr.slotBase+slot]); err != nil {
				return NilValue(), err
			}
		case bytecode.OP_SET_LOCAL:
			slot := int(vm.readByte(fr))
			vm.stack[fr.slotBase+slot] = vm.peek(0)

		case bytecode.OP_GET_UPVALUE:
			slot := int(vm.readByte(fr))
			if err := vm.push(fr.closure.Upvalues[slot].get()); err != nil {
				return NilValue(), err
			}
		case bytecode.OP_SET_UPVALUE:
			slot := int(vm.readByte(fr))
			fr.closure.Upvalues[slot].set(vm.peek(0))

		case bytecode.OP_EQUAL:
			b, a := vm.pop(), vm.pop()
			if err := vm.push(BoolValue(Equal(a, b))); err != nil {
				return NilValue(), err
			}
		case bytecode.OP_NOT_EQUAL:
			b, a := vm.pop(), vm.pop()
			if err := vm.push(BoolValue(!Equal(a, b))); err != nil {
				return NilValue(), err
			}
		case bytecode.OP_GREATER, bytecode.OP_GREATER_EQUAL, bytecode.OP_LESS, bytecode.OP_LESS_EQUAL,
			bytecode.OP_SUBTRACT, bytecode.OP_MULTIPLY, bytecode.OP_DIVIDE:
			b, a := vm.pop(), vm.pop()
			if a.Kind != KindNumber || b.Kind != KindNumber {
				return NilValue(), vm.runtimeError("Operands must be numbers")
			}
			if err := vm.push(numericOp(op, a.Num, b.Num)); err != nil {
				return NilValue(), err
			}

		case bytecode.OP_ADD:
			b, a := vm.pop(), vm.pop()
			v, err := vm.add(a, b)
			if err != nil {
				return NilValue(), err
			}
			if err := vm.push(v); err != nil {
				return NilValue(), err
			}

		case bytecode.OP_NEGATE:
			a := vm.pop()
			if a.Kind != KindNumber {
				return NilValue(), vm.runtimeError("Operand must be a number")
			}
			if err := vm.push(NumberValue(-a.Num)); err != nil {
				return NilValue(), err
			}
		case bytecode.OP_NOT:
			v := vm.pop()
			if err := vm.push(BoolValue(!Truthy(v))); err != nil {
				return NilValue(), err
			}

		case bytecode.OP_PRINT:
			v := vm.pop()
			fmt.Fprintln(vm.Stdout, v.String())

		case bytecode.OP_JUMP:
			off := vm.readU16(fr)
			fr.ip += off
		case bytecode.OP_LOOP:
			off := vm.readU16(fr)
			fr.ip -= off
		case bytecode.OP_JUMP_IF_TRUE:
			off := vm.readU16(fr)
			if Truthy(vm.peek(0)) {
				fr.ip += off
			}
		case bytecode.OP_JUMP_IF_FALSE:
			off := vm.readU16(fr)
			if !Truthy(vm.peek(0)) {
				fr.ip += off
			}
		case bytecode.OP_JUMP_IF_TRUE_POP:
			off := vm.readU16(fr)
			if Truthy(vm.pop()) {
				fr.ip += off
			}
		case bytecode.OP_JUMP_IF_FALSE_POP:
			off := vm.readU16(fr)
			if !Truthy(vm.pop()) {
				fr.ip += off
			}

		case bytecode.OP_CALL:
			argc := int(vm.readByte(fr))
			if err := vm.call(argc); err != nil {
				return NilValue(), err
			}

		case bytecode.OP_CLOSURE:
			if err := vm.makeClosure(fr); err != nil {
				return NilValue(), err
			}

		case bytecode.OP_RETURN:
			ret := vm.pop()
			result, done, err := vm.finishFrame(ret)
			if err != nil {
				return NilValue(), err
			}
			if done {
				return result, nil
			}

		case bytecode.OP_MAKE_LIST:
			n := int(vm.readByte(fr))
			items := make([]Value, n)
			for i := n - 1; i >= 0; i-- {
				items[i] = vm.pop()
			}
			list := &ListObj{Items: items}
			vm.register(list)
			if err := vm.push(ObjectValue(list)); err != nil {
				return NilValue(), err
			}

		case bytecode.OP_INDEX_GET:
			idx, target := vm.pop(), vm.pop()
			v, err := vm.indexGet(target, idx)
			if err != nil {
				return NilValue(), err
			}
			if err := vm.push(v); err != nil {
				return NilValue(), err
			}

		case bytecode.OP_TYPE:
			v := vm.pop()
			if err := vm.push(ObjectValue(vm.Intern(TypeName(v)))); err != nil {
				return NilValue(), err
			}

		default:
			fn, ok := builtinFuncs[byte(op)]
			if !ok {
				return NilValue(), vm.runtimeError("Unknown opcode %d", op)
			}
			if err := fn(vm); err != nil {
				return NilValue(), err
			}
		}
	}
}

func numericOp(op bytecode.OpCode, a, b float64) Value {
	switch op {
	case bytecode.OP_SUBTRACT:
		return NumberValue(a - b)
	case bytecode.OP_MULTIPLY:
		return NumberValue(a * b)
	case bytecode.OP_DIVIDE:
		return NumberValue(a / b)
	case bytecode.OP_GREATER:
		return BoolValue(a > b)
	case bytecode.OP_GREATER_EQUAL:
		return BoolValue(a >= b)
	case bytecode.OP_LESS:
		return BoolValue(a < b)
	case bytecode.OP_LESS_EQUAL:
		return BoolValue(a <= b)
	}
	panic("pond/vm: unreachable numericOp")
}

// add implements ADD's dual behaviour: numeric addition, or string
// concatenation when the left operand is a string (RHS coerced via
// String()). The concatenation result is interned.
func (vm *VM) add(a, b Value) (Value, error) {
	if a.Kind == KindNumber && b.Kind == KindNumber {
		return NumberValue(a.Num + b.Num), nil
	}
	if a.Kind == KindObject && a.Obj.Kind() == ObjString {
		return ObjectValue(vm.Intern(a.Obj.String() + b.String())), nil
	}
	return NilValue(), vm.runtimeError("Operands must be numbers, or left operand a string")
}

func (vm *VM) literalValue(lit interface{}) (Value, error) {
	switch v := lit.(type) {
	case nil:
		return NilValue(), nil
	case bool:
		return BoolValue(v), nil
	case float64:
		return NumberValue(v), nil
	case string:
		return ObjectValue(vm.Intern(v)), nil
	default:
		return NilValue(), vm.runtimeError("Invalid literal")
	}
}

func (vm *VM) literalStringName(fr *frame) (*StringObj, error) {
	lit := vm.readLiteral(fr)
	s, ok := lit.(string)
	if !ok {
		return nil, vm.runtimeError("Global name literal is not a string")
	}
	return vm.Intern(s), nil
}

func (vm *VM) runtimeErrorFrom(err error) error {
	line := 0
	if fr := vm.currentFrame(); fr != nil {
		line = fr.currentLine()
	}
	return &RuntimeError{Message: err.Error(), Line: line}
}

// call implements the CALL argc instruction: the callable sits at
// peek(argc).
func (vm *VM) call(argc int) error {
	callee := vm.peek(argc)
	if callee.Kind != KindObject || callee.Obj.Kind() != ObjClosure {
		return vm.runtimeError("Can only call callables")
	}
	closure := callee.Obj.(*ClosureObj)
	if closure.Function.Arity != argc {
		return vm.runtimeError("Expected %d arguments but got %d", closure.Function.Arity, argc)
	}
	slotBase := len(vm.stack) - argc - 1
	return vm.pushFrame(closure, slotBase)
}

// finishFrame pops the active call frame, closing any upvalues it
// exposed, and installs the return value. done is true once the
// bottom (script) frame has returned.
func (vm *VM) finishFrame(ret Value) (Value, bool, error) {
	fr := vm.currentFrame()
	vm.closeUpvaluesFrom(fr.slotBase)
	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.stack = vm.stack[:fr.slotBase]
	if len(vm.frames) == 0 {
		return ret, true, nil
	}
	if err := vm.push(ret); err != nil {
		return NilValue(), true, err
	}
	return ret, false, nil
}

// makeClosure reads the CLOSURE instruction: a literal index for the
// function prototype, followed by (isLocal, index) pairs describing
// how to bind each upvalue slot.
func (vm *VM) makeClosure(fr *frame) error {
	lit := vm.readLiteral(fr)
	proto, ok := lit.(*bytecode.Prototype)
	if !ok {
		return vm.runtimeError("Closure literal is not a function")
	}
	fn := vm.NewFunction(proto.Name, proto.Arity, proto.UpvalueCount, proto.Chunk)
	upvalCount := int(vm.readByte(fr))
	closure := &ClosureObj{Function: fn, Upvalues: make([]*Upvalue, upvalCount)}
	for i := 0; i < upvalCount; i++ {
		isLocal := vm.readByte(fr)
		idx := int(vm.readByte(fr))
		if isLocal == 1 {
			closure.Upvalues[i] = vm.captureUpvalue(&vm.stack[fr.slotBase+idx])
		} else {
			closure.Upvalues[i] = fr.closure.Upvalues[idx]
		}
	}
	vm.register(closure)
	return vm.push(ObjectValue(closure))
}

// captureUpvalue returns the existing open Upvalue aliasing slot, or
// creates one. Two closures capturing the same local must share the
// same Upvalue so writes through either are visible to both.
func (vm *VM) captureUpvalue(slot *Value) *Upvalue {
	for _, uv := range vm.openUpvalues {
		if uv.location == slot {
			return uv
		}
	}
	uv := newOpenUpvalue(slot)
	vm.openUpvalues = append(vm.openUpvalues, uv)
	return uv
}

// closeUpvaluesFrom snapshots every open upvalue whose slot lies at or
// above base (the departing frame's locals) and removes it from the
// open list.
func (vm *VM) closeUpvaluesFrom(base int) {
	if len(vm.openUpvalues) == 0 {
		return
	}
	kept := vm.openUpvalues[:0]
	for _, uv := range vm.openUpvalues {
		if slotIndex(vm.stack, uv.location) >= base {
			uv.close()
			continue
		}
		kept = append(kept, uv)
	}
	vm.openUpvalues = kept
}

func slotIndex(stack []Value, slot *Value) int {
	for i := range stack {
		if &stack[i] == slot {
			return i
		}
	}
	return -1
}

func (vm *VM) indexGet(target, index Value) (Value, error) {
	if target.Kind != KindObject || target.Obj.Kind() != ObjList {
		return NilValue(), vm.runtimeError("Can only index a list")
	}
	list := target.Obj.(*ListObj)
	if index.Kind != KindNumber {
		return NilValue(), vm.runtimeError("List index must be a number")
	}
	i := int(index.Num)
	if i < 0 || i >= len(list.Items) {
		return NilValue(), vm.runtimeError("Index out of range")
	}
	return list.Items[i], nil
}
