package vm

// BuiltinFunc implements a builtin opcode (0x80-0x9F). It sees the
// live VM, pops its own operands, and pushes exactly one result, per
// spec.md's builtin-opcode plugin architecture (grounded on
// xirelogy-go-flux's internal/builtins plugin pattern).
type BuiltinFunc func(vm *VM) error

var builtinFuncs = map[byte]BuiltinFunc{}

// RegisterBuiltinFunc installs the executable handler for a builtin
// opcode already named via bytecode.RegisterBuiltinInfo. Called from
// internal/builtins plugin init()s, so registration happens once at
// program startup regardless of how many VMs run.
func RegisterBuiltinFunc(opcode byte, fn BuiltinFunc) {
	builtinFuncs[opcode] = fn
}

// Push and Pop let a BuiltinFunc manipulate the operand stack without
// reaching into VM internals; they're the only stack access the
// internal/builtins plugin packages get.
func (vm *VM) Push(v Value) error { return vm.push(v) }
func (vm *VM) Pop() Value         { return vm.pop() }

// PushTypeIDConstant interns name and pushes it as the value of one
// of the five TYPE_* builtin opcodes (spec.md's type-id constants).
func (vm *VM) PushTypeIDConstant(name string) error {
	return vm.push(ObjectValue(vm.Intern(name)))
}
