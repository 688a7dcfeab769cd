// Package typeid_float registers the builtin opcode for the `float`
// type-id constant.
package typeid_float

import (
	"github.com/peteranastasiou/pond/internal/builtins/typeid"
	"github.com/peteranastasiou/pond/internal/bytecode"
	"github.com/peteranastasiou/pond/internal/vm"
)

func init() {
	bytecode.RegisterBuiltinInfo("TYPE_FLOAT", typeid.OpFloat)
	vm.RegisterBuiltinFunc(typeid.OpFloat, run)
}

func run(m *vm.VM) error {
	return m.PushTypeIDConstant("float")
}
