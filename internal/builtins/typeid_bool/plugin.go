// Package typeid_bool registers the builtin opcode for the `bool`
// type-id constant.
package typeid_bool

import (
	"github.com/peteranastasiou/pond/internal/builtins/typeid"
	"github.com/peteranastasiou/pond/internal/bytecode"
	"github.com/peteranastasiou/pond/internal/vm"
)

func init() {
	bytecode.RegisterBuiltinInfo("TYPE_BOOL", typeid.OpBool)
	vm.RegisterBuiltinFunc(typeid.OpBool, run)
}

func run(m *vm.VM) error {
	return m.PushTypeIDConstant("bool")
}
