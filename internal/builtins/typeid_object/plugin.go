// Package typeid_object registers the builtin opcode for the
// `object` type-id constant.
package typeid_object

import (
	"github.com/peteranastasiou/pond/internal/builtins/typeid"
	"github.com/peteranastasiou/pond/internal/bytecode"
	"github.com/peteranastasiou/pond/internal/vm"
)

func init() {
	bytecode.RegisterBuiltinInfo("TYPE_OBJECT", typeid.OpObject)
	vm.RegisterBuiltinFunc(typeid.OpObject, run)
}

func run(m *vm.VM) error {
	return m.PushTypeIDConstant("object")
}
