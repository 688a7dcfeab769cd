// Package typeid_typeid registers the builtin opcode for the
// `typeid` type-id constant (the type of a type-id value itself).
package typeid_typeid

import (
	"github.com/peteranastasiou/pond/internal/builtins/typeid"
	"github.com/peteranastasiou/pond/internal/bytecode"
	"github.com/peteranastasiou/pond/internal/vm"
)

func init() {
	bytecode.RegisterBuiltinInfo("TYPE_TYPEID", typeid.OpTypeid)
	vm.RegisterBuiltinFunc(typeid.OpTypeid, run)
}

func run(m *vm.VM) error {
	return m.PushTypeIDConstant("typeid")
}
