// Package typeid_string registers the builtin opcode for the
// `string` type-id constant.
package typeid_string

import (
	"github.com/peteranastasiou/pond/internal/builtins/typeid"
	"github.com/peteranastasiou/pond/internal/bytecode"
	"github.com/peteranastasiou/pond/internal/vm"
)

func init() {
	bytecode.RegisterBuiltinInfo("TYPE_STRING", typeid.OpString)
	vm.RegisterBuiltinFunc(typeid.OpString, run)
}

func run(m *vm.VM) error {
	return m.PushTypeIDConstant("string")
}
