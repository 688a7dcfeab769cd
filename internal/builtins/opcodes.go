// Package builtins is pond's reflection-plugin registry. Each
// subpackage registers one builtin opcode in the 0x80-0x9F range
// reserved by spec.md's instruction set, grounded on
// xirelogy-go-flux's internal/builtins plugin architecture: a
// subpackage's init() calls bytecode.RegisterBuiltinInfo (naming, for
// disassembly) and vm.RegisterBuiltinFunc (the executable handler).
// Blank-importing this package (as the root facade does) triggers
// every plugin's registration exactly once.
package builtins

import (
	_ "github.com/peteranastasiou/pond/internal/builtins/typeid_bool"
	_ "github.com/peteranastasiou/pond/internal/builtins/typeid_float"
	_ "github.com/peteranastasiou/pond/internal/builtins/typeid_object"
	_ "github.com/peteranastasiou/pond/internal/builtins/typeid_string"
	_ "github.com/peteranastasiou/pond/internal/builtins/typeid_typeid"
)
