package bytecode

import "fmt"

// BuiltinInfo describes a registered builtin opcode occupying the
// 0x80-0x9F range reserved for reflection and similar extension ops.
type BuiltinInfo struct {
	Name   string
	Opcode byte
}

var builtinInfo = map[byte]BuiltinInfo{}

// RegisterBuiltinInfo records a builtin opcode's mnemonic for
// disassembly and trace output. Panics on duplicate registration,
// since two builtins sharing an opcode is a programming error.
func RegisterBuiltinInfo(name string, opcode byte) {
	if opcode < 0x80 || opcode > 0x9F {
		panic(fmt.Sprintf("builtin opcode 0x%02X outside reserved range", opcode))
	}
	if _, exists := builtinInfo[opcode]; exists {
		panic(fmt.Sprintf("builtin opcode 0x%02X already registered", opcode))
	}
	builtinInfo[opcode] = BuiltinInfo{Name: name, Opcode: opcode}
}

// LookupBuiltinInfo returns builtin metadata if registered.
func LookupBuiltinInfo(opcode byte) (BuiltinInfo, bool) {
	info, ok := builtinInfo[opcode]
	return info, ok
}
