// Package bytecode defines pond's instruction set and compiled chunk
// representation.
package bytecode

// OpCode enumerates the bytecode operations emitted by the compiler.
type OpCode byte

const (
	OP_LITERAL OpCode = iota
	OP_NIL
	OP_TRUE
	OP_FALSE
	OP_POP
	OP_POP_N
	OP_DUP

	// Globals
	OP_DEFINE_GLOBAL_VAR
	OP_DEFINE_GLOBAL_CONST
	OP_GET_GLOBAL
	OP_SET_GLOBAL

	// Locals and upvalues
	OP_GET_LOCAL
	OP_SET_LOCAL
	OP_GET_UPVALUE
	OP_SET_UPVALUE

	// Comparison
	OP_EQUAL
	OP_NOT_EQUAL
	OP_GREATER
	OP_GREATER_EQUAL
	OP_LESS
	OP_LESS_EQUAL

	// Arithmetic
	OP_ADD
	OP_SUBTRACT
	OP_MULTIPLY
	OP_DIVIDE
	OP_NEGATE
	OP_NOT

	OP_PRINT

	// Control flow
	OP_JUMP
	OP_LOOP
	OP_JUMP_IF_TRUE
	OP_JUMP_IF_FALSE
	OP_JUMP_IF_TRUE_POP
	OP_JUMP_IF_FALSE_POP

	// Calls and closures
	OP_CALL
	OP_CLOSURE
	OP_RETURN

	// Collections
	OP_MAKE_LIST
	OP_INDEX_GET

	// Reflection
	OP_TYPE

	// builtin opcodes occupy 0x80-0x9F; see internal/builtins.
)

// Name returns a mnemonic for disassembly and trace output.
func (op OpCode) Name() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	if info, ok := LookupBuiltinInfo(byte(op)); ok {
		return info.Name
	}
	return "UNKNOWN"
}

var opNames = map[OpCode]string{
	OP_LITERAL:             "LITERAL",
	OP_NIL:                 "NIL",
	OP_TRUE:                "TRUE",
	OP_FALSE:               "FALSE",
	OP_POP:                 "POP",
	OP_POP_N:               "POP_N",
	OP_DUP:                 "DUP",
	OP_DEFINE_GLOBAL_VAR:   "DEFINE_GLOBAL_VAR",
	OP_DEFINE_GLOBAL_CONST: "DEFINE_GLOBAL_CONST",
	OP_GET_GLOBAL:          "GET_GLOBAL",
	OP_SET_GLOBAL:          "SET_GLOBAL",
	OP_GET_LOCAL:           "GET_LOCAL",
	OP_SET_LOCAL:           "SET_LOCAL",
	OP_GET_UPVALUE:         "GET_UPVALUE",
	OP_SET_UPVALUE:         "SET_UPVALUE",
	OP_EQUAL:               "EQUAL",
	OP_NOT_EQUAL:           "NOT_EQUAL",
	OP_GREATER:             "GREATER",
	OP_GREATER_EQUAL:       "GREATER_EQUAL",
	OP_LESS:                "LESS",
	OP_LESS_EQUAL:          "LESS_EQUAL",
	OP_ADD:                 "ADD",
	OP_SUBTRACT:            "SUBTRACT",
	OP_MULTIPLY:            "MULTIPLY",
	OP_DIVIDE:              "DIVIDE",
	OP_NEGATE:              "NEGATE",
	OP_NOT:                 "NOT",
	OP_PRINT:               "PRINT",
	OP_JUMP:                "JUMP",
	OP_LOOP:                "LOOP",
	OP_JUMP_IF_TRUE:        "JUMP_IF_TRUE",
	OP_JUMP_IF_FALSE:       "JUMP_IF_FALSE",
	OP_JUMP_IF_TRUE_POP:    "JUMP_IF_TRUE_POP",
	OP_JUMP_IF_FALSE_POP:   "JUMP_IF_FALSE_POP",
	OP_CALL:                "CALL",
	OP_CLOSURE:             "CLOSURE",
	OP_RETURN:              "RETURN",
	OP_MAKE_LIST:           "MAKE_LIST",
	OP_INDEX_GET:           "INDEX_GET",
	OP_TYPE:                "TYPE",
}
