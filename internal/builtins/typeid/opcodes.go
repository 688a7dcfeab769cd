// Package typeid defines the opcode bytes for pond's five built-in
// type-id constants (spec.md's "TYPE_*" family), shared by the
// compiler (which emits them) and each typeid_* plugin package
// (which registers a handler for one). Kept dependency-free so
// neither side needs to import the other's package.
package typeid

const (
	OpBool   byte = 0x80
	OpFloat  byte = 0x81
	OpObject byte = 0x82
	OpString byte = 0x83
	OpTypeid byte = 0x84
)
