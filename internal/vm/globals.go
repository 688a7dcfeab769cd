package vm

// globalEntry pairs a global's current value with its const-ness.
type globalEntry struct {
	value   Value
	isConst bool
}

// globals is a hash map from intern-pointer String* to Value, per
// spec.md §3. Keying on the *StringObj pointer (rather than a plain Go
// string) means lookups are pointer comparisons once a name has been
// interned.
type globals struct {
	table map[*StringObj]globalEntry
}

func newGlobals() *globals {
	return &globals{table: make(map[*StringObj]globalEntry)}
}

// define binds name to value. Redeclaration of an existing global
// (var or const) is a runtime error: the forbid-by-default resolution
// of the open question in spec.md §9 (see DESIGN.md).
func (g *globals) define(name *StringObj, value Value, isConst bool) error {
	if _, exists := g.table[name]; exists {
		return errf("Redeclaration of variable '%s'", name.String())
	}
	g.table[name] = globalEntry{value: value, isConst: isConst}
	return nil
}

func (g *globals) get(name *StringObj) (Value, bool) {
	entry, ok := g.table[name]
	return entry.value, ok
}

// set updates an existing global. Fails if undefined or const.
func (g *globals) set(name *StringObj, value Value) error {
	entry, ok := g.table[name]
	if !ok {
		return errf("Undefined variable '%s'", name.String())
	}
	if entry.isConst {
		return errf("Cannot assign to const variable '%s'", name.String())
	}
	entry.value = value
	g.table[name] = entry
	return nil
}
