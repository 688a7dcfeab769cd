package compiler

import "github.com/peteranastasiou/pond/internal/bytecode"

const maxLocals = 256

// maxUpvalues is the accepted count of captured variables per
// function: unlike locals, upvalues have no reserved slot 0, so this
// is the cutoff itself (255 accepted, the 256th rejected).
const maxUpvalues = 255

// envType distinguishes the synthetic top-level script from a real
// function body; both get their own Environment.
type envType int

const (
	TypeScript envType = iota
	TypeFunction
)

// local is a compile-time record for one stack slot.
type local struct {
	name      string
	depth     int
	isDefined bool
	isConst   bool
}

// upvalueRef is a compile-time record of a captured variable: either a
// direct reference into the immediately enclosing function's locals
// (isLocal) or a reference to one of that function's own upvalues.
type upvalueRef struct {
	index   int
	isLocal bool
	isConst bool
}

// Environment tracks locals, upvalues and scope depth for one function
// body under compilation. Environments nest via enclosing, mirroring
// the lexical nesting of fn declarations.
type Environment struct {
	enclosing  *Environment
	typ        envType
	chunk      *bytecode.Chunk
	name       string
	locals     []local
	scopeDepth int
	upvalues   []upvalueRef
}

// newEnvironment starts a fresh function body. Slot 0 is reserved for
// the callee (the closure itself), matching the CALL convention in
// spec.md §4.4.
func newEnvironment(enclosing *Environment, typ envType, name string) *Environment {
	env := &Environment{
		enclosing: enclosing,
		typ:       typ,
		chunk:     bytecode.NewChunk(),
		name:      name,
	}
	env.locals = append(env.locals, local{name: "", depth: 0, isDefined: true})
	return env
}

func (env *Environment) beginScope() {
	env.scopeDepth++
}

// endScope pops every local declared at the departing depth and
// returns how many were discarded, for the POP_N the caller emits.
func (env *Environment) endScope() int {
	env.scopeDepth--
	n := 0
	for len(env.locals) > 0 && env.locals[len(env.locals)-1].depth > env.scopeDepth {
		env.locals = env.locals[:len(env.locals)-1]
		n++
	}
	return n
}

// declareLocal reserves a slot for name at the current depth, not yet
// defined. Fails on a same-scope duplicate, or on exceeding capacity.
func (env *Environment) declareLocal(name string, isConst bool) (int, error) {
	if len(env.locals) >= maxLocals {
		return 0, errf("Too many local variables")
	}
	for i := len(env.locals) - 1; i >= 0; i-- {
		l := env.locals[i]
		if l.depth < env.scopeDepth {
			break
		}
		if l.name == name {
			return 0, errf("Already a variable called '%s' in this scope", name)
		}
	}
	env.locals = append(env.locals, local{name: name, depth: env.scopeDepth, isDefined: false, isConst: isConst})
	return len(env.locals) - 1, nil
}

func (env *Environment) defineLocal(slot int) {
	env.locals[slot].isDefined = true
}

// resolveLocal looks for name among this environment's own locals
// only (no recursion into enclosing environments).
func (env *Environment) resolveLocal(name string) (slot int, isConst bool, isDefined bool, ok bool) {
	for i := len(env.locals) - 1; i >= 0; i-- {
		if env.locals[i].name == name {
			return i, env.locals[i].isConst, env.locals[i].isDefined, true
		}
	}
	return 0, false, false, false
}

// addUpvalue records a capture, deduplicating by (index, isLocal).
func (env *Environment) addUpvalue(index int, isLocal, isConst bool) (int, error) {
	for i, uv := range env.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i, nil
		}
	}
	if len(env.upvalues) >= maxUpvalues {
		return 0, errf("Too many closure variables in function")
	}
	env.upvalues = append(env.upvalues, upvalueRef{index: index, isLocal: isLocal, isConst: isConst})
	return len(env.upvalues) - 1, nil
}

// resolveUpvalue recursively searches enclosing environments for name,
// threading an upvalue record through every intermediate environment
// so each frame only ever reaches one level outward at runtime.
func resolveUpvalue(env *Environment, name string) (index int, isConst bool, ok bool, err error) {
	if env.enclosing == nil {
		return 0, false, false, nil
	}
	if slot, isConst, isDefined, found := env.enclosing.resolveLocal(name); found {
		if !isDefined {
			return 0, false, false, errf("Local variable referenced before definition")
		}
		idx, err := env.addUpvalue(slot, true, isConst)
		return idx, isConst, true, err
	}
	idx, isConst, found, err := resolveUpvalue(env.enclosing, name)
	if err != nil {
		return 0, false, false, err
	}
	if !found {
		return 0, false, false, nil
	}
	newIdx, err := env.addUpvalue(idx, false, isConst)
	return newIdx, isConst, true, err
}
