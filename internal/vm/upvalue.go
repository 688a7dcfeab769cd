package vm

// Upvalue is either open (aliasing a live stack slot) or closed (owning
// a snapshotted value after the defining scope has ended). Multiple
// closures capturing the same local share one open Upvalue so writes
// through any of them are observed by all, until the local's frame
// returns and the upvalue is closed.
type Upvalue struct {
	location *Value
	closed   Value
}

func newOpenUpvalue(slot *Value) *Upvalue {
	return &Upvalue{location: slot}
}

func (u *Upvalue) get() Value {
	if u.location != nil {
		return *u.location
	}
	return u.closed
}

func (u *Upvalue) set(v Value) {
	if u.location != nil {
		*u.location = v
		return
	}
	u.closed = v
}

// close snapshots the live value and severs the alias to the stack.
func (u *Upvalue) close() {
	if u.location != nil {
		u.closed = *u.location
		u.location = nil
	}
}
