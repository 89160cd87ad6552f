// Package label mints the opaque, directly-comparable identities used
// as jump targets and try-region markers in an abstract instruction
// stream. Identities are never positions: moving or splicing
// instructions must not invalidate them.
package label

import "github.com/rs/xid"

// Label marks a position in an abstract instruction stream. Two labels
// are the same label iff they compare equal with ==; there is no other
// way to obtain a Label than New, so equality is identity.
type Label struct {
	id xid.ID
}

// New mints a fresh, globally unique Label. Generation uses xid's
// machine/process/counter scheme instead of a package-global atomic
// counter, so minting labels on code units owned by different
// goroutines never touches shared mutable state.
func New() Label {
	return Label{id: xid.New()}
}

// IsZero reports whether l is the zero Label (never produced by New,
// useful as a "no label" sentinel in optional fields).
func (l Label) IsZero() bool {
	return l.id.IsZero()
}

func (l Label) String() string {
	if l.IsZero() {
		return "<nil label>"
	}
	return "L" + l.id.String()
}

// TryID identifies a TryBegin/TryEnd pair. It shares Label's allocator
// since both are position-independent stream identities, but is a
// distinct type so a TryBegin cannot be mistaken for a jump target.
type TryID struct {
	id xid.ID
}

// NewTryID mints a fresh TryID.
func NewTryID() TryID {
	return TryID{id: xid.New()}
}

func (t TryID) IsZero() bool { return t.id.IsZero() }

func (t TryID) String() string {
	if t.IsZero() {
		return "<nil try>"
	}
	return "T" + t.id.String()
}
