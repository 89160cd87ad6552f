// Package snapshot CBOR-encodes a pybc.CodeObject verbatim for use as
// a golden test fixture (component Q): independent of, and never
// invoked by, the core disassemble/assemble conversions. A snapshot
// pairs naturally with a txtar archive holding the corresponding
// textual disassembly listing, so a failing test shows both a
// byte-exact diff and a human-readable one.
package snapshot

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"pybc/pyver"
)

// CodeObject mirrors pybc.CodeObject's field set. Snapshot takes the
// fields directly rather than importing pybc, so the package stays
// usable from the pybc package's own tests without a cycle.
type CodeObject struct {
	CodeBytes       []byte
	Consts          []any
	Names           []string
	Varnames        []string
	Cellvars        []string
	Freevars        []string
	Filename        string
	Name            string
	Qualname        string
	FirstLineno     int
	Flags           uint32
	ArgCount        int
	PosOnlyArgCount int
	KwOnlyArgCount  int
	LineTable       []byte
	ExceptionTable  []byte
	StackSize       int
	Version         pyver.Version
}

// Snapshot CBOR-encodes co.
func Snapshot(co CodeObject) ([]byte, error) {
	data, err := cbor.Marshal(co)
	if err != nil {
		return nil, fmt.Errorf("snapshot: marshal: %w", err)
	}
	return data, nil
}

// Restore decodes a snapshot produced by Snapshot.
func Restore(data []byte) (CodeObject, error) {
	var co CodeObject
	if err := cbor.Unmarshal(data, &co); err != nil {
		return CodeObject{}, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	return co, nil
}
