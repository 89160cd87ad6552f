// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import (
	"pybc/label"
	"pybc/pyver"
)

// Header carries the fields shared by a code unit across all three
// layers (spec.md §3, "Code unit header").
type Header struct {
	ArgCount        int
	PosOnlyArgCount int
	KwOnlyArgCount  int
	Flags           uint32
	FirstLineno     int
	Filename        string
	Name            string
	Qualname        string
	ArgNames        []string
	Cellvars        []string
	Freevars        []string
	Docstring       *string
	Version         pyver.Version
}

// Elem is one element of an abstract instruction stream: an *Instr,
// a LabelMark, a SetLineno, a *TryBegin, or a *TryEnd.
type Elem interface {
	elem()
}

// LabelMark is the pseudo-instruction that materializes a Label's
// position in the stream (spec.md §4.2 step 5).
type LabelMark struct{ Label label.Label }

func (LabelMark) elem() {}

// SetLineno sets the line number of subsequent instructions until the
// next SetLineno or the end of the stream.
type SetLineno struct{ Line int }

func (SetLineno) elem() {}

// TryBegin marks the start of an exception-covered region.
type TryBegin struct {
	ID         label.TryID
	Target     Target
	PushLasti  bool
	StackDepth int
}

func (*TryBegin) elem() {}

// TryEnd references its matching TryBegin by identity.
type TryEnd struct {
	Begin label.TryID
}

func (*TryEnd) elem() {}

// Bytecode is the abstract-layer representation of a code unit
// (component D): an ordered stream of Elem plus the shared header.
type Bytecode struct {
	Header
	Elems []Elem
}

// NewBytecode returns an empty abstract stream with the given header.
func NewBytecode(h Header) *Bytecode {
	return &Bytecode{Header: h}
}

// Append adds one element to the end of the stream.
func (bc *Bytecode) Append(e Elem) {
	bc.Elems = append(bc.Elems, e)
}

// NewLabel mints a Label and appends its LabelMark, returning the
// Label so callers can use it as a jump target immediately.
func (bc *Bytecode) NewLabel() label.Label {
	l := label.New()
	bc.Append(LabelMark{Label: l})
	return l
}

// Instrs returns every *Instr in the stream, in order, skipping labels
// and pseudo-instructions.
func (bc *Bytecode) Instrs() []*Instr {
	var out []*Instr
	for _, e := range bc.Elems {
		if in, ok := e.(*Instr); ok {
			out = append(out, in)
		}
	}
	return out
}

// Labels returns the set of labels materialized in the stream.
func (bc *Bytecode) Labels() map[label.Label]int {
	out := make(map[label.Label]int)
	for i, e := range bc.Elems {
		if lm, ok := e.(LabelMark); ok {
			out[lm.Label] = i
		}
	}
	return out
}
