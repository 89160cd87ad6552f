// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import (
	"fmt"

	"pybc/exctable"
	"pybc/opcodes"
	"pybc/pyver"
)

// unit is the byte width of one instruction slot (opcode + one
// argument byte); CPython has used this "wordcode" layout since 3.6,
// so it is constant across the whole 3.8-3.12 range this library
// targets. Inline caches and EXTENDED_ARG prefixes are each one slot.
const unit = 2

// ConcreteBytecode is the concrete-layer representation of a code
// unit (component C): a flat ordered sequence of concrete
// instructions plus the pools and tables addressed by their integer
// arguments.
type ConcreteBytecode struct {
	Header
	CodeBytes      []byte
	Instrs         []ConcreteInstr
	Consts         []any
	Names          []string
	Varnames       []string
	ExceptionTable []exctable.Entry
	StackSize      int

	// LineTableBytes and ExceptionTableBytes hold the packed,
	// version-specific encodings produced by the assembler (or read
	// verbatim by the disassembler); ExceptionTable above is the
	// decoded, structured form of ExceptionTableBytes, filled in by
	// Assemble. No decoded form of the line table is kept here.
	LineTableBytes      []byte
	ExceptionTableBytes []byte
}

// jumpStep is the unit multiplier applied to a jump instruction's raw
// argument to obtain a byte delta/position (spec.md §6: "1 before
// 3.10, 2 from 3.10").
func jumpStep(v pyver.Version) int {
	if v.Less(pyver.V310) {
		return 1
	}
	return 2
}

// instrSize returns the byte size of an instruction with the given
// number of EXTENDED_ARG prefixes and inline cache slots.
func instrSize(extra, cacheSlots int) int {
	return unit*extra + unit + unit*cacheSlots
}

// extraBytesNeeded returns how many EXTENDED_ARG prefixes (0..3) are
// needed to represent rawArg.
func extraBytesNeeded(rawArg uint32) int {
	switch {
	case rawArg < 1<<8:
		return 0
	case rawArg < 1<<16:
		return 1
	case rawArg < 1<<24:
		return 2
	default:
		return 3
	}
}

// encodeInstrBytes appends the wire bytes for one concrete instruction
// (its EXTENDED_ARG prefixes, terminal opcode, and zeroed cache slots)
// to out.
func encodeInstrBytes(out []byte, table opcodes.OpcodeTable, in ConcreteInstr, extra, cacheSlots int) ([]byte, error) {
	meta, ok := table.Lookup(in.Op)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOpcode, in.Op)
	}
	raw := in.RawArg
	var bytesLE [4]byte
	bytesLE[0] = byte(raw)
	bytesLE[1] = byte(raw >> 8)
	bytesLE[2] = byte(raw >> 16)
	bytesLE[3] = byte(raw >> 24)
	extOp, ok := table.Lookup("EXTENDED_ARG")
	if !ok {
		return nil, fmt.Errorf("%w: EXTENDED_ARG", ErrUnknownOpcode)
	}
	for i := extra; i >= 1; i-- {
		out = append(out, extOp.Number, bytesLE[i])
	}
	out = append(out, meta.Number, bytesLE[0])
	for i := 0; i < cacheSlots; i++ {
		out = append(out, 0, 0)
	}
	return out, nil
}

// linetableUsesCodeUnits reports the offset domain the line-table
// codec expects for h.Version: bytes before 3.11, instruction-slot
// indices (code units) from 3.11 onward (spec.md §6, "code units").
func linetableUsesCodeUnits(v pyver.Version) bool {
	return !v.Less(pyver.V311)
}
