// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import (
	"errors"
	"fmt"

	"pybc/label"
	"pybc/opcodes"
)

// Sentinel errors, wrapped by the typed errors below via Unwrap.
var (
	ErrUnresolvedLabel  = errors.New("unresolved label")
	ErrJumpsUnstable     = errors.New("jump fix-point did not converge")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrInconsistentStack = errors.New("inconsistent stack depth across predecessors")
	ErrMalformedLineTable      = errors.New("malformed line table")
	ErrMalformedExceptionTable = errors.New("malformed exception table")
	ErrUnknownOpcode           = errors.New("unknown opcode")
	ErrDuplicateDocstring      = errors.New("docstring present in both header and constants")
	ErrDanglingTryEnd          = errors.New("TryEnd references a TryBegin not active on this path")
)

// InvalidArgumentKindError reports that an abstract instruction's
// argument does not match its opcode's category (invariant I1).
type InvalidArgumentKindError struct {
	Op     string
	Want   opcodes.ArgKind
	Got    opcodes.ArgKind
	Reason string
}

func (e *InvalidArgumentKindError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid argument for %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("invalid argument for %s: want %s, got %s", e.Op, e.Want, e.Got)
}

// InvalidInstructionUsageError reports a pseudo/instrumented opcode
// used where an abstract instruction was expected, or a ConcreteInstr
// used inside an abstract stream/CFG.
type InvalidInstructionUsageError struct {
	Op     string
	Reason string
}

func (e *InvalidInstructionUsageError) Error() string {
	return fmt.Sprintf("invalid use of %s: %s", e.Op, e.Reason)
}

// UnresolvedLabelError reports a jump whose target label never
// appears in the stream at assembly time.
type UnresolvedLabelError struct {
	Label label.Label
	Err   error
}

func (e *UnresolvedLabelError) Error() string {
	return fmt.Sprintf("unresolved label %s: %s", e.Label, e.Err)
}

func (e *UnresolvedLabelError) Unwrap() error { return e.Err }

// AssembleError wraps a sentinel with the assembler operation during
// which it occurred.
type AssembleError struct {
	Op  string
	Err error
}

func (e *AssembleError) Error() string {
	return fmt.Sprintf("assemble: %s: %s", e.Op, e.Err)
}

func (e *AssembleError) Unwrap() error { return e.Err }

// DisassembleError wraps a sentinel with the byte offset at which it
// occurred.
type DisassembleError struct {
	Offset int
	Err    error
}

func (e *DisassembleError) Error() string {
	return fmt.Sprintf("disassemble: offset %d: %s", e.Offset, e.Err)
}

func (e *DisassembleError) Unwrap() error { return e.Err }

// StackError wraps a sentinel with the block at which it occurred.
type StackError struct {
	Block BlockID
	PC    int
	Err   error
}

func (e *StackError) Error() string {
	return fmt.Sprintf("stack depth: block %s pc %d: %s", e.Block, e.PC, e.Err)
}

func (e *StackError) Unwrap() error { return e.Err }
