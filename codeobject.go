// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

import "pybc/pyver"

// CodeObject is the concrete realization of "compiled code object"
// (spec.md §6): an inert data record. Nothing in this library
// executes CodeBytes; UnpackConcrete only decodes them.
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

// HostCode is an opaque value returned by a CodeObjectFactory; this
// library never inspects it.
type HostCode any

// CodeObjectFactory stands in for "the compiled code-object
// constructor" external collaborator (spec.md §1): turning a
// CodeObject into something an embedding interpreter can execute.
type CodeObjectFactory interface {
	New(CodeObject) (HostCode, error)
}

// NopFactory is the CodeObjectFactory for callers who only want the
// CodeObject value itself, the common case when this library is used
// standalone rather than embedded in a real interpreter.
type NopFactory struct{}

// New returns co unchanged as the HostCode value.
func (NopFactory) New(co CodeObject) (HostCode, error) {
	return co, nil
}

// Compiler flag bits inferred/consumed by the flag inferer (component J).
const (
	FlagOptimized     uint32 = 1 << 0
	FlagNewLocals     uint32 = 1 << 1
	FlagVarargs       uint32 = 1 << 2
	FlagVarKeywords   uint32 = 1 << 3
	FlagNested        uint32 = 1 << 4
	FlagGenerator     uint32 = 1 << 5
	FlagNoFree        uint32 = 1 << 6
	FlagCoroutine     uint32 = 1 << 7
	FlagIterCoroutine uint32 = 1 << 8
	FlagAsyncGenerator uint32 = 1 << 9
)
