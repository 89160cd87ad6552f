// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

// inferableFlagMask is the set of bits ApplyInferredFlags owns; every
// other bit (VARARGS, VARKEYWORDS, NESTED, ...) is caller-supplied and
// left untouched, since the instruction stream alone carries no
// evidence for them.
const inferableFlagMask = FlagOptimized | FlagGenerator | FlagNoFree | FlagCoroutine | FlagAsyncGenerator

// InferFlags computes the subset of compiler flags derivable purely
// from an abstract instruction stream and an optional is_async hint
// (component J, spec.md §4.6): OPTIMIZED (uses fast locals or
// cell/free variables), NOFREE (no cell/free variables at all), and
// the GENERATOR/COROUTINE/ASYNC_GENERATOR split based on whether
// YIELD_VALUE and GET_AWAITABLE appear in the body.
//
// isAsync is a tri-state: nil infers the split from the body alone;
// a true pointee forces coroutine/async-generator classification even
// when the body never awaits (an async def with no await/yield is
// still a coroutine); a false pointee forbids it, so a lone
// GET_AWAITABLE is not enough to make the unit a coroutine.
func InferFlags(bc *Bytecode, isAsync *bool) uint32 {
	var hasYield, hasAwait bool
	for _, in := range bc.Instrs() {
		switch in.Op {
		case "YIELD_VALUE":
			hasYield = true
		case "GET_AWAITABLE":
			hasAwait = true
		}
	}

	var flags uint32
	if usesFastScope(bc) {
		flags |= FlagOptimized
	}
	if len(bc.Cellvars) == 0 && len(bc.Freevars) == 0 {
		flags |= FlagNoFree
	}

	switch {
	case isAsync != nil && *isAsync:
		if hasYield {
			flags |= FlagAsyncGenerator
		} else {
			flags |= FlagCoroutine
		}
	case isAsync != nil && !*isAsync:
		if hasYield {
			flags |= FlagGenerator
		}
	case hasYield && hasAwait:
		flags |= FlagAsyncGenerator
	case hasAwait:
		flags |= FlagCoroutine
	case hasYield:
		flags |= FlagGenerator
	}
	return flags
}

func usesFastScope(bc *Bytecode) bool {
	if bc.ArgCount > 0 || bc.PosOnlyArgCount > 0 || bc.KwOnlyArgCount > 0 {
		return true
	}
	if len(bc.Cellvars) > 0 || len(bc.Freevars) > 0 {
		return true
	}
	for _, in := range bc.Instrs() {
		switch in.Arg.(type) {
		case LocalArgument, CellArgument, FreeArgument:
			return true
		}
	}
	return false
}

// ApplyInferredFlags ORs InferFlags's result into bc.Header.Flags
// after clearing the bits it owns, preserving every flag the caller
// set directly.
func ApplyInferredFlags(bc *Bytecode, isAsync *bool) {
	bc.Header.Flags = (bc.Header.Flags &^ inferableFlagMask) | InferFlags(bc, isAsync)
}
