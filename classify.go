// Copyright (c) 2024 The pybc Authors.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package pybc

// finalOpcodes are mnemonics that never fall through: return, raise,
// unconditional jump, re-raise (spec.md glossary, "Final instruction").
var finalOpcodes = map[string]bool{
	"RETURN_VALUE":      true,
	"RETURN_CONST":      true,
	"RERAISE":           true,
	"RAISE_VARARGS":     true,
	"JUMP_FORWARD":      true,
	"JUMP_BACKWARD":     true,
	"JUMP_ABSOLUTE":     true,
	"INTERPRETER_EXIT":  true,
}

// IsFinal reports whether an instruction with this mnemonic never
// allows fallthrough.
func IsFinal(op string) bool { return finalOpcodes[op] }

// conditionalJumpOpcodes are mnemonics that may either fall through or
// jump, depending on a runtime condition; their stack effect on the
// taken branch is looked up with jump=true.
var conditionalJumpOpcodes = map[string]bool{
	"POP_JUMP_IF_FALSE":         true,
	"POP_JUMP_IF_TRUE":          true,
	"POP_JUMP_FORWARD_IF_FALSE": true,
	"POP_JUMP_FORWARD_IF_TRUE":  true,
	"POP_JUMP_IF_NONE":          true,
	"POP_JUMP_IF_NOT_NONE":      true,
	"JUMP_IF_TRUE_OR_POP":       true,
	"JUMP_IF_FALSE_OR_POP":      true,
	"JUMP_IF_NOT_EXC_MATCH":     true,
	"FOR_ITER":                  true,
	"SEND":                      true,
}

// IsConditionalJump reports whether an instruction with this mnemonic
// both may jump and may fall through.
func IsConditionalJump(op string) bool { return conditionalJumpOpcodes[op] }
