package pybc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pybc/label"
	"pybc/linetable"
	"pybc/opcodes"
	"pybc/pyver"

	. "pybc"
)

func appendInstr(t *testing.T, bc *Bytecode, tbl opcodes.OpcodeTable, op string, arg Argument) {
	t.Helper()
	in, err := NewInstr(tbl, op, arg, linetable.Absent)
	require.NoError(t, err)
	bc.Append(in)
}

func appendJump(t *testing.T, bc *Bytecode, tbl opcodes.OpcodeTable, op string, target label.Label) {
	t.Helper()
	meta, ok := tbl.Lookup(op)
	require.True(t, ok)
	in, err := NewInstr(tbl, op, JumpArgument{Kind: meta.Arg, Target: LabelTarget{Label: target}}, linetable.Absent)
	require.NoError(t, err)
	bc.Append(in)
}

func TestAssembleHelloWorld(t *testing.T) {
	tbl := table311(t)
	bc := NewBytecode(Header{Version: pyver.V311})

	appendInstr(t, bc, tbl, "LOAD_CONST", ConstArgument{Value: "hello"})
	appendInstr(t, bc, tbl, "RETURN_VALUE", nil)

	cb, err := Assemble(tbl, bc, DefaultAssembleOptions())
	require.NoError(t, err)
	require.Equal(t, []any{"hello"}, cb.Consts)
	require.Equal(t, 1, cb.StackSize)
	require.Len(t, cb.Instrs, 2)
	require.Equal(t, "LOAD_CONST", cb.Instrs[0].Op)
	require.Equal(t, "RETURN_VALUE", cb.Instrs[1].Op)
}

func TestAssembleConditionalJump(t *testing.T) {
	tbl := table311(t)
	bc := NewBytecode(Header{Version: pyver.V311, ArgNames: []string{"x"}, ArgCount: 1})

	lElse := label.New()
	lEnd := label.New()

	appendInstr(t, bc, tbl, "LOAD_FAST", LocalArgument{Name: "x"})
	appendJump(t, bc, tbl, "POP_JUMP_FORWARD_IF_FALSE", lElse)
	appendInstr(t, bc, tbl, "LOAD_CONST", ConstArgument{Value: "yes"})
	appendJump(t, bc, tbl, "JUMP_FORWARD", lEnd)
	bc.Append(LabelMark{Label: lElse})
	appendInstr(t, bc, tbl, "LOAD_CONST", ConstArgument{Value: "no"})
	bc.Append(LabelMark{Label: lEnd})
	appendInstr(t, bc, tbl, "RETURN_VALUE", nil)

	cb, err := Assemble(tbl, bc, DefaultAssembleOptions())
	require.NoError(t, err)
	require.Equal(t, 1, cb.StackSize)
	require.Equal(t, []any{"yes", "no"}, cb.Consts)
}

func TestAssembleLargeForwardJumpNeedsExtendedArg(t *testing.T) {
	tbl := table311(t)
	bc := NewBytecode(Header{Version: pyver.V311})

	target := label.New()
	appendJump(t, bc, tbl, "JUMP_FORWARD", target)
	for i := 0; i < 300; i++ {
		appendInstr(t, bc, tbl, "NOP", nil)
	}
	bc.Append(LabelMark{Label: target})
	appendInstr(t, bc, tbl, "RETURN_VALUE", nil)

	opts := DefaultAssembleOptions()
	opts.CheckStack = false
	cb, err := Assemble(tbl, bc, opts)
	require.NoError(t, err)
	require.Greater(t, len(cb.CodeBytes), 2*302)
}

func TestAssembleExceptionTableRoundTrip(t *testing.T) {
	tbl := table311(t)
	bc := NewBytecode(Header{Version: pyver.V311})

	id := label.NewTryID()
	handler := label.New()
	after := label.New()

	bc.Append(&TryBegin{ID: id, Target: LabelTarget{Label: handler}, PushLasti: false, StackDepth: 0})
	appendInstr(t, bc, tbl, "LOAD_CONST", ConstArgument{Value: 1})
	appendInstr(t, bc, tbl, "POP_TOP", nil)
	bc.Append(&TryEnd{Begin: id})
	appendJump(t, bc, tbl, "JUMP_FORWARD", after)
	bc.Append(LabelMark{Label: handler})
	appendInstr(t, bc, tbl, "POP_TOP", nil)
	bc.Append(LabelMark{Label: after})
	appendInstr(t, bc, tbl, "LOAD_CONST", ConstArgument{Value: nil})
	appendInstr(t, bc, tbl, "RETURN_VALUE", nil)

	opts := DefaultAssembleOptions()
	opts.CheckStack = false
	cb, err := Assemble(tbl, bc, opts)
	require.NoError(t, err)
	require.Len(t, cb.ExceptionTable, 1)
	require.False(t, cb.ExceptionTable[0].PushLasti)
}

func TestAssembleUnresolvedLabel(t *testing.T) {
	tbl := table311(t)
	bc := NewBytecode(Header{Version: pyver.V311})
	appendJump(t, bc, tbl, "JUMP_FORWARD", label.New())

	_, err := Assemble(tbl, bc, DefaultAssembleOptions())
	require.Error(t, err)
	var unresolved *UnresolvedLabelError
	require.ErrorAs(t, err, &unresolved)
}

func TestAssembleWithPrecomputedStackSizeBypassesSolver(t *testing.T) {
	tbl := table311(t)
	bc := NewBytecode(Header{Version: pyver.V311})
	appendInstr(t, bc, tbl, "POP_TOP", nil)

	opts := DefaultAssembleOptions()
	opts.CheckStack = false
	opts.StackSize = 7

	cb, err := Assemble(tbl, bc, opts)
	require.NoError(t, err)
	require.Equal(t, 7, cb.StackSize)
}
