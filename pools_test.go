package pybc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pybc/linetable"
	"pybc/pyver"

	. "pybc"
)

func TestBuildPoolsFirstOccurrenceOrder(t *testing.T) {
	tbl := table311(t)
	bc := NewBytecode(Header{Version: pyver.V311, ArgNames: []string{"a"}})

	mustAppend := func(op string, arg Argument) {
		in, err := NewInstr(tbl, op, arg, linetable.Absent)
		require.NoError(t, err)
		bc.Append(in)
	}
	mustAppend("LOAD_CONST", ConstArgument{Value: "b"})
	mustAppend("LOAD_CONST", ConstArgument{Value: "a"})
	mustAppend("LOAD_CONST", ConstArgument{Value: "b"})
	mustAppend("LOAD_FAST", LocalArgument{Name: "a"})
	mustAppend("LOAD_FAST", LocalArgument{Name: "z"})
	mustAppend("RETURN_VALUE", nil)

	cb, err := Assemble(tbl, bc, DefaultAssembleOptions())
	require.NoError(t, err)
	require.Equal(t, []any{"b", "a"}, cb.Consts)
	require.Equal(t, []string{"a", "z"}, cb.Varnames)
}
