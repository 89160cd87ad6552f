package pybc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pybc/linetable"
	"pybc/opcodes"
	"pybc/pyver"

	. "pybc"
)

func table311(t *testing.T) opcodes.OpcodeTable {
	tbl, err := opcodes.TableFor(pyver.V311)
	require.NoError(t, err)
	return tbl
}

func TestNewInstrRejectsMismatchedArgKind(t *testing.T) {
	tbl := table311(t)
	_, err := NewInstr(tbl, "LOAD_FAST", ConstArgument{Value: 1}, linetable.Absent)
	require.Error(t, err)
	var kindErr *InvalidArgumentKindError
	require.ErrorAs(t, err, &kindErr)
}

func TestNewInstrRejectsPseudoOpcode(t *testing.T) {
	tbl := table311(t)
	_, err := NewInstr(tbl, "EXTENDED_ARG", NoArgument{}, linetable.Absent)
	require.Error(t, err)
}

func TestNewInstrAcceptsNoArgumentForArgNone(t *testing.T) {
	tbl := table311(t)
	in, err := NewInstr(tbl, "RETURN_VALUE", nil, linetable.Absent)
	require.NoError(t, err)
	require.Equal(t, NoArgument{}, in.Arg)
}

func TestSetOpAndArg(t *testing.T) {
	tbl := table311(t)
	in, err := NewInstr(tbl, "LOAD_FAST", LocalArgument{Name: "x"}, linetable.Absent)
	require.NoError(t, err)
	require.NoError(t, in.SetOpAndArg(tbl, "STORE_FAST", LocalArgument{Name: "y"}))
	require.Equal(t, "STORE_FAST", in.Op)
	require.Equal(t, LocalArgument{Name: "y"}, in.Arg)

	require.Error(t, in.SetOpAndArg(tbl, "LOAD_CONST", LocalArgument{Name: "y"}))
}

func TestRawArgumentBounds(t *testing.T) {
	tbl := table311(t)
	_, err := NewInstr(tbl, "CALL", RawArgument{Value: -1}, linetable.Absent)
	require.Error(t, err)
}
