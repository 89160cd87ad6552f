package opcodes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pybc/opcodes"
	"pybc/pyver"
)

func TestTableForEveryVersion(t *testing.T) {
	for _, v := range pyver.All {
		tbl, err := opcodes.TableFor(v)
		require.NoError(t, err)
		require.Equal(t, v, tbl.Version)

		meta, ok := tbl.Lookup("LOAD_CONST")
		require.True(t, ok, "%s: LOAD_CONST missing", v)
		require.Equal(t, opcodes.ArgConst, meta.Arg)

		byNum, ok := tbl.LookupOpcode(meta.Number)
		require.True(t, ok)
		require.Equal(t, meta.Name, byNum.Name)
	}
}

func TestPopPushJumpVariant(t *testing.T) {
	tbl, err := opcodes.TableFor(pyver.V311)
	require.NoError(t, err)
	meta, ok := tbl.Lookup("FOR_ITER")
	require.True(t, ok)

	fallPop, fallPush := meta.PopPush(0, false)
	jumpPop, jumpPush := meta.PopPush(0, true)
	require.Equal(t, 1, fallPop)
	require.Equal(t, 2, fallPush)
	require.Equal(t, 1, jumpPop)
	require.Equal(t, 0, jumpPush)
}

func TestRegisterTableOverride(t *testing.T) {
	tbl, err := opcodes.TableFor(pyver.V38)
	require.NoError(t, err)
	custom := tbl
	custom.ByName = map[string]opcodes.OpMeta{"NOP": {Name: "NOP", Number: 9, Arg: opcodes.ArgNone}}
	opcodes.RegisterTable(pyver.V38, custom)
	defer opcodes.RegisterTable(pyver.V38, tbl)

	got, err := opcodes.TableFor(pyver.V38)
	require.NoError(t, err)
	_, ok := got.Lookup("LOAD_CONST")
	require.False(t, ok)
}
