package snapshot_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pybc/pyver"
	"pybc/snapshot"
)

func TestRoundTrip(t *testing.T) {
	co := snapshot.CodeObject{
		CodeBytes:   []byte{1, 0, 2, 0},
		Consts:      []any{"hello", int64(1), nil},
		Names:       []string{"print"},
		Varnames:    []string{"x"},
		Filename:    "mod.py",
		Name:        "f",
		Qualname:    "f",
		FirstLineno: 1,
		StackSize:   2,
		Version:     pyver.V311,
	}

	data, err := snapshot.Snapshot(co)
	require.NoError(t, err)

	got, err := snapshot.Restore(data)
	require.NoError(t, err)
	require.Equal(t, co, got)
}

func TestRestoreRejectsGarbage(t *testing.T) {
	_, err := snapshot.Restore([]byte{0xff, 0xff, 0xff})
	require.Error(t, err)
}
