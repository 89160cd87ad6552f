package linetable_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pybc/linetable"
	"pybc/pyver"
)

func TestPairRoundTrip38(t *testing.T) {
	entries := []linetable.Entry{
		{Start: 0, Stop: 4, Loc: linetable.Location{StartLine: 10, EndLine: 10, StartCol: linetable.NoValue, EndCol: linetable.NoValue}},
		{Start: 4, Stop: 10, Loc: linetable.Location{StartLine: 11, EndLine: 11, StartCol: linetable.NoValue, EndCol: linetable.NoValue}},
	}
	data, err := linetable.Encode(pyver.V38, entries, 10)
	require.NoError(t, err)

	got, err := linetable.Decode(pyver.V38, data, 10)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestPairRejectsNegativeDeltaBefore310(t *testing.T) {
	entries := []linetable.Entry{
		{Start: 0, Stop: 2, Loc: linetable.Location{StartLine: 5, EndLine: 5, StartCol: linetable.NoValue, EndCol: linetable.NoValue}},
		{Start: 2, Stop: 4, Loc: linetable.Location{StartLine: 3, EndLine: 3, StartCol: linetable.NoValue, EndCol: linetable.NoValue}},
	}
	_, err := linetable.Encode(pyver.V38, entries, 5)
	require.Error(t, err)
}

func TestPairAllowsNegativeDeltaAt310(t *testing.T) {
	entries := []linetable.Entry{
		{Start: 0, Stop: 2, Loc: linetable.Location{StartLine: 5, EndLine: 5, StartCol: linetable.NoValue, EndCol: linetable.NoValue}},
		{Start: 2, Stop: 4, Loc: linetable.Location{StartLine: 3, EndLine: 3, StartCol: linetable.NoValue, EndCol: linetable.NoValue}},
	}
	data, err := linetable.Encode(pyver.V310, entries, 5)
	require.NoError(t, err)
	got, err := linetable.Decode(pyver.V310, data, 5)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestLocationsOneLineFormRoundTrip311(t *testing.T) {
	entries := []linetable.Entry{
		{Start: 0, Stop: 1, Loc: linetable.Location{StartLine: 5, EndLine: 5, StartCol: 0, EndCol: 12}},
		{Start: 1, Stop: 2, Loc: linetable.Location{StartLine: 6, EndLine: 6, StartCol: 4, EndCol: 20}},
		{Start: 2, Stop: 3, Loc: linetable.Location{StartLine: 8, EndLine: 8, StartCol: 0, EndCol: 1}},
	}
	data, err := linetable.Encode(pyver.V311, entries, 5)
	require.NoError(t, err)

	got, err := linetable.Decode(pyver.V311, data, 5)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestLocationsRoundTrip311(t *testing.T) {
	entries := []linetable.Entry{
		{Start: 0, Stop: 1, Loc: linetable.Location{StartLine: 1, EndLine: 1, StartCol: 0, EndCol: 7}},
		{Start: 1, Stop: 3, Loc: linetable.Location{StartLine: 2, EndLine: 3, StartCol: 4, EndCol: 9}},
		{Start: 3, Stop: 4, Loc: linetable.Absent},
	}
	data, err := linetable.Encode(pyver.V311, entries, 1)
	require.NoError(t, err)

	got, err := linetable.Decode(pyver.V311, data, 1)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}
