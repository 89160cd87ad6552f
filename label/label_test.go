package label_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pybc/label"
)

func TestLabelUniqueness(t *testing.T) {
	a := label.New()
	b := label.New()
	require.NotEqual(t, a, b)
	require.False(t, a.IsZero())

	var zero label.Label
	require.True(t, zero.IsZero())
}

func TestTryIDUniqueness(t *testing.T) {
	a := label.NewTryID()
	b := label.NewTryID()
	require.NotEqual(t, a, b)
	require.False(t, a.IsZero())
}
