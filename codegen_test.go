package pybc_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"pybc/mocks"
	"pybc/pyver"

	. "pybc"
)

func TestAssembleToCodeObjectUsesFactory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tbl := table311(t)
	bc := NewBytecode(Header{Version: pyver.V311})
	appendInstr(t, bc, tbl, "LOAD_CONST", ConstArgument{Value: 1})
	appendInstr(t, bc, tbl, "RETURN_VALUE", nil)

	factory := mocks.NewMockCodeObjectFactory(ctrl)
	factory.EXPECT().New(gomock.Any()).DoAndReturn(func(co CodeObject) (HostCode, error) {
		require.Equal(t, []any{1}, co.Consts)
		return "host-code", nil
	})

	host, err := AssembleToCodeObject(tbl, bc, DefaultAssembleOptions(), factory)
	require.NoError(t, err)
	require.Equal(t, HostCode("host-code"), host)
}

func TestNopFactoryReturnsCodeObjectUnchanged(t *testing.T) {
	tbl := table311(t)
	bc := NewBytecode(Header{Version: pyver.V311})
	appendInstr(t, bc, tbl, "LOAD_CONST", ConstArgument{Value: 1})
	appendInstr(t, bc, tbl, "RETURN_VALUE", nil)

	host, err := AssembleToCodeObject(tbl, bc, DefaultAssembleOptions(), NopFactory{})
	require.NoError(t, err)
	co, ok := host.(CodeObject)
	require.True(t, ok)
	require.Equal(t, []any{1}, co.Consts)
}
