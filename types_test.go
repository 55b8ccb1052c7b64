package ntfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition_NoPosition(t *testing.T) {
	p := NoPosition()

	_, known := p.Value()
	assert.False(t, known)
	assert.Equal(t, "<NONE>", p.String())
}

func TestPosition_NewPosition(t *testing.T) {
	p := NewPosition(0x1000)

	value, known := p.Value()
	assert.True(t, known)
	assert.Equal(t, uint64(0x1000), value)
	assert.Equal(t, "0x1000", p.String())
}

func TestPosition_Add(t *testing.T) {
	p := NewPosition(100).Add(50)

	value, known := p.Value()
	assert.True(t, known)
	assert.Equal(t, uint64(150), value)
}

func TestPosition_Add_NoPositionStaysUnknown(t *testing.T) {
	p := NoPosition().Add(50)

	_, known := p.Value()
	assert.False(t, known)
}

func TestLcn_CheckedAdd_Positive(t *testing.T) {
	l, ok := Lcn(10).CheckedAdd(Vcn(5))
	require.True(t, ok)
	assert.Equal(t, Lcn(15), l)
}

func TestLcn_CheckedAdd_Negative(t *testing.T) {
	l, ok := Lcn(10).CheckedAdd(Vcn(-4))
	require.True(t, ok)
	assert.Equal(t, Lcn(6), l)
}

func TestLcn_CheckedAdd_NegativeUnderflows(t *testing.T) {
	_, ok := Lcn(2).CheckedAdd(Vcn(-3))
	assert.False(t, ok)
}

func TestLcn_CheckedAdd_PositiveOverflows(t *testing.T) {
	_, ok := Lcn(^uint64(0)).CheckedAdd(Vcn(1))
	assert.False(t, ok)
}

func TestLcn_Position(t *testing.T) {
	p, err := Lcn(4).Position(4096)
	require.Nil(t, err)

	value, known := p.Value()
	assert.True(t, known)
	assert.Equal(t, uint64(4*4096), value)
}

func TestLcn_Position_Overflow(t *testing.T) {
	_, err := Lcn(^uint64(0)).Position(4096)
	require.NotNil(t, err)
	assert.Equal(t, ErrLcnTooBig, err.Kind)
}

func TestVcn_Offset(t *testing.T) {
	offset, err := Vcn(-3).Offset(4096)
	require.Nil(t, err)
	assert.Equal(t, int64(-3*4096), offset)
}

func TestVcn_Offset_Overflow(t *testing.T) {
	_, err := Vcn(1 << 60).Offset(1 << 10)
	require.NotNil(t, err)
	assert.Equal(t, ErrVcnTooBig, err.Kind)
}
