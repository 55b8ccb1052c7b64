package ntfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataRuns_SingleRun(t *testing.T) {
	// header 0x31: length field is 1 byte, offset field is 3 bytes.
	// cluster count = 0x20 (32), LCN delta = 0x000304 (772).
	raw := []byte{0x31, 0x20, 0x04, 0x03, 0x00}

	runs, err := parseDataRuns(raw, Vcn(0), NoPosition())
	require.Nil(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, Vcn(0), runs[0].StartVcn)
	assert.Equal(t, uint64(0x20), runs[0].ClusterCount)
	assert.Equal(t, Lcn(0x000304), runs[0].Lcn)
	assert.False(t, runs[0].IsSparse)
}

func TestParseDataRuns_SparseThenReal(t *testing.T) {
	// First run: sparse, 16 clusters (header 0x01, no offset bytes).
	// Second run: real, 8 clusters at LCN delta +100 (header 0x11).
	raw := []byte{
		0x01, 0x10,
		0x11, 0x08, 0x64,
	}

	runs, err := parseDataRuns(raw, Vcn(0), NoPosition())
	require.Nil(t, err)
	require.Len(t, runs, 2)

	assert.True(t, runs[0].IsSparse)
	assert.Equal(t, uint64(0x10), runs[0].ClusterCount)
	assert.Equal(t, Vcn(0), runs[0].StartVcn)

	assert.False(t, runs[1].IsSparse)
	assert.Equal(t, Vcn(0x10), runs[1].StartVcn)
	assert.Equal(t, Lcn(0x64), runs[1].Lcn)
}

func TestParseDataRuns_NegativeDelta(t *testing.T) {
	// Two real runs where the second moves backward in LCN space: first
	// run has LCN delta +100 (0x64, a positive single signed byte),
	// second has LCN delta -50 (0xCE, a negative single signed byte).
	raw := []byte{
		0x11, 0x05, 0x64,
		0x11, 0x05, 0xCE,
	}

	runs, err := parseDataRuns(raw, Vcn(0), NoPosition())
	require.Nil(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, Lcn(100), runs[0].Lcn)
	assert.Equal(t, Lcn(50), runs[1].Lcn)
}

func TestParseDataRuns_StopsAtTerminator(t *testing.T) {
	raw := []byte{0x00, 0xFF, 0xFF}

	runs, err := parseDataRuns(raw, Vcn(0), NoPosition())
	require.Nil(t, err)
	assert.Empty(t, runs)
}

func TestParseDataRuns_ZeroClusterCountIsInvalid(t *testing.T) {
	raw := []byte{0x11, 0x00, 0x01}

	_, err := parseDataRuns(raw, Vcn(0), NoPosition())
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidClusterCountInDataRunHeader, err.Kind)
}

func TestParseDataRuns_TruncatedHeaderIsInvalid(t *testing.T) {
	raw := []byte{0x22, 0x01}

	_, err := parseDataRuns(raw, Vcn(0), NoPosition())
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidClusterCountInDataRunHeader, err.Kind)
}

func TestDecodeLittleEndianUnsigned(t *testing.T) {
	assert.Equal(t, uint64(0x0201), decodeLittleEndianUnsigned([]byte{0x01, 0x02}))
}

func TestDecodeSignExtended_Positive(t *testing.T) {
	assert.Equal(t, Vcn(0x7F), decodeSignExtended([]byte{0x7F}))
}

func TestDecodeSignExtended_Negative(t *testing.T) {
	assert.Equal(t, Vcn(-2), decodeSignExtended([]byte{0xFE}))
}
