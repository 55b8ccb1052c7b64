package ntfs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildBootSector assembles a 512-byte boot sector with the given
// sectors-per-cluster indicator and record-size indicators, matching the
// BIOS Parameter Block layout bootSectorHeader decodes.
func buildBootSector(sectorsPerCluster uint8, fileRecordIndicator, indexRecordIndicator int8, mftLcn, totalSectors, serial uint64) []byte {
	raw := make([]byte, bootSectorSize)

	putU16(raw, 11, 512) // BytesPerSector
	raw[13] = sectorsPerCluster

	putU64(raw, 40, totalSectors)
	putU64(raw, 48, mftLcn)
	raw[64] = byte(fileRecordIndicator)
	raw[68] = byte(indexRecordIndicator)
	putU64(raw, 72, serial)

	raw[510] = 0x55
	raw[511] = 0xAA

	return raw
}

func TestParseBootSector_Valid(t *testing.T) {
	raw := buildBootSector(8, -10, -12, 4, 4096, 0x3d51a058)

	bs, err := ParseBootSector(bytes.NewReader(raw))
	require.Nil(t, err)

	assert.Equal(t, uint32(512), bs.SectorSize())
	assert.Equal(t, uint32(512*8), bs.ClusterSize())
	assert.Equal(t, uint64(4096*512), bs.TotalSize())
	assert.Equal(t, uint32(1024), bs.FileRecordSize())
	assert.Equal(t, uint32(4096), bs.IndexRecordSize())
	assert.Equal(t, uint64(0x3d51a058), bs.Serial())

	pos, ok := bs.MftPosition().Value()
	require.True(t, ok)
	assert.Equal(t, uint64(4*512*8), pos)
}

func TestParseBootSector_NegativeSectorsPerClusterExponent(t *testing.T) {
	// 0xF4 as a signed byte is -12: cluster size = sector_size * 2^12.
	raw := buildBootSector(0xF4, -10, -12, 4, 4096, 1)

	bs, err := ParseBootSector(bytes.NewReader(raw))
	require.Nil(t, err)
	assert.Equal(t, uint32(512*4096), bs.ClusterSize())
}

func TestParseBootSector_MissingTwoByteSignatureFails(t *testing.T) {
	raw := buildBootSector(8, -10, -8, 4, 4096, 1)
	raw[510] = 0
	raw[511] = 0

	_, err := ParseBootSector(bytes.NewReader(raw))
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidTwoByteSignature, err.Kind)
}

func TestParseBootSector_UnsupportedSectorSizeFails(t *testing.T) {
	raw := buildBootSector(8, -10, -8, 4, 4096, 1)
	putU16(raw, 11, 4096)

	_, err := ParseBootSector(bytes.NewReader(raw))
	require.NotNil(t, err)
	assert.Equal(t, ErrUnsupportedSectorSize, err.Kind)
}

func TestParseBootSector_ZeroMftLcnFails(t *testing.T) {
	raw := buildBootSector(8, -10, -8, 0, 4096, 1)

	_, err := ParseBootSector(bytes.NewReader(raw))
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidMftLcn, err.Kind)
}

func TestParseBootSector_ZeroSectorsPerClusterFails(t *testing.T) {
	raw := buildBootSector(0, -10, -8, 4, 4096, 1)

	_, err := ParseBootSector(bytes.NewReader(raw))
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidSectorsPerCluster, err.Kind)
}

func TestResolveRecordSize_PositiveIsClusterCount(t *testing.T) {
	size, err := resolveRecordSize(4096, 2)
	require.Nil(t, err)
	assert.Equal(t, uint32(8192), size)
}

func TestResolveRecordSize_NegativeIsPowerOfTwo(t *testing.T) {
	size, err := resolveRecordSize(4096, -10)
	require.Nil(t, err)
	assert.Equal(t, uint32(1024), size)
}

func TestResolveRecordSize_OutOfRangeExponentFails(t *testing.T) {
	_, err := resolveRecordSize(4096, -20)
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidRecordSizeInfo, err.Kind)
}
