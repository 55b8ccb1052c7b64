package ntfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileAttributes_String(t *testing.T) {
	fa := FileAttributeReadonly | FileAttributeHidden

	s := fa.String()
	assert.Contains(t, s, "READONLY")
	assert.Contains(t, s, "HIDDEN")
}

func TestFileAttributes_String_None(t *testing.T) {
	assert.Equal(t, "NONE", FileAttributes(0).String())
}

func TestFileNameNamespace_String(t *testing.T) {
	assert.Equal(t, "WIN32", FileNameNamespaceWin32.String())
	assert.Contains(t, FileNameNamespace(9).String(), "UNKNOWN")
}

func buildStandardInformation(full bool) []byte {
	size := 48
	if full {
		size = 72
	}
	raw := make([]byte, size)

	putU64(raw, 0, 1000)  // CreationTime
	putU64(raw, 8, 2000)  // LastModificationTime
	putU64(raw, 16, 3000) // LastMftChangeTime
	putU64(raw, 24, 4000) // LastAccessTime
	putU32(raw, 32, uint32(FileAttributeArchive))
	putU32(raw, 36, 0)
	putU32(raw, 40, 0)
	putU32(raw, 44, 0)

	if full {
		putU32(raw, 48, 42) // OwnerId
		putU32(raw, 52, 7)  // SecurityId
		putU64(raw, 56, 99) // QuotaCharged
		putU64(raw, 64, 1)  // UpdateSequenceNumber
	}

	return raw
}

func TestParseStandardInformationValue_PreNtfs3(t *testing.T) {
	raw := buildStandardInformation(false)

	v, err := parseStandardInformationValue(raw, NoPosition())
	require.Nil(t, err)

	assert.Equal(t, uint64(1000), v.CreationTime)
	assert.Equal(t, FileAttributeArchive, v.FileAttributes)
	assert.Equal(t, uint32(0), v.OwnerId)
}

func TestParseStandardInformationValue_Ntfs3(t *testing.T) {
	raw := buildStandardInformation(true)

	v, err := parseStandardInformationValue(raw, NoPosition())
	require.Nil(t, err)

	assert.Equal(t, uint32(42), v.OwnerId)
	assert.Equal(t, uint32(7), v.SecurityId)
	assert.Equal(t, uint64(99), v.QuotaCharged)
}

func TestParseStandardInformationValue_TooShortFails(t *testing.T) {
	_, err := parseStandardInformationValue(make([]byte, 10), NoPosition())
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidStructuredValueSize, err.Kind)
}

func buildFileName(parent FileReference, name string, attrs FileAttributes, ns FileNameNamespace) []byte {
	nameBytes := utf16le(name)
	raw := make([]byte, fileNameHeaderSize+len(nameBytes))

	parentPacked := parent.RecordNumber&0x0000FFFFFFFFFFFF | uint64(parent.SequenceNumber)<<48
	putU64(raw, 0, parentPacked)
	putU64(raw, 8, 111)
	putU64(raw, 16, 222)
	putU64(raw, 24, 333)
	putU64(raw, 32, 444)
	putU64(raw, 40, 4096)
	putU64(raw, 48, 2048)
	putU32(raw, 56, uint32(attrs))
	putU32(raw, 60, 0)
	raw[64] = byte(len([]rune(name)))
	raw[65] = byte(ns)
	copy(raw[fileNameHeaderSize:], nameBytes)

	return raw
}

func TestParseFileNameValue(t *testing.T) {
	parent := FileReference{RecordNumber: 5, SequenceNumber: 2}
	raw := buildFileName(parent, "readme.txt", FileAttributeArchive, FileNameNamespaceWin32)

	v, err := parseFileNameValue(raw, NoPosition())
	require.Nil(t, err)

	assert.Equal(t, "readme.txt", v.Name)
	assert.Equal(t, parent, v.ParentDirectory)
	assert.Equal(t, FileNameNamespaceWin32, v.Namespace)
	assert.Equal(t, FileAttributeArchive, v.FileAttributes)
	assert.Equal(t, uint64(4096), v.AllocatedSize)
	assert.Equal(t, uint64(2048), v.DataSize)
}

func TestParseFileNameValue_TooShortFails(t *testing.T) {
	_, err := parseFileNameValue(make([]byte, 10), NoPosition())
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidStructuredValueSize, err.Kind)
}

func TestParseVolumeInformationValue(t *testing.T) {
	raw := make([]byte, 12)
	raw[8] = 3
	raw[9] = 1
	putU16(raw, 10, 0x0001)

	v, err := parseVolumeInformationValue(raw, NoPosition())
	require.Nil(t, err)

	assert.Equal(t, uint8(3), v.MajorVersion)
	assert.Equal(t, uint8(1), v.MinorVersion)
	assert.Equal(t, uint16(0x0001), v.Flags)
}

func TestParseVolumeNameValue(t *testing.T) {
	raw := utf16le("MyVolume")

	name, err := parseVolumeNameValue(raw)
	require.Nil(t, err)
	assert.Equal(t, "MyVolume", name)
}

func TestParseObjectIdValue_MinimalForm(t *testing.T) {
	raw := make([]byte, 16)
	for i := range raw {
		raw[i] = byte(i)
	}

	v, err := parseObjectIdValue(raw, NoPosition())
	require.Nil(t, err)

	assert.Equal(t, raw, v.ObjectId[:])
	assert.Equal(t, [16]byte{}, v.BirthVolumeId)
}

func TestParseObjectIdValue_FullForm(t *testing.T) {
	raw := make([]byte, 64)
	for i := range raw {
		raw[i] = byte(i)
	}

	v, err := parseObjectIdValue(raw, NoPosition())
	require.Nil(t, err)

	assert.Equal(t, raw[16:32], v.BirthVolumeId[:])
	assert.Equal(t, raw[32:48], v.BirthObjectId[:])
	assert.Equal(t, raw[48:64], v.DomainId[:])
}

func TestParseObjectIdValue_TooShortFails(t *testing.T) {
	_, err := parseObjectIdValue(make([]byte, 8), NoPosition())
	require.NotNil(t, err)
	assert.Equal(t, ErrInvalidStructuredValueSize, err.Kind)
}
