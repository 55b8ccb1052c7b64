package ntfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func utf16le(s string) []byte {
	raw := make([]byte, 0, len(s)*2)
	for _, r := range s {
		raw = append(raw, byte(r), byte(r>>8))
	}
	return raw
}

func TestDecodeUtf16_Ascii(t *testing.T) {
	raw := utf16le("hello.txt")

	decoded, err := decodeUtf16(raw)
	require.Nil(t, err)
	assert.Equal(t, "hello.txt", decoded)
}

func TestDecodeUtf16_Empty(t *testing.T) {
	decoded, err := decodeUtf16(nil)
	require.Nil(t, err)
	assert.Equal(t, "", decoded)
}

func TestDecodeUtf16_OddLengthIsInvalid(t *testing.T) {
	_, err := decodeUtf16([]byte{0x41})
	require.NotNil(t, err)
	assert.Equal(t, ErrBufferTooSmall, err.Kind)
}

func TestUpperUtf16Unit_AsciiLowercase(t *testing.T) {
	assert.Equal(t, uint16('A'), upperUtf16Unit(nil, 'a'))
	assert.Equal(t, uint16('Z'), upperUtf16Unit(nil, 'z'))
}

func TestUpperUtf16Unit_NonLetterUnchanged(t *testing.T) {
	assert.Equal(t, uint16('5'), upperUtf16Unit(nil, '5'))
}

func TestUpperUtf16Unit_UsesTableWhenPresent(t *testing.T) {
	table := make([]uint16, 128)
	for i := range table {
		table[i] = uint16(i)
	}
	table['a'] = 'X'

	assert.Equal(t, uint16('X'), upperUtf16Unit(table, 'a'))
}

func TestByteReader_ReadsUntilExhausted(t *testing.T) {
	br := newByteReader([]byte{1, 2, 3})

	buf := make([]byte, 2)

	n, err := br.Read(buf)
	require.Nil(t, err)
	assert.Equal(t, 2, n)

	n, err = br.Read(buf)
	require.Nil(t, err)
	assert.Equal(t, 1, n)

	_, err = br.Read(buf)
	assert.NotNil(t, err)
}
