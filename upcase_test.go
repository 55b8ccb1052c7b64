package ntfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestUpcaseTable() *UpcaseTable {
	table := make([]uint16, upcaseTableEntryCount)
	for i := range table {
		table[i] = uint16(i)
	}
	for c := uint16('a'); c <= uint16('z'); c++ {
		table[c] = c - ('a' - 'A')
	}

	return &UpcaseTable{table: table}
}

func TestUpcaseTable_ToUpper(t *testing.T) {
	ut := newTestUpcaseTable()

	assert.Equal(t, uint16('A'), ut.ToUpper('a'))
	assert.Equal(t, uint16('Z'), ut.ToUpper('Z'))
	assert.Equal(t, uint16('5'), ut.ToUpper('5'))
}

func TestUpcaseTable_Compare_EqualUnderFolding(t *testing.T) {
	ut := newTestUpcaseTable()

	assert.Equal(t, 0, ut.Compare("README.TXT", "readme.txt"))
}

func TestUpcaseTable_Compare_Ordering(t *testing.T) {
	ut := newTestUpcaseTable()

	assert.Equal(t, -1, ut.Compare("alpha", "beta"))
	assert.Equal(t, 1, ut.Compare("beta", "alpha"))
}

func TestUpcaseTable_Compare_PrefixIsShorter(t *testing.T) {
	ut := newTestUpcaseTable()

	assert.Equal(t, -1, ut.Compare("file", "filename"))
	assert.Equal(t, 1, ut.Compare("filename", "file"))
}

func TestUpcaseTable_EqualFold(t *testing.T) {
	ut := newTestUpcaseTable()

	assert.True(t, ut.EqualFold("Documents", "DOCUMENTS"))
	assert.False(t, ut.EqualFold("Documents", "Downloads"))
}
