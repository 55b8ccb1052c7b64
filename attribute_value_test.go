package ntfs

import (
	"bytes"
	"io"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResidentValue_ReadAndSeek(t *testing.T) {
	v := newResidentValue([]byte("hello world"))

	assert.Equal(t, uint64(11), v.Len())

	buf := make([]byte, 5)
	n, err := v.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	pos, err := v.Seek(6, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	rest, err := ioutil.ReadAll(v)
	require.NoError(t, err)
	assert.Equal(t, "world", string(rest))
}

func TestResidentValue_ReadPastEndIsEOF(t *testing.T) {
	v := newResidentValue([]byte("hi"))

	_, _ = v.Seek(0, io.SeekEnd)

	buf := make([]byte, 1)
	_, err := v.Read(buf)
	assert.Equal(t, io.EOF, err)
}

func TestSeekTo_NegativeResultFails(t *testing.T) {
	_, err := seekTo(0, 10, -1, io.SeekStart)
	assert.Error(t, err)
}

func TestFindRun(t *testing.T) {
	runs := []DataRun{
		{StartVcn: 0, ClusterCount: 2},
		{StartVcn: 2, ClusterCount: 3},
		{StartVcn: 5, ClusterCount: 1},
	}

	run, found := findRun(runs, 3)
	require.True(t, found)
	assert.Equal(t, Vcn(2), run.StartVcn)

	_, found = findRun(runs, 6)
	assert.False(t, found)
}

func TestNonResidentValue_Read_SparseRealAndUninitializedTail(t *testing.T) {
	const clusterSize = 8

	diskImage := make([]byte, 96)
	copy(diskImage[80:88], []byte("ABCDEFGH"))

	runs := []DataRun{
		{StartVcn: 0, ClusterCount: 2, IsSparse: true},
		{StartVcn: 2, ClusterCount: 2, Lcn: Lcn(10)},
	}

	v := newNonResidentValue(bytes.NewReader(diskImage), runs, clusterSize, 32, 24)

	data, err := ioutil.ReadAll(v)
	require.NoError(t, err)
	require.Len(t, data, 32)

	assert.Equal(t, make([]byte, 16), data[0:16])
	assert.Equal(t, []byte("ABCDEFGH"), data[16:24])
	assert.Equal(t, make([]byte, 8), data[24:32])
}

func TestNonResidentValue_Len(t *testing.T) {
	v := newNonResidentValue(bytes.NewReader(nil), nil, 4096, 123, 123)
	assert.Equal(t, uint64(123), v.Len())
}
