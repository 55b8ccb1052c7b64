package ntfs

import (
	"io"
	"sort"
)

// AttributeValueReader is the uniform contract every attribute value
// fulfils, resident or not: a sized, seekable byte stream. Callers never
// need to know whether the bytes behind it live inside the File Record or
// out in the Data Runs.
type AttributeValueReader interface {
	io.Reader
	io.Seeker
	Len() uint64
}

// residentValue is an AttributeValueReader over a byte slice that lives
// directly inside a File Record's buffer.
type residentValue struct {
	data     []byte
	position int64
}

func newResidentValue(data []byte) *residentValue {
	return &residentValue{data: data}
}

func (v *residentValue) Len() uint64 { return uint64(len(v.data)) }

func (v *residentValue) Read(p []byte) (int, error) {
	if v.position >= int64(len(v.data)) {
		return 0, io.EOF
	}

	n := copy(p, v.data[v.position:])
	v.position += int64(n)

	return n, nil
}

func (v *residentValue) Seek(offset int64, whence int) (int64, error) {
	newPos, err := seekTo(v.position, int64(len(v.data)), offset, whence)
	if err != nil {
		return 0, err
	}

	v.position = newPos
	return v.position, nil
}

// nonResidentValue is an AttributeValueReader over a possibly sparse set
// of Data Runs, read from the volume on demand. runs must be sorted by
// StartVcn; when an attribute was stitched from several Attribute List
// segments, runs already holds the merged, in-order sequence from every
// segment.
type nonResidentValue struct {
	r               ReadSeeker
	runs            []DataRun
	clusterSize     uint32
	dataSize        uint64
	initializedSize uint64
	position        int64
}

func newNonResidentValue(r ReadSeeker, runs []DataRun, clusterSize uint32, dataSize, initializedSize uint64) *nonResidentValue {
	return &nonResidentValue{
		r:               r,
		runs:            runs,
		clusterSize:     clusterSize,
		dataSize:        dataSize,
		initializedSize: initializedSize,
	}
}

func (v *nonResidentValue) Len() uint64 { return v.dataSize }

func (v *nonResidentValue) Seek(offset int64, whence int) (int64, error) {
	newPos, err := seekTo(v.position, int64(v.dataSize), offset, whence)
	if err != nil {
		return 0, err
	}

	v.position = newPos
	return v.position, nil
}

// seekTo implements the Start/Current/End arithmetic shared by every
// AttributeValueReader, matching the bounds a bytes.Reader enforces: the
// resulting position must be non-negative, but may run past length (a
// subsequent Read there simply returns io.EOF).
func seekTo(current, length, offset int64, whence int) (int64, error) {
	var base int64

	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = current
	case io.SeekEnd:
		base = length
	default:
		return 0, &NtfsError{Kind: ErrIo, Message: "invalid whence value"}
	}

	newPos := base + offset
	if newPos < 0 {
		return 0, &NtfsError{Kind: ErrIo, Message: "seek would result in a negative position"}
	}

	return newPos, nil
}

// findRun locates the Data Run covering vcn via binary search, the runs
// slice being sorted by StartVcn.
func findRun(runs []DataRun, vcn Vcn) (DataRun, bool) {
	i := sort.Search(len(runs), func(i int) bool {
		return runs[i].StartVcn+Vcn(runs[i].ClusterCount) > vcn
	})

	if i >= len(runs) || runs[i].StartVcn > vcn {
		return DataRun{}, false
	}

	return runs[i], true
}

func (v *nonResidentValue) Read(p []byte) (int, error) {
	if v.position >= int64(v.dataSize) {
		return 0, io.EOF
	}

	total := 0

	for total < len(p) && v.position < int64(v.dataSize) {
		if v.position >= int64(v.initializedSize) {
			n := int64(v.dataSize) - v.position
			if remaining := int64(len(p) - total); n > remaining {
				n = remaining
			}
			zeroFill(p[total : total+int(n)])
			total += int(n)
			v.position += n
			continue
		}

		vcn := Vcn(v.position / int64(v.clusterSize))
		run, found := findRun(v.runs, vcn)
		if !found {
			return total, io.ErrUnexpectedEOF
		}

		runStartByte := int64(run.StartVcn) * int64(v.clusterSize)
		runLenBytes := int64(run.ClusterCount) * int64(v.clusterSize)
		offsetIntoRun := v.position - runStartByte
		available := runLenBytes - offsetIntoRun

		toRead := available
		if remaining := int64(len(p) - total); toRead > remaining {
			toRead = remaining
		}
		if initRemaining := int64(v.initializedSize) - v.position; toRead > initRemaining {
			toRead = initRemaining
		}

		if run.IsSparse {
			zeroFill(p[total : total+int(toRead)])
		} else {
			diskPosition, nerr := run.Lcn.Position(v.clusterSize)
			if nerr != nil {
				return total, nerr
			}
			base, _ := diskPosition.Value()

			if _, err := v.r.Seek(int64(base)+offsetIntoRun, io.SeekStart); err != nil {
				return total, err
			}
			if _, err := io.ReadFull(v.r, p[total:total+int(toRead)]); err != nil {
				return total, err
			}
		}

		total += int(toRead)
		v.position += toRead
	}

	return total, nil
}

func zeroFill(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
