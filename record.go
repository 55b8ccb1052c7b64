package ntfs

import (
	"encoding/binary"
	"io"
)

// recordHeaderSize is the size of the common record header shared by
// File Records and Index Records: a 4-byte signature, the Update
// Sequence Array offset and count, and an 8-byte log-file sequence
// number.
const recordHeaderSize = 16

// blockSize is the size of one "sector" for the purposes of the fixup
// algorithm. NTFS fixup always operates on 512-byte blocks regardless
// of the volume's actual physical sector size.
const blockSize = 512

// Record is a length-prefixed buffer, either a File Record or an Index
// Record, that has been validated against a required 4-byte signature
// and fixed up. After fixup the buffer holds the full on-disk payload
// in natural little-endian form; every downstream view (attributes,
// index entries) borrows this buffer.
type Record struct {
	data     []byte
	position Position
}

// LoadRecord reads exactly size bytes at position from r, validates the
// 4-byte signature, and applies the Update Sequence Array fixup.
func LoadRecord(r ReadSeeker, position Position, size int, expectedSignature []byte) (*Record, *NtfsError) {
	value, known := position.Value()
	if !known {
		return nil, newErr(ErrInvalidFileRecordNumber, position, "cannot load a record at an unknown position")
	}

	if _, err := r.Seek(int64(value), io.SeekStart); err != nil {
		return nil, errIo(err)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, errIo(err)
	}

	if len(data) < recordHeaderSize || string(data[:4]) != string(expectedSignature) {
		actual := [4]byte{}
		if len(data) >= 4 {
			copy(actual[:], data[:4])
		}
		return nil, errInvalidSignature(position, expectedSignature, actual[:])
	}

	record := &Record{data: data, position: position}
	if err := record.fixup(); err != nil {
		return nil, err
	}

	return record, nil
}

// fixup validates and applies the Update Sequence Array in place.
func (r *Record) fixup() *NtfsError {
	data := r.data

	usaOffset := binary.LittleEndian.Uint16(data[4:6])
	usaCount := binary.LittleEndian.Uint16(data[6:8])

	if usaCount == 0 {
		return errInvalidUpdateSequenceCount(r.position, usaCount)
	}
	arrayCount := int(usaCount) - 1

	usaStart := int(usaOffset) + 2
	usaEnd := usaStart + arrayCount*2
	sectorsEnd := arrayCount * blockSize

	if usaEnd > len(data) || sectorsEnd > len(data) {
		return errUpdateSequenceArrayExceedsRecordSize(r.position, uint16(arrayCount), len(data))
	}

	usn := data[usaOffset : usaOffset+2]
	array := data[usaStart:usaEnd]

	for i := 0; i < arrayCount; i++ {
		slotOffset := i*blockSize + (blockSize - 2)
		slot := data[slotOffset : slotOffset+2]

		if slot[0] != usn[0] || slot[1] != usn[1] {
			return errUpdateSequenceNumberMismatch(
				r.position.Add(uint64(slotOffset)),
				[]byte{usn[0], usn[1]},
				[]byte{slot[0], slot[1]})
		}

		slot[0] = array[i*2]
		slot[1] = array[i*2+1]
	}

	return nil
}

// Data returns the fixed-up record payload.
func (r *Record) Data() []byte {
	return r.data
}

// Position returns the absolute byte position this record was loaded
// from.
func (r *Record) Position() Position {
	return r.position
}

// Len returns the size of the record buffer.
func (r *Record) Len() int {
	return len(r.data)
}
