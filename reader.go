package ntfs

import (
	"io"

	log "github.com/dsoprea/go-logging"
)

// ReadSeeker is the reader contract the whole library is built over. The
// library never owns the I/O handle; every operation that touches the
// volume image takes one of these.
type ReadSeeker = io.ReadSeeker

// SectorReader wraps a raw ReadSeeker and translates arbitrary reads and
// seeks into sector-aligned reads of a configured power-of-two sector
// size. It performs no caching; wrap it in a bufio.Reader upstream if
// the caller issues many small reads.
//
// This is an external collaborator per the library's scope: the core
// decode components never require sector alignment themselves, they
// only require the ReadSeeker contract above.
type SectorReader struct {
	rs         io.ReadSeeker
	sectorSize int64
	position   int64
}

// NewSectorReader wraps rs, rounding every read down to a sectorSize
// boundary. sectorSize must be a power of two.
func NewSectorReader(rs io.ReadSeeker, sectorSize int) (sr *SectorReader, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			err = log.Wrap(errRaw.(error))
		}
	}()

	if sectorSize <= 0 || sectorSize&(sectorSize-1) != 0 {
		log.Panicf("sector size (%d) is not a positive power of two", sectorSize)
	}

	sr = &SectorReader{
		rs:         rs,
		sectorSize: int64(sectorSize),
	}

	return sr, nil
}

func (sr *SectorReader) alignDown(position int64) int64 {
	return position - (position % sr.sectorSize)
}

// Read implements io.Reader by reading the containing sector(s) and
// copying out the requested slice.
func (sr *SectorReader) Read(p []byte) (n int, err error) {
	aligned := sr.alignDown(sr.position)
	skip := sr.position - aligned

	readLen := skip + int64(len(p))
	readLen = ((readLen + sr.sectorSize - 1) / sr.sectorSize) * sr.sectorSize

	buffer := make([]byte, readLen)

	if _, err := sr.rs.Seek(aligned, io.SeekStart); err != nil {
		return 0, err
	}

	read, err := io.ReadFull(sr.rs, buffer)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, err
	}

	available := int64(read) - skip
	if available <= 0 {
		return 0, io.EOF
	}

	n = copy(p, buffer[skip:int64(read)])
	sr.position += int64(n)

	return n, nil
}

// Seek implements io.Seeker. SeekEnd is rejected: the sector-aligned
// adapter does not itself know the size of the underlying volume image,
// and the core only ever seeks relative to Start/Current over it.
func (sr *SectorReader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		sr.position = offset
	case io.SeekCurrent:
		sr.position += offset
	default:
		return 0, &NtfsError{Kind: ErrIo, Message: "SectorReader does not support SeekEnd"}
	}

	return sr.position, nil
}
