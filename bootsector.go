package ntfs

import (
	"io"

	log "github.com/dsoprea/go-logging"
)

// bootSectorSize is the size of the NTFS boot sector, which always
// occupies the first physical sector of the volume.
const bootSectorSize = 512

// bootSectorSignature is the trailing 2-byte "55 AA" marker every
// x86 boot sector carries.
var bootSectorSignature = []byte{0x55, 0xAA}

// bootSectorHeader is the on-disk BIOS Parameter Block, restruct-tagged
// field by field.
type bootSectorHeader struct {
	JumpBoot          [3]byte
	OemID             [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	Reserved1         [7]byte
	MediaDescriptor   uint8
	Unused3           [2]byte
	SectorsPerTrack   uint16
	NumberOfHeads     uint16
	HiddenSectors     uint32
	Unused4           [4]byte
	Unused5           [4]byte
	TotalSectors      uint64
	MftLcn            uint64
	MftMirrLcn        uint64
	FileRecordSegment int8
	Unused6           [3]byte
	IndexBufferSize   int8
	Unused7           [3]byte
	VolumeSerial      uint64
	Checksum          [4]byte
}

// BootSector is the decoded, validated BIOS Parameter Block: the
// volume descriptor every other component in this library is built
// over.
type BootSector struct {
	sectorSize      uint32
	clusterSize     uint32
	totalSize       uint64
	mftPosition     Position
	fileRecordSize  uint32
	indexRecordSize uint32
	serial          uint64
}

// ParseBootSector reads and validates the boot sector at the start of
// r.
func ParseBootSector(r ReadSeeker) (bs *BootSector, err *NtfsError) {
	if _, ioErr := r.Seek(0, io.SeekStart); ioErr != nil {
		return nil, errIo(ioErr)
	}

	raw := make([]byte, bootSectorSize)
	if _, ioErr := io.ReadFull(r, raw); ioErr != nil {
		return nil, errIo(ioErr)
	}

	signature := raw[510:512]
	if signature[0] != bootSectorSignature[0] || signature[1] != bootSectorSignature[1] {
		return nil, errInvalidTwoByteSignature(NewPosition(510), bootSectorSignature, signature)
	}

	var header bootSectorHeader
	if parseErr := parseN(raw[:84], &header); parseErr != nil {
		log.Panic(parseErr)
	}

	if header.BytesPerSector != 512 {
		return nil, &NtfsError{
			Kind:    ErrUnsupportedSectorSize,
			Actual:  uint64(header.BytesPerSector),
			Message: "unsupported sector size; only 512-byte sectors are supported",
		}
	}
	sectorSize := uint32(header.BytesPerSector)

	clusterSize, clusterErr := resolveClusterSize(sectorSize, header.SectorsPerCluster)
	if clusterErr != nil {
		return nil, clusterErr
	}
	if clusterSize < 512 || clusterSize > 2*1024*1024 {
		return nil, &NtfsError{
			Kind:    ErrUnsupportedClusterSize,
			Actual:  uint64(clusterSize),
			Message: "cluster size out of the supported [512, 2 MiB] range",
		}
	}

	if header.MftLcn == 0 {
		return nil, errInvalidMftLcn()
	}

	totalSize := header.TotalSectors * uint64(sectorSize)
	if sectorSize != 0 && totalSize/uint64(sectorSize) != header.TotalSectors {
		return nil, &NtfsError{
			Kind:    ErrTotalSectorsTooBig,
			Actual:  header.TotalSectors,
			Message: "total sector count is too big to be multiplied by the sector size",
		}
	}

	mftPosition, posErr := Lcn(header.MftLcn).Position(clusterSize)
	if posErr != nil {
		return nil, posErr
	}

	fileRecordSize, frErr := resolveRecordSize(clusterSize, header.FileRecordSegment)
	if frErr != nil {
		return nil, frErr
	}

	indexRecordSize, irErr := resolveRecordSize(clusterSize, header.IndexBufferSize)
	if irErr != nil {
		return nil, irErr
	}

	bs = &BootSector{
		sectorSize:      sectorSize,
		clusterSize:     clusterSize,
		totalSize:       totalSize,
		mftPosition:     mftPosition,
		fileRecordSize:  fileRecordSize,
		indexRecordSize: indexRecordSize,
		serial:          header.VolumeSerial,
	}

	return bs, nil
}

// resolveClusterSize applies the boot sector's "negative power-of-two
// exponent" encoding: values above 128, read as a signed byte, denote
// cluster_size = sector_size * 2^|E|.
func resolveClusterSize(sectorSize uint32, sectorsPerCluster uint8) (uint32, *NtfsError) {
	if sectorsPerCluster <= 128 {
		if sectorsPerCluster == 0 {
			return 0, errInvalidSectorsPerCluster(sectorsPerCluster)
		}
		return sectorSize * uint32(sectorsPerCluster), nil
	}

	exponent := -int8(sectorsPerCluster)
	if exponent < 1 || exponent > 12 {
		return 0, errInvalidSectorsPerCluster(sectorsPerCluster)
	}

	return sectorSize << uint(exponent), nil
}

// resolveRecordSize applies the signed record-size-indicator encoding
// shared by the file-record-size and index-record-size fields: a
// positive value is a cluster count, a negative value -n denotes a
// fixed size of 2^n bytes.
func resolveRecordSize(clusterSize uint32, indicator int8) (uint32, *NtfsError) {
	if indicator > 0 {
		return clusterSize * uint32(indicator), nil
	}

	exponent := -int(indicator)
	if exponent < 10 || exponent > 12 {
		return 0, errInvalidRecordSizeInfo(indicator, clusterSize)
	}

	return uint32(1) << uint(exponent), nil
}

// SectorSize returns the volume's physical sector size in bytes.
func (bs *BootSector) SectorSize() uint32 { return bs.sectorSize }

// ClusterSize returns the volume's cluster size in bytes.
func (bs *BootSector) ClusterSize() uint32 { return bs.clusterSize }

// TotalSize returns the total volume size in bytes.
func (bs *BootSector) TotalSize() uint64 { return bs.totalSize }

// MftPosition returns the absolute byte position of the Master File
// Table's first File Record.
func (bs *BootSector) MftPosition() Position { return bs.mftPosition }

// FileRecordSize returns the size, in bytes, of a single File Record.
func (bs *BootSector) FileRecordSize() uint32 { return bs.fileRecordSize }

// IndexRecordSize returns the size, in bytes, of a single Index Record.
func (bs *BootSector) IndexRecordSize() uint32 { return bs.indexRecordSize }

// Serial returns the volume's 64-bit serial number.
func (bs *BootSector) Serial() uint64 { return bs.serial }
