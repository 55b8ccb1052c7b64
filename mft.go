package ntfs

import (
	"sort"
)

// Well-known Master File Table record numbers. Every NTFS volume reserves
// the first 16 records for system metadata files; record 16 and onward
// are available for ordinary files and directories.
const (
	RecordNumberMFT           = 0
	RecordNumberMFTMirr       = 1
	RecordNumberLogFile       = 2
	RecordNumberVolume        = 3
	RecordNumberAttrDef       = 4
	RecordNumberRootDirectory = 5
	RecordNumberBitmap        = 6
	RecordNumberBoot          = 7
	RecordNumberBadClus       = 8
	RecordNumberSecure        = 9
	RecordNumberUpCase        = 10
	RecordNumberExtend        = 11
)

// fileRecordSignature is the 4-byte signature every File Record starts
// with, post-fixup.
var fileRecordSignature = []byte("FILE")

// FileRecordFlags are the bits carried in a File Record header's Flags
// field.
type FileRecordFlags uint16

const (
	FileRecordFlagInUse      FileRecordFlags = 0x0001
	FileRecordFlagIsDirectory FileRecordFlags = 0x0002
)

func (f FileRecordFlags) InUse() bool      { return f&FileRecordFlagInUse != 0 }
func (f FileRecordFlags) IsDirectory() bool { return f&FileRecordFlagIsDirectory != 0 }

// fileRecordHeader is the header every File Record carries immediately
// after the signature and Update Sequence Array offset/count handled by
// Record.fixup (bytes 0..8); it starts with the log-file sequence number
// that completes the generic 16-byte record header.
type fileRecordHeader struct {
	LogFileSequenceNumber uint64
	SequenceNumber        uint16
	HardLinkCount         uint16
	FirstAttributeOffset  uint16
	Flags                 uint16
	UsedSize              uint32
	AllocatedSize         uint32
	BaseFileRecordRaw     uint64
	NextAttributeId       uint16
	Padding               uint16
	MftRecordNumber       uint32
}

// parseFileRecordHeader decodes the fields from byte 8 onward directly, the same way record.go reads the Update
// Sequence Array fields: by hand, since this header starts mid-buffer
// and restruct expects to own the whole slice it is given.
func parseFileRecordHeader(data []byte) fileRecordHeader {
	return fileRecordHeader{
		LogFileSequenceNumber: leUint64(data[8:16]),
		SequenceNumber:        leUint16(data[16:18]),
		HardLinkCount:         leUint16(data[18:20]),
		FirstAttributeOffset:  leUint16(data[20:22]),
		Flags:                 leUint16(data[22:24]),
		UsedSize:              leUint32(data[24:28]),
		AllocatedSize:         leUint32(data[28:32]),
		BaseFileRecordRaw:     leUint64(data[32:40]),
		NextAttributeId:       leUint16(data[40:42]),
		Padding:               leUint16(data[42:44]),
		MftRecordNumber:       leUint32(data[44:48]),
	}
}

func leUint16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = (v << 8) | uint64(b[i])
	}
	return v
}

// FileRecord is a single decoded File Record: its header plus the
// attributes physically stored in this record. Attribute-List-aware
// lookups that may span several records are resolved on demand via
// (*Ntfs).Attribute, not eagerly here.
type FileRecord struct {
	record *Record
	header fileRecordHeader
	attrs  []*NtfsAttribute
}

func loadFileRecordAt(r ReadSeeker, position Position, size uint32) (*FileRecord, *NtfsError) {
	record, err := LoadRecord(r, position, int(size), fileRecordSignature)
	if err != nil {
		return nil, err
	}

	if len(record.Data()) < 48 {
		return nil, errBufferTooSmall(48, record.Len())
	}
	header := parseFileRecordHeader(record.Data())

	attrs, err := rawAttributes(record, int(header.FirstAttributeOffset))
	if err != nil {
		return nil, err
	}

	return &FileRecord{record: record, header: header, attrs: attrs}, nil
}

// RecordNumber returns this record's own MFT record number.
func (fr *FileRecord) RecordNumber() uint64 { return uint64(fr.header.MftRecordNumber) }

// SequenceNumber returns the sequence number stamped into this record,
// used to detect stale FileReferences.
func (fr *FileRecord) SequenceNumber() uint16 { return fr.header.SequenceNumber }

// Flags returns the record's header flags.
func (fr *FileRecord) Flags() FileRecordFlags { return FileRecordFlags(fr.header.Flags) }

// IsDirectory reports whether this File Record represents a directory.
func (fr *FileRecord) IsDirectory() bool { return fr.Flags().IsDirectory() }

// IsInUse reports whether this File Record is allocated to a live file
// (as opposed to a freed record awaiting reuse).
func (fr *FileRecord) IsInUse() bool { return fr.Flags().InUse() }

// BaseFileRecord returns the FileReference of the base record this
// record extends, for a record that exists solely to carry overflow
// attributes. The reference is the zero FileReference when this record
// is itself a base record.
func (fr *FileRecord) BaseFileRecord() FileReference {
	buf := make([]byte, 8)
	putUint64LE(buf, fr.header.BaseFileRecordRaw)
	return parseFileReference(buf)
}

// RawAttributes returns every attribute physically stored in this
// record, in on-disk order, without resolving any Attribute List.
func (fr *FileRecord) RawAttributes() []*NtfsAttribute { return fr.attrs }

// RawData returns the fixed-up bytes backing this File Record, suitable
// for passing to an NtfsAttribute's ResidentValue/DataRuns methods.
func (fr *FileRecord) RawData() []byte { return fr.record.Data() }

func putUint64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
}

func (fr *FileRecord) findRawAttribute(ty NtfsAttributeType, name string) *NtfsAttribute {
	for _, attr := range fr.attrs {
		if attr.Type() == ty && attr.Name() == name {
			return attr
		}
	}
	return nil
}

func (fr *FileRecord) attributeListAttribute() *NtfsAttribute {
	return fr.findRawAttribute(AttributeTypeAttributeList, "")
}

// Ntfs is the decoded NTFS volume: the boot sector plus the machinery
// needed to resolve a File Record number into its bytes, by walking the
// $MFT's own data stream.
type Ntfs struct {
	r          ReadSeeker
	bootSector *BootSector
	mftData    AttributeValueReader
	upcase     []uint16
}

// OpenVolume parses the boot sector at the start of r and returns a
// volume handle. r must remain valid for the lifetime of the returned
// *Ntfs and of anything read through it.
func OpenVolume(r ReadSeeker) (*Ntfs, *NtfsError) {
	bootSector, err := ParseBootSector(r)
	if err != nil {
		return nil, err
	}

	return &Ntfs{r: r, bootSector: bootSector}, nil
}

// BootSector returns the volume's decoded boot sector.
func (n *Ntfs) BootSector() *BootSector { return n.bootSector }

func (n *Ntfs) ensureMftDataReader() *NtfsError {
	if n.mftData != nil {
		return nil
	}

	mftRecord, err := loadFileRecordAt(n.r, n.bootSector.MftPosition(), n.bootSector.FileRecordSize())
	if err != nil {
		return err
	}

	dataAttr := mftRecord.findRawAttribute(AttributeTypeData, "")
	if dataAttr == nil {
		return errAttributeNotFound(mftRecord.record.Position(), AttributeTypeData)
	}
	if !dataAttr.IsNonResident() {
		return errUnexpectedResidentAttribute(dataAttr.Position())
	}

	runsRaw, err := dataAttr.DataRunsRaw(mftRecord.record.Data())
	if err != nil {
		return err
	}

	runs, err := parseDataRuns(runsRaw, dataAttr.LowestVcn(), dataAttr.Position())
	if err != nil {
		return err
	}

	n.mftData = newNonResidentValue(n.r, runs, n.bootSector.ClusterSize(), dataAttr.DataSize(), dataAttr.InitializedSize())

	return nil
}

// FileRecordByNumber loads and fixes up the File Record with the given
// number from the $MFT's data stream.
func (n *Ntfs) FileRecordByNumber(number uint64) (*FileRecord, *NtfsError) {
	if err := n.ensureMftDataReader(); err != nil {
		return nil, err
	}

	size := int64(n.bootSector.FileRecordSize())
	offset := int64(number) * size

	if offset < 0 || uint64(offset+size) > n.mftData.Len() {
		return nil, errInvalidFileRecordNumber(number)
	}

	return loadFileRecordAt(n.mftData, NewPosition(uint64(offset)), n.bootSector.FileRecordSize())
}

// RootDirectory returns the File Record for the volume's root directory.
func (n *Ntfs) RootDirectory() (*FileRecord, *NtfsError) {
	return n.FileRecordByNumber(RecordNumberRootDirectory)
}

// Attribute resolves an attribute value by type and name on fr, walking
// its Attribute List (and the other File Records it references) when the
// attribute is split across records.
func (n *Ntfs) Attribute(fr *FileRecord, ty NtfsAttributeType, name string) (AttributeValueReader, *NtfsError) {
	listAttr := fr.attributeListAttribute()
	if listAttr == nil {
		attr := fr.findRawAttribute(ty, name)
		if attr == nil {
			return nil, errAttributeNotFound(fr.record.Position(), ty)
		}

		return n.valueReaderFor(attr, fr.record.Data())
	}

	listBytes, err := n.readAttributeFully(listAttr, fr.record.Data())
	if err != nil {
		return nil, err
	}

	entries, err := parseAttributeList(listBytes, listAttr.Position())
	if err != nil {
		return nil, err
	}

	matching := make([]AttributeListEntry, 0)
	for _, entry := range entries {
		if entry.Type == ty && entry.Name == name {
			matching = append(matching, entry)
		}
	}

	if len(matching) == 0 {
		return nil, errAttributeNotFound(fr.record.Position(), ty)
	}

	sort.Slice(matching, func(i, j int) bool { return matching[i].StartingVcn < matching[j].StartingVcn })

	segments := make([]attributeSegment, 0, len(matching))
	for _, entry := range matching {
		var record *FileRecord
		if entry.FileReference.RecordNumber == fr.RecordNumber() {
			record = fr
		} else {
			record, err = n.FileRecordByNumber(entry.FileReference.RecordNumber)
			if err != nil {
				return nil, err
			}
		}

		attr := record.findRawAttribute(ty, name)
		if attr == nil {
			return nil, errAttributeNotFound(record.record.Position(), ty)
		}

		segments = append(segments, attributeSegment{attribute: attr, raw: record.record.Data()})
	}

	if len(segments) == 1 && !segments[0].attribute.IsNonResident() {
		data, rerr := segments[0].attribute.ResidentValue(segments[0].raw)
		if rerr != nil {
			return nil, rerr
		}
		return newResidentValue(data), nil
	}

	runs, dataSize, initializedSize, merr := mergeAttributeSegments(segments)
	if merr != nil {
		return nil, merr
	}

	return newNonResidentValue(n.r, runs, n.bootSector.ClusterSize(), dataSize, initializedSize), nil
}

func (n *Ntfs) valueReaderFor(attr *NtfsAttribute, raw []byte) (AttributeValueReader, *NtfsError) {
	if !attr.IsNonResident() {
		data, err := attr.ResidentValue(raw)
		if err != nil {
			return nil, err
		}
		return newResidentValue(data), nil
	}

	runsRaw, err := attr.DataRunsRaw(raw)
	if err != nil {
		return nil, err
	}

	runs, err := parseDataRuns(runsRaw, attr.LowestVcn(), attr.Position())
	if err != nil {
		return nil, err
	}

	return newNonResidentValue(n.r, runs, n.bootSector.ClusterSize(), attr.DataSize(), attr.InitializedSize()), nil
}

// readAttributeFully materializes an attribute's entire value into
// memory. Attribute uses it for the $ATTRIBUTE_LIST value, which is
// needed in full rather than streamed.
func (n *Ntfs) readAttributeFully(attr *NtfsAttribute, raw []byte) ([]byte, *NtfsError) {
	reader, err := n.valueReaderFor(attr, raw)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, reader.Len())
	if _, ioErr := readFull(reader, buf); ioErr != nil {
		return nil, errIo(ioErr)
	}

	return buf, nil
}

func readFull(r AttributeValueReader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			if total == len(buf) {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
