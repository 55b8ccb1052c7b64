package ntfs

import "fmt"

// FileAttributes mirrors the Windows FILE_ATTRIBUTE_* bitmask as carried
// by $STANDARD_INFORMATION and $FILE_NAME.
type FileAttributes uint32

const (
	FileAttributeReadonly          FileAttributes = 0x00000001
	FileAttributeHidden            FileAttributes = 0x00000002
	FileAttributeSystem            FileAttributes = 0x00000004
	FileAttributeDirectory         FileAttributes = 0x00000010
	FileAttributeArchive           FileAttributes = 0x00000020
	FileAttributeDevice            FileAttributes = 0x00000040
	FileAttributeNormal            FileAttributes = 0x00000080
	FileAttributeTemporary         FileAttributes = 0x00000100
	FileAttributeSparseFile        FileAttributes = 0x00000200
	FileAttributeReparsePoint      FileAttributes = 0x00000400
	FileAttributeCompressed        FileAttributes = 0x00000800
	FileAttributeOffline           FileAttributes = 0x00001000
	FileAttributeNotContentIndexed FileAttributes = 0x00002000
	FileAttributeEncrypted         FileAttributes = 0x00004000

	// FileAttributeIsDirectory is set only within a $FILE_NAME attribute's
	// flags field, where the MFT duplicates the child's directory status
	// so a directory index entry can classify it without loading the
	// child's own $STANDARD_INFORMATION. It is distinct from
	// FileAttributeDirectory, which never appears in this field.
	FileAttributeIsDirectory FileAttributes = 0x10000000
)

var fileAttributeNames = []struct {
	bit  FileAttributes
	name string
}{
	{FileAttributeReadonly, "READONLY"},
	{FileAttributeHidden, "HIDDEN"},
	{FileAttributeSystem, "SYSTEM"},
	{FileAttributeDirectory, "DIRECTORY"},
	{FileAttributeArchive, "ARCHIVE"},
	{FileAttributeDevice, "DEVICE"},
	{FileAttributeNormal, "NORMAL"},
	{FileAttributeTemporary, "TEMPORARY"},
	{FileAttributeSparseFile, "SPARSE_FILE"},
	{FileAttributeReparsePoint, "REPARSE_POINT"},
	{FileAttributeCompressed, "COMPRESSED"},
	{FileAttributeOffline, "OFFLINE"},
	{FileAttributeNotContentIndexed, "NOT_CONTENT_INDEXED"},
	{FileAttributeEncrypted, "ENCRYPTED"},
}

func (fa FileAttributes) String() string {
	s := ""
	for _, entry := range fileAttributeNames {
		if fa&entry.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += entry.name
		}
	}
	if s == "" {
		return "NONE"
	}
	return s
}

// Dump prints the attribute flags one per line.
func (fa FileAttributes) Dump(indent string) {
	for _, entry := range fileAttributeNames {
		fmt.Printf("%s%s: [%v]\n", indent, entry.name, fa&entry.bit != 0)
	}
}

// FileNameNamespace identifies which of the (up to four) namespaces a
// $FILE_NAME attribute belongs to.
type FileNameNamespace uint8

const (
	FileNameNamespacePosix     FileNameNamespace = 0
	FileNameNamespaceWin32     FileNameNamespace = 1
	FileNameNamespaceDos       FileNameNamespace = 2
	FileNameNamespaceWin32Dos  FileNameNamespace = 3
)

func (ns FileNameNamespace) String() string {
	switch ns {
	case FileNameNamespacePosix:
		return "POSIX"
	case FileNameNamespaceWin32:
		return "WIN32"
	case FileNameNamespaceDos:
		return "DOS"
	case FileNameNamespaceWin32Dos:
		return "WIN32_AND_DOS"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(ns))
	}
}

// StandardInformationValue is the decoded $STANDARD_INFORMATION
// structured value.
type StandardInformationValue struct {
	CreationTime         uint64
	LastModificationTime uint64
	LastMftChangeTime    uint64
	LastAccessTime       uint64
	FileAttributes       FileAttributes
	MaximumVersions      uint32
	VersionNumber        uint32
	ClassId              uint32
	OwnerId              uint32
	SecurityId           uint32
	QuotaCharged         uint64
	UpdateSequenceNumber uint64
}

const standardInformationMinSize = 48

// parseStandardInformationValue decodes a $STANDARD_INFORMATION value.
// Pre-3.x volumes only carry the first 48 bytes; the NTFS 3.x fields
// (OwnerId onward) default to zero when absent.
func parseStandardInformationValue(raw []byte, position Position) (*StandardInformationValue, *NtfsError) {
	if len(raw) < standardInformationMinSize {
		return nil, errInvalidStructuredValueSize(position, AttributeTypeStandardInformation,
			standardInformationMinSize, uint64(len(raw)))
	}

	v := &StandardInformationValue{
		CreationTime:         leUint64(raw[0:8]),
		LastModificationTime: leUint64(raw[8:16]),
		LastMftChangeTime:    leUint64(raw[16:24]),
		LastAccessTime:       leUint64(raw[24:32]),
		FileAttributes:       FileAttributes(leUint32(raw[32:36])),
		MaximumVersions:      leUint32(raw[36:40]),
		VersionNumber:        leUint32(raw[40:44]),
		ClassId:              leUint32(raw[44:48]),
	}

	if len(raw) >= 72 {
		v.OwnerId = leUint32(raw[48:52])
		v.SecurityId = leUint32(raw[52:56])
		v.QuotaCharged = leUint64(raw[56:64])
		v.UpdateSequenceNumber = leUint64(raw[64:72])
	}

	return v, nil
}

// FileNameValue is the decoded $FILE_NAME structured value.
type FileNameValue struct {
	ParentDirectory      FileReference
	CreationTime         uint64
	LastModificationTime uint64
	LastMftChangeTime    uint64
	LastAccessTime       uint64
	AllocatedSize        uint64
	DataSize             uint64
	FileAttributes       FileAttributes
	ReparseTagOrEaSize   uint32
	Namespace            FileNameNamespace
	Name                 string
}

const fileNameHeaderSize = 66

// parseFileNameValue decodes a $FILE_NAME structured value, whether it
// arrived as a resident attribute's value or (as index.go uses it) as
// the key bytes of a directory index entry: both have the identical
// layout.
func parseFileNameValue(raw []byte, position Position) (*FileNameValue, *NtfsError) {
	if len(raw) < fileNameHeaderSize {
		return nil, errInvalidStructuredValueSize(position, AttributeTypeFileName,
			fileNameHeaderSize, uint64(len(raw)))
	}

	nameLength := int(raw[64])
	namespace := FileNameNamespace(raw[65])

	nameEnd := fileNameHeaderSize + nameLength*2
	if nameEnd > len(raw) {
		return nil, errInvalidStructuredValueSize(position, AttributeTypeFileName, uint64(nameEnd), uint64(len(raw)))
	}

	name, derr := decodeUtf16(raw[fileNameHeaderSize:nameEnd])
	if derr != nil {
		return nil, derr
	}

	return &FileNameValue{
		ParentDirectory:      parseFileReference(raw[0:8]),
		CreationTime:         leUint64(raw[8:16]),
		LastModificationTime: leUint64(raw[16:24]),
		LastMftChangeTime:    leUint64(raw[24:32]),
		LastAccessTime:       leUint64(raw[32:40]),
		AllocatedSize:        leUint64(raw[40:48]),
		DataSize:             leUint64(raw[48:56]),
		FileAttributes:       FileAttributes(leUint32(raw[56:60])),
		ReparseTagOrEaSize:   leUint32(raw[60:64]),
		Namespace:            namespace,
		Name:                 name,
	}, nil
}

// VolumeInformationValue is the decoded $VOLUME_INFORMATION structured
// value.
type VolumeInformationValue struct {
	MajorVersion uint8
	MinorVersion uint8
	Flags        uint16
}

const volumeInformationSize = 12

func parseVolumeInformationValue(raw []byte, position Position) (*VolumeInformationValue, *NtfsError) {
	if len(raw) < volumeInformationSize {
		return nil, errInvalidStructuredValueSize(position, AttributeTypeVolumeInformation,
			volumeInformationSize, uint64(len(raw)))
	}

	return &VolumeInformationValue{
		MajorVersion: raw[8],
		MinorVersion: raw[9],
		Flags:        leUint16(raw[10:12]),
	}, nil
}

// parseVolumeNameValue decodes a $VOLUME_NAME value: a bare UTF-16LE
// string occupying the whole attribute value.
func parseVolumeNameValue(raw []byte) (string, *NtfsError) {
	return decodeUtf16(raw)
}

// ObjectIdValue is the decoded $OBJECT_ID structured value. Only
// ObjectId is guaranteed present; the birth-* GUIDs are zero when the
// attribute is shorter (a file that has never been copied across
// volumes carries only its ObjectId).
type ObjectIdValue struct {
	ObjectId      [16]byte
	BirthVolumeId [16]byte
	BirthObjectId [16]byte
	DomainId      [16]byte
}

func parseObjectIdValue(raw []byte, position Position) (*ObjectIdValue, *NtfsError) {
	if len(raw) < 16 {
		return nil, errInvalidStructuredValueSize(position, AttributeTypeObjectId, 16, uint64(len(raw)))
	}

	v := &ObjectIdValue{}
	copy(v.ObjectId[:], raw[0:16])

	if len(raw) >= 64 {
		copy(v.BirthVolumeId[:], raw[16:32])
		copy(v.BirthObjectId[:], raw[32:48])
		copy(v.DomainId[:], raw[48:64])
	}

	return v, nil
}

// StandardInformation decodes fr's $STANDARD_INFORMATION attribute.
func (n *Ntfs) StandardInformation(fr *FileRecord) (*StandardInformationValue, *NtfsError) {
	attr := fr.findRawAttribute(AttributeTypeStandardInformation, "")
	if attr == nil {
		return nil, errAttributeNotFound(fr.record.Position(), AttributeTypeStandardInformation)
	}

	raw, err := attr.ResidentValue(fr.record.Data())
	if err != nil {
		return nil, err
	}

	return parseStandardInformationValue(raw, attr.Position())
}

// FileNames decodes every $FILE_NAME attribute instance present on fr
// (a file may carry one per namespace: POSIX, Win32, DOS, or a combined
// Win32+DOS entry).
func (n *Ntfs) FileNames(fr *FileRecord) ([]*FileNameValue, *NtfsError) {
	values := make([]*FileNameValue, 0)

	for _, attr := range fr.attrs {
		if attr.Type() != AttributeTypeFileName {
			continue
		}

		raw, err := attr.ResidentValue(fr.record.Data())
		if err != nil {
			return nil, err
		}

		value, verr := parseFileNameValue(raw, attr.Position())
		if verr != nil {
			return nil, verr
		}

		values = append(values, value)
	}

	return values, nil
}

// VolumeInformation decodes the volume's $VOLUME_INFORMATION attribute
// (MFT record 3, $Volume).
func (n *Ntfs) VolumeInformation() (*VolumeInformationValue, *NtfsError) {
	fr, err := n.FileRecordByNumber(RecordNumberVolume)
	if err != nil {
		return nil, err
	}

	attr := fr.findRawAttribute(AttributeTypeVolumeInformation, "")
	if attr == nil {
		return nil, errAttributeNotFound(fr.record.Position(), AttributeTypeVolumeInformation)
	}

	raw, rerr := attr.ResidentValue(fr.record.Data())
	if rerr != nil {
		return nil, rerr
	}

	return parseVolumeInformationValue(raw, attr.Position())
}

// VolumeName decodes the volume's $VOLUME_NAME attribute.
func (n *Ntfs) VolumeName() (string, *NtfsError) {
	fr, err := n.FileRecordByNumber(RecordNumberVolume)
	if err != nil {
		return "", err
	}

	attr := fr.findRawAttribute(AttributeTypeVolumeName, "")
	if attr == nil {
		return "", errAttributeNotFound(fr.record.Position(), AttributeTypeVolumeName)
	}

	raw, rerr := attr.ResidentValue(fr.record.Data())
	if rerr != nil {
		return "", rerr
	}

	return parseVolumeNameValue(raw)
}

// ObjectId decodes fr's $OBJECT_ID attribute, if present.
func (n *Ntfs) ObjectId(fr *FileRecord) (*ObjectIdValue, *NtfsError) {
	attr := fr.findRawAttribute(AttributeTypeObjectId, "")
	if attr == nil {
		return nil, errAttributeNotFound(fr.record.Position(), AttributeTypeObjectId)
	}

	raw, err := attr.ResidentValue(fr.record.Data())
	if err != nil {
		return nil, err
	}

	return parseObjectIdValue(raw, attr.Position())
}
