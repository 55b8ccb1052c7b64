package ntfs

import (
	"encoding/binary"
	"fmt"
)

// NtfsAttributeType identifies the kind of data an attribute carries. The
// numeric values are the on-disk type codes NTFS itself uses, so a type
// read off disk never needs translation.
type NtfsAttributeType uint32

const (
	AttributeTypeStandardInformation NtfsAttributeType = 0x10
	AttributeTypeAttributeList       NtfsAttributeType = 0x20
	AttributeTypeFileName            NtfsAttributeType = 0x30
	AttributeTypeObjectId            NtfsAttributeType = 0x40
	AttributeTypeSecurityDescriptor  NtfsAttributeType = 0x50
	AttributeTypeVolumeName          NtfsAttributeType = 0x60
	AttributeTypeVolumeInformation   NtfsAttributeType = 0x70
	AttributeTypeData                NtfsAttributeType = 0x80
	AttributeTypeIndexRoot           NtfsAttributeType = 0x90
	AttributeTypeIndexAllocation     NtfsAttributeType = 0xA0
	AttributeTypeBitmap              NtfsAttributeType = 0xB0
	AttributeTypeReparsePoint        NtfsAttributeType = 0xC0
	AttributeTypeEaInformation       NtfsAttributeType = 0xD0
	AttributeTypeEa                  NtfsAttributeType = 0xE0
	AttributeTypePropertySet         NtfsAttributeType = 0xF0
	AttributeTypeLoggedUtilityStream NtfsAttributeType = 0x100
	AttributeTypeEnd                 NtfsAttributeType = 0xFFFFFFFF
)

var attributeTypeNames = map[NtfsAttributeType]string{
	AttributeTypeStandardInformation: "$STANDARD_INFORMATION",
	AttributeTypeAttributeList:       "$ATTRIBUTE_LIST",
	AttributeTypeFileName:            "$FILE_NAME",
	AttributeTypeObjectId:            "$OBJECT_ID",
	AttributeTypeSecurityDescriptor:  "$SECURITY_DESCRIPTOR",
	AttributeTypeVolumeName:          "$VOLUME_NAME",
	AttributeTypeVolumeInformation:   "$VOLUME_INFORMATION",
	AttributeTypeData:                "$DATA",
	AttributeTypeIndexRoot:           "$INDEX_ROOT",
	AttributeTypeIndexAllocation:     "$INDEX_ALLOCATION",
	AttributeTypeBitmap:              "$BITMAP",
	AttributeTypeReparsePoint:        "$REPARSE_POINT",
	AttributeTypeEaInformation:       "$EA_INFORMATION",
	AttributeTypeEa:                  "$EA",
	AttributeTypePropertySet:         "$PROPERTY_SET",
	AttributeTypeLoggedUtilityStream: "$LOGGED_UTILITY_STREAM",
	AttributeTypeEnd:                 "<END>",
}

func (t NtfsAttributeType) String() string {
	if name, found := attributeTypeNames[t]; found == true {
		return name
	}

	return fmt.Sprintf("0x%08x", uint32(t))
}

// NtfsAttributeFlags are the bits carried in an attribute header's Flags
// field.
type NtfsAttributeFlags uint16

const (
	AttributeFlagCompressed NtfsAttributeFlags = 0x0001
	AttributeFlagEncrypted  NtfsAttributeFlags = 0x4000
	AttributeFlagSparse     NtfsAttributeFlags = 0x8000
)

func (f NtfsAttributeFlags) IsCompressed() bool { return f&AttributeFlagCompressed != 0 }
func (f NtfsAttributeFlags) IsEncrypted() bool  { return f&AttributeFlagEncrypted != 0 }
func (f NtfsAttributeFlags) IsSparse() bool     { return f&AttributeFlagSparse != 0 }

// genericAttributeHeader is the 16-byte header common to every attribute,
// resident or not.
type genericAttributeHeader struct {
	Type           uint32
	Length         uint32
	IsNonResident  uint8
	NameLength     uint8
	NameOffset     uint16
	Flags          uint16
	Instance       uint16
}

// residentExtension follows the generic header when IsNonResident is 0.
type residentExtension struct {
	ValueLength  uint32
	ValueOffset  uint16
	IndexedFlag  uint8
	Padding      uint8
}

// nonResidentExtension follows the generic header when IsNonResident is 1.
type nonResidentExtension struct {
	LowestVcn               int64
	HighestVcn              int64
	DataRunsOffset          uint16
	CompressionUnitExponent uint16
	Reserved                [4]byte
	AllocatedSize           uint64
	DataSize                uint64
	InitializedSize         uint64
}

// NtfsAttribute is a single decoded attribute within a File Record: the
// generic header plus whichever resident/non-resident extension applies,
// plus the name and value byte ranges (still relative to the owning
// Record's buffer).
type NtfsAttribute struct {
	position Position

	ty            NtfsAttributeType
	length        uint32
	isNonResident bool
	flags         NtfsAttributeFlags
	instance      uint16

	name string

	resident    *residentExtension
	nonResident *nonResidentExtension

	valueRange [2]int // start, end, relative to raw
	rawRange   [2]int // start, end of the whole attribute, relative to raw
}

// Type returns the attribute's type code.
func (a *NtfsAttribute) Type() NtfsAttributeType { return a.ty }

// IsNonResident reports whether the attribute's value is stored outside
// the File Record, as Data Runs.
func (a *NtfsAttribute) IsNonResident() bool { return a.isNonResident }

// Flags returns the attribute's flag bits.
func (a *NtfsAttribute) Flags() NtfsAttributeFlags { return a.flags }

// Name returns the attribute's name (empty for the unnamed instance of a
// type, e.g. the primary $DATA stream).
func (a *NtfsAttribute) Name() string { return a.name }

// Position is the byte position, within the volume, of this attribute's
// header.
func (a *NtfsAttribute) Position() Position { return a.position }

// Length is the total size, in bytes, this attribute occupies in its
// owning record.
func (a *NtfsAttribute) Length() uint32 { return a.length }

// parseAttribute decodes a single attribute starting at offset within raw.
// When offset lands on the End marker it returns a nil attribute, a
// consumed count of 4 and isEnd set to true.
func parseAttribute(raw []byte, offset int, recordPosition Position) (attr *NtfsAttribute, consumed int, isEnd bool, err *NtfsError) {
	position := recordPosition.Add(uint64(offset))

	if offset+4 > len(raw) {
		return nil, 0, false, errInvalidAttributeLength(position, 4, len(raw)-offset)
	}

	if binary.LittleEndian.Uint32(raw[offset:offset+4]) == uint32(AttributeTypeEnd) {
		return nil, 4, true, nil
	}

	const genericHeaderSize = 16
	if offset+genericHeaderSize > len(raw) {
		return nil, 0, false, errInvalidAttributeLength(position, genericHeaderSize, len(raw)-offset)
	}

	var header genericAttributeHeader
	if perr := parseN(raw[offset:offset+genericHeaderSize], &header); perr != nil {
		return nil, 0, false, errBufferTooSmall(genericHeaderSize, len(raw)-offset)
	}

	if header.Length < genericHeaderSize || offset+int(header.Length) > len(raw) {
		return nil, 0, false, errInvalidAttributeLength(position, int(header.Length), len(raw)-offset)
	}

	rawAttr := raw[offset : offset+int(header.Length)]

	attr = &NtfsAttribute{
		position:      position,
		ty:            NtfsAttributeType(header.Type),
		length:        header.Length,
		isNonResident: header.IsNonResident != 0,
		flags:         NtfsAttributeFlags(header.Flags),
		instance:      header.Instance,
		rawRange:      [2]int{offset, offset + int(header.Length)},
	}

	if header.NameLength > 0 {
		nameStart := int(header.NameOffset)
		nameEnd := nameStart + int(header.NameLength)*2
		if nameStart < genericHeaderSize || nameEnd > len(rawAttr) {
			return nil, 0, false, errInvalidAttributeNameOffset(position, nameStart, len(rawAttr))
		}

		name, derr := decodeUtf16(rawAttr[nameStart:nameEnd])
		if derr != nil {
			return nil, 0, false, derr
		}
		attr.name = name
	}

	if attr.isNonResident {
		const extSize = 8 + 8 + 2 + 2 + 4 + 8 + 8 + 8
		if genericHeaderSize+extSize > len(rawAttr) {
			return nil, 0, false, errInvalidAttributeLength(position, genericHeaderSize+extSize, len(rawAttr))
		}

		var ext nonResidentExtension
		if perr := parseN(rawAttr[genericHeaderSize:genericHeaderSize+extSize], &ext); perr != nil {
			return nil, 0, false, errBufferTooSmall(extSize, len(rawAttr)-genericHeaderSize)
		}
		attr.nonResident = &ext

		runsStart := int(ext.DataRunsOffset)
		if runsStart < genericHeaderSize+extSize || runsStart > len(rawAttr) {
			return nil, 0, false, errInvalidAttributeLength(position, runsStart, len(rawAttr))
		}
		attr.valueRange = [2]int{offset + runsStart, offset + len(rawAttr)}
	} else {
		const extSize = 4 + 2 + 1 + 1
		if genericHeaderSize+extSize > len(rawAttr) {
			return nil, 0, false, errInvalidAttributeLength(position, genericHeaderSize+extSize, len(rawAttr))
		}

		var ext residentExtension
		if perr := parseN(rawAttr[genericHeaderSize:genericHeaderSize+extSize], &ext); perr != nil {
			return nil, 0, false, errBufferTooSmall(extSize, len(rawAttr)-genericHeaderSize)
		}
		attr.resident = &ext

		valueStart := int(ext.ValueOffset)
		valueEnd := valueStart + int(ext.ValueLength)
		if valueStart < genericHeaderSize+extSize || valueEnd > len(rawAttr) {
			return nil, 0, false, errInvalidResidentAttributeValueLength(position, int(ext.ValueLength), len(rawAttr)-valueStart)
		}
		attr.valueRange = [2]int{offset + valueStart, offset + valueEnd}
	}

	return attr, int(header.Length), false, nil
}

// ResidentValue returns the attribute's raw value bytes when the attribute
// is resident, failing with ErrUnexpectedNonResidentAttribute otherwise.
func (a *NtfsAttribute) ResidentValue(raw []byte) ([]byte, *NtfsError) {
	if a.isNonResident {
		return nil, errUnexpectedNonResidentAttribute(a.position)
	}

	return raw[a.valueRange[0]:a.valueRange[1]], nil
}

// DataRunsRaw returns the raw mapping-pairs bytes for a non-resident
// attribute, failing with ErrUnexpectedResidentAttribute otherwise.
func (a *NtfsAttribute) DataRunsRaw(raw []byte) ([]byte, *NtfsError) {
	if !a.isNonResident {
		return nil, errUnexpectedResidentAttribute(a.position)
	}

	return raw[a.valueRange[0]:a.valueRange[1]], nil
}

// DataRuns returns the parsed mapping-pairs for a non-resident
// attribute, failing with ErrUnexpectedResidentAttribute otherwise.
func (a *NtfsAttribute) DataRuns(raw []byte) ([]DataRun, *NtfsError) {
	runsRaw, err := a.DataRunsRaw(raw)
	if err != nil {
		return nil, err
	}

	return parseDataRuns(runsRaw, a.LowestVcn(), a.position)
}

// AllocatedSize, DataSize and InitializedSize read the non-resident
// extension. For a resident attribute AllocatedSize returns zero, while
// DataSize and InitializedSize return the resident value length, which
// already serves as that value's own size.
func (a *NtfsAttribute) AllocatedSize() uint64 {
	if a.nonResident == nil {
		return 0
	}
	return a.nonResident.AllocatedSize
}

func (a *NtfsAttribute) DataSize() uint64 {
	if a.nonResident == nil {
		if a.resident != nil {
			return uint64(a.resident.ValueLength)
		}
		return 0
	}
	return a.nonResident.DataSize
}

func (a *NtfsAttribute) InitializedSize() uint64 {
	if a.nonResident == nil {
		return a.DataSize()
	}
	return a.nonResident.InitializedSize
}

// LowestVcn and HighestVcn describe the VCN range this attribute segment
// covers, which only matters when it participates in an Attribute List
// chain spanning several File Records.
func (a *NtfsAttribute) LowestVcn() Vcn {
	if a.nonResident == nil {
		return 0
	}
	return Vcn(a.nonResident.LowestVcn)
}

func (a *NtfsAttribute) HighestVcn() Vcn {
	if a.nonResident == nil {
		return 0
	}
	return Vcn(a.nonResident.HighestVcn)
}

// rawAttributes iterates every attribute physically present in a single
// record's buffer, in on-disk order, stopping at the End marker. This is
// the un-stitched view; callers that need Attribute-List-aware iteration
// across File Records should use (*Ntfs).Attribute instead.
func rawAttributes(record *Record, firstAttributeOffset int) ([]*NtfsAttribute, *NtfsError) {
	raw := record.Data()
	offset := firstAttributeOffset

	attrs := make([]*NtfsAttribute, 0)

	for {
		attr, consumed, isEnd, err := parseAttribute(raw, offset, record.Position())
		if err != nil {
			return nil, err
		}
		if isEnd {
			break
		}

		attrs = append(attrs, attr)
		offset += consumed

		if offset >= len(raw) {
			break
		}
	}

	return attrs, nil
}
