package ntfs

import (
	"encoding/binary"
)

// FileReference identifies a File Record by its number and the sequence
// number that was current when the reference was written, so a stale
// reference to a deleted-and-reused record number can be detected.
type FileReference struct {
	RecordNumber   uint64
	SequenceNumber uint16
}

// parseFileReference decodes the packed 8-byte on-disk form: the low 48
// bits are the record number, the high 16 bits are the sequence number.
func parseFileReference(raw []byte) FileReference {
	packed := binary.LittleEndian.Uint64(raw)

	return FileReference{
		RecordNumber:   packed & 0x0000FFFFFFFFFFFF,
		SequenceNumber: uint16(packed >> 48),
	}
}

// AttributeListEntry is one entry of a $ATTRIBUTE_LIST attribute's value:
// a pointer to one segment of a (possibly split) attribute, identifying
// which File Record that segment's header actually lives in.
type AttributeListEntry struct {
	Type          NtfsAttributeType
	StartingVcn   Vcn
	FileReference FileReference
	AttributeId   uint16
	Name          string
}

const attributeListEntryHeaderSize = 26

// parseAttributeList decodes an entire $ATTRIBUTE_LIST value into its
// ordered entries.
func parseAttributeList(raw []byte, position Position) ([]AttributeListEntry, *NtfsError) {
	entries := make([]AttributeListEntry, 0)

	offset := 0
	for offset < len(raw) {
		if offset+attributeListEntryHeaderSize > len(raw) {
			return nil, errInvalidStructuredValueSize(position, AttributeTypeAttributeList,
				uint64(offset+attributeListEntryHeaderSize), uint64(len(raw)))
		}

		entryType := binary.LittleEndian.Uint32(raw[offset : offset+4])
		recordLength := binary.LittleEndian.Uint16(raw[offset+4 : offset+6])
		nameLength := raw[offset+6]
		nameOffset := raw[offset+7]
		startingVcn := binary.LittleEndian.Uint64(raw[offset+8 : offset+16])
		fileReference := parseFileReference(raw[offset+16 : offset+24])
		attributeId := binary.LittleEndian.Uint16(raw[offset+24 : offset+26])

		if recordLength == 0 || offset+int(recordLength) > len(raw) {
			return nil, errInvalidStructuredValueSize(position, AttributeTypeAttributeList,
				uint64(recordLength), uint64(len(raw)-offset))
		}

		entry := AttributeListEntry{
			Type:          NtfsAttributeType(entryType),
			StartingVcn:   Vcn(startingVcn),
			FileReference: fileReference,
			AttributeId:   attributeId,
		}

		if nameLength > 0 {
			nameStart := offset + int(nameOffset)
			nameEnd := nameStart + int(nameLength)*2
			if nameStart < offset+attributeListEntryHeaderSize || nameEnd > offset+int(recordLength) {
				return nil, errInvalidStructuredValueSize(position, AttributeTypeAttributeList,
					uint64(nameEnd), uint64(len(raw)))
			}

			name, derr := decodeUtf16(raw[nameStart:nameEnd])
			if derr != nil {
				return nil, derr
			}
			entry.Name = name
		}

		entries = append(entries, entry)
		offset += int(recordLength)
	}

	return entries, nil
}

// attributeSegment pairs a decoded attribute with the raw buffer of the
// File Record it actually lives in, since a split attribute's segments
// are scattered across several records.
type attributeSegment struct {
	attribute *NtfsAttribute
	raw       []byte
}

// mergeAttributeSegments combines the Data Runs of every segment of a
// split non-resident attribute, in increasing VCN order, into a single
// run list plus the aggregate sizes recorded by the base segment (the
// one with LowestVcn 0, which alone carries the attribute's true
// AllocatedSize/DataSize/InitializedSize).
func mergeAttributeSegments(segments []attributeSegment) ([]DataRun, uint64, uint64, *NtfsError) {
	var allRuns []DataRun
	var dataSize, initializedSize uint64
	haveBase := false

	for _, seg := range segments {
		runsRaw, err := seg.attribute.DataRunsRaw(seg.raw)
		if err != nil {
			return nil, 0, 0, err
		}

		runs, err := parseDataRuns(runsRaw, seg.attribute.LowestVcn(), seg.attribute.Position())
		if err != nil {
			return nil, 0, 0, err
		}

		allRuns = append(allRuns, runs...)

		if seg.attribute.LowestVcn() == 0 {
			dataSize = seg.attribute.DataSize()
			initializedSize = seg.attribute.InitializedSize()
			haveBase = true
		}
	}

	if !haveBase && len(segments) > 0 {
		dataSize = segments[0].attribute.DataSize()
		initializedSize = segments[0].attribute.InitializedSize()
	}

	return allRuns, dataSize, initializedSize, nil
}
