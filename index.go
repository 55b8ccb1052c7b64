package ntfs

import (
	"io"
)

// indexEntryHeaderSize is the size of the fixed portion of an index
// entry: the file-reference/data union, the entry's own length, key
// length and flags.
const indexEntryHeaderSize = 16

// IndexEntryFlags are the bits carried in an index entry header's Flags
// field.
type IndexEntryFlags uint8

const (
	IndexEntryFlagHasSubnode IndexEntryFlags = 0x01
	IndexEntryFlagLastEntry  IndexEntryFlags = 0x02
)

// IndexEntry is one decoded entry of a B-tree index node: a key (absent
// on the trailing sentinel entry every node carries), the data
// associated with that key, and an optional pointer to a subnode holding
// smaller keys.
type IndexEntry struct {
	position Position

	fileReference FileReference
	keyRaw        []byte

	hasSubnode bool
	isLast     bool
	subnodeVcn Vcn
}

// FileReference returns the FileReference this entry's data carries.
// Only meaningful for a directory's $I30 index, where every entry's data
// is exactly a FileReference to the child File Record.
func (e *IndexEntry) FileReference() FileReference { return e.fileReference }

// HasSubnode reports whether descending further (toward smaller keys)
// requires loading another index node.
func (e *IndexEntry) HasSubnode() bool { return e.hasSubnode }

// SubnodeVcn returns the VCN of this entry's subnode within the owning
// index's $INDEX_ALLOCATION stream. Only valid when HasSubnode is true.
func (e *IndexEntry) SubnodeVcn() Vcn { return e.subnodeVcn }

// IsLastEntry reports whether this is a node's trailing sentinel entry,
// which carries no key and no data.
func (e *IndexEntry) IsLastEntry() bool { return e.isLast }

// FileName decodes this entry's key as a $FILE_NAME structured value.
// Every entry of a directory's $I30 index carries one.
func (e *IndexEntry) FileName() (*FileNameValue, *NtfsError) {
	return parseFileNameValue(e.keyRaw, e.position)
}

// iterateIndexEntries decodes every entry of a single index node (root or
// one $INDEX_ALLOCATION record), stopping after the sentinel entry.
func iterateIndexEntries(raw []byte, position Position) ([]*IndexEntry, *NtfsError) {
	entries := make([]*IndexEntry, 0)

	offset := 0
	for offset+indexEntryHeaderSize <= len(raw) {
		entryPosition := position.Add(uint64(offset))

		entryLength := leUint16(raw[offset+8 : offset+10])
		keyLength := leUint16(raw[offset+10 : offset+12])
		flags := IndexEntryFlags(raw[offset+12])

		if entryLength < indexEntryHeaderSize || offset+int(entryLength) > len(raw) {
			return nil, errInvalidIndexEntrySize(entryPosition, int(entryLength), len(raw)-offset)
		}

		entry := &IndexEntry{
			position:   entryPosition,
			hasSubnode: flags&IndexEntryFlagHasSubnode != 0,
			isLast:     flags&IndexEntryFlagLastEntry != 0,
		}

		// The header's first 8 bytes are a union: a directory ($I30) entry
		// carries the child's FileReference there directly, while a view
		// index (not produced by any index this package loads) would
		// instead carry a data_offset/data_length pair describing a data
		// blob elsewhere in the entry. Every index this package constructs
		// is a file-name index, so the FileReference reading always
		// applies.
		if !entry.isLast {
			entry.fileReference = parseFileReference(raw[offset : offset+8])

			if keyLength > 0 {
				keyStart := offset + indexEntryHeaderSize
				keyEnd := keyStart + int(keyLength)
				if keyEnd > offset+int(entryLength) {
					return nil, errInvalidIndexEntrySize(entryPosition, keyEnd, offset+int(entryLength))
				}
				entry.keyRaw = raw[keyStart:keyEnd]
			}
		}

		if entry.hasSubnode {
			subnodeFieldOffset := offset + int(entryLength) - 8
			if subnodeFieldOffset < offset+indexEntryHeaderSize {
				subnodeFieldOffset = offset + indexEntryHeaderSize
			}
			entry.subnodeVcn = Vcn(int64(leUint64(raw[subnodeFieldOffset : subnodeFieldOffset+8])))
		}

		entries = append(entries, entry)
		offset += int(entryLength)

		if entry.isLast {
			break
		}
	}

	return entries, nil
}

// indexNodeHeaderSize is the size of the node header embedded both in
// $INDEX_ROOT (right after the root-specific fields) and at the start of
// every $INDEX_ALLOCATION record (right after the VCN field).
const indexNodeHeaderSize = 16

func parseIndexNodeHeader(raw []byte, base int) (entriesOffset, indexLength, allocatedSize uint32, flags byte) {
	entriesOffset = leUint32(raw[base : base+4])
	indexLength = leUint32(raw[base+4 : base+8])
	allocatedSize = leUint32(raw[base+8 : base+12])
	flags = raw[base+12]
	return
}

// Index is a traversable view over a B-tree index: the entries embedded
// in $INDEX_ROOT plus, for a large index, the $INDEX_ALLOCATION stream
// holding the rest of the tree's nodes.
type Index struct {
	n              *Ntfs
	collationRule  uint32
	rootEntriesRaw []byte
	allocation     AttributeValueReader
	recordSize     uint32
	isLarge        bool
}

const indexRootHeaderSize = 16

// LoadIndex loads the named index (conventionally "$I30" for a
// directory's file-name index) from fr.
func LoadIndex(n *Ntfs, fr *FileRecord, indexName string) (*Index, *NtfsError) {
	rootAttr := fr.findRawAttribute(AttributeTypeIndexRoot, indexName)
	if rootAttr == nil {
		return nil, errAttributeNotFound(fr.record.Position(), AttributeTypeIndexRoot)
	}

	rootRaw, err := rootAttr.ResidentValue(fr.record.Data())
	if err != nil {
		return nil, err
	}
	if len(rootRaw) < indexRootHeaderSize+indexNodeHeaderSize {
		return nil, errInvalidStructuredValueSize(rootAttr.Position(), AttributeTypeIndexRoot,
			uint64(indexRootHeaderSize+indexNodeHeaderSize), uint64(len(rootRaw)))
	}

	collationRule := leUint32(rootRaw[4:8])

	entriesOffset, indexLength, _, flags := parseIndexNodeHeader(rootRaw, indexRootHeaderSize)
	isLarge := flags&0x01 != 0

	entriesStart := indexRootHeaderSize + int(entriesOffset)
	entriesEnd := indexRootHeaderSize + int(indexLength)
	if entriesStart > len(rootRaw) || entriesEnd > len(rootRaw) || entriesStart > entriesEnd {
		return nil, errInvalidIndexRootUsedSize(rootAttr.Position(), entriesEnd, len(rootRaw))
	}

	idx := &Index{
		n:              n,
		collationRule:  collationRule,
		rootEntriesRaw: rootRaw[entriesStart:entriesEnd],
		recordSize:     n.bootSector.IndexRecordSize(),
		isLarge:        isLarge,
	}

	if isLarge {
		allocAttr := fr.findRawAttribute(AttributeTypeIndexAllocation, indexName)
		if allocAttr == nil {
			return nil, errMissingIndexAllocation(rootAttr.Position())
		}

		allocation, aerr := n.Attribute(fr, AttributeTypeIndexAllocation, indexName)
		if aerr != nil {
			return nil, aerr
		}
		idx.allocation = allocation
	}

	return idx, nil
}

// DirectoryIndex is a convenience for the common case: loading a
// directory File Record's $I30 file-name index.
func (fr *FileRecord) DirectoryIndex(n *Ntfs) (*Index, *NtfsError) {
	if !fr.IsDirectory() {
		return nil, errNotADirectory(fr.record.Position())
	}

	return LoadIndex(n, fr, "$I30")
}

func (idx *Index) loadSubnode(vcn Vcn) ([]*IndexEntry, *NtfsError) {
	if idx.allocation == nil {
		return nil, errMissingIndexAllocation(NoPosition())
	}

	byteOffset, err := vcn.Offset(idx.n.bootSector.ClusterSize())
	if err != nil {
		return nil, err
	}

	if _, ioErr := idx.allocation.Seek(byteOffset, io.SeekStart); ioErr != nil {
		return nil, errIo(ioErr)
	}

	record, lerr := LoadRecord(idx.allocation, NewPosition(uint64(byteOffset)), int(idx.recordSize), []byte("INDX"))
	if lerr != nil {
		return nil, lerr
	}

	data := record.Data()
	if len(data) < recordHeaderSize+8+indexNodeHeaderSize {
		return nil, errInvalidStructuredValueSize(record.Position(), AttributeTypeIndexAllocation,
			uint64(recordHeaderSize+8+indexNodeHeaderSize), uint64(len(data)))
	}

	storedVcn := Vcn(int64(leUint64(data[recordHeaderSize : recordHeaderSize+8])))
	if storedVcn != vcn {
		return nil, errVcnMismatchInIndexAllocation(record.Position(), vcn, storedVcn)
	}

	nodeBase := recordHeaderSize + 8
	entriesOffset, indexLength, _, _ := parseIndexNodeHeader(data, nodeBase)

	entriesStart := nodeBase + int(entriesOffset)
	entriesEnd := nodeBase + int(indexLength)
	if entriesStart > len(data) || entriesEnd > len(data) || entriesStart > entriesEnd {
		return nil, errInvalidIndexEntrySize(record.Position(), entriesEnd, len(data))
	}

	return iterateIndexEntries(data[entriesStart:entriesEnd], record.Position())
}

// IndexVisitorFunc is a visitor callback invoked once for every key-bearing
// entry in in-order (ascending key) sequence. Returning false stops the
// traversal early.
type IndexVisitorFunc func(entry *IndexEntry) (bool, *NtfsError)

// Each walks the whole index in ascending key order.
func (idx *Index) Each(cb IndexVisitorFunc) *NtfsError {
	rootEntries, err := iterateIndexEntries(idx.rootEntriesRaw, NoPosition())
	if err != nil {
		return err
	}

	_, err = idx.visit(rootEntries, cb)
	return err
}

func (idx *Index) visit(entries []*IndexEntry, cb IndexVisitorFunc) (bool, *NtfsError) {
	for _, entry := range entries {
		if entry.hasSubnode {
			subEntries, err := idx.loadSubnode(entry.subnodeVcn)
			if err != nil {
				return false, err
			}

			doContinue, err := idx.visit(subEntries, cb)
			if err != nil || !doContinue {
				return doContinue, err
			}
		}

		if !entry.isLast {
			doContinue, err := cb(entry)
			if err != nil || !doContinue {
				return doContinue, err
			}
		}
	}

	return true, nil
}

// Find performs a binary-search-style descent for a file name, using
// upcase for the case-insensitive collation NTFS directory indexes use.
// It returns a nil entry, with no error, when no matching key exists.
func (idx *Index) Find(name string, upcase *UpcaseTable) (*IndexEntry, *NtfsError) {
	rootEntries, err := iterateIndexEntries(idx.rootEntriesRaw, NoPosition())
	if err != nil {
		return nil, err
	}

	return idx.findIn(rootEntries, name, upcase)
}

func (idx *Index) findIn(entries []*IndexEntry, name string, upcase *UpcaseTable) (*IndexEntry, *NtfsError) {
	for _, entry := range entries {
		if entry.isLast {
			if entry.hasSubnode {
				subEntries, err := idx.loadSubnode(entry.subnodeVcn)
				if err != nil {
					return nil, err
				}
				return idx.findIn(subEntries, name, upcase)
			}
			return nil, nil
		}

		key, err := entry.FileName()
		if err != nil {
			return nil, err
		}

		cmp := upcase.Compare(name, key.Name)
		if cmp == 0 {
			return entry, nil
		}

		if cmp < 0 {
			if entry.hasSubnode {
				subEntries, err := idx.loadSubnode(entry.subnodeVcn)
				if err != nil {
					return nil, err
				}
				return idx.findIn(subEntries, name, upcase)
			}
			return nil, nil
		}
	}

	return nil, nil
}
