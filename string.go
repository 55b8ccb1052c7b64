package ntfs

import (
	"io"
	"io/ioutil"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// utf16leDecoder is shared across every name/string decode in this
// package, the same way defaultEncoding is shared across every
// restruct.Unpack call.
var utf16leDecoder = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// decodeUtf16 converts a raw, even-length UTF-16LE byte slice (as file
// names, volume names and attribute names are all stored on disk) into a
// Go string.
func decodeUtf16(raw []byte) (string, *NtfsError) {
	if len(raw)%2 != 0 {
		return "", errBufferTooSmall(len(raw)+1, len(raw))
	}

	reader := transform.NewReader(newByteReader(raw), utf16leDecoder)

	decoded, err := ioutil.ReadAll(reader)
	if err != nil {
		return "", errIo(err)
	}

	return string(decoded), nil
}

// byteReader is a trivial io.Reader over a fixed byte slice, used to feed
// transform.NewReader without pulling in bytes.Reader's Seek/other
// methods that aren't needed here.
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (br *byteReader) Read(p []byte) (int, error) {
	if br.pos >= len(br.data) {
		return 0, io.EOF
	}

	n := copy(p, br.data[br.pos:])
	br.pos += n

	return n, nil
}

// upperUtf16Unit returns the upper-cased form of a single UTF-16 code
// unit using the volume's $UpCase table, falling back to ASCII case
// folding when no table is available (e.g. before the volume's upcase
// table has been loaded).
func upperUtf16Unit(table []uint16, unit uint16) uint16 {
	if table != nil && int(unit) < len(table) {
		return table[unit]
	}

	if unit >= 'a' && unit <= 'z' {
		return unit - ('a' - 'A')
	}

	return unit
}
