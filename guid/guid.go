// Package guid formats the raw 16-byte GUIDs carried by $OBJECT_ID
// (ObjectId, BirthVolumeId, BirthObjectId, DomainId) in the standard
// Microsoft text form. It is a caller-level convenience, kept separate
// from the core decode path the same way nttime is.
package guid

import "fmt"

// String renders a raw 16-byte GUID in the usual
// "XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX" form. The first three fields
// are little-endian on disk, as Windows stores GUIDs; the final two are
// taken byte-for-byte.
func String(raw [16]byte) string {
	return fmt.Sprintf(
		"%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		uint32(raw[3])<<24|uint32(raw[2])<<16|uint32(raw[1])<<8|uint32(raw[0]),
		uint16(raw[5])<<8|uint16(raw[4]),
		uint16(raw[7])<<8|uint16(raw[6]),
		raw[8], raw[9],
		raw[10], raw[11], raw[12], raw[13], raw[14], raw[15])
}
