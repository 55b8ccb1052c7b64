package ntfs

import (
	"encoding/binary"

	"github.com/go-restruct/restruct"
)

// defaultEncoding is the byte order every on-disk NTFS structure uses.
// It is threaded through every restruct.Unpack call in this package.
var defaultEncoding = binary.LittleEndian

// parseN unpacks raw into x using restruct, recovering from the
// panics restruct raises on reflection errors and turning them into a
// regular error return.
func parseN(raw []byte, x interface{}) (err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			if asErr, ok := errRaw.(error); ok {
				err = asErr
			} else {
				err = errBufferTooSmall(0, len(raw))
			}
		}
	}()

	return restruct.Unpack(raw, defaultEncoding, x)
}
