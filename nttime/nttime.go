// Package nttime converts between NTFS's 64-bit timestamp format and
// time.Time. It is a caller-level convenience, not something the core
// decode path ever needs: every structured value in this library hands
// back the raw NT timestamp unchanged, and converting it to wall-clock
// time is left to whoever actually wants to print or compare one.
package nttime

import (
	"errors"
	"time"
)

// epochOffset is the number of 100-nanosecond intervals between the NT
// epoch (1601-01-01T00:00:00Z) and the Unix epoch (1970-01-01T00:00:00Z).
const epochOffset = 116444736000000000

// ErrOutOfRange is returned by ToNtTime when a time.Time can't be
// represented as an NT timestamp, either because it precedes the NT
// epoch or because it is too far in the future for 100ns ticks to fit in
// a uint64.
var ErrOutOfRange = errors.New("nttime: time value out of NT timestamp range")

// FromNtTime converts a raw NT timestamp (100ns intervals since
// 1601-01-01T00:00:00Z, as stored in $STANDARD_INFORMATION and
// $FILE_NAME) into a time.Time in UTC.
func FromNtTime(nt uint64) time.Time {
	ticks := int64(nt) - epochOffset
	seconds := ticks / 10000000
	nanos := (ticks % 10000000) * 100

	return time.Unix(seconds, nanos).UTC()
}

// ToNtTime converts t into a raw NT timestamp, failing with
// ErrOutOfRange when t predates the NT epoch or the result would
// overflow a uint64.
func ToNtTime(t time.Time) (uint64, error) {
	const ticksPerSecond = 10000000
	const epochSeconds = epochOffset / ticksPerSecond
	const maxSeconds = int64((^uint64(0)-(ticksPerSecond-1))/ticksPerSecond) - epochSeconds

	seconds := t.Unix()
	if seconds < -epochSeconds || seconds > maxSeconds {
		return 0, ErrOutOfRange
	}

	return uint64(seconds+epochSeconds)*ticksPerSecond + uint64(t.Nanosecond()/100), nil
}
