package ntfs

import (
	"fmt"
)

// Position is an absolute byte offset on the volume that may legitimately
// be unknown: sparse Data Runs and out-of-range stream positions have no
// sensible absolute position, and that "none" state has to propagate
// through the arithmetic the same way a known position does.
type Position struct {
	known bool
	value uint64
}

// NewPosition builds a known Position. A value of zero is still a valid
// position (the very first byte of the volume).
func NewPosition(value uint64) Position {
	return Position{known: true, value: value}
}

// NoPosition is the "none" Position.
func NoPosition() Position {
	return Position{}
}

// Value returns the stored offset and whether it is known.
func (p Position) Value() (uint64, bool) {
	return p.value, p.known
}

// Add returns a new Position offset by delta bytes. A "none" Position
// stays "none"; arithmetic wraps the same way the original NTFS
// implementation's position arithmetic does, since an overflowing
// position is already meaningless and the overflow itself is never the
// condition callers need to detect here (that is caught earlier, at the
// cluster/VCN layer).
func (p Position) Add(delta uint64) Position {
	if !p.known {
		return p
	}
	return Position{known: true, value: p.value + delta}
}

func (p Position) String() string {
	if !p.known {
		return "<NONE>"
	}
	return fmt.Sprintf("0x%x", p.value)
}

// Lcn is a Logical Cluster Number: an absolute cluster index from the
// start of the volume.
type Lcn uint64

// CheckedAdd adds a Vcn delta to this Lcn, failing rather than wrapping
// on overflow or underflow.
func (l Lcn) CheckedAdd(v Vcn) (Lcn, bool) {
	if v >= 0 {
		sum := uint64(l) + uint64(v)
		if sum < uint64(l) {
			return 0, false
		}
		return Lcn(sum), true
	}

	delta := uint64(-v)
	if delta > uint64(l) {
		return 0, false
	}
	return Lcn(uint64(l) - delta), true
}

// Position returns the absolute byte position of this LCN, failing if
// the multiplication by clusterSize overflows.
func (l Lcn) Position(clusterSize uint32) (Position, *NtfsError) {
	value := uint64(l)
	cs := uint64(clusterSize)
	product := value * cs
	if cs != 0 && product/cs != value {
		return Position{}, errLcnTooBig(l)
	}
	return NewPosition(product), nil
}

func (l Lcn) String() string {
	return fmt.Sprintf("%d", uint64(l))
}

// Vcn is a Virtual Cluster Number: a cluster index relative either to
// the start of an attribute value or to a previous Lcn, as used in
// mapping-pair deltas. It is signed because mapping-pair deltas can run
// backwards.
type Vcn int64

// Offset converts this Vcn into a signed byte offset with respect to
// clusterSize, failing on overflow.
func (v Vcn) Offset(clusterSize uint32) (int64, *NtfsError) {
	value := int64(v)
	cs := int64(clusterSize)
	product := value * cs
	if cs != 0 && product/cs != value {
		return 0, errVcnTooBig(v)
	}
	return product, nil
}

func (v Vcn) String() string {
	return fmt.Sprintf("%d", int64(v))
}
