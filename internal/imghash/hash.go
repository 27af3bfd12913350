package imghash

import (
	"encoding/hex"
	"errors"
	"math/bits"
)

// ErrLengthMismatch is returned when two hashes of different bit lengths
// are compared. This indicates a programming error (mixing hash sizes
// within one run) and is treated as fatal by callers.
var ErrLengthMismatch = errors.New("imghash: hash length mismatch")

// Hash is a fixed-length perceptual hash bit string.
//
// A Hash is immutable once created. The zero value is an empty hash and
// only compares against other empty hashes.
type Hash struct {
	// bits holds the packed hash, most significant bit first.
	// The trailing bits of the final byte are always zero.
	bits []byte

	// n is the number of valid bits.
	n int

	// pure marks the pure-color sentinel. A sentinel compares at maximal
	// distance against everything, including another sentinel, so that
	// near-uniform images never anchor a perceptual group.
	pure bool
}

// newHash packs a boolean matrix row-major into a Hash.
func newHash(b []bool) Hash {
	h := Hash{
		bits: make([]byte, (len(b)+7)/8),
		n:    len(b),
	}
	for i, set := range b {
		if set {
			h.bits[i/8] |= 1 << (7 - i%8)
		}
	}
	return h
}

// PureColor returns the pure-color sentinel for a hash of n bits.
func PureColor(n int) Hash {
	return Hash{n: n, pure: true}
}

// BitLen returns the number of bits in the hash.
func (h Hash) BitLen() int { return h.n }

// IsPureColor reports whether h is the pure-color sentinel.
func (h Hash) IsPureColor() bool { return h.pure }

// IsZero reports whether h is the zero value (no hash computed).
func (h Hash) IsZero() bool { return h.n == 0 && !h.pure }

// Distance returns the Hamming distance between h and other.
//
// Both hashes must have the same bit length; ErrLengthMismatch is returned
// otherwise. If either side is the PureColor sentinel the distance is the
// full bit length, the maximum possible, even when both sides are
// sentinels. This bias is deliberate: two pure-color images are degenerate
// and should be grouped by the pure-color stage, never by hash proximity.
func (h Hash) Distance(other Hash) (int, error) {
	if h.n != other.n {
		return 0, ErrLengthMismatch
	}
	if h.pure || other.pure {
		return h.n, nil
	}
	d := 0
	for i := range h.bits {
		d += bits.OnesCount8(h.bits[i] ^ other.bits[i])
	}
	return d, nil
}

// String returns the hash as a hexadecimal string, or "pure-color" for
// the sentinel. Used in reports and logs.
func (h Hash) String() string {
	if h.pure {
		return "pure-color"
	}
	return hex.EncodeToString(h.bits)
}
