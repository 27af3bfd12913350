package model

import (
	"github.com/picdup/picdup/internal/feature"
	"github.com/picdup/picdup/internal/imghash"
)

// HashTriple bundles the three perceptual hashes of one image variant.
type HashTriple struct {
	Difference imghash.Hash
	Average    imghash.Hash
	Frequency  imghash.Hash
}

// Variant is one precomputed transformation of an image: rotated by Angle
// degrees, scaled by Scale, hashed at HashSize bits per side. The enhanced
// strategy compares every variant pair of two images.
type Variant struct {
	Angle    int
	Scale    float64
	HashSize int
	Width    int
	Height   int
	Hashes   HashTriple
	Features feature.Vector
}

// ImageRecord holds everything computed about a single candidate image
// during one run. Records are created once during hash computation, never
// mutated afterwards, and discarded when the run ends.
type ImageRecord struct {
	// Path uniquely identifies the image within a run.
	Path string

	// Index is the discovery position in the walker's ordering. Grouping
	// is greedy in index order, so this fixes group membership.
	Index int

	// Fingerprint is the content digest over the raw file bytes.
	Fingerprint string

	// Hashes are the perceptual hashes of the unmodified image.
	Hashes HashTriple

	// Rotated maps rotation angles (90, 180, 270) to hash triples.
	// Populated only by the rotation-invariant strategy; angle 0 is
	// served by Hashes.
	Rotated map[int]HashTriple

	// Variants holds the angle×scale×hash-size cross product computed by
	// the enhanced strategy.
	Variants []Variant

	// Features is the feature vector of the unmodified image.
	Features feature.Vector

	// PureColor marks a near-uniform image.
	PureColor bool
}

// TripleAt returns the hash triple for the given rotation angle, falling
// back to the unrotated hashes for angle 0.
func (r *ImageRecord) TripleAt(angle int) (HashTriple, bool) {
	if angle == 0 {
		return r.Hashes, true
	}
	t, ok := r.Rotated[angle]
	return t, ok
}
