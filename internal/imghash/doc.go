// Package imghash computes content fingerprints and perceptual hashes
// for decoded images.
//
// Three independent perceptual fingerprinting schemes are provided:
//   - Difference hash: gradient-based, compares horizontally adjacent pixels
//   - Average hash: mean-threshold over a downscaled grayscale plane
//   - Frequency hash: DCT-coefficient signs against their median
//
// The schemes are deliberately independent so that callers can require
// agreement from more than one of them before declaring two images similar,
// which keeps the false-positive rate low.
//
// Design decision: hashes are exposed as an opaque Hash bit string rather
// than a raw uint64 because the bit resolution is configurable and because
// the average hash can degenerate into a PureColor sentinel that must never
// compare as close to anything.
package imghash
