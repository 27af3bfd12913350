// Package detect implements the duplicate detection engine: a staged
// pipeline that classifies a batch of images into duplicate groups.
//
// Detection runs three stages in a fixed order. Exact matching groups
// byte-identical files by content fingerprint. Pure-color filtering pulls
// near-uniform images (solid backgrounds, failed renders) out of the
// candidate pool so they cannot pollute perceptual groups. Perceptual
// grouping then clusters the survivors by hash agreement, using one of
// three strategies: baseline single-orientation voting, rotation-invariant
// voting, or the enhanced multi-variant detector with feature-based
// confidence scoring. Strategies degrade gracefully: if the enhanced
// detector cannot run it falls back to rotation-invariant, which in turn
// falls back to baseline.
//
// Earlier stages always win: a file claimed by exact matching never
// reaches pure-color filtering, and a pure-color file never reaches
// perceptual grouping. Grouping is greedy in discovery order, so results
// are deterministic for a given input ordering.
package detect
