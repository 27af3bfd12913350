package detect

import (
	"runtime"

	"github.com/picdup/picdup/internal/imghash"
)

// Baseline Hamming distance thresholds. A pair of images matches on an
// algorithm when its distance is strictly below the threshold, and is
// grouped when at least two of the three algorithms agree.
//
// Design decision: the difference hash gets a much looser threshold than
// the other two because gradient bits are noisy under recompression,
// while average and frequency hashes are stable enough that even small
// distances indicate real visual divergence. The 2-of-3 vote absorbs the
// resulting asymmetry.
const (
	DefaultDifferenceThreshold = 8
	DefaultAverageThreshold    = 2
	DefaultFrequencyThreshold  = 2
)

// Enhanced-strategy thresholds. The enhanced detector compares the best
// variant pair out of the full rotation and scale cross product, so a
// looser inclusive cutoff is safe: feature similarity and the confidence
// gate do the final filtering.
const (
	enhancedDifferenceThreshold = 12
	enhancedAverageThreshold    = 4
	enhancedFrequencyThreshold  = 4
)

// DefaultConfidenceThreshold is the minimum blended confidence the
// enhanced detector requires before accepting a pair.
const DefaultConfidenceThreshold = 0.6

// DefaultFeatureWeight is the share of the enhanced combined score
// contributed by feature similarity; the rest comes from hash distance.
const DefaultFeatureWeight = 0.3

// featureSimilarCutoff is the feature similarity above which a single
// agreeing hash algorithm is enough for the enhanced detector.
const featureSimilarCutoff = 0.7

// DefaultHashSize is the per-side bit resolution of perceptual hashes.
const DefaultHashSize = 8

// Rotation angles and scale factors covered by the variant cross product.
var (
	rotationAngles = []int{0, 90, 180, 270}
	variantScales  = []float64{0.75, 1.0, 1.25}
)

// Error budget for the fingerprint stage: batches of at least
// errorBudgetMinFiles abort when more than one file in ten fails.
// Smaller batches never abort; a handful of bad files in a tiny batch
// says nothing about provider health.
const (
	errorBudgetMinFiles = 10
	errorBudgetDivisor  = 10
)

// Config carries the detection parameters for one run. The zero value is
// not usable; start from DefaultConfig.
type Config struct {
	// DifferenceThreshold, AverageThreshold and FrequencyThreshold are
	// the baseline per-algorithm Hamming distance cutoffs (exclusive).
	DifferenceThreshold int
	AverageThreshold    int
	FrequencyThreshold  int

	// DetectPureColor enables the pure-color filtering stage.
	DetectPureColor bool

	// DetectRotation selects the rotation-invariant perceptual strategy.
	DetectRotation bool

	// EnhancedSimilarity selects the enhanced multi-variant strategy.
	// Takes precedence over DetectRotation when both are set.
	EnhancedSimilarity bool

	// ConfidenceThreshold is the minimum enhanced confidence in [0,1].
	ConfidenceThreshold float64

	// HashSize is the per-side bit resolution of perceptual hashes.
	HashSize int

	// PureColorCutoff is the per-channel standard deviation below which
	// an image counts as pure-color.
	PureColorCutoff float64

	// FeatureWeight is the feature-similarity share of the enhanced
	// combined score, in [0,1].
	FeatureWeight float64

	// Workers bounds hash computation concurrency. Zero means one worker
	// per CPU.
	Workers int
}

// DefaultConfig returns the documented default parameters: baseline
// voting with pure-color filtering on, rotation and enhanced detection
// off.
func DefaultConfig() Config {
	return Config{
		DifferenceThreshold: DefaultDifferenceThreshold,
		AverageThreshold:    DefaultAverageThreshold,
		FrequencyThreshold:  DefaultFrequencyThreshold,
		DetectPureColor:     true,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		HashSize:            DefaultHashSize,
		PureColorCutoff:     imghash.DefaultPureColorCutoff,
		FeatureWeight:       DefaultFeatureWeight,
		Workers:             runtime.NumCPU(),
	}
}

// normalize replaces out-of-range values with their defaults so a partly
// filled Config cannot wedge the detector.
func (c *Config) normalize() {
	if c.DifferenceThreshold <= 0 {
		c.DifferenceThreshold = DefaultDifferenceThreshold
	}
	if c.AverageThreshold <= 0 {
		c.AverageThreshold = DefaultAverageThreshold
	}
	if c.FrequencyThreshold <= 0 {
		c.FrequencyThreshold = DefaultFrequencyThreshold
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		c.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if c.HashSize < 2 {
		c.HashSize = DefaultHashSize
	}
	if c.PureColorCutoff <= 0 {
		c.PureColorCutoff = imghash.DefaultPureColorCutoff
	}
	if c.FeatureWeight < 0 || c.FeatureWeight > 1 {
		c.FeatureWeight = DefaultFeatureWeight
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}
