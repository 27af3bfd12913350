package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages. Using errors.New() here rather than fmt.Errorf()
// because we don't need to include dynamic values in these messages.
var (
	// ErrNoDirectory is returned when no scan directory is specified.
	// The directory comes from the positional argument of the scan command.
	ErrNoDirectory = errors.New("no directory specified: provide a directory to scan")

	// ErrInvalidThreshold is returned when a hash distance threshold is
	// negative. A negative threshold can never match; use 0 to require
	// identical hashes.
	ErrInvalidThreshold = errors.New("invalid threshold: must be non-negative")

	// ErrInvalidHashSize is returned when the hash size is outside [2, 32].
	// A size below 2 carries almost no signal, and sizes above 32 are
	// slower than decoding the images without improving accuracy.
	ErrInvalidHashSize = errors.New("invalid hash size: must be between 2 and 32")

	// ErrInvalidConfidence is returned when the confidence threshold is
	// outside [0, 1]. Confidence is a fraction of certainty, not a distance.
	ErrInvalidConfidence = errors.New("invalid confidence threshold: must be between 0 and 1")

	// ErrInvalidFeatureWeight is returned when the feature weight is
	// outside [0, 1]. The weight splits the combined score between hash
	// distance and feature similarity.
	ErrInvalidFeatureWeight = errors.New("invalid feature weight: must be between 0 and 1")

	// ErrInvalidWorkers is returned when the worker count is negative.
	// Use 0 to size the pool automatically from the CPU count.
	ErrInvalidWorkers = errors.New("invalid workers: must be non-negative")

	// ErrConflictingReportFormats is returned when more than one of --json,
	// --markdown, and --csv is specified. Only one output format can be
	// used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: choose one of --json, --markdown, --csv")
)
