package config

import (
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"

	"github.com/picdup/picdup/internal/detect"
)

// Default configuration values.
// Detection thresholds live in the detect package next to the algorithms
// they tune; the values here cover the CLI surface only.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "picdup"

	// DefaultWorkers of 0 means "use one worker per CPU". Hashing is
	// CPU-bound, so matching the core count saturates the machine without
	// oversubscribing it. Users can lower this via --workers on shared hosts.
	DefaultWorkers = 0
)

// Config holds all configuration options for picdup.
// This struct is populated from CLI flags and an optional profile file,
// then passed through the application via dependency injection rather
// than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., DetectConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// The detect package has its own Config; DetectConfig() bridges the two.
type Config struct {
	// Directory is the directory to scan for duplicate images.
	// Required; relative paths are resolved by the caller.
	Directory string

	// Recursive enables descending into subdirectories of Directory.
	// When false, only images directly inside Directory are scanned.
	Recursive bool

	// DifferenceThreshold is the maximum difference-hash distance (exclusive)
	// for two images to count as similar under that algorithm.
	DifferenceThreshold int

	// AverageThreshold is the maximum average-hash distance (exclusive).
	AverageThreshold int

	// FrequencyThreshold is the maximum frequency-hash distance (exclusive).
	FrequencyThreshold int

	// PureColor enables the pure-color filtering stage, which groups
	// near-uniform images (blank frames, solid backgrounds) together and
	// keeps them out of perceptual comparison.
	PureColor bool

	// Rotation enables rotation-invariant comparison. Each image is hashed
	// at 90-degree increments so rotated copies are still detected.
	Rotation bool

	// Enhanced enables multi-scale, multi-angle detection with
	// feature-based confidence scoring. Implies rotation handling.
	Enhanced bool

	// ConfidenceThreshold is the minimum confidence for an enhanced match
	// to be reported. Only used when Enhanced is true.
	ConfidenceThreshold float64

	// HashSize is the perceptual hash edge length in bits.
	HashSize int

	// FeatureWeight is the weight of feature similarity in the enhanced
	// combined score, in [0, 1]. The remainder weights hash distance.
	FeatureWeight float64

	// Workers is the number of concurrent hashing workers.
	// Zero means one worker per CPU.
	Workers int

	// FastHasher selects the lower-quality but faster downscaling path
	// for hashing. Useful for very large collections.
	FastHasher bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the profile file.
	// If empty, the tool searches for .picdup in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// Profiles holds per-directory settings loaded from the profile file.
	// This is populated by LoadConfigFile and applied before flag overrides.
	Profiles *File

	// JSONReport enables JSON report output instead of human-readable format.
	// Mutually exclusive with MarkdownReport and CSVReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output with tables, alerts,
	// and pie charts. Mutually exclusive with JSONReport and CSVReport.
	MarkdownReport bool

	// CSVReport enables CSV report output, one row per group member.
	// Mutually exclusive with JSONReport and MarkdownReport.
	CSVReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// DBDir is the directory path for storing the SQLite database.
	// When set, run results are saved to the database for history queries.
	// When empty, run results are not persisted.
	// Defaults to XDG data directory (~/.local/share/picdup on Linux).
	DBDir string

	// SaveToDB indicates whether to save run results to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// Detection defaults come from the detect package so the CLI and the
// library never disagree about them.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., thresholds, hash
// size). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	d := detect.DefaultConfig()
	return &Config{
		DifferenceThreshold: d.DifferenceThreshold,
		AverageThreshold:    d.AverageThreshold,
		FrequencyThreshold:  d.FrequencyThreshold,
		PureColor:           d.DetectPureColor,
		Rotation:            d.DetectRotation,
		Enhanced:            d.EnhancedSimilarity,
		ConfidenceThreshold: d.ConfidenceThreshold,
		HashSize:            d.HashSize,
		FeatureWeight:       d.FeatureWeight,
		Workers:             DefaultWorkers,
	}
}

// DetectConfig converts the CLI configuration into a detect.Config.
func (c *Config) DetectConfig() detect.Config {
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return detect.Config{
		DifferenceThreshold: c.DifferenceThreshold,
		AverageThreshold:    c.AverageThreshold,
		FrequencyThreshold:  c.FrequencyThreshold,
		DetectPureColor:     c.PureColor,
		DetectRotation:      c.Rotation,
		EnhancedSimilarity:  c.Enhanced,
		ConfidenceThreshold: c.ConfidenceThreshold,
		HashSize:            c.HashSize,
		FeatureWeight:       c.FeatureWeight,
		Workers:             workers,
	}
}

// XDGDataDir returns the XDG data directory for picdup.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/picdup
// On macOS: ~/Library/Application Support/picdup
// On Windows: %LOCALAPPDATA%\picdup
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for picdup.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/picdup
// On macOS: ~/Library/Application Support/picdup
// On Windows: %APPDATA%\picdup
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have a directory to scan
	if c.Directory == "" {
		return ErrNoDirectory
	}

	// Negative thresholds can never match anything
	if c.DifferenceThreshold < 0 || c.AverageThreshold < 0 || c.FrequencyThreshold < 0 {
		return ErrInvalidThreshold
	}

	// Hash size must leave room for at least a few bits of signal
	if c.HashSize < 2 || c.HashSize > 32 {
		return ErrInvalidHashSize
	}

	// Confidence is a fraction
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return ErrInvalidConfidence
	}

	// Feature weight is a fraction of the combined score
	if c.FeatureWeight < 0 || c.FeatureWeight > 1 {
		return ErrInvalidFeatureWeight
	}

	// Workers must be non-negative; zero means auto
	if c.Workers < 0 {
		return ErrInvalidWorkers
	}

	// Report formats are mutually exclusive
	formats := 0
	for _, on := range []bool{c.JSONReport, c.MarkdownReport, c.CSVReport} {
		if on {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	return nil
}
