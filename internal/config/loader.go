package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default profile file name.
const DefaultConfigFile = ".picdup"

// ErrConfigNotFound is returned when the profile file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Profile holds detection settings from the profile file. All fields are
// pointers so an omitted key is distinguishable from an explicit zero or
// false; only the keys present in the file override the defaults.
type Profile struct {
	// DifferenceThreshold overrides the difference-hash distance threshold.
	DifferenceThreshold *int `yaml:"differenceThreshold"`

	// AverageThreshold overrides the average-hash distance threshold.
	AverageThreshold *int `yaml:"averageThreshold"`

	// FrequencyThreshold overrides the frequency-hash distance threshold.
	FrequencyThreshold *int `yaml:"frequencyThreshold"`

	// PureColor toggles the pure-color filtering stage.
	PureColor *bool `yaml:"pureColor"`

	// Rotation toggles rotation-invariant comparison.
	Rotation *bool `yaml:"rotation"`

	// Enhanced toggles multi-scale, multi-angle detection.
	Enhanced *bool `yaml:"enhanced"`

	// ConfidenceThreshold overrides the enhanced confidence threshold.
	ConfidenceThreshold *float64 `yaml:"confidenceThreshold"`

	// HashSize overrides the perceptual hash edge length.
	HashSize *int `yaml:"hashSize"`

	// FeatureWeight overrides the enhanced feature weight.
	FeatureWeight *float64 `yaml:"featureWeight"`

	// Workers overrides the worker count.
	Workers *int `yaml:"workers"`

	// Recursive toggles descending into subdirectories.
	Recursive *bool `yaml:"recursive"`
}

// File is the parsed profile file. Defaults apply to every scan;
// Directories maps scan directory paths to per-directory overrides.
//
// Example .picdup:
//
//	defaults:
//	  pureColor: true
//	directories:
//	  /photos/screenshots:
//	    enhanced: true
//	    confidenceThreshold: 0.7
type File struct {
	Defaults    Profile            `yaml:"defaults"`
	Directories map[string]Profile `yaml:"directories"`
}

// ProfileFor returns the merged profile for a scan directory: defaults
// first, then per-directory keys on top. The directory is matched after
// filepath.Clean so trailing slashes don't matter.
func (f *File) ProfileFor(dir string) Profile {
	merged := f.Defaults
	if f.Directories == nil {
		return merged
	}

	p, ok := f.Directories[filepath.Clean(dir)]
	if !ok {
		return merged
	}

	if p.DifferenceThreshold != nil {
		merged.DifferenceThreshold = p.DifferenceThreshold
	}
	if p.AverageThreshold != nil {
		merged.AverageThreshold = p.AverageThreshold
	}
	if p.FrequencyThreshold != nil {
		merged.FrequencyThreshold = p.FrequencyThreshold
	}
	if p.PureColor != nil {
		merged.PureColor = p.PureColor
	}
	if p.Rotation != nil {
		merged.Rotation = p.Rotation
	}
	if p.Enhanced != nil {
		merged.Enhanced = p.Enhanced
	}
	if p.ConfidenceThreshold != nil {
		merged.ConfidenceThreshold = p.ConfidenceThreshold
	}
	if p.HashSize != nil {
		merged.HashSize = p.HashSize
	}
	if p.FeatureWeight != nil {
		merged.FeatureWeight = p.FeatureWeight
	}
	if p.Workers != nil {
		merged.Workers = p.Workers
	}
	if p.Recursive != nil {
		merged.Recursive = p.Recursive
	}
	return merged
}

// ApplyProfile copies the profile's set keys onto the config.
// Called before CLI flag overrides, so explicit flags always win.
func (c *Config) ApplyProfile(p Profile) {
	if p.DifferenceThreshold != nil {
		c.DifferenceThreshold = *p.DifferenceThreshold
	}
	if p.AverageThreshold != nil {
		c.AverageThreshold = *p.AverageThreshold
	}
	if p.FrequencyThreshold != nil {
		c.FrequencyThreshold = *p.FrequencyThreshold
	}
	if p.PureColor != nil {
		c.PureColor = *p.PureColor
	}
	if p.Rotation != nil {
		c.Rotation = *p.Rotation
	}
	if p.Enhanced != nil {
		c.Enhanced = *p.Enhanced
	}
	if p.ConfidenceThreshold != nil {
		c.ConfidenceThreshold = *p.ConfidenceThreshold
	}
	if p.HashSize != nil {
		c.HashSize = *p.HashSize
	}
	if p.FeatureWeight != nil {
		c.FeatureWeight = *p.FeatureWeight
	}
	if p.Workers != nil {
		c.Workers = *p.Workers
	}
	if p.Recursive != nil {
		c.Recursive = *p.Recursive
	}
}

// LoadConfigFile loads scan profiles from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	// Initialize Directories map if nil
	if cf.Directories == nil {
		cf.Directories = make(map[string]Profile)
	}

	return &cf, nil
}

// FindConfigFile searches for the profile file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .picdup in the current directory
// 3. Look for .picdup in the user's home directory
//
// Returns the path to the profile file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
