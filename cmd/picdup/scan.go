package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/picdup/picdup/internal/config"
	"github.com/picdup/picdup/internal/database"
	"github.com/picdup/picdup/internal/detect"
	"github.com/picdup/picdup/internal/imghash"
	"github.com/picdup/picdup/internal/imgio"
	"github.com/picdup/picdup/internal/log"
	"github.com/picdup/picdup/internal/model"
	"github.com/picdup/picdup/internal/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a directory for duplicate and similar images",
		Long: `Scan walks a directory, hashes every image, and reports duplicates.

Detection runs in stages:
- Exact matching groups byte-identical files by content hash
- Pure-color filtering groups near-uniform images (blank frames, solid fills)
- Perceptual matching groups visually similar images using three hash
  algorithms with two-of-three majority voting

Examples:
  # Scan the current directory
  picdup scan .

  # Scan a photo library recursively
  picdup scan -r ~/Pictures

  # Also catch rotated copies
  picdup scan --rotation ~/Pictures

  # Multi-scale detection with confidence scoring, JSON output
  picdup scan --enhanced --json -o report.json ~/Pictures

  # Looser thresholds for heavily re-encoded collections
  picdup scan --dhash-threshold 12 --ahash-threshold 4 ~/Downloads

Profile file (.picdup) example:
  defaults:
    pureColor: true
  directories:
    /photos/screenshots:
      enhanced: true
      confidenceThreshold: 0.7`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScanCmd,
	}

	// Detection flags
	cmd.Flags().Int("dhash-threshold", 0,
		"Maximum difference-hash distance for a match (default from profile or 8)")
	cmd.Flags().Int("ahash-threshold", 0,
		"Maximum average-hash distance for a match (default from profile or 2)")
	cmd.Flags().Int("fhash-threshold", 0,
		"Maximum frequency-hash distance for a match (default from profile or 2)")
	cmd.Flags().Bool("pure-color", true,
		"Group near-uniform images separately before perceptual matching")
	cmd.Flags().Bool("rotation", false,
		"Detect rotated copies (90/180/270 degrees)")
	cmd.Flags().Bool("enhanced", false,
		"Multi-scale, multi-angle detection with confidence scoring")
	cmd.Flags().Float64("confidence", 0,
		"Minimum confidence for enhanced matches, 0-1 (default 0.6)")
	cmd.Flags().Int("hash-size", 0,
		"Perceptual hash edge length in bits (default 8)")
	cmd.Flags().Float64("feature-weight", 0,
		"Weight of feature similarity in the enhanced score, 0-1 (default 0.3)")

	// Performance flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent hashing workers (0 = one per CPU)")
	cmd.Flags().Bool("fast", false,
		"Use faster, lower-quality downscaling for hashing")
	cmd.Flags().BoolP("recursive", "r", false,
		"Descend into subdirectories")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Profile file path (default: .picdup in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report")
	cmd.Flags().Bool("csv", false,
		"Output CSV report, one row per group member")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Database flags
	cmd.Flags().String("db-dir", "",
		"Directory for the run history database (default: XDG data directory)")
	cmd.Flags().Bool("no-db", false,
		"Skip saving the run to the history database")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	// Build config from profile file and flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging. In verbose mode the full debug stream
	// goes to stderr; otherwise warnings surface inline between the
	// progress lines on stdout.
	var logger *slog.Logger
	out := cmd.OutOrStdout()
	if cfg.Verbose {
		logger = log.NewLogger(os.Stderr, true)
	} else {
		logger = log.NewSinkLogger(io.Discard, false, func(line string) {
			fmt.Fprintln(out, line)
		})
	}
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown.
	// On interrupt the detector stops between comparisons and the
	// partial results collected so far are still reported.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(out, "interrupted, finishing with partial results...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runScan(ctx, cmd, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from the profile file and cobra command flags.
//
// Layering order: built-in defaults, then the profile file's merged
// entry for the scan directory, then any flag the user set explicitly.
// Flags are only applied when changed so a profile value is not
// clobbered by a flag's default.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if len(args) > 0 {
		cfg.Directory, err = filepath.Abs(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to resolve directory %q: %w", args[0], err)
		}
	}

	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// Load profiles from the config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently skip profiles if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.Profiles, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyProfile(cfg.Profiles.ProfileFor(cfg.Directory))
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Flag overrides; only flags the user actually set win over the profile.
	intFlags := map[string]*int{
		"dhash-threshold": &cfg.DifferenceThreshold,
		"ahash-threshold": &cfg.AverageThreshold,
		"fhash-threshold": &cfg.FrequencyThreshold,
		"hash-size":       &cfg.HashSize,
		"workers":         &cfg.Workers,
	}
	for name, dst := range intFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetInt(name); err != nil {
				return nil, err
			}
		}
	}

	boolFlags := map[string]*bool{
		"pure-color": &cfg.PureColor,
		"rotation":   &cfg.Rotation,
		"enhanced":   &cfg.Enhanced,
		"fast":       &cfg.FastHasher,
		"recursive":  &cfg.Recursive,
	}
	for name, dst := range boolFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetBool(name); err != nil {
				return nil, err
			}
		}
	}

	floatFlags := map[string]*float64{
		"confidence":     &cfg.ConfidenceThreshold,
		"feature-weight": &cfg.FeatureWeight,
	}
	for name, dst := range floatFlags {
		if flags.Changed(name) {
			if *dst, err = flags.GetFloat64(name); err != nil {
				return nil, err
			}
		}
	}

	cfg.JSONReport, err = flags.GetBool("json")
	if err != nil {
		return nil, err
	}
	cfg.MarkdownReport, err = flags.GetBool("markdown")
	if err != nil {
		return nil, err
	}
	cfg.CSVReport, err = flags.GetBool("csv")
	if err != nil {
		return nil, err
	}
	cfg.ReportFile, err = flags.GetString("output")
	if err != nil {
		return nil, err
	}

	// Run history is saved by default under the XDG data directory.
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.DBDir, err = flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}
	cfg.SaveToDB = !noDB

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// runScan executes the scan.
func runScan(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	out := cmd.OutOrStdout()

	paths, err := imgio.Walk(cfg.Directory, cfg.Recursive)
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", cfg.Directory, err)
	}
	if len(paths) == 0 {
		fmt.Fprintf(out, "No images found in %s\n", cfg.Directory)
		return nil
	}

	logger.Info("starting scan",
		"directory", cfg.Directory,
		"images", len(paths),
		"rotation", cfg.Rotation,
		"enhanced", cfg.Enhanced,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.ResultDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	opts := []detect.Option{
		detect.WithLogger(logger),
		detect.WithProgress(func(line string) {
			fmt.Fprintln(out, line)
		}),
	}
	if cfg.FastHasher {
		opts = append(opts, detect.WithProvider(imghash.NewFastHasher()))
	}
	detector := detect.New(cfg.DetectConfig(), opts...)

	fmt.Fprintf(out, "Scanning %s (%d images)...\n", cfg.Directory, len(paths))
	startTime := time.Now()

	groups, stats, err := detector.Detect(ctx, paths)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	fmt.Fprintf(out, "Scan completed in %s\n\n", time.Since(startTime).Round(time.Millisecond))

	result := &model.RunResult{
		Directory: cfg.Directory,
		ScannedAt: time.Now().UTC(),
		Groups:    groups,
		Stats:     stats,
	}
	report.EnrichCaptureTimes(result)

	// Generate and output report
	if err := outputReport(cfg, result, out); err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	// Save to database if enabled. The save must not inherit the scan's
	// cancellation: after an interrupt ctx is already cancelled, and the
	// partial result is exactly what the history database should keep.
	if err := saveRunResult(context.WithoutCancel(ctx), db, result, logger); err != nil {
		logger.Error("failed to save run", "error", err)
	}

	return nil
}

// outputReport outputs the run result in the requested format.
func outputReport(cfg *config.Config, result *model.RunResult, stdout io.Writer) error {
	// Determine output destination
	output := stdout
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	case cfg.CSVReport:
		writer = report.NewCSVWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(result)
	return err
}

// saveRunResult saves the run result to the database if enabled.
// If db is nil, this function is a no-op.
func saveRunResult(ctx context.Context, db *database.ResultDB, result *model.RunResult, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	id, err := db.SaveRun(ctx, result)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to database", "id", id, "directory", result.Directory)
	return nil
}
