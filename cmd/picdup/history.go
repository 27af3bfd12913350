package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/picdup/picdup/internal/config"
	"github.com/picdup/picdup/internal/database"
	"github.com/picdup/picdup/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past scan runs",
		Long: `History lists scans saved to the run database, newest first.

Pass a run ID to re-render that run's full report, or --path to see
every run in which a given image was part of a duplicate group.

Examples:
  # List the last 10 runs
  picdup history

  # Re-render run 3 in full
  picdup history 3

  # When was this file flagged as a duplicate?
  picdup history --path ~/Pictures/IMG_2041.jpg`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 10,
		"Maximum number of runs to list (0 = all)")
	cmd.Flags().String("path", "",
		"Show runs in which this image path was grouped")
	cmd.Flags().String("db-dir", "",
		"Directory of the run history database (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// History never creates the database; an empty history is not a scan.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	db, err := database.Open(dbDir, opts)
	if err != nil {
		return fmt.Errorf("no run history in %s (run a scan first): %w", dbDir, err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	// Per-path lookup
	path, err := cmd.Flags().GetString("path")
	if err != nil {
		return err
	}
	if path != "" {
		hits, err := db.PathHistory(ctx, path)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Fprintf(out, "%s was never part of a duplicate group\n", path)
			return nil
		}
		for _, h := range hits {
			fmt.Fprintf(out, "run %d  %s  %s\n",
				h.RunID, h.ScannedAt.Format("2006-01-02 15:04"), h.Label)
		}
		return nil
	}

	// Full report for a single run
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		result, err := db.GetRun(ctx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("run %d not found", id)
		}

		writer := report.NewSimpleWriter(out,
			report.WithVerbose(getVerboseFlag(cmd)),
			report.WithShowEmpty(true),
		)
		_, err = writer.Write(result)
		return err
	}

	// Run listing
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	runs, err := db.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet")
		return nil
	}

	for _, r := range runs {
		stopped := ""
		if r.Stopped {
			stopped = " (stopped)"
		}
		fmt.Fprintf(out, "[%d] %s  %s  images=%d groups=%d duplicates=%d%s\n",
			r.ID, r.ScannedAt.Format("2006-01-02 15:04"), r.Directory,
			r.TotalImages, r.DuplicateGroups, r.DuplicateImages, stopped)
	}
	return nil
}
