package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for picdup.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "picdup",
		Short: "Find duplicate and visually similar images",
		Long: `picdup finds duplicate and visually similar images in a directory.

It detects byte-identical copies by content hash, filters near-uniform
images such as blank frames, and groups visually similar images using
three perceptual hash algorithms with majority voting. Rotated copies
and resized re-encodes can be caught with --rotation and --enhanced.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
