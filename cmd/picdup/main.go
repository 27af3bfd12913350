// Package main provides the entry point for the picdup CLI.
//
// picdup finds duplicate and visually similar images in a directory.
// It combines exact content hashing with perceptual hashing so both
// byte-identical copies and re-encoded, resized, or rotated variants
// are detected.
//
// Usage:
//
//	picdup scan <directory>
//	picdup history
//
// See --help for all available options.
package main

// main is the entry point for picdup.
func main() {
	Execute()
}
