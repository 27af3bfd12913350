// Package database persists run history in SQLite. Completed runs are
// stored whole as JSON alongside flattened group-member rows, so the CLI
// can list past runs and answer per-path questions without re-scanning.
package database
