package model

import "time"

// RunResult is the envelope handed to report writers and the run history
// database: everything one detection run produced.
type RunResult struct {
	// Directory is the tree that was scanned.
	Directory string `json:"directory"`

	// ScannedAt is when the run started.
	ScannedAt time.Time `json:"scanned_at"`

	// Groups are the duplicate groups in the order they were finalized.
	Groups []DuplicateGroup `json:"groups"`

	// Stats are the aggregate counters for the run.
	Stats *RunStatistics `json:"stats"`
}
