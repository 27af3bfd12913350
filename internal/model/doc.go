// Package model defines the data structures shared across the detection
// pipeline: per-image hash records, duplicate groups, and run statistics.
//
// Design decision: report writers and the database layer operate on these
// types directly rather than on detector internals, so the structures are
// JSON-tagged and contain no behavior beyond bookkeeping helpers. This
// keeps new output formats from ever needing to touch detection code.
package model
