package detect

import "fmt"

// DecodeError is a per-file read or decode failure. It is recoverable:
// the file is logged, counted and skipped, and the run continues.
type DecodeError struct {
	// Path is the file that failed.
	Path string

	// Err is the underlying failure.
	Err error
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// ProviderUnstableError is returned when a stage's per-file error rate
// exceeds its budget. It aborts the stage and is fatal to the run: an
// error rate this high means results would be misleadingly incomplete.
type ProviderUnstableError struct {
	// Stage is the stage that aborted.
	Stage string

	// Failed and Total describe the error rate that tripped the budget.
	Failed int
	Total  int

	// Processed is the number of files handled successfully before the
	// stage gave up.
	Processed int
}

// Error implements error.
func (e *ProviderUnstableError) Error() string {
	return fmt.Sprintf("%s stage aborted: %d of %d files failed (%d processed successfully)",
		e.Stage, e.Failed, e.Total, e.Processed)
}

// StrategyError reports that a perceptual grouping strategy could not
// run. The detector reacts by downgrading to the next strategy in the
// chain rather than dropping perceptual detection entirely.
type StrategyError struct {
	// Strategy is the strategy that failed.
	Strategy string

	// Err is the underlying failure.
	Err error
}

// Error implements error.
func (e *StrategyError) Error() string {
	return fmt.Sprintf("%s strategy failed: %v", e.Strategy, e.Err)
}

// Unwrap returns the underlying error.
func (e *StrategyError) Unwrap() error { return e.Err }
