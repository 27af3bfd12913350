package report

import (
	"io"
	"time"

	"github.com/picdup/picdup/internal/imgio"
	"github.com/picdup/picdup/internal/model"
)

// Writer defines the interface for report output.
// Implementations render a run result in a specific format.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write renders the run result to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(result *model.RunResult) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write run results, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders the result through all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(result *model.RunResult) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText summarizes how the run ended.
func statusText(stats *model.RunStatistics) string {
	if stats != nil && stats.Stopped {
		return "STOPPED (partial results)"
	}
	return "Complete"
}

// EnrichCaptureTimes fills in each member's EXIF capture time, when the
// file carries one. Called before writing so reports can suggest which
// copy of a group is the original (usually the earliest).
func EnrichCaptureTimes(result *model.RunResult) {
	for gi := range result.Groups {
		members := result.Groups[gi].Members
		for mi := range members {
			if t, ok := imgio.CaptureTime(members[mi].Path); ok {
				members[mi].Taken = t.Format(time.RFC3339)
			}
		}
	}
}
