package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/picdup/picdup/internal/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no groups are shown.
	showEmpty bool

	// verbose enables per-member distance and confidence details.
	verbose bool

	// printer renders counts with locale-aware thousands separators.
	printer *message.Printer
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with per-member detail.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the run result in human-readable format.
func (w *SimpleWriter) Write(result *model.RunResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeSummary(&sb, result)
	w.writeGroups(&sb, result)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.RunResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                      DUPLICATE IMAGE REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Directory:      %s\n", result.Directory))
	sb.WriteString(fmt.Sprintf("Scan Date:      %s\n", result.ScannedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(w.printer.Sprintf("Images Scanned: %d\n", result.Stats.TotalImages))
	sb.WriteString(fmt.Sprintf("Status:         %s\n", statusText(result.Stats)))
	sb.WriteString("\n")
}

// writeSummary writes the aggregate counters.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, result *model.RunResult) {
	stats := result.Stats

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(w.printer.Sprintf("  Duplicate groups:  %d\n", stats.DuplicateGroups))
	sb.WriteString(w.printer.Sprintf("  Redundant copies:  %d\n", stats.DuplicateImages))
	sb.WriteString(w.printer.Sprintf("  Pure-color images: %d\n", stats.PureColorImages))
	sb.WriteString(w.printer.Sprintf("  Skipped files:     %d\n", stats.SkippedFiles))
	sb.WriteString(fmt.Sprintf("  Elapsed:           %s\n", stats.Elapsed().Round(10*time.Millisecond)))
	sb.WriteString("\n")

	if len(stats.Reasons) > 0 {
		sb.WriteString("  By reason:\n")
		for _, label := range sortedReasonLabels(stats.Reasons) {
			sb.WriteString(w.printer.Sprintf("    %s: %d\n", label, stats.Reasons[label]))
		}
		sb.WriteString("\n")
	}
}

// writeGroups writes each duplicate group with its members.
func (w *SimpleWriter) writeGroups(sb *strings.Builder, result *model.RunResult) {
	if len(result.Groups) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DUPLICATE GROUPS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(result.Groups) == 0 {
		sb.WriteString("  No duplicates found\n\n")
		return
	}

	for i, g := range result.Groups {
		sb.WriteString(fmt.Sprintf("[%d] %s (%d images)\n", i+1, g.Label(), len(g.Members)))
		for mi, m := range g.Members {
			sb.WriteString(fmt.Sprintf("  * %s", m.Path))
			if m.Taken != "" {
				sb.WriteString(fmt.Sprintf("  (taken %s)", m.Taken))
			}
			sb.WriteString("\n")
			if w.verbose && mi > 0 {
				sb.WriteString(fmt.Sprintf("      distances d=%d a=%d f=%d",
					m.DifferenceDistance, m.AverageDistance, m.FrequencyDistance))
				if m.RotationAngle != 0 {
					sb.WriteString(fmt.Sprintf(", rotation %d°", m.RotationAngle))
				}
				if m.Confidence > 0 {
					sb.WriteString(fmt.Sprintf(", confidence %.2f", m.Confidence))
				}
				if m.Detail != "" {
					sb.WriteString(fmt.Sprintf(" [%s]", m.Detail))
				}
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by picdup\n")
	sb.WriteString("https://github.com/picdup/picdup\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// sortedReasonLabels returns the histogram keys in stable order.
func sortedReasonLabels(reasons map[string]int) []string {
	labels := make([]string, 0, len(reasons))
	for label := range reasons {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
