package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/picdup/picdup/internal/model"
)

// MarkdownWriter outputs run results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write renders the run result in Markdown format.
func (w *MarkdownWriter) Write(result *model.RunResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeSummary(md, result)
	w.writeGroups(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.RunResult) {
	md.H1("Duplicate Image Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Directory", "`" + result.Directory + "`"},
			{"Scan Date", result.ScannedAt.Format("2006-01-02 15:04:05 MST")},
			{"Images Scanned", strconv.Itoa(result.Stats.TotalImages)},
			{"Status", statusText(result.Stats)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the aggregate counters and the reason distribution.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.RunResult) {
	stats := result.Stats

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Duplicate groups", strconv.Itoa(stats.DuplicateGroups)},
			{"Redundant copies", strconv.Itoa(stats.DuplicateImages)},
			{"Pure-color images", strconv.Itoa(stats.PureColorImages)},
			{"Skipped files", strconv.Itoa(stats.SkippedFiles)},
		},
	})
	md.PlainText("")

	if len(stats.Reasons) > 0 {
		w.writePieChart(md, stats)
	}

	switch {
	case stats.Stopped:
		md.Warningf("Run was stopped before completion; %d group(s) reflect partial results.", stats.DuplicateGroups)
	case stats.DuplicateGroups > 0:
		md.Importantf("%d duplicate group(s) found, %d redundant file(s) could be removed.",
			stats.DuplicateGroups, stats.DuplicateImages)
	default:
		md.Tip("No duplicate images detected.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the reason distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats *model.RunStatistics) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Duplicate Groups by Reason"),
		piechart.WithShowData(true),
	)
	for _, label := range sortedReasonLabels(stats.Reasons) {
		chart.LabelAndIntValue(label, uint64(stats.Reasons[label]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeGroups writes one member table per duplicate group.
func (w *MarkdownWriter) writeGroups(md *markdown.Markdown, result *model.RunResult) {
	md.H2("Duplicate Groups")
	md.PlainText("")

	if len(result.Groups) == 0 {
		md.PlainText("No duplicates found.")
		md.PlainText("")
		return
	}

	for i, g := range result.Groups {
		md.PlainText(fmt.Sprintf("### Group %d: %s", i+1, g.Label()))
		md.PlainText("")

		rows := make([][]string, len(g.Members))
		for mi, m := range g.Members {
			taken := m.Taken
			if taken == "" {
				taken = "-"
			}
			detail := m.Detail
			if detail == "" {
				detail = "-"
			}
			rows[mi] = []string{
				"`" + m.Path + "`",
				fmt.Sprintf("%d / %d / %d", m.DifferenceDistance, m.AverageDistance, m.FrequencyDistance),
				strconv.Itoa(m.RotationAngle),
				formatConfidence(m.Confidence),
				detail,
				taken,
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Path", "Distances (d/a/f)", "Rotation", "Confidence", "Detail", "Taken"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [picdup](https://github.com/picdup/picdup)*")
}

// formatConfidence renders a confidence score, or a dash for members
// found by stages that do not score.
func formatConfidence(c float64) string {
	if c == 0 {
		return "-"
	}
	return strconv.FormatFloat(c, 'f', 2, 64)
}
