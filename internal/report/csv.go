package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/picdup/picdup/internal/model"
)

// csvHeader is the fixed column set: one row per group member.
var csvHeader = []string{
	"group", "label", "path",
	"difference_distance", "average_distance", "frequency_distance",
	"rotation_angle", "confidence", "detail", "taken",
}

// CSVWriter outputs run results as flat CSV, one row per group member.
// This format feeds spreadsheets and ad hoc shell pipelines; everything
// hierarchical in the JSON output is denormalized into columns here.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the run result as CSV.
func (w *CSVWriter) Write(result *model.RunResult) (int, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write(csvHeader); err != nil {
		return 0, err
	}
	for gi, g := range result.Groups {
		label := g.Label()
		for _, m := range g.Members {
			row := []string{
				strconv.Itoa(gi + 1),
				label,
				m.Path,
				strconv.Itoa(m.DifferenceDistance),
				strconv.Itoa(m.AverageDistance),
				strconv.Itoa(m.FrequencyDistance),
				strconv.Itoa(m.RotationAngle),
				strconv.FormatFloat(m.Confidence, 'f', 3, 64),
				m.Detail,
				m.Taken,
			}
			if err := cw.Write(row); err != nil {
				return 0, err
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	return w.output.Write(buf.Bytes())
}
