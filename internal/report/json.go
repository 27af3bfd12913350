package report

import (
	"encoding/json"
	"io"

	"github.com/picdup/picdup/internal/model"
)

// JSONWriter outputs run results in JSON format, meant for piping into
// jq or other tools rather than for reading.
//
// Design decision: plain encoding/json is enough here. The result types
// are flat structs with tags, a report is marshalled exactly once per
// run, and output size is bounded by the group count, so a faster or
// streaming JSON dependency would not be observable.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write renders the run result in JSON format.
func (w *JSONWriter) Write(result *model.RunResult) (int, error) {
	return w.writeJSON(result)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// End with a newline so a shell prompt never glues onto the output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps a run result with output metadata.
//
// Design decision: the version lives on a wrapper, not on RunResult.
// RunResult is also what gets persisted to the history database, and a
// stored result should not change shape every time the report format
// grows a field.
type JSONReport struct {
	// Version is the picdup version that generated this report.
	Version string `json:"version"`

	// Result is the full run result.
	Result *model.RunResult `json:"result"`
}

// FullJSONWriter outputs complete run results with a metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the picdup version string.
	version string
}

// NewFullJSONWriter creates a writer for complete results with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write renders the run result wrapped with metadata.
func (w *FullJSONWriter) Write(result *model.RunResult) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Result: result})
}
