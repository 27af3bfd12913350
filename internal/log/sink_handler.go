// Package log builds the loggers used across the application: standard
// text or JSON output plus an optional sink that mirrors notable records
// to the terminal progress display.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// Sink receives one formatted line per mirrored log record.
type Sink func(string)

// SinkHandler wraps an slog.Handler and mirrors records at or above a
// threshold level to a Sink as plain formatted lines. The CLI uses this
// to surface warnings (skipped files, strategy downgrades) inside the
// progress display without making the user watch the full log stream.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. Library code keeps logging through plain *slog.Logger, unaware of
//     the mirroring
type SinkHandler struct {
	// handler is the underlying slog handler that receives every record.
	handler slog.Handler

	// sink receives formatted lines for records at or above sinkLevel.
	sink Sink

	// sinkLevel is the mirroring threshold; records below it only reach
	// the underlying handler.
	sinkLevel slog.Level

	// attrs are the accumulated WithAttrs attributes, rendered after the
	// record's own.
	attrs []slog.Attr

	// prefix is the accumulated WithGroup path, applied to attr keys.
	prefix string

	// mu serializes sink calls; slog handlers must be goroutine-safe.
	mu *sync.Mutex
}

// NewSinkHandler creates a SinkHandler wrapping the given handler.
// If handler is nil, slog.Default's handler is used. Records at or above
// level are mirrored to sink.
func NewSinkHandler(handler slog.Handler, sink Sink, level slog.Level) *SinkHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SinkHandler{
		handler:   handler,
		sink:      sink,
		sinkLevel: level,
		mu:        &sync.Mutex{},
	}
}

// Enabled reports whether the handler handles records at the given level.
// A record the sink wants is handled even if the underlying handler's
// level would drop it.
func (h *SinkHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.sink != nil && level >= h.sinkLevel {
		return true
	}
	return h.handler.Enabled(ctx, level)
}

// Handle passes the record to the underlying handler and mirrors it to
// the sink when it clears the threshold.
func (h *SinkHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.handler.Enabled(ctx, r.Level) {
		err = h.handler.Handle(ctx, r)
	}

	if h.sink != nil && r.Level >= h.sinkLevel {
		line := h.formatLine(r)
		h.mu.Lock()
		h.sink(line)
		h.mu.Unlock()
	}
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *SinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.handler = h.handler.WithAttrs(attrs)
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup returns a new handler with the given group name.
func (h *SinkHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.handler = h.handler.WithGroup(name)
	if name != "" {
		clone.prefix = h.prefix + name + "."
	}
	return &clone
}

// formatLine renders a record as "LEVEL message key=value ...".
func (h *SinkHandler) formatLine(r slog.Record) string {
	var sb strings.Builder
	sb.WriteString(r.Level.String())
	sb.WriteString(" ")
	sb.WriteString(r.Message)

	write := func(a slog.Attr) {
		sb.WriteString(" ")
		sb.WriteString(h.prefix)
		sb.WriteString(a.Key)
		sb.WriteString("=")
		sb.WriteString(fmt.Sprint(a.Value.Any()))
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})
	for _, a := range h.attrs {
		write(a)
	}
	return sb.String()
}

// NewLogger creates a text logger for terminal use.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFor(verbose),
	}))
}

// NewJSONLogger creates a JSON logger. Useful for structured log
// aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: levelFor(verbose),
	}))
}

// NewSinkLogger creates a text logger that additionally mirrors warnings
// and errors to the given sink.
func NewSinkLogger(w io.Writer, verbose bool, sink Sink) *slog.Logger {
	text := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFor(verbose),
	})
	return slog.New(NewSinkHandler(text, sink, slog.LevelWarn))
}

func levelFor(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
