// Package logging wraps zerolog with the event-oriented API used across the service.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level         string
	HumanReadable bool
	Writer        io.Writer
}

// Logger writes one structured line per event. A nil *Logger discards everything.
type Logger struct {
	base zerolog.Logger
}

// New creates a configured Logger instance based on Options.
func New(opts Options) (*Logger, error) {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}

	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var output io.Writer = writer
	if opts.HumanReadable {
		console := zerolog.NewConsoleWriter()
		console.Out = writer
		console.TimeFormat = time.RFC3339
		console.NoColor = !isTerminal(writer)
		output = console
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	return &Logger{base: logger}, nil
}

// Nop returns a logger that drops all events.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

// With returns a derived logger that always writes the supplied fields.
func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}
	builder := l.base.With()
	for key, value := range fields {
		builder = builder.Interface(key, value)
	}
	return &Logger{base: builder.Logger()}
}

// Debug writes a debug-level event if enabled.
func (l *Logger) Debug(event string, fields map[string]any) {
	if l == nil {
		return
	}
	write(l.base.Debug(), event, fields)
}

// Info writes an informational event.
func (l *Logger) Info(event string, fields map[string]any) {
	if l == nil {
		return
	}
	write(l.base.Info(), event, fields)
}

// Warn writes a warning event.
func (l *Logger) Warn(event string, fields map[string]any) {
	if l == nil {
		return
	}
	write(l.base.Warn(), event, fields)
}

// Error writes an error event including err.
func (l *Logger) Error(event string, err error, fields map[string]any) {
	if l == nil {
		return
	}
	e := l.base.Error()
	if err != nil {
		e = e.Err(err)
	}
	write(e, event, fields)
}

func write(e *zerolog.Event, event string, fields map[string]any) {
	if e == nil {
		return
	}
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Str("event", event).Send()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
