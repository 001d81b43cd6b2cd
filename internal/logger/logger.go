// Package logger wraps zerolog for the countdown. While the terminal
// interface owns the screen, logs go to a file or nowhere.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options describes logger configuration supplied at creation time.
type Options struct {
	Level         string
	HumanReadable bool
	// Writer receives log output; nil means stderr. Ignored when File or
	// Quiet is set.
	Writer io.Writer
	// File appends log output to the named file.
	File string
	// Quiet discards everything unless File is set.
	Quiet bool
}

// Logger is a thin zerolog wrapper. All methods are safe to call on a nil
// *Logger, which logs nothing.
type Logger struct {
	base   zerolog.Logger
	closer io.Closer
}

// LevelFor maps the --verbose flag to a level name.
func LevelFor(verbose bool) string {
	if verbose {
		return "debug"
	}
	return "info"
}

// New creates a configured Logger instance based on Options.
func New(opts Options) (*Logger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	var closer io.Closer
	writer := opts.Writer
	switch {
	case opts.File != "":
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writer, closer = f, f
	case opts.Quiet:
		writer = io.Discard
	case writer == nil:
		writer = os.Stderr
	}

	output := writer
	if opts.HumanReadable && writer != io.Discard {
		console := zerolog.NewConsoleWriter()
		console.Out = writer
		console.TimeFormat = time.RFC3339
		console.NoColor = opts.File != ""
		output = console
	}

	return &Logger{
		base:   zerolog.New(output).Level(level).With().Timestamp().Logger(),
		closer: closer,
	}, nil
}

// Close releases the log file, if any. Derived loggers share the file and
// must not be used afterwards.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// WithFields returns a derived logger that always writes the supplied fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}

	builder := l.base.With()
	for key, value := range fields {
		builder = builder.Interface(key, value)
	}
	return &Logger{base: builder.Logger()}
}

// WithField is a shorthand for WithFields with a single key.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// Component tags every entry with the emitting component.
func (l *Logger) Component(name string) *Logger {
	return l.WithField("component", name)
}

// Info writes an informational log entry.
func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.base.Info().Msg(msg)
}

// Debug writes a debug-level log entry if enabled.
func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	l.base.Debug().Msg(msg)
}

// Warn writes a warning level log entry.
func (l *Logger) Warn(msg string) {
	if l == nil {
		return
	}
	l.base.Warn().Msg(msg)
}

// Error writes an error log entry including the supplied error context.
func (l *Logger) Error(err error, msg string) {
	if l == nil {
		return
	}
	event := l.base.Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}
