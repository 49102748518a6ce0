// Package logging builds the service's slog logger: a console handler, a
// rotating JSON file under the log directory, and optional extra JSON sinks
// such as CloudWatch Logs.
package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file created inside the configured directory.
const FileName = "application.log"

type Options struct {
	Level  string
	Format string
	// Dir holds the rotated log file; empty disables file output.
	Dir string
	// Console defaults to os.Stdout.
	Console io.Writer
	// Sinks receive every record as one JSON line per Write.
	Sinks []io.Writer
}

// ParseLevel maps a level name to slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns the logger and a closer that flushes and releases every
// writer it owns, including the sinks that implement io.Closer.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(opts.Level)
	handlerOpts := &slog.HandlerOptions{Level: level}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	var handlers []slog.Handler
	if opts.Format == "json" {
		handlers = append(handlers, slog.NewJSONHandler(console, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(console, handlerOpts))
	}

	var closers closerList
	var jsonWriters []io.Writer

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, err
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    5,
			MaxBackups: 5,
			MaxAge:     28,
		}
		jsonWriters = append(jsonWriters, file)
		closers = append(closers, file)
	}
	for _, sink := range opts.Sinks {
		jsonWriters = append(jsonWriters, sink)
		if c, ok := sink.(io.Closer); ok {
			closers = append(closers, c)
		}
	}
	if len(jsonWriters) > 0 {
		handlers = append(handlers, slog.NewJSONHandler(io.MultiWriter(jsonWriters...), handlerOpts))
	}

	return slog.New(newFanout(handlers...)), closers, nil
}

type closerList []io.Closer

func (c closerList) Close() error {
	var errs []error
	for _, closer := range c {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard returns a logger that drops everything. Used in tests and as a
// fallback for optional logger parameters.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
