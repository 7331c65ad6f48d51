// Package logging wraps log/slog with the defaults snipconv uses on the
// command line: text output on stderr, warn-level by default, and a small set
// of attribute helpers so every package logs the same keys.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// Level aliases so callers don't need to import log/slog for levels alone.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
	defaultOnce   sync.Once
)

// Options configures a logger.
type Options struct {
	// Level is the minimum level written.
	Level slog.Level
	// Output defaults to os.Stderr.
	Output io.Writer
	// JSON switches from the text handler to the JSON handler.
	JSON bool
	// AddSource includes file:line of the call site.
	AddSource bool
}

// DefaultOptions returns the options used when no flag changes them.
// Per-file skip warnings are the only thing logged at this level.
func DefaultOptions() Options {
	return Options{
		Level:  LevelWarn,
		Output: os.Stderr,
	}
}

// New creates a logger from opts.
func New(opts Options) *slog.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.AddSource,
	}

	if opts.JSON {
		return slog.New(slog.NewJSONHandler(opts.Output, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(opts.Output, handlerOpts))
}

// Default returns the process-wide logger, creating it on first use.
func Default() *slog.Logger {
	defaultOnce.Do(func() {
		mu.Lock()
		defaultLogger = New(DefaultOptions())
		mu.Unlock()
	})
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger and slog's default.
func SetDefault(logger *slog.Logger) {
	defaultOnce.Do(func() {})
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
	slog.SetDefault(logger)
}

// With returns the default logger with args attached.
func With(args ...any) *slog.Logger {
	return Default().With(args...)
}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or nil.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return nil
}

// WithContext returns the logger stored in ctx, falling back to Default.
func WithContext(ctx context.Context) *slog.Logger {
	if l := FromContext(ctx); l != nil {
		return l
	}
	return Default()
}

type loggerKey struct{}

// Debug logs at debug level using the default logger.
func Debug(msg string, args ...any) {
	Default().Debug(msg, args...)
}

// Info logs at info level using the default logger.
func Info(msg string, args ...any) {
	Default().Info(msg, args...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, args ...any) {
	Default().Warn(msg, args...)
}

// Error logs at error level using the default logger.
func Error(msg string, args ...any) {
	Default().Error(msg, args...)
}

// Timer logs the duration of an operation at debug level when the returned
// func is called. Typical use is `defer logging.Timer("convert")()`.
func Timer(op string) func() {
	start := time.Now()
	return func() {
		Debug("operation finished",
			Operation(op),
			Duration(time.Since(start)),
		)
	}
}

// Attribute keys shared across packages.
const (
	KeyTrigger   = "trigger"
	KeyPath      = "path"
	KeyFormat    = "format"
	KeyLayout    = "layout"
	KeyOperation = "operation"
	KeyCount     = "count"
	KeyError     = "error"
	KeyDuration  = "duration"
)

// Trigger returns an attribute naming a snippet trigger word.
func Trigger(t string) slog.Attr {
	return slog.String(KeyTrigger, t)
}

// Path returns an attribute naming a file or directory.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Format returns an attribute naming a snippet source format.
func Format(f string) slog.Attr {
	return slog.String(KeyFormat, f)
}

// Layout returns an attribute naming the output layout.
func Layout(l string) slog.Attr {
	return slog.String(KeyLayout, l)
}

// Operation returns an attribute naming the running operation.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Count returns an attribute carrying a number of items.
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Duration returns an attribute carrying an elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Err returns an attribute carrying err. A nil err yields an empty attribute,
// which slog drops.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any(KeyError, err)
}
