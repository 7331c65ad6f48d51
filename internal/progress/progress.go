// Package progress reports how far a conversion run has got. On an
// interactive terminal it draws a bar; everywhere else each step becomes a
// debug log record.
package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/klauern/snipconv/internal/logging"
	"github.com/klauern/snipconv/internal/ui"
)

// Bar tracks the number of snippet files processed.
type Bar struct {
	bar   *progressbar.ProgressBar
	log   *slog.Logger
	label string
	total int
	file  string
}

// Options configures a Bar.
type Options struct {
	// Total is the number of files the run will process.
	Total int
	// Label prefixes the bar, followed by the current file name.
	Label string
	// Writer receives the bar. Defaults to os.Stderr.
	Writer io.Writer
	// Logger receives step records when no bar is drawn. Defaults to the
	// process-wide logger.
	Logger *slog.Logger
}

// DefaultOptions returns the options used by the convert command.
func DefaultOptions() Options {
	return Options{
		Label:  "Converting",
		Writer: os.Stderr,
	}
}

// New creates a Bar. The bar is drawn only when colors are enabled, the
// writer is a terminal and debug logging is off.
func New(opts Options) *Bar {
	if opts.Writer == nil {
		opts.Writer = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	b := &Bar{
		log:   opts.Logger,
		label: opts.Label,
		total: opts.Total,
	}

	if !drawable(opts.Writer, opts.Logger) {
		b.log.Debug("progress started", logging.Operation(opts.Label), logging.Count(opts.Total))
		return b
	}

	b.bar = progressbar.NewOptions(
		opts.Total,
		progressbar.OptionSetDescription(opts.Label),
		progressbar.OptionSetWriter(opts.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(opts.Writer, "\n")
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionEnableColorCodes(ui.IsColorEnabled()),
	)
	return b
}

// Enabled reports whether the bar is drawn.
func (b *Bar) Enabled() bool {
	return b.bar != nil
}

// Describe names the file being processed.
func (b *Bar) Describe(file string) {
	b.file = file
	if b.Enabled() {
		b.bar.Describe(b.label + " " + file)
	}
}

// Set records that n files have been processed.
func (b *Bar) Set(n int) error {
	if !b.Enabled() {
		b.log.Debug("progress",
			logging.Path(b.file),
			slog.Int("current", n),
			slog.Int("total", b.total),
		)
		return nil
	}
	return b.bar.Set(n)
}

// Finish completes the bar.
func (b *Bar) Finish() error {
	if !b.Enabled() {
		b.log.Debug("progress finished", logging.Operation(b.label), logging.Count(b.total))
		return nil
	}
	b.bar.Describe(b.label)
	return b.bar.Finish()
}

// Clear removes the bar from the terminal.
func (b *Bar) Clear() error {
	if !b.Enabled() {
		return nil
	}
	return b.bar.Clear()
}

func drawable(w io.Writer, log *slog.Logger) bool {
	if !ui.IsColorEnabled() {
		return false
	}

	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { // #nosec G115 - file descriptors fit in int
		return false
	}

	return !log.Enabled(context.Background(), logging.LevelDebug)
}
