// Package convert turns a directory of TextMate-style snippet files into
// snipMate .snippets files.
//
// A run enumerates recognized input files in stable order, parses each with
// the parser registered for its extension, translates the body's placeholder
// syntax, and writes the result to the target directory. Files that cannot be
// parsed are skipped with a warning; a missing source directory or a failed
// write aborts the run.
//
//	n, err := convert.Run(ctx, "~/Library/.../Snippets", "~/.vim/snippets")
//
// Progress can be tracked by providing a ProgressCallback in Options.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/klauern/snipconv/internal/logging"
	"github.com/klauern/snipconv/internal/model"
	"github.com/klauern/snipconv/internal/parser"
	"github.com/klauern/snipconv/internal/parser/sublime"
	"github.com/klauern/snipconv/internal/parser/textmate"
	"github.com/klauern/snipconv/internal/snipmate"
	"github.com/klauern/snipconv/internal/validation"
)

// Options configures a conversion run.
type Options struct {
	// Formats maps file extensions to source formats. Nil means
	// parser.DefaultFormats().
	Formats map[string]model.SourceFormat

	// Registry overrides the parser registry built from Formats.
	Registry *parser.Registry

	// Recursive scans subdirectories of the source directory.
	Recursive bool

	// Layout selects one file per snippet or one file per namespace.
	Layout model.Layout

	// Extension is the output file extension (default ".snippets").
	Extension string

	// Domain is appended to namespaces derived from scopes.
	Domain string

	// DryRun computes every output without writing anything.
	DryRun bool

	// Progress is called as files are processed.
	Progress ProgressCallback
}

// DefaultOptions returns the default conversion options.
func DefaultOptions() Options {
	return Options{
		Layout:    model.LayoutPerSnippet,
		Extension: snipmate.DefaultExtension,
	}
}

// ProgressEventType identifies a point in a conversion run.
type ProgressEventType string

const (
	// ProgressEventStart is emitted once input files have been enumerated.
	ProgressEventStart ProgressEventType = "start"

	// ProgressEventFile is emitted after each input file.
	ProgressEventFile ProgressEventType = "file"

	// ProgressEventComplete is emitted after all output has been written.
	ProgressEventComplete ProgressEventType = "complete"
)

// ProgressEvent reports conversion progress.
type ProgressEvent struct {
	Type ProgressEventType

	// Path is the input file for ProgressEventFile.
	Path string

	// Current is the number of files processed so far.
	Current int

	// Total is the number of input files.
	Total int

	// Err is set when the file was skipped.
	Err error
}

// ProgressCallback receives progress events.
type ProgressCallback func(ProgressEvent)

// Converter runs conversions with fixed options.
type Converter struct {
	opts Options
}

// New creates a Converter.
func New(opts Options) *Converter {
	return &Converter{opts: opts}
}

// NewRegistry builds a registry with the built-in parsers and the given
// extension mapping.
func NewRegistry(formats map[string]model.SourceFormat) (*parser.Registry, error) {
	if formats == nil {
		formats = parser.DefaultFormats()
	}

	r := parser.NewRegistry()
	r.Register(textmate.New())
	r.Register(sublime.New())
	for ext, format := range formats {
		if err := r.MapExtension(ext, format); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Run converts every recognized snippet file in sourceDir into targetDir
// using default options and returns the number of snippets converted.
func Run(ctx context.Context, sourceDir, targetDir string) (int, error) {
	result, err := New(DefaultOptions()).Convert(ctx, sourceDir, targetDir)
	if err != nil {
		return 0, err
	}
	return result.Count(), nil
}

// Convert converts every recognized snippet file in sourceDir into targetDir.
// The returned Result is non-nil even on error and reflects the work done
// before the failure.
func (c *Converter) Convert(ctx context.Context, sourceDir, targetDir string) (*Result, error) {
	defer logging.Timer("convert")()
	log := logging.WithContext(ctx)

	layout := c.opts.Layout
	if layout == "" {
		layout = model.LayoutPerSnippet
	}
	if !layout.IsValid() {
		return &Result{Source: sourceDir, Target: targetDir}, fmt.Errorf("unsupported layout %q", layout)
	}

	result := &Result{
		Source: sourceDir,
		Target: targetDir,
		Layout: layout,
		DryRun: c.opts.DryRun,
	}

	log.Debug("starting conversion",
		logging.Operation("convert"),
		logging.Path(sourceDir),
		slog.String("target", targetDir),
		logging.Layout(layout.String()),
		slog.Bool("recursive", c.opts.Recursive),
		slog.Bool("dry_run", c.opts.DryRun),
	)

	registry, files, err := c.discover(log, sourceDir)
	if err != nil {
		return result, err
	}

	writerOpts := snipmate.DefaultOptions()
	writerOpts.Layout = layout
	writerOpts.DryRun = c.opts.DryRun
	if c.opts.Extension != "" {
		writerOpts.Extension = c.opts.Extension
	}
	w, err := snipmate.NewWriter(targetDir, writerOpts)
	if err != nil {
		return result, writeFailure(targetDir, err)
	}

	c.emit(ProgressEvent{Type: ProgressEventStart, Total: len(files)})

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		snippet, err := convertFile(log, registry, path, c.opts.Domain)
		if err != nil {
			skip := newError(ErrParseSkip, path, err)
			log.Warn("skipping snippet file", logging.Path(path), logging.Err(err))
			result.Skipped = append(result.Skipped, Skipped{Path: path, Err: skip})
			c.emit(ProgressEvent{Type: ProgressEventFile, Path: path, Current: i + 1, Total: len(files), Err: skip})
			continue
		}

		target, err := w.Add(snippet)
		if err != nil {
			return result, writeFailure(target, err)
		}
		result.Converted = append(result.Converted, Converted{Snippet: snippet, TargetPath: target})
		if layout == model.LayoutPerSnippet {
			result.Files = append(result.Files, target)
		}
		c.emit(ProgressEvent{Type: ProgressEventFile, Path: path, Current: i + 1, Total: len(files)})
	}

	flushed, err := w.Flush()
	result.Files = append(result.Files, flushed...)
	if err != nil {
		return result, writeFailure(targetDir, err)
	}

	c.emit(ProgressEvent{Type: ProgressEventComplete, Current: len(files), Total: len(files)})

	log.Info("conversion finished",
		logging.Path(targetDir),
		logging.Count(result.Count()),
		slog.Int("skipped", len(result.Skipped)),
	)

	return result, nil
}

// Scan parses every recognized snippet file in sourceDir without converting
// or writing anything. Files that would be skipped by Convert are returned in
// the second result.
func (c *Converter) Scan(ctx context.Context, sourceDir string) ([]model.SourceSnippet, []Skipped, error) {
	defer logging.Timer("scan")()
	log := logging.WithContext(ctx)

	registry, files, err := c.discover(log, sourceDir)
	if err != nil {
		return nil, nil, err
	}

	var (
		snippets []model.SourceSnippet
		skipped  []Skipped
	)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return snippets, skipped, err
		}

		src, err := readSnippet(registry, path)
		if err == nil {
			err = validation.ValidateSnippet(src.Trigger, src.Body)
		}
		if err != nil {
			log.Warn("skipping snippet file", logging.Path(path), logging.Err(err))
			skipped = append(skipped, Skipped{Path: path, Err: newError(ErrParseSkip, path, err)})
			continue
		}
		snippets = append(snippets, src)
	}

	return snippets, skipped, nil
}

// discover builds the registry and enumerates the recognized input files.
func (c *Converter) discover(log *slog.Logger, sourceDir string) (*parser.Registry, []string, error) {
	registry := c.opts.Registry
	if registry == nil {
		var err error
		registry, err = NewRegistry(c.opts.Formats)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid format mapping: %w", err)
		}
	}

	files, err := parser.DiscoverFiles(sourceDir, c.opts.Recursive, registry.Recognizes)
	if err != nil {
		return nil, nil, newError(ErrSourceNotFound, sourceDir, err)
	}

	log.Debug("discovered snippet files",
		logging.Path(sourceDir),
		logging.Count(len(files)),
		slog.Any("extensions", registry.Extensions()),
	)
	return registry, files, nil
}

func readSnippet(registry *parser.Registry, path string) (model.SourceSnippet, error) {
	p, ok := registry.Lookup(path)
	if !ok {
		return model.SourceSnippet{}, fmt.Errorf("no parser for %q", path)
	}

	data, err := parser.ReadSnippetFile(path)
	if err != nil {
		return model.SourceSnippet{}, err
	}

	return p.Parse(path, data)
}

func convertFile(log *slog.Logger, registry *parser.Registry, path, domain string) (model.ConvertedSnippet, error) {
	src, err := readSnippet(registry, path)
	if err != nil {
		return model.ConvertedSnippet{}, err
	}

	converted, err := snipmate.Convert(src, domain)
	if err != nil {
		return model.ConvertedSnippet{}, err
	}

	log.Debug("converted snippet",
		logging.Path(path),
		logging.Trigger(converted.Trigger),
		logging.Format(src.Format.String()),
	)
	return converted, nil
}

// writeFailure tags err as ErrWriteFailure, preferring the path the writer
// reported.
func writeFailure(path string, err error) error {
	var we *snipmate.WriteError
	if errors.As(err, &we) {
		return newError(ErrWriteFailure, we.Path, we.Err)
	}
	if path == "" {
		return err
	}
	return newError(ErrWriteFailure, path, err)
}

func (c *Converter) emit(e ProgressEvent) {
	if c.opts.Progress != nil {
		c.opts.Progress(e)
	}
}
