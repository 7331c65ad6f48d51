package snipmate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauern/snipconv/internal/logging"
	"github.com/klauern/snipconv/internal/model"
)

// OutputFilePerm is the permission for written snippet files (rw-r--r--)
const OutputFilePerm = 0o644

// OutputDirPerm is the permission for a created target directory (rwxr-x---)
const OutputDirPerm = 0o750

// Options configures how snippets are laid out on disk.
type Options struct {
	Layout    model.Layout
	Extension string
	DryRun    bool
}

// DefaultOptions returns one-file-per-snippet output with the .snippets
// extension.
func DefaultOptions() Options {
	return Options{
		Layout:    model.LayoutPerSnippet,
		Extension: DefaultExtension,
	}
}

// WriteError reports a file or directory that could not be written.
type WriteError struct {
	Path string
	Err  error
}

// Error implements error.
func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer places converted snippets into files under one directory.
//
// With LayoutPerSnippet each Add writes its file immediately. With
// LayoutNamespace snippets are buffered per namespace and written by Flush.
type Writer struct {
	dir  string
	opts Options

	// used counts lower-cased output names so names differing only by case
	// do not clobber each other on case-insensitive filesystems.
	used map[string]int

	groups map[string][]model.ConvertedSnippet
	order  []string
}

// NewWriter creates a writer for dir, creating the directory unless
// opts.DryRun is set.
func NewWriter(dir string, opts Options) (*Writer, error) {
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if !strings.HasPrefix(opts.Extension, ".") {
		opts.Extension = "." + opts.Extension
	}
	if opts.Layout == "" {
		opts.Layout = model.LayoutPerSnippet
	}
	if !opts.Layout.IsValid() {
		return nil, fmt.Errorf("unsupported layout %q", opts.Layout)
	}

	if !opts.DryRun {
		if err := os.MkdirAll(dir, OutputDirPerm); err != nil {
			return nil, &WriteError{Path: dir, Err: err}
		}
	}

	return &Writer{
		dir:    dir,
		opts:   opts,
		used:   make(map[string]int),
		groups: make(map[string][]model.ConvertedSnippet),
	}, nil
}

// Add places one snippet and returns the path of the file that holds (or
// will hold) it.
func (w *Writer) Add(s model.ConvertedSnippet) (string, error) {
	if w.opts.Layout == model.LayoutNamespace {
		if _, ok := w.groups[s.Namespace]; !ok {
			w.order = append(w.order, s.Namespace)
		}
		w.groups[s.Namespace] = append(w.groups[s.Namespace], s)
		return w.path(s.Namespace), nil
	}

	name := w.uniqueName(s.FileName)
	if name != s.FileName {
		logging.Warn("output name already used, adding suffix",
			logging.Trigger(s.Trigger),
			logging.Path(s.Source),
			slog.String("file", name+w.opts.Extension),
		)
	}
	path := w.path(name)
	return path, w.write(path, RenderFile(s.Trigger, []model.ConvertedSnippet{s}))
}

// Flush writes buffered namespace files, in first-seen order, and returns
// their paths. It is a no-op for LayoutPerSnippet.
func (w *Writer) Flush() ([]string, error) {
	paths := make([]string, 0, len(w.order))
	for _, ns := range w.order {
		path := w.path(ns)
		if err := w.write(path, RenderFile(ns, w.groups[ns])); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	w.order = nil
	w.groups = make(map[string][]model.ConvertedSnippet)
	return paths, nil
}

func (w *Writer) uniqueName(base string) string {
	key := strings.ToLower(base)
	n := w.used[key]
	w.used[key] = n + 1
	if n == 0 {
		return base
	}
	candidate := base + "-" + strconv.Itoa(n+1)
	// A trigger may itself end in "-2"; keep counting until the name is free.
	for w.used[strings.ToLower(candidate)] > 0 {
		n++
		candidate = base + "-" + strconv.Itoa(n+1)
	}
	w.used[strings.ToLower(candidate)] = 1
	return candidate
}

func (w *Writer) path(name string) string {
	return filepath.Join(w.dir, name+w.opts.Extension)
}

func (w *Writer) write(path string, data []byte) error {
	if w.opts.DryRun {
		logging.Debug("dry run, not writing", logging.Path(path))
		return nil
	}
	// #nosec G306 - snippet files are meant to be readable by the editor
	if err := os.WriteFile(path, data, OutputFilePerm); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	logging.Debug("wrote snippet file", logging.Path(path), slog.Int("bytes", len(data)))
	return nil
}
