package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauern/snipconv/internal/model"
)

// Parser defines the interface for format-specific snippet parsers
type Parser interface {
	// Parse extracts a snippet from the content of the file at path
	Parse(path string, data []byte) (model.SourceSnippet, error)

	// Format returns the source format this parser handles
	Format() model.SourceFormat
}

// ParseFunc adapts an ordinary function to the Parser interface.
type ParseFunc struct {
	SourceFormat model.SourceFormat
	Fn           func(path string, data []byte) (model.SourceSnippet, error)
}

// Parse calls f.Fn.
func (f ParseFunc) Parse(path string, data []byte) (model.SourceSnippet, error) {
	return f.Fn(path, data)
}

// Format returns f.SourceFormat.
func (f ParseFunc) Format() model.SourceFormat {
	return f.SourceFormat
}

// DefaultFormats returns the built-in extension to format mapping.
func DefaultFormats() map[string]model.SourceFormat {
	return map[string]model.SourceFormat{
		".tmsnippet":       model.TextMate,
		".plist":           model.TextMate,
		".sublime-snippet": model.Sublime,
	}
}

// Registry maps file extensions to source formats and formats to parsers.
type Registry struct {
	extensions map[string]model.SourceFormat
	parsers    map[model.SourceFormat]Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		extensions: make(map[string]model.SourceFormat),
		parsers:    make(map[model.SourceFormat]Parser),
	}
}

// Register installs p for its format, replacing any previous parser.
func (r *Registry) Register(p Parser) {
	r.parsers[p.Format()] = p
}

// MapExtension routes files ending in ext (case-insensitive, leading dot
// optional) to format.
func (r *Registry) MapExtension(ext string, format model.SourceFormat) error {
	if !format.IsValid() {
		return fmt.Errorf("extension %q mapped to unsupported format %q", ext, format)
	}
	ext = normalizeExt(ext)
	if ext == "." {
		return fmt.Errorf("empty extension mapped to format %q", format)
	}
	r.extensions[ext] = format
	return nil
}

// Extensions returns the recognized extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.extensions))
	for ext := range r.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Lookup returns the parser for path, chosen by its extension.
func (r *Registry) Lookup(path string) (Parser, bool) {
	format, ok := r.extensions[normalizeExt(filepath.Ext(path))]
	if !ok {
		return nil, false
	}
	p, ok := r.parsers[format]
	return p, ok
}

// Recognizes reports whether Lookup would find a parser for path.
func (r *Registry) Recognizes(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
