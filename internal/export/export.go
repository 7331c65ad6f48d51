// Package export writes snippet listings as JSON, YAML or Markdown.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klauern/snipconv/internal/logging"
	"github.com/klauern/snipconv/internal/model"
	"github.com/klauern/snipconv/internal/placeholder"
	"github.com/klauern/snipconv/internal/snipmate"
)

// Format represents the output format for exported snippets.
type Format string

const (
	// FormatJSON exports snippets as JSON.
	FormatJSON Format = "json"
	// FormatYAML exports snippets as YAML.
	FormatYAML Format = "yaml"
	// FormatMarkdown exports snippets as Markdown.
	FormatMarkdown Format = "markdown"
)

// IsValid returns true if the format is recognized.
func (f Format) IsValid() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatMarkdown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// AllFormats returns all supported export formats.
func AllFormats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatMarkdown}
}

// FormatNames returns the supported formats as a comma-separated list.
func FormatNames() string {
	names := make([]string, 0, len(AllFormats()))
	for _, f := range AllFormats() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

// ParseFormat parses a string into a Format.
func ParseFormat(s string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(s)))
	if !format.IsValid() {
		return "", fmt.Errorf("unsupported format %q (valid: %s)", s, FormatNames())
	}
	return format, nil
}

// Options configures export behavior.
type Options struct {
	// Format specifies the output format.
	Format Format
	// Pretty enables pretty-printing for JSON/YAML.
	Pretty bool
	// IncludeBody adds the source body and its snipMate translation.
	IncludeBody bool
	// Domain is appended to derived namespaces.
	Domain string
}

// DefaultOptions returns the default export options.
func DefaultOptions() Options {
	return Options{
		Format: FormatJSON,
		Pretty: true,
	}
}

// Exporter handles exporting snippets to different formats.
type Exporter struct {
	opts Options
}

// New creates a new Exporter with the given options.
func New(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export writes the given snippets to w in the configured format.
func (e *Exporter) Export(snippets []model.SourceSnippet, w io.Writer) error {
	defer logging.Timer("export")()

	logging.Debug("starting export",
		logging.Format(string(e.opts.Format)),
		logging.Count(len(snippets)),
		logging.Operation("export"),
	)

	var err error
	switch e.opts.Format {
	case FormatJSON:
		err = e.exportJSON(snippets, w)
	case FormatYAML:
		err = e.exportYAML(snippets, w)
	case FormatMarkdown:
		err = e.exportMarkdown(snippets, w)
	default:
		err = fmt.Errorf("unsupported format: %s", e.opts.Format)
	}

	if err != nil {
		logging.Error("export failed",
			logging.Format(string(e.opts.Format)),
			logging.Err(err),
		)
		return err
	}

	return nil
}

// exportSnippet is the serialized form of one snippet.
type exportSnippet struct {
	Trigger   string `json:"trigger" yaml:"trigger"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Scope     string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Format    string `json:"format" yaml:"format"`
	Path      string `json:"path" yaml:"path"`
	TabStops  int    `json:"tab_stops" yaml:"tab_stops"`
	Body      string `json:"body,omitempty" yaml:"body,omitempty"`
	SnipMate  string `json:"snipmate,omitempty" yaml:"snipmate,omitempty"`
}

func (e *Exporter) toExportSnippet(s model.SourceSnippet) exportSnippet {
	nodes := placeholder.Parse(s.Body)
	es := exportSnippet{
		Trigger:   s.Trigger,
		Name:      s.Name,
		Scope:     s.Scope,
		Namespace: snipmate.Namespace(s.Scope, e.opts.Domain),
		Format:    s.Format.String(),
		Path:      s.Path,
		TabStops:  placeholder.CountTabStops(nodes),
	}
	if e.opts.IncludeBody {
		es.Body = s.Body
		es.SnipMate = placeholder.Render(nodes)
	}
	return es
}

func (e *Exporter) exportAll(snippets []model.SourceSnippet) []exportSnippet {
	exported := make([]exportSnippet, len(snippets))
	for i, s := range snippets {
		exported[i] = e.toExportSnippet(s)
	}
	return exported
}

func (e *Exporter) exportJSON(snippets []model.SourceSnippet, w io.Writer) error {
	logging.Debug("exporting as JSON",
		logging.Count(len(snippets)),
		slog.Bool("pretty", e.opts.Pretty),
	)

	encoder := json.NewEncoder(w)
	if e.opts.Pretty {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(e.exportAll(snippets))
}

func (e *Exporter) exportYAML(snippets []model.SourceSnippet, w io.Writer) error {
	logging.Debug("exporting as YAML",
		logging.Count(len(snippets)),
		slog.Bool("pretty", e.opts.Pretty),
	)

	encoder := yaml.NewEncoder(w)
	if e.opts.Pretty {
		encoder.SetIndent(2)
	}
	if err := encoder.Encode(e.exportAll(snippets)); err != nil {
		_ = encoder.Close()
		return err
	}
	return encoder.Close()
}

func (e *Exporter) exportMarkdown(snippets []model.SourceSnippet, w io.Writer) error {
	logging.Debug("exporting as Markdown", logging.Count(len(snippets)))

	var sb strings.Builder

	sb.WriteString("# Snippets\n\n")
	sb.WriteString(fmt.Sprintf("Total: %d snippet(s)\n\n", len(snippets)))

	for i, s := range snippets {
		if i > 0 {
			sb.WriteString("\n---\n\n")
		}
		sb.WriteString(e.formatMarkdownSnippet(e.toExportSnippet(s)))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (e *Exporter) formatMarkdownSnippet(s exportSnippet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## `%s`", s.Trigger))
	if s.Name != "" {
		sb.WriteString(" " + s.Name)
	}
	sb.WriteString("\n\n")

	sb.WriteString("| Property | Value |\n")
	sb.WriteString("|----------|-------|\n")
	if s.Scope != "" {
		sb.WriteString(fmt.Sprintf("| Scope | `%s` |\n", s.Scope))
	}
	sb.WriteString(fmt.Sprintf("| Namespace | `%s` |\n", s.Namespace))
	sb.WriteString(fmt.Sprintf("| Format | %s |\n", s.Format))
	sb.WriteString(fmt.Sprintf("| Path | `%s` |\n", s.Path))
	sb.WriteString(fmt.Sprintf("| Tab stops | %d |\n", s.TabStops))

	if e.opts.IncludeBody {
		sb.WriteString("\n### snipMate\n\n")
		sb.WriteString("```\n")
		sb.WriteString(s.SnipMate)
		if !strings.HasSuffix(s.SnipMate, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("```\n")
	}

	return sb.String()
}
