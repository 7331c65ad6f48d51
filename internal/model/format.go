package model

import (
	"fmt"
	"strings"
)

// SourceFormat identifies an input snippet file format.
type SourceFormat string

const (
	// TextMate is the property-list based .tmSnippet format.
	TextMate SourceFormat = "textmate"
	// Sublime is the XML based .sublime-snippet format.
	Sublime SourceFormat = "sublime"
)

// IsValid returns true if the format is recognized.
func (f SourceFormat) IsValid() bool {
	switch f {
	case TextMate, Sublime:
		return true
	default:
		return false
	}
}

// String returns the string representation of the format.
func (f SourceFormat) String() string {
	return string(f)
}

// AllSourceFormats returns all supported source formats.
func AllSourceFormats() []SourceFormat {
	return []SourceFormat{TextMate, Sublime}
}

// ParseSourceFormat converts a string to a SourceFormat.
func ParseSourceFormat(s string) (SourceFormat, error) {
	f := SourceFormat(strings.ToLower(strings.TrimSpace(s)))
	if !f.IsValid() {
		names := make([]string, 0, len(AllSourceFormats()))
		for _, f := range AllSourceFormats() {
			names = append(names, f.String())
		}
		return "", fmt.Errorf("unsupported source format %q (valid: %s)", s, strings.Join(names, ", "))
	}
	return f, nil
}

// Layout controls how converted snippets are spread across output files.
type Layout string

const (
	// LayoutPerSnippet writes one output file per snippet, named by trigger.
	LayoutPerSnippet Layout = "per-snippet"
	// LayoutNamespace writes one output file per scope-derived namespace.
	LayoutNamespace Layout = "namespace"
)

// IsValid returns true if the layout is recognized.
func (l Layout) IsValid() bool {
	switch l {
	case LayoutPerSnippet, LayoutNamespace:
		return true
	default:
		return false
	}
}

// String returns the string representation of the layout.
func (l Layout) String() string {
	return string(l)
}

// ParseLayout converts a string to a Layout.
// Returns LayoutPerSnippet if the string is empty.
func ParseLayout(s string) (Layout, error) {
	if strings.TrimSpace(s) == "" {
		return LayoutPerSnippet, nil
	}
	l := Layout(strings.ToLower(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", fmt.Errorf("unsupported layout %q (valid: per-snippet, namespace)", s)
	}
	return l, nil
}
