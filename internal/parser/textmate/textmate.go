// Package textmate implements the Parser interface for TextMate snippets.
// A .tmSnippet file is a property list (XML, or the older OpenStep text
// form) holding a single dictionary with content, tabTrigger, name and scope.
package textmate

import (
	"strings"

	"howett.net/plist"

	"github.com/klauern/snipconv/internal/model"
	"github.com/klauern/snipconv/internal/parser"
)

// Snippet mirrors the keys of a TextMate snippet dictionary.
type Snippet struct {
	Content       string `plist:"content"`
	Name          string `plist:"name"`
	Scope         string `plist:"scope"`
	TabTrigger    string `plist:"tabTrigger"`
	KeyEquivalent string `plist:"keyEquivalent"`
	UUID          string `plist:"uuid"`
}

// Parser implements parser.Parser for TextMate snippets
type Parser struct{}

// New creates a new TextMate parser
func New() *Parser {
	return &Parser{}
}

// Parse decodes a property list and maps it to a SourceSnippet. content and
// tabTrigger are required; uuid and keyEquivalent are read but unused.
func (p *Parser) Parse(path string, data []byte) (model.SourceSnippet, error) {
	var s Snippet
	if _, err := plist.Unmarshal(data, &s); err != nil {
		return model.SourceSnippet{}, parser.Malformed("not a valid property list: %v", err)
	}

	var missing []string
	if s.Content == "" {
		missing = append(missing, "content")
	}
	if strings.TrimSpace(s.TabTrigger) == "" {
		missing = append(missing, "tabTrigger")
	}
	if len(missing) > 0 {
		return model.SourceSnippet{}, parser.Malformed("missing required key(s) %s", strings.Join(missing, ", "))
	}

	return model.SourceSnippet{
		Name:    strings.TrimSpace(s.Name),
		Trigger: strings.TrimSpace(s.TabTrigger),
		Body:    parser.NormalizeLineEndings(s.Content),
		Scope:   canonicalScope(s.Scope),
		Path:    path,
		Format:  p.Format(),
	}, nil
}

// Format returns the format identifier for TextMate
func (p *Parser) Format() model.SourceFormat {
	return model.TextMate
}

// canonicalScope joins scope lines with dots, as TextMate sometimes wraps
// long scope selectors across lines.
func canonicalScope(scope string) string {
	scope = strings.TrimSpace(parser.NormalizeLineEndings(scope))
	return strings.ReplaceAll(scope, "\n", ".")
}
