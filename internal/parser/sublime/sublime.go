// Package sublime implements the Parser interface for Sublime Text snippets.
// Sublime uses the TextMate placeholder grammar inside a small XML document;
// when tabTrigger is absent the trigger comes from the file name.
package sublime

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/klauern/snipconv/internal/model"
	"github.com/klauern/snipconv/internal/parser"
)

// Snippet mirrors the <snippet> document.
type Snippet struct {
	XMLName     xml.Name `xml:"snippet"`
	Content     string   `xml:"content"`
	TabTrigger  string   `xml:"tabTrigger"`
	Scope       string   `xml:"scope"`
	Description string   `xml:"description"`
}

// Parser implements parser.Parser for Sublime Text snippets
type Parser struct{}

// New creates a new Sublime Text parser
func New() *Parser {
	return &Parser{}
}

// Parse decodes a .sublime-snippet document.
func (p *Parser) Parse(path string, data []byte) (model.SourceSnippet, error) {
	var s Snippet
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	if err := dec.Decode(&s); err != nil {
		return model.SourceSnippet{}, parser.Malformed("not a valid snippet document: %v", err)
	}

	body := strings.Trim(parser.NormalizeLineEndings(s.Content), "\n")
	if strings.TrimSpace(body) == "" {
		return model.SourceSnippet{}, parser.Malformed("missing required element content")
	}

	trigger := strings.TrimSpace(s.TabTrigger)
	if trigger == "" {
		trigger = parser.TriggerFromFileName(path)
	}
	if trigger == "" {
		return model.SourceSnippet{}, parser.Malformed("no tabTrigger and no usable file name")
	}

	return model.SourceSnippet{
		Name:    strings.TrimSpace(s.Description),
		Trigger: trigger,
		Body:    body,
		Scope:   strings.TrimSpace(s.Scope),
		Path:    path,
		Format:  p.Format(),
	}, nil
}

// Format returns the format identifier for Sublime Text
func (p *Parser) Format() model.SourceFormat {
	return model.Sublime
}
