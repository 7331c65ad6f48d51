// Package snipmate renders converted snippets in Vim snipMate's .snippets
// format and decides which output file each snippet lands in.
//
// A rendered file looks like:
//
//	# div snippets for snipMate.
//
//	# Div
//	snippet div Div
//		<div>${1:content}</div>${0}
//
// The "snippet" line declares the trigger; every body line is indented by
// one tab. Output carries no timestamps so repeated runs are byte-identical.
package snipmate

import (
	"fmt"
	"strings"

	"github.com/klauern/snipconv/internal/model"
	"github.com/klauern/snipconv/internal/placeholder"
	"github.com/klauern/snipconv/internal/validation"
)

// DefaultExtension is the file extension snipMate loads snippets from.
const DefaultExtension = ".snippets"

// GlobalNamespace is snipMate's namespace for snippets available everywhere.
const GlobalNamespace = "_"

// Convert validates a source snippet and rewrites its body into snipMate
// syntax. domain, when set, is appended to the scope-derived namespace.
func Convert(src model.SourceSnippet, domain string) (model.ConvertedSnippet, error) {
	if err := validation.ValidateSnippet(src.Trigger, src.Body); err != nil {
		return model.ConvertedSnippet{}, err
	}

	return model.ConvertedSnippet{
		Trigger:   src.Trigger,
		Name:      singleLine(src.Name),
		Body:      placeholder.Translate(src.Body),
		Namespace: Namespace(src.Scope, domain),
		FileName:  validation.SanitizeFileName(src.Trigger),
		Source:    src.Path,
	}, nil
}

// Namespace derives a snipMate namespace from a TextMate scope selector.
// The first selector of a comma-separated list is used and its second and
// third dotted components are joined: "text.html.basic" becomes
// "html-basic", "source.python" becomes "python". A scope that yields nothing
// maps to the global namespace.
func Namespace(scope, domain string) string {
	sel := scope
	if i := strings.IndexByte(sel, ','); i >= 0 {
		sel = sel[:i]
	}
	fields := strings.Fields(sel)
	if len(fields) == 0 {
		return GlobalNamespace
	}
	sel = strings.TrimPrefix(fields[0], "-")

	parts := strings.Split(sel, ".")
	if len(parts) < 2 {
		return GlobalNamespace
	}
	parts = parts[1:min(3, len(parts))]

	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return GlobalNamespace
	}

	ns := strings.Join(kept, "-")
	if domain = strings.TrimSpace(domain); domain != "" {
		ns += "-" + domain
	}
	return validation.SanitizeFileName(ns)
}

// RenderFile renders a complete .snippets file. title names the file's
// contents in the header comment.
func RenderFile(title string, snippets []model.ConvertedSnippet) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s snippets for snipMate.\n", title)
	for _, s := range snippets {
		sb.WriteString("\n")
		writeSnippet(&sb, s)
	}
	return []byte(sb.String())
}

func writeSnippet(sb *strings.Builder, s model.ConvertedSnippet) {
	if s.Name != "" {
		fmt.Fprintf(sb, "# %s\n", s.Name)
		fmt.Fprintf(sb, "snippet %s %s\n", s.Trigger, s.Name)
	} else {
		fmt.Fprintf(sb, "snippet %s\n", s.Trigger)
	}
	for _, line := range strings.Split(s.Body, "\n") {
		sb.WriteString("\t")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
