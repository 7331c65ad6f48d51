package convert

import (
	"fmt"
	"strings"

	"github.com/klauern/snipconv/internal/model"
)

// Converted describes one snippet that made it to the target directory.
type Converted struct {
	// Snippet is the translated snippet.
	Snippet model.ConvertedSnippet

	// TargetPath is the file holding the snippet.
	TargetPath string
}

// Skipped describes an input file that was not converted.
type Skipped struct {
	// Path is the input file.
	Path string

	// Err is the reason; it always matches ErrParseSkip.
	Err error
}

// Result contains the outcome of a conversion run.
type Result struct {
	// Source is the directory that was scanned.
	Source string

	// Target is the directory output was written to.
	Target string

	// Layout is the output layout used.
	Layout model.Layout

	// Converted lists snippets in input order.
	Converted []Converted

	// Skipped lists input files that could not be converted.
	Skipped []Skipped

	// Files lists written output files in the order they were written.
	Files []string

	// DryRun indicates nothing was written.
	DryRun bool
}

// Count returns the number of converted snippets.
func (r *Result) Count() int {
	return len(r.Converted)
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	var sb strings.Builder

	if r.DryRun {
		sb.WriteString("Dry run - no files written\n")
	}

	sb.WriteString(fmt.Sprintf("Converted %s -> %s (%s layout)\n", r.Source, r.Target, r.Layout))
	sb.WriteString(fmt.Sprintf("  Snippets: %d\n", len(r.Converted)))
	sb.WriteString(fmt.Sprintf("  Files:    %d\n", len(r.Files)))
	sb.WriteString(fmt.Sprintf("  Skipped:  %d\n", len(r.Skipped)))

	if len(r.Skipped) > 0 {
		sb.WriteString("\nSkipped:\n")
		for _, s := range r.Skipped {
			sb.WriteString(fmt.Sprintf("  - %s: %v\n", s.Path, s.Err))
		}
	}

	return sb.String()
}
