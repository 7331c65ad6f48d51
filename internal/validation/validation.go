// Package validation checks snippet triggers and derives filesystem-safe
// output names from them.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Error represents a validation failure with context.
type Error struct {
	// Field is the name of the field that failed validation
	Field string
	// Value is the offending value
	Value string
	// Message describes the failure
	Message string
}

// Error returns a formatted validation error message.
func (ve *Error) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", ve.Field, ve.Value, ve.Message)
}

// Errors collects multiple validation errors.
type Errors []error

// Error returns a formatted error message for all validation failures.
func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors:\n- %s", len(ve), errors.Join(ve...))
}

// maxTriggerLen bounds trigger length so derived file names stay well under
// common 255-byte name limits once an extension and suffix are added.
const maxTriggerLen = 200

// ValidateTrigger checks that a trigger word can be written on a snipMate
// "snippet" line: non-empty, no whitespace, no control characters.
func ValidateTrigger(trigger string) error {
	if trigger == "" {
		return &Error{Field: "trigger", Value: trigger, Message: "cannot be empty"}
	}
	if len(trigger) > maxTriggerLen {
		return &Error{Field: "trigger", Value: truncate(trigger, 32), Message: fmt.Sprintf("longer than %d bytes", maxTriggerLen)}
	}
	for _, r := range trigger {
		if unicode.IsSpace(r) {
			return &Error{Field: "trigger", Value: trigger, Message: "cannot contain whitespace"}
		}
		if unicode.IsControl(r) {
			return &Error{Field: "trigger", Value: trigger, Message: "cannot contain control characters"}
		}
	}
	return nil
}

// ValidateSnippet checks the fields every convertible snippet needs and
// returns all failures at once.
func ValidateSnippet(trigger, body string) error {
	var errs Errors
	if err := ValidateTrigger(trigger); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(body) == "" {
		errs = append(errs, &Error{Field: "content", Value: body, Message: "cannot be empty"})
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SanitizeFileName turns a trigger into a name usable as a single path
// element on every common filesystem. The result is NFC-normalized, never
// empty, and never "." or "..".
func SanitizeFileName(name string) string {
	name = norm.NFC.String(name)

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r == '/', r == '\\', r == ':', r == '*', r == '?', r == '"', r == '<', r == '>', r == '|':
			sb.WriteRune('_')
		case unicode.IsControl(r), unicode.IsSpace(r):
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}

	out := sb.String()
	// Leading dots would hide the file; trailing dots are dropped on Windows.
	if strings.Trim(out, ".") == "" {
		return strings.Repeat("_", max(len(out), 1))
	}
	if strings.HasPrefix(out, ".") {
		out = "_" + out[1:]
	}
	if strings.HasSuffix(out, ".") {
		out = out[:len(out)-1] + "_"
	}
	return out
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
