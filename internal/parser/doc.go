// Package parser provides format-specific snippet parsers.
// Each source editor format (TextMate, Sublime Text) has its own
// subpackage implementing Parser; a Registry maps file extensions to
// formats and formats to parsers, so discovery is driven by an explicit
// table rather than by checks scattered through the walk.
package parser
