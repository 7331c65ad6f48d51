package convert

import (
	"errors"
	"fmt"
)

// Error kinds, matchable with errors.Is.
var (
	// ErrSourceNotFound means the source directory is missing, unreadable or
	// not a directory. The run aborts.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrParseSkip means a single input file could not be parsed or
	// translated. The file is skipped and the run continues.
	ErrParseSkip = errors.New("snippet skipped")

	// ErrWriteFailure means the target directory or an output file could not
	// be written. The run aborts.
	ErrWriteFailure = errors.New("write failed")
)

// Error carries an error kind together with the path it concerns.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
