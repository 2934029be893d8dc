// Package apperr defines the error kinds shared by the note store and its front-ends.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrDuplicateTitle = errors.New("duplicate title")
	ErrInvalidTitle   = errors.New("invalid title")
)

// IOError reports a failed read, write, delete or directory operation on a note file.
type IOError struct {
	Op    string
	Title string
	Err   error
}

func (e *IOError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Title, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// DecodeError reports a note file whose content cannot be used as text.
type DecodeError struct {
	Title string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %v", e.Title, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
