package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an audio file does not exist
	ErrNotFound = errors.New("audio file not found")

	// ErrUnsupportedFormat is returned when a container or codec cannot be decoded to PCM
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrCannotDelete is returned when a stale destination file cannot be removed
	ErrCannotDelete = errors.New("cannot delete existing audio file")

	// ErrCannotCreate is returned when a destination file cannot be created
	ErrCannotCreate = errors.New("cannot create audio file")

	// ErrFormatMismatch is returned when a buffer does not match the sink format
	ErrFormatMismatch = errors.New("buffer format does not match sink format")
)

// FileError describes a failed audio file operation
type FileError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

// NewFileError creates a FileError of the given kind
func NewFileError(op, path string, kind, err error) *FileError {
	return &FileError{Op: op, Path: path, Kind: kind, Err: err}
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
}

// Unwrap exposes both the kind sentinel and the underlying cause
func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
