package recent

import (
	"errors"
)

// Error kinds. Every error returned by a Store matches exactly one of these
// through errors.Is.
var (
	// ErrNotFound means the file is missing, unreadable, or no path could be
	// resolved.
	ErrNotFound = errors.New("recent files not found")

	// ErrParse means the document is not well-formed XML.
	ErrParse = errors.New("malformed recent files document")

	// ErrIO means opening, locking, writing or closing the target failed.
	ErrIO = errors.New("recent files I/O error")
)

// ErrLocked is the cause of an ErrIO failure when another process holds the
// file lock and the Store was told not to wait for it.
var ErrLocked = errors.New("file is locked by another process")

// PathError records the operation, file and kind of a failure along with the
// underlying cause.
type PathError struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *PathError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PathError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func notFound(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Kind: ErrNotFound, Err: err}
}

func parseFailure(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Kind: ErrParse, Err: err}
}

func ioFailure(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Kind: ErrIO, Err: err}
}
