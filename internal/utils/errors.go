package utils

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the command can map it to an exit status.
type Kind uint8

// Failure kinds, in the order the pipeline can raise them.
const (
	InternalError Kind = iota // Catch-all for unexpected failures.
	FileNotFound              // Input path missing or not a regular file.
	NotReadable               // Input exists but cannot be opened for reading.
	InvalidFormat             // Input is not a decodable HDF5 container.
	EmptyInput                // No datasets found. Warning only.
	WriteError                // Destination cannot be written.
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case FileNotFound:
		return "FileNotFound"
	case NotReadable:
		return "NotReadable"
	case InvalidFormat:
		return "InvalidFormat"
	case EmptyInput:
		return "EmptyInput"
	case WriteError:
		return "WriteError"
	default:
		return "InternalError"
	}
}

// Error is a classified failure tied to the path it concerns.
type Error struct {
	Kind  Kind
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Cause)
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError classifies cause. A nil cause yields nil.
func NewError(kind Kind, path string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{
		Kind:  kind,
		Path:  path,
		Cause: cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain.
// Unclassified errors are InternalError.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return InternalError
}

// H5Error represents a structured error with the operation that failed.
type H5Error struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *H5Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// WrapError creates a contextual error.
func WrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &H5Error{
		Context: context,
		Cause:   cause,
	}
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *H5Error) Unwrap() error {
	return e.Cause
}
