package merge

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple checking with [errors.Is]. Use [errors.As]
// with [*FileError], [*PathError] or [*ValidationError] for details.
var (
	ErrNotFound   = errors.New("settings file not found")
	ErrParse      = errors.New("malformed settings document")
	ErrPath       = errors.New("unresolvable target path")
	ErrIO         = errors.New("filesystem error")
	ErrValidation = errors.New("invalid edit operation")
)

// FileError reports a failure reading, parsing, backing up or writing a
// settings file. Kind is one of ErrNotFound, ErrParse or ErrIO.
type FileError struct {
	Kind error
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// PathError reports an operation whose target path does not fit the shape
// of the document.
type PathError struct {
	// Operation is the name of the failing EditOperation.
	Operation string
	// Path is the full target path of the operation.
	Path []string
	// Depth is the index of the segment that could not be resolved.
	Depth int
	// Reason describes the mismatch.
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("operation %q: path %s: segment %d: %s",
		e.Operation, formatPath(e.Path), e.Depth, e.Reason)
}

func (e *PathError) Unwrap() error {
	return ErrPath
}

// ValidationError reports an EditOperation that is malformed on its own,
// independent of any document.
type ValidationError struct {
	Operation string
	Index     int
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("operation #%d: %s", e.Index+1, e.Reason)
	}
	return fmt.Sprintf("operation %q: %s", e.Operation, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func formatPath(path []string) string {
	if len(path) == 0 {
		return "/"
	}
	return "/" + strings.Join(path, "/")
}
