package fileops

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrFileNotFound = errors.New("file not found")
	ErrEmptyPath    = errors.New("path is required")
)

// NotFoundError reports a path that does not exist inside its container.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error {
	return ErrFileNotFound
}

// ReadError reports a read command that exited non-zero for a reason other
// than a missing file. Stderr carries the shell's own diagnostic.
type ReadError struct {
	Path   string
	Stderr string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %s", e.Path, e.Stderr)
}

// WriteError reports a failed write, delete, or mkdir command.
type WriteError struct {
	Path   string
	Stderr string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %s", e.Path, e.Stderr)
}

// SnippetNotFoundError reports a replace target absent from the file.
type SnippetNotFoundError struct {
	Path string
}

func (e *SnippetNotFoundError) Error() string {
	return fmt.Sprintf("string to replace not found in %s", e.Path)
}

// AmbiguousMatchError reports a replace target that occurs more than once;
// replacing would be a guess about which occurrence was meant.
type AmbiguousMatchError struct {
	Path  string
	Count int
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("string to replace occurs %d times in %s, expected exactly one occurrence", e.Count, e.Path)
}

// TooLargeError reports a file whose content exceeded the capture cap, making
// a read-modify-write cycle unsafe.
type TooLargeError struct {
	Path string
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("file too large to edit safely: %s", e.Path)
}
