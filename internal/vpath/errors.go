package vpath

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrContainerUndetermined = errors.New("container could not be determined from path")
	ErrPathRequired          = errors.New("path is required")
)

// ResolveError reports a virtual path whose leading segment is not an
// addressable container name.
type ResolveError struct {
	Path string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("container could not be determined from path %q", e.Path)
}

func (e *ResolveError) Unwrap() error {
	return ErrContainerUndetermined
}
