package runtime

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrContainerNotFound = errors.New("container not found")
)

// TransportError wraps a failure to reach the container runtime while
// attempting an operation, as opposed to the operation itself failing.
type TransportError struct {
	Op        string
	Container string
	Cause     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("container runtime %s failed for %q: %v", e.Op, e.Container, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NotFoundError identifies a container that does not exist in the runtime.
type NotFoundError struct {
	Container string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("container %q not found", e.Container)
}

func (e *NotFoundError) Unwrap() error {
	return ErrContainerNotFound
}
