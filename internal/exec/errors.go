package exec

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrUnknownContainer = errors.New("container is not addressable")
	ErrCommandBlocked   = errors.New("command blocked by safety filter")
	ErrEmptyCommand     = errors.New("command cannot be empty")
)

// UnknownContainerError identifies a container name outside the configured set.
type UnknownContainerError struct {
	Container string
}

func (e *UnknownContainerError) Error() string {
	return fmt.Sprintf("container %q is not addressable", e.Container)
}

func (e *UnknownContainerError) Unwrap() error {
	return ErrUnknownContainer
}

// BlockedCommandError reports which filter rule rejected a command.
// The filter is a best-effort heuristic, so the rule name is surfaced
// to make rejections explainable to the caller.
type BlockedCommandError struct {
	Rule string
}

func (e *BlockedCommandError) Error() string {
	return fmt.Sprintf("command blocked by safety filter (rule %q)", e.Rule)
}

func (e *BlockedCommandError) Unwrap() error {
	return ErrCommandBlocked
}

// ExecutionError wraps a transport-level failure while attempting to run a
// command, as opposed to the command running and exiting non-zero.
type ExecutionError struct {
	Container string
	Cause     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to execute command in %q: %v", e.Container, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}
