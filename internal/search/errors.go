package search

import (
	"errors"
	"fmt"
	"strings"
)

// -- Sentinels --

var ErrEmptyQuery = errors.New("search query is required")

// ParseError reports a grep output line that does not have the expected
// file:line shape.
type ParseError struct {
	Container string
	Line      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed search output from %s: %q", e.Container, e.Line)
}

// AllContainersFailedError reports a dry search in which every container's
// command failed. Partial failures are tolerated; total failure is not.
type AllContainersFailedError struct {
	Reasons map[string]string
}

func (e *AllContainersFailedError) Error() string {
	parts := make([]string, 0, len(e.Reasons))
	for container, reason := range e.Reasons {
		parts = append(parts, container+": "+reason)
	}
	return "search failed in all containers: " + strings.Join(parts, "; ")
}
