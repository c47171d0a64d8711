package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shipable/workspaced/internal/envfile"
	"github.com/shipable/workspaced/internal/exec"
	"github.com/shipable/workspaced/internal/fileops"
	"github.com/shipable/workspaced/internal/runtime"
	"github.com/shipable/workspaced/internal/search"
	"github.com/shipable/workspaced/internal/vpath"
)

// Response is the envelope every endpoint returns. Command-shaped endpoints
// additionally populate the stream fields.
type Response struct {
	Success  bool    `json:"success"`
	Message  string  `json:"message,omitempty"`
	Data     any     `json:"data,omitempty"`
	Stdout   *string `json:"stdout,omitempty"`
	Stderr   *string `json:"stderr,omitempty"`
	ExitCode *int    `json:"exit_code,omitempty"`
}

func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), Response{
		Success: false,
		Message: err.Error(),
		Data:    gin.H{"error": err.Error()},
	})
}

func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Message: err.Error(),
		Data:    gin.H{"error": err.Error()},
	})
}

// statusFor maps domain errors to HTTP status codes. Anything unrecognized
// is an internal error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, exec.ErrCommandBlocked):
		return http.StatusForbidden
	case errors.Is(err, runtime.ErrContainerNotFound),
		errors.Is(err, fileops.ErrFileNotFound),
		errors.Is(err, envfile.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, exec.ErrUnknownContainer),
		errors.Is(err, exec.ErrEmptyCommand),
		errors.Is(err, vpath.ErrContainerUndetermined),
		errors.Is(err, vpath.ErrPathRequired),
		errors.Is(err, fileops.ErrEmptyPath),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, envfile.ErrInvalidName):
		return http.StatusBadRequest
	}

	var snippetErr *fileops.SnippetNotFoundError
	var ambiguousErr *fileops.AmbiguousMatchError
	if errors.As(err, &snippetErr) || errors.As(err, &ambiguousErr) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
