// Package fileops implements file operations over the command executor.
// The sidecar has no shared filesystem with its sibling containers, so every
// read and write is expressed as a shell command running inside the target
// container. Writes carry their payload base64-encoded to survive shell
// transit without escaping issues.
package fileops

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"

	"github.com/shipable/workspaced/internal/exec"
	"github.com/shipable/workspaced/internal/vpath"
)

// commandRunner is the slice of the executor the file service needs.
type commandRunner interface {
	Execute(ctx context.Context, container, command, workdir string) (*exec.Result, error)
}

// Service performs file operations inside containers via shell commands.
// All paths are virtual (container-prefixed); the embedded resolver maps
// them to in-container relative paths before any command is built.
type Service struct {
	runner   commandRunner
	resolver *vpath.Resolver
	log      zerolog.Logger
}

// NewService creates a file operations service.
func NewService(runner commandRunner, resolver *vpath.Resolver, log zerolog.Logger) *Service {
	if runner == nil {
		panic("runner is required")
	}
	if resolver == nil {
		panic("resolver is required")
	}
	return &Service{runner: runner, resolver: resolver, log: log}
}

// ReadRange reads lines [startLine, endLine] of a file, one-based inclusive.
// startLine below 1 is clamped to 1; endLine below 1 selects end-of-file.
// When numbered is true each line is prefixed with its line number via
// `nl -ba`, so numbering stays correct for partial reads.
func (s *Service) ReadRange(ctx context.Context, path string, startLine, endLine int, numbered bool) (string, error) {
	p, err := s.resolver.Resolve(path)
	if err != nil {
		return "", err
	}
	if p.Rel == "" {
		return "", ErrEmptyPath
	}

	if startLine < 1 {
		startLine = 1
	}
	endExpr := "$" // sed syntax for end of file
	if endLine >= 1 {
		endExpr = strconv.Itoa(endLine)
	}

	quoted := shellquote.Join(p.Rel)
	var cmd string
	if numbered {
		cmd = fmt.Sprintf("nl -ba %s | sed -n '%d,%sp'", quoted, startLine, endExpr)
	} else {
		cmd = fmt.Sprintf("sed -n '%d,%sp' %s", startLine, endExpr, quoted)
	}

	result, err := s.readCommand(ctx, p.Container, cmd, path)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// Read reads the whole file without line numbers.
func (s *Service) Read(ctx context.Context, path string) (string, error) {
	return s.ReadRange(ctx, path, 1, 0, false)
}

func (s *Service) readCommand(ctx context.Context, container, cmd, path string) (*exec.Result, error) {
	result, err := s.runner.Execute(ctx, container, cmd, "")
	if err != nil {
		return nil, err
	}
	if !result.Success {
		if isNotFound(result.Stderr) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, &ReadError{Path: path, Stderr: result.Stderr}
	}
	return result, nil
}

// Overwrite replaces the file's content, creating it if absent. The payload
// is base64-encoded on this side and decoded inside the container, so
// arbitrary quotes, backticks, and multi-line content round-trip intact.
func (s *Service) Overwrite(ctx context.Context, path, content string) error {
	p, err := s.resolver.Resolve(path)
	if err != nil {
		return err
	}
	if p.Rel == "" {
		return ErrEmptyPath
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	cmd := fmt.Sprintf("echo %s | base64 -d > %s", encoded, shellquote.Join(p.Rel))

	result, err := s.runner.Execute(ctx, p.Container, cmd, "")
	if err != nil {
		return err
	}
	if !result.Success {
		return &WriteError{Path: path, Stderr: result.Stderr}
	}

	s.log.Info().
		Str("container", p.Container).
		Str("path", p.Rel).
		Int("bytes", len(content)).
		Msg("file overwritten")
	return nil
}

// Delete removes a file. Deleting a missing file succeeds (`rm -f`).
func (s *Service) Delete(ctx context.Context, path string) error {
	p, err := s.resolver.Resolve(path)
	if err != nil {
		return err
	}
	if p.Rel == "" {
		return ErrEmptyPath
	}

	result, err := s.runner.Execute(ctx, p.Container, "rm -f "+shellquote.Join(p.Rel), "")
	if err != nil {
		return err
	}
	if !result.Success {
		return &WriteError{Path: path, Stderr: result.Stderr}
	}
	return nil
}

// CreateDirectory creates a directory and any missing parents (`mkdir -p`).
func (s *Service) CreateDirectory(ctx context.Context, path string) error {
	p, err := s.resolver.Resolve(path)
	if err != nil {
		return err
	}
	if p.Rel == "" {
		return ErrEmptyPath
	}

	result, err := s.runner.Execute(ctx, p.Container, "mkdir -p "+shellquote.Join(p.Rel), "")
	if err != nil {
		return err
	}
	if !result.Success {
		return &WriteError{Path: path, Stderr: result.Stderr}
	}
	return nil
}

// DirectoryExists reports whether path is an existing directory. Any
// non-zero exit (absent path, path is a file) maps to false, not an error;
// only a transport failure surfaces as an error.
func (s *Service) DirectoryExists(ctx context.Context, path string) (bool, error) {
	p, err := s.resolver.Resolve(path)
	if err != nil {
		return false, err
	}
	if p.Rel == "" {
		return false, ErrEmptyPath
	}

	result, err := s.runner.Execute(ctx, p.Container, "test -d "+shellquote.Join(p.Rel), "")
	if err != nil {
		return false, err
	}
	return result.Success, nil
}

// ReplaceResult describes a completed string replacement.
type ReplaceResult struct {
	Path         string
	Diff         string
	AddedLines   int
	RemovedLines int
}

// ReplaceString replaces exactly one occurrence of oldStr with newStr.
// Zero occurrences and multiple occurrences are both rejected: the first is
// a stale edit, the second an ambiguous one. The whole file is read,
// modified locally, and written back in one overwrite.
func (s *Service) ReplaceString(ctx context.Context, path, oldStr, newStr string) (*ReplaceResult, error) {
	p, err := s.resolver.Resolve(path)
	if err != nil {
		return nil, err
	}
	if p.Rel == "" {
		return nil, ErrEmptyPath
	}

	result, err := s.readCommand(ctx, p.Container, "cat "+shellquote.Join(p.Rel), path)
	if err != nil {
		return nil, err
	}
	// A capped read would silently drop the file's tail on write-back.
	if result.Truncated {
		return nil, &TooLargeError{Path: path}
	}
	content := result.Stdout

	count := strings.Count(content, oldStr)
	switch {
	case count == 0:
		return nil, &SnippetNotFoundError{Path: path}
	case count > 1:
		return nil, &AmbiguousMatchError{Path: path, Count: count}
	}

	updated := strings.Replace(content, oldStr, newStr, 1)
	if err := s.Overwrite(ctx, path, updated); err != nil {
		return nil, err
	}

	diff, added, removed := unifiedDiff(path, content, updated)
	return &ReplaceResult{
		Path:         path,
		Diff:         diff,
		AddedLines:   added,
		RemovedLines: removed,
	}, nil
}

func unifiedDiff(path, oldContent, newContent string) (diff string, added, removed int) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}
	diff, _ = difflib.GetUnifiedDiffString(ud)

	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") {
			added++
		} else if strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---") {
			removed++
		}
	}
	return diff, added, removed
}

func isNotFound(stderr string) bool {
	return strings.Contains(stderr, "No such file or directory")
}
