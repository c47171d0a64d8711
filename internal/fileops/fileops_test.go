package fileops

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipable/workspaced/internal/exec"
	"github.com/shipable/workspaced/internal/vpath"
)

// mockRunner records issued commands and plays back canned results keyed by
// a substring of the command.
type mockRunner struct {
	responses []mockResponse

	lastContainer string
	commands      []string
}

type mockResponse struct {
	match  string
	result *exec.Result
	err    error
}

func (m *mockRunner) on(match string, result *exec.Result, err error) {
	m.responses = append(m.responses, mockResponse{match: match, result: result, err: err})
}

func (m *mockRunner) Execute(ctx context.Context, container, command, workdir string) (*exec.Result, error) {
	m.lastContainer = container
	m.commands = append(m.commands, command)
	for _, r := range m.responses {
		if strings.Contains(command, r.match) {
			return r.result, r.err
		}
	}
	return &exec.Result{Success: true}, nil
}

func (m *mockRunner) lastCommand() string {
	if len(m.commands) == 0 {
		return ""
	}
	return m.commands[len(m.commands)-1]
}

func newTestService(runner *mockRunner) *Service {
	resolver := vpath.NewResolver([]string{"backend", "frontend"})
	return NewService(runner, resolver, zerolog.Nop())
}

func TestReadRange_NumberedCommand(t *testing.T) {
	runner := &mockRunner{}
	s := newTestService(runner)

	_, err := s.ReadRange(context.Background(), "backend/app/models.py", 10, 20, true)

	require.NoError(t, err)
	assert.Equal(t, "backend", runner.lastContainer)
	assert.Equal(t, "nl -ba app/models.py | sed -n '10,20p'", runner.lastCommand())
}

func TestReadRange_PlainCommand(t *testing.T) {
	runner := &mockRunner{}
	s := newTestService(runner)

	_, err := s.ReadRange(context.Background(), "backend/main.py", 1, 5, false)

	require.NoError(t, err)
	assert.Equal(t, "sed -n '1,5p' main.py", runner.lastCommand())
}

func TestReadRange_ClampsStartAndOpenEnd(t *testing.T) {
	runner := &mockRunner{}
	s := newTestService(runner)

	_, err := s.ReadRange(context.Background(), "backend/main.py", -3, 0, false)

	require.NoError(t, err)
	// start below 1 clamps to 1; end below 1 selects end of file
	assert.Equal(t, "sed -n '1,$p' main.py", runner.lastCommand())
}

func TestReadRange_QuotesPath(t *testing.T) {
	runner := &mockRunner{}
	s := newTestService(runner)

	_, err := s.ReadRange(context.Background(), "backend/my file.py", 1, 0, false)

	require.NoError(t, err)
	assert.Equal(t, "sed -n '1,$p' 'my file.py'", runner.lastCommand())
}

func TestReadRange_ReturnsStdout(t *testing.T) {
	runner := &mockRunner{}
	runner.on("sed", &exec.Result{Success: true, Stdout: "line one\nline two\n"}, nil)
	s := newTestService(runner)

	content, err := s.ReadRange(context.Background(), "backend/main.py", 1, 0, false)

	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", content)
}

func TestReadRange_MissingFile(t *testing.T) {
	runner := &mockRunner{}
	runner.on("sed", &exec.Result{Success: false, Stderr: "sed: can't read gone.py: No such file or directory"}, nil)
	s := newTestService(runner)

	_, err := s.ReadRange(context.Background(), "backend/gone.py", 1, 0, false)

	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestReadRange_InvalidPath(t *testing.T) {
	s := newTestService(&mockRunner{})

	_, err := s.ReadRange(context.Background(), "db/schema.sql", 1, 0, false)
	assert.ErrorIs(t, err, vpath.ErrContainerUndetermined)

	_, err = s.ReadRange(context.Background(), "backend", 1, 0, false)
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestOverwrite_EncodesContentAsBase64(t *testing.T) {
	runner := &mockRunner{}
	s := newTestService(runner)
	content := "line with 'quotes' and $vars\nand a second line\n"

	err := s.Overwrite(context.Background(), "backend/app/config.py", content)

	require.NoError(t, err)
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	assert.Equal(t, fmt.Sprintf("echo %s | base64 -d > app/config.py", encoded), runner.lastCommand())
}

func TestOverwrite_FailureSurfacesStderr(t *testing.T) {
	runner := &mockRunner{}
	runner.on("base64", &exec.Result{Success: false, Stderr: "sh: can't create f: Permission denied"}, nil)
	s := newTestService(runner)

	err := s.Overwrite(context.Background(), "backend/f", "x")

	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Contains(t, writeErr.Stderr, "Permission denied")
}

func TestDelete(t *testing.T) {
	runner := &mockRunner{}
	s := newTestService(runner)

	err := s.Delete(context.Background(), "backend/old file.py")

	require.NoError(t, err)
	assert.Equal(t, "rm -f 'old file.py'", runner.lastCommand())
}

func TestCreateDirectory(t *testing.T) {
	runner := &mockRunner{}
	s := newTestService(runner)

	err := s.CreateDirectory(context.Background(), "frontend/app/components")

	require.NoError(t, err)
	assert.Equal(t, "frontend", runner.lastContainer)
	assert.Equal(t, "mkdir -p app/components", runner.lastCommand())
}

func TestDirectoryExists(t *testing.T) {
	runner := &mockRunner{}
	s := newTestService(runner)

	exists, err := s.DirectoryExists(context.Background(), "backend/app")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "test -d app", runner.lastCommand())

	// any non-zero exit means "no", never an error
	runner.on("test -d", &exec.Result{Success: false}, nil)
	exists, err = s.DirectoryExists(context.Background(), "backend/missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReplaceString_SingleOccurrence(t *testing.T) {
	runner := &mockRunner{}
	runner.on("cat", &exec.Result{Success: true, Stdout: "alpha\nbeta\ngamma\n"}, nil)
	s := newTestService(runner)

	result, err := s.ReplaceString(context.Background(), "backend/words.txt", "beta", "delta")

	require.NoError(t, err)
	assert.Equal(t, 1, result.AddedLines)
	assert.Equal(t, 1, result.RemovedLines)
	assert.Contains(t, result.Diff, "-beta")
	assert.Contains(t, result.Diff, "+delta")

	// the write-back carries the replaced content
	expected := base64.StdEncoding.EncodeToString([]byte("alpha\ndelta\ngamma\n"))
	assert.Contains(t, runner.lastCommand(), expected)
}

func TestReplaceString_NotFound(t *testing.T) {
	runner := &mockRunner{}
	runner.on("cat", &exec.Result{Success: true, Stdout: "alpha\n"}, nil)
	s := newTestService(runner)

	_, err := s.ReplaceString(context.Background(), "backend/words.txt", "omega", "x")

	var notFound *SnippetNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestReplaceString_Ambiguous(t *testing.T) {
	runner := &mockRunner{}
	runner.on("cat", &exec.Result{Success: true, Stdout: "dup\ndup\n"}, nil)
	s := newTestService(runner)

	_, err := s.ReplaceString(context.Background(), "backend/words.txt", "dup", "x")

	var ambiguous *AmbiguousMatchError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, 2, ambiguous.Count)
}

func TestReplaceString_TruncatedReadRejected(t *testing.T) {
	runner := &mockRunner{}
	runner.on("cat", &exec.Result{Success: true, Stdout: "partial content", Truncated: true}, nil)
	s := newTestService(runner)

	_, err := s.ReplaceString(context.Background(), "backend/huge.txt", "a", "b")

	var tooLarge *TooLargeError
	assert.ErrorAs(t, err, &tooLarge)
}
