package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipable/workspaced/internal/config"
	"github.com/shipable/workspaced/internal/exec"
	"github.com/shipable/workspaced/internal/vpath"
)

// mockRunner plays back canned per-container results. Searches fan out
// concurrently, so the command log is guarded.
type mockRunner struct {
	results map[string]*exec.Result
	errs    map[string]error

	mu       sync.Mutex
	commands []string
}

func newMockRunner() *mockRunner {
	return &mockRunner{
		results: make(map[string]*exec.Result),
		errs:    make(map[string]error),
	}
}

func (m *mockRunner) Execute(ctx context.Context, container, command, workdir string) (*exec.Result, error) {
	m.mu.Lock()
	m.commands = append(m.commands, container+": "+command)
	m.mu.Unlock()

	if err, ok := m.errs[container]; ok {
		return nil, err
	}
	if result, ok := m.results[container]; ok {
		return result, nil
	}
	return &exec.Result{Success: true}, nil
}

// mockReader records the requested range and returns fixed content.
type mockReader struct {
	content string

	lastPath     string
	lastStart    int
	lastEnd      int
	lastNumbered bool
	calls        int
}

func (m *mockReader) ReadRange(ctx context.Context, path string, startLine, endLine int, numbered bool) (string, error) {
	m.calls++
	m.lastPath = path
	m.lastStart = startLine
	m.lastEnd = endLine
	m.lastNumbered = numbered
	return m.content, nil
}

func newTestSearcher(runner *mockRunner, reader *mockReader) *Searcher {
	cfg := config.DefaultConfig()
	resolver := vpath.NewResolver(cfg.Containers.Names)
	return NewSearcher(runner, reader, resolver, cfg, zerolog.Nop())
}

func TestDrySearch_ParsesAndMergesMatches(t *testing.T) {
	runner := newMockRunner()
	runner.results["backend"] = &exec.Result{
		Success: true,
		Stdout:  "./app/models.py:5\n./app/models.py:7\n./app/views.py:30\n",
	}
	runner.results["frontend"] = &exec.Result{Success: true, Stdout: ""}
	s := newTestSearcher(runner, &mockReader{})

	got, err := s.DrySearch(context.Background(), "User", 2)

	require.NoError(t, err)
	assert.Equal(t, map[string][]LineRange{
		"backend/app/models.py": {{Start: 3, End: 9}},
		"backend/app/views.py":  {{Start: 28, End: 32}},
	}, got)
}

func TestDrySearch_NoMatchExitIsEmptyResult(t *testing.T) {
	runner := newMockRunner()
	// grep exits non-zero when nothing matches; stderr stays empty.
	runner.results["backend"] = &exec.Result{Success: false}
	runner.results["frontend"] = &exec.Result{Success: false}
	s := newTestSearcher(runner, &mockReader{})

	got, err := s.DrySearch(context.Background(), "nonexistent", 2)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDrySearch_PartialFailureTolerated(t *testing.T) {
	runner := newMockRunner()
	runner.results["backend"] = &exec.Result{Success: true, Stdout: "./main.py:1\n"}
	runner.errs["frontend"] = errors.New("container stopped")
	s := newTestSearcher(runner, &mockReader{})

	got, err := s.DrySearch(context.Background(), "main", 1)

	require.NoError(t, err)
	assert.Contains(t, got, "backend/main.py")
}

func TestDrySearch_AllContainersFailing(t *testing.T) {
	runner := newMockRunner()
	runner.errs["backend"] = errors.New("down")
	runner.errs["frontend"] = errors.New("down")
	s := newTestSearcher(runner, &mockReader{})

	_, err := s.DrySearch(context.Background(), "query", 1)

	var allFailed *AllContainersFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Len(t, allFailed.Reasons, 2)
}

func TestDrySearch_CommandErrorWithStderrIsFailure(t *testing.T) {
	runner := newMockRunner()
	runner.results["backend"] = &exec.Result{Success: false, Stderr: "find: invalid predicate"}
	runner.results["frontend"] = &exec.Result{Success: false, Stderr: "find: invalid predicate"}
	s := newTestSearcher(runner, &mockReader{})

	_, err := s.DrySearch(context.Background(), "query", 1)

	var allFailed *AllContainersFailedError
	require.ErrorAs(t, err, &allFailed)
}

func TestDrySearch_MalformedOutput(t *testing.T) {
	runner := newMockRunner()
	runner.results["backend"] = &exec.Result{Success: true, Stdout: "garbage-without-colon\n"}
	s := newTestSearcher(runner, &mockReader{})

	_, err := s.DrySearch(context.Background(), "query", 1)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "backend", parseErr.Container)
}

func TestDrySearch_EmptyQueryRejected(t *testing.T) {
	s := newTestSearcher(newMockRunner(), &mockReader{})

	_, err := s.DrySearch(context.Background(), "", 1)

	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestDrySearch_NegativeContextUsesDefault(t *testing.T) {
	runner := newMockRunner()
	runner.results["backend"] = &exec.Result{Success: true, Stdout: "./main.py:10\n"}
	s := newTestSearcher(runner, &mockReader{})

	got, err := s.DrySearch(context.Background(), "main", -1)

	require.NoError(t, err)
	// default context is 5
	assert.Equal(t, []LineRange{{Start: 5, End: 15}}, got["backend/main.py"])
}

func TestSearch_ReadsSingleContiguousRange(t *testing.T) {
	runner := newMockRunner()
	// Two disjoint ranges in the same file: the read spans both.
	runner.results["backend"] = &exec.Result{
		Success: true,
		Stdout:  "./app/models.py:10\n./app/models.py:50\n",
	}
	reader := &mockReader{content: "     8\tcontext\n"}
	s := newTestSearcher(runner, reader)

	results, err := s.Search(context.Background(), "User", 2, "backend/app/models.py", true)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "backend/app/models.py", reader.lastPath)
	assert.Equal(t, 8, reader.lastStart)
	assert.Equal(t, 52, reader.lastEnd)
	assert.True(t, reader.lastNumbered)
}

func TestSearch_NoMatchInFileReturnsEmpty(t *testing.T) {
	runner := newMockRunner()
	runner.results["backend"] = &exec.Result{
		Success: true,
		Stdout:  "./other.py:3\n",
	}
	reader := &mockReader{}
	s := newTestSearcher(runner, reader)

	results, err := s.Search(context.Background(), "User", 2, "backend/app/models.py", true)

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, reader.calls)
}

func TestSearch_InvalidPathRejected(t *testing.T) {
	s := newTestSearcher(newMockRunner(), &mockReader{})

	_, err := s.Search(context.Background(), "query", 2, "db/schema.sql", true)

	assert.ErrorIs(t, err, vpath.ErrContainerUndetermined)
}

func TestListFiles(t *testing.T) {
	runner := newMockRunner()
	runner.results["backend"] = &exec.Result{
		Success: true,
		Stdout:  "./app/models.py\n./manage.py\n",
	}
	runner.results["frontend"] = &exec.Result{
		Success: true,
		Stdout:  "./app/page.tsx\n",
	}
	s := newTestSearcher(runner, &mockReader{})

	files, failures, err := s.ListFiles(context.Background())

	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, []string{"backend/app/models.py", "backend/manage.py"}, files["backend"])
	assert.Equal(t, []string{"frontend/app/page.tsx"}, files["frontend"])

	joined := strings.Join(runner.commands, "\n")
	assert.Contains(t, joined, "-print")
}

func TestListFiles_PartialFailureReported(t *testing.T) {
	runner := newMockRunner()
	runner.results["backend"] = &exec.Result{Success: true, Stdout: "./manage.py\n"}
	runner.results["frontend"] = &exec.Result{Success: false, Stderr: "sh: find: not found"}
	s := newTestSearcher(runner, &mockReader{})

	files, failures, err := s.ListFiles(context.Background())

	require.NoError(t, err)
	assert.Contains(t, files, "backend")
	assert.Equal(t, "sh: find: not found", failures["frontend"])
}
